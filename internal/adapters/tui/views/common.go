package views

import "ies4ops/internal/domain"

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// SwitchToHelpMsg opens the help view
type SwitchToHelpMsg struct{}

// SwitchToEquipmentMsg returns to the equipment view
type SwitchToEquipmentMsg struct{}

// ConfirmRemoveMsg asks the app to confirm removing equipment
type ConfirmRemoveMsg struct {
	Database  string
	Equipment *domain.Equipment
	RecordIDs []string
}

// OpenEditorMsg asks the app to open a data file in the editor
type OpenEditorMsg struct {
	Path string
}

// OperationDoneMsg reports the outcome of an add, remove or reload
type OperationDoneMsg struct {
	Message  string
	Warnings []string
	Err      error
}
