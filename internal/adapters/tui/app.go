package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"ies4ops/internal/adapters/tui/views"
	"ies4ops/internal/application"
	"ies4ops/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewEquipment ViewState = iota
	ViewRemove
	ViewHelp
)

// App is the main TUI application model
type App struct {
	runner *application.Runner
	editor ports.EditorOpener

	state     ViewState
	equipment *views.EquipmentModel
	remove    *views.RemoveModel
	help      *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application. ed may be nil.
func NewApp(runner *application.Runner, ed ports.EditorOpener) *App {
	return &App{
		runner:    runner,
		editor:    ed,
		state:     ViewEquipment,
		equipment: views.NewEquipmentModel(runner, ed != nil),
		remove:    views.NewRemoveModel(runner),
		help:      views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.equipment.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.equipment.SetSize(msg.Width, msg.Height)
		a.remove.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToEquipmentMsg:
		a.state = ViewEquipment
		return a, nil

	case views.ConfirmRemoveMsg:
		a.state = ViewRemove
		a.remove.SetTarget(msg)
		return a, a.remove.Init()

	case views.OperationDoneMsg:
		a.state = ViewEquipment
		_, cmd := a.equipment.Update(msg)
		return a, cmd

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path)

	case editorFinishedMsg:
		if msg.err != nil {
			a.equipment.SetMessage("editor: "+msg.err.Error(), true)
		}
		return a, a.equipment.Reload()
	}

	var cmd tea.Cmd
	switch a.state {
	case ViewEquipment:
		_, cmd = a.equipment.Update(msg)
	case ViewRemove:
		_, cmd = a.remove.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, err := a.editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewRemove:
		return a.remove.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.equipment.View()
	}
}

// State returns the active view
func (a *App) State() ViewState {
	return a.state
}
