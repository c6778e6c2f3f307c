package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ies4ops/internal/adapters/tui/styles"
	"ies4ops/internal/application"
	"ies4ops/internal/application/commands"
	"ies4ops/internal/domain"
)

// ConfirmKeyMap defines key bindings for confirmation views
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// RemoveModel asks before deleting records from a data file
type RemoveModel struct {
	ViewState
	runner    *application.Runner
	database  string
	equipment *domain.Equipment
	recordIDs []string
	keys      ConfirmKeyMap
}

// NewRemoveModel creates a new remove confirmation view
func NewRemoveModel(runner *application.Runner) *RemoveModel {
	return &RemoveModel{runner: runner, keys: DefaultConfirmKeys}
}

// SetTarget sets what a confirmation will remove
func (m *RemoveModel) SetTarget(msg ConfirmRemoveMsg) {
	m.database = msg.Database
	m.equipment = msg.Equipment
	m.recordIDs = msg.RecordIDs
}

// Init initializes the remove view
func (m *RemoveModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the remove view
func (m *RemoveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			return m, func() tea.Msg { return SwitchToEquipmentMsg{} }
		case key.Matches(msg, m.keys.Confirm):
			return m, m.doRemove
		}
	}

	return m, nil
}

func (m *RemoveModel) doRemove() tea.Msg {
	if m.equipment == nil {
		return OperationDoneMsg{Err: fmt.Errorf("no target selected")}
	}

	res, err := commands.NewRemoveCommand(m.runner, m.equipment.Key, m.database).Execute(context.Background())
	if err != nil {
		return OperationDoneMsg{Err: err}
	}
	return OperationDoneMsg{Message: res.Message, Warnings: res.Warnings}
}

// View renders the remove confirmation view
func (m *RemoveModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Remove Equipment"))
	b.WriteString("\n\n")

	if m.equipment != nil {
		b.WriteString(RenderLabelValue("Database", m.database))
		b.WriteString("\n")
		b.WriteString(RenderLabelValue("Equipment", m.equipment.DisplayName+" ("+m.equipment.Key+")"))
		b.WriteString("\n")
		b.WriteString(RenderLabelValue("Type", m.equipment.Kind()))
		b.WriteString("\n\n")
		for _, id := range m.recordIDs {
			b.WriteString(styles.MutedText.Render("  - " + id))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.MutedText.Render("A backup of the data file is written first."))
	b.WriteString("\n\n")
	b.WriteString(RenderConfirmPrompt(fmt.Sprintf("Remove %d record(s)?", len(m.recordIDs))))

	return styles.App.Render(b.String())
}

// RenderConfirmPrompt renders the standard confirmation prompt
func RenderConfirmPrompt(question string) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}
