package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ies4ops/internal/adapters/tui/styles"
	"ies4ops/internal/application"
	"ies4ops/internal/application/commands"
	"ies4ops/internal/domain"
)

// EquipmentKeyMap defines key bindings for the equipment view
type EquipmentKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextDB  key.Binding
	PrevDB  key.Binding
	Add     key.Binding
	Remove  key.Binding
	Copy    key.Binding
	Edit    key.Binding
	Reload  key.Binding
	Service key.Binding
	Filter  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var EquipmentKeys = EquipmentKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextDB: key.NewBinding(
		key.WithKeys("tab", "l", "right"),
		key.WithHelp("tab", "next db"),
	),
	PrevDB: key.NewBinding(
		key.WithKeys("shift+tab", "h", "left"),
		key.WithHelp("shift+tab", "prev db"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Remove: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "remove"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy id"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit file"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload file"),
	),
	Service: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reload service"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// EquipmentModel lists the catalog against one database at a time
type EquipmentModel struct {
	ViewState
	runner    *application.Runner
	databases []domain.Database
	dbIndex   int

	result   *application.InspectResult
	rows     []application.Presence
	cursor   int
	warnings []string

	filter    textinput.Model
	filtering bool

	busy    bool
	spinner spinner.Model

	canEdit   bool
	writeClip func(string) error
}

type inspectLoadedMsg struct {
	database string
	result   *application.InspectResult
	err      error
}

// NewEquipmentModel creates the equipment view, starting at the runner's
// default database
func NewEquipmentModel(runner *application.Runner, canEdit bool) *EquipmentModel {
	ti := textinput.New()
	ti.Placeholder = "filter catalog..."
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &EquipmentModel{
		runner:    runner,
		databases: runner.Registry().All(),
		filter:    ti,
		spinner:   sp,
		canEdit:   canEdit,
		writeClip: clipboard.WriteAll,
	}
	for i, db := range m.databases {
		if strings.EqualFold(db.Code, runner.DefaultDatabase()) {
			m.dbIndex = i
			break
		}
	}
	return m
}

// Init loads the selected database
func (m *EquipmentModel) Init() tea.Cmd {
	return m.Reload()
}

// Database returns the selected database code
func (m *EquipmentModel) Database() string {
	if len(m.databases) == 0 {
		return ""
	}
	return m.databases[m.dbIndex].Code
}

// Reload re-reads the selected database file
func (m *EquipmentModel) Reload() tea.Cmd {
	runner, db := m.runner, m.Database()
	return func() tea.Msg {
		res, err := commands.NewListEquipmentCommand(runner, db).Execute(context.Background())
		return inspectLoadedMsg{database: db, result: res, err: err}
	}
}

// Update handles messages for the equipment view
func (m *EquipmentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case inspectLoadedMsg:
		if msg.database != m.Database() {
			// stale answer for a database we already left
			return m, nil
		}
		if msg.err != nil {
			m.result = nil
			m.rows = nil
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.result = msg.result
		m.applyFilter()
		return m, nil

	case OperationDoneMsg:
		m.busy = false
		m.warnings = msg.Warnings
		if msg.Err != nil {
			m.SetMessage(msg.Err.Error(), true)
		} else {
			m.SetMessage(msg.Message, false)
		}
		return m, m.Reload()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *EquipmentModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *EquipmentModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, EquipmentKeys.Quit) {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	m.ClearMessage()

	switch {
	case key.Matches(msg, EquipmentKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, EquipmentKeys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, EquipmentKeys.NextDB):
		return m, m.switchDatabase(1)

	case key.Matches(msg, EquipmentKeys.PrevDB):
		return m, m.switchDatabase(-1)

	case key.Matches(msg, EquipmentKeys.Filter):
		m.filtering = true
		return m, m.filter.Focus()

	case key.Matches(msg, EquipmentKeys.Help):
		return m, func() tea.Msg { return SwitchToHelpMsg{} }

	case key.Matches(msg, EquipmentKeys.Add):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.busy = true
		m.warnings = nil
		return m, tea.Batch(m.spinner.Tick, m.add(p.Equipment))

	case key.Matches(msg, EquipmentKeys.Remove):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !p.Present() {
			m.SetMessage(fmt.Sprintf("%s is not in %s", p.Equipment.DisplayName, m.Database()), true)
			return m, nil
		}
		db := m.Database()
		return m, func() tea.Msg {
			return ConfirmRemoveMsg{Database: db, Equipment: p.Equipment, RecordIDs: p.RecordIDs}
		}

	case key.Matches(msg, EquipmentKeys.Copy):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		id := p.Equipment.RecordFor(m.Database()).ID()
		if len(p.RecordIDs) > 0 {
			id = p.RecordIDs[0]
		}
		if err := m.writeClip(id); err != nil {
			m.SetMessage(fmt.Sprintf("clipboard: %v", err), true)
		} else {
			m.SetMessage("Copied "+id, false)
		}
		return m, nil

	case key.Matches(msg, EquipmentKeys.Edit):
		if !m.canEdit || m.result == nil {
			return m, nil
		}
		path := m.result.DataFile
		return m, func() tea.Msg { return OpenEditorMsg{Path: path} }

	case key.Matches(msg, EquipmentKeys.Reload):
		m.ClearMessage()
		m.warnings = nil
		return m, m.Reload()

	case key.Matches(msg, EquipmentKeys.Service):
		if !m.runner.ServiceEnabled() {
			m.SetMessage("analysis service is disabled", true)
			return m, nil
		}
		m.busy = true
		m.warnings = nil
		return m, tea.Batch(m.spinner.Tick, m.reloadService())
	}

	return m, nil
}

func (m *EquipmentModel) switchDatabase(delta int) tea.Cmd {
	if len(m.databases) == 0 {
		return nil
	}
	n := len(m.databases)
	m.dbIndex = ((m.dbIndex+delta)%n + n) % n
	m.result = nil
	m.rows = nil
	m.cursor = 0
	m.warnings = nil
	return m.Reload()
}

func (m *EquipmentModel) add(eq *domain.Equipment) tea.Cmd {
	runner, db := m.runner, m.Database()
	return func() tea.Msg {
		res, err := commands.NewAddCommand(runner, eq.Key, db).Execute(context.Background())
		if err != nil {
			return OperationDoneMsg{Err: err}
		}
		return OperationDoneMsg{Message: res.Message, Warnings: res.Warnings}
	}
}

func (m *EquipmentModel) reloadService() tea.Cmd {
	runner, db := m.runner, m.Database()
	return func() tea.Msg {
		res, err := commands.NewServiceReloadCommand(runner, db).Execute(context.Background())
		if err != nil {
			return OperationDoneMsg{Err: err}
		}
		return OperationDoneMsg{Message: res.Message, Warnings: res.Warnings}
	}
}

func (m *EquipmentModel) selected() (application.Presence, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return application.Presence{}, false
	}
	return m.rows[m.cursor], true
}

// applyFilter rebuilds rows from the last result, ranked by the filter
func (m *EquipmentModel) applyFilter() {
	m.rows = nil
	if m.result == nil {
		return
	}

	query := strings.TrimSpace(m.filter.Value())
	if query == "" {
		m.rows = append(m.rows, m.result.Equipment...)
	} else {
		byKey := make(map[string]application.Presence, len(m.result.Equipment))
		entries := make([]*domain.Equipment, 0, len(m.result.Equipment))
		for _, p := range m.result.Equipment {
			byKey[p.Equipment.Key] = p
			entries = append(entries, p.Equipment)
		}
		for _, r := range commands.FuzzySort(entries, query) {
			m.rows = append(m.rows, byKey[r.Equipment.Key])
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

// View renders the equipment view
func (m *EquipmentModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("IES4 Operations"))
	b.WriteString("\n")
	b.WriteString(m.renderDatabase())
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if m.result != nil {
		b.WriteString(styles.MutedText.Render(m.result.DataFile))
		b.WriteString("\n")
		b.WriteString(m.renderCounts())
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderRows())
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spinner.View() + " working...")
		b.WriteString("\n")
	}
	if m.Message != "" {
		b.WriteString(RenderMessage(m.Message, m.MessageErr))
		b.WriteString("\n")
	}
	b.WriteString(RenderWarnings(m.warnings))
	b.WriteString("\n")

	edit := EquipmentKeys.Edit
	edit.SetEnabled(m.canEdit)
	b.WriteString(RenderHelpLine(
		EquipmentKeys.NextDB, EquipmentKeys.Add, EquipmentKeys.Remove,
		EquipmentKeys.Copy, edit, EquipmentKeys.Reload, EquipmentKeys.Filter, EquipmentKeys.Help, EquipmentKeys.Quit,
	))

	return styles.App.Render(b.String())
}

func (m *EquipmentModel) renderDatabase() string {
	if len(m.databases) == 0 {
		return styles.ErrorMsg.Render("no databases configured")
	}
	db := m.databases[m.dbIndex]
	label := db.Code
	if db.DisplayName != "" {
		label += "  " + db.DisplayName
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		styles.DatabaseArrow.Render("◀ "),
		styles.DatabaseActive.Render(label),
		styles.DatabaseArrow.Render(fmt.Sprintf(" ▶  %d/%d", m.dbIndex+1, len(m.databases))),
	)
}

func (m *EquipmentModel) renderCounts() string {
	names := application.SortedCounts(m.result.Counts)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", name, m.result.Counts[name]))
	}
	return styles.MutedText.Render(strings.Join(parts, "  "))
}

func (m *EquipmentModel) renderRows() string {
	if len(m.rows) == 0 {
		if m.result == nil {
			return styles.MutedText.Render("loading...")
		}
		return styles.MutedText.Render("no matching equipment")
	}

	start, end := m.visibleRange()
	var b strings.Builder
	for i := start; i < end; i++ {
		p := m.rows[i]
		mark, style := styles.MarkAbsent, styles.RowAbsent
		if p.Present() {
			mark, style = styles.MarkPresent, styles.RowPresent
		}

		line := mark + padRight(p.Equipment.Key, 22) + p.Equipment.DisplayName
		switch {
		case i == m.cursor:
			line = styles.RowSelected.Render(line)
		default:
			line = style.Render(line)
		}
		b.WriteString(line)

		if len(p.RecordIDs) > 0 {
			b.WriteString(styles.MutedText.Render("  " + strings.Join(p.RecordIDs, ", ")))
		} else if p.TypeDefined {
			b.WriteString(styles.MutedText.Render("  type only"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// visibleRange keeps the cursor on screen when the list is taller than
// the window
func (m *EquipmentModel) visibleRange() (int, int) {
	// title, database, path, counts, help and padding
	room := m.Height - 14
	if room <= 0 || room >= len(m.rows) {
		return 0, len(m.rows)
	}
	start := m.cursor - room/2
	start = max(0, min(start, len(m.rows)-room))
	return start, start + room
}
