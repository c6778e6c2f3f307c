package views

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ies4ops/internal/adapters/filesystem"
	"ies4ops/internal/application"
	"ies4ops/internal/catalog"
	"ies4ops/internal/domain"
	"ies4ops/internal/logger"
)

func newTestRunner(t *testing.T) *application.Runner {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "odesa_oblast.json"), []byte(`{"vehicles": [], "vehicleTypes": []}`), 0644); err != nil {
		t.Fatalf("write data file: %v", err)
	}
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return application.NewRunner(application.Dependencies{
		Locator: filesystem.NewLocator([]string{dir}, dir),
		Store:   filesystem.NewStore(filesystem.WithStoreLogger(logger.Discard())),
		Catalog: cat,
		Registry: domain.NewRegistry(
			domain.Database{Code: "OP3", DataFile: "zaporizhzhia_oblast.json"},
			domain.Database{Code: "OP7", DataFile: "odesa_oblast.json", DisplayName: "Odesa Oblast"},
		),
		Logger: logger.Discard(),
	}, application.Options{DefaultDatabase: "OP7"})
}

// runCmd executes cmd and feeds every resulting message back into m,
// dropping spinner ticks
func runCmd(m tea.Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			runCmd(m, c)
		}
	case spinner.TickMsg, nil:
	default:
		_, next := m.Update(msg)
		runCmd(m, next)
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) {
	for _, k := range keys {
		_, cmd := m.Update(keyMsg(k))
		runCmd(m, cmd)
	}
}

// filterTo narrows the list without running the cursor blink command
func filterTo(m *EquipmentModel, query string) {
	m.Update(keyMsg("/"))
	for _, r := range query {
		m.Update(keyMsg(string(r)))
	}
	m.Update(keyMsg("enter"))
}

func newLoadedModel(t *testing.T) *EquipmentModel {
	t.Helper()
	m := NewEquipmentModel(newTestRunner(t), false)
	runCmd(m, m.Init())
	return m
}

func TestEquipmentModel_StartsOnDefaultDatabase(t *testing.T) {
	m := newLoadedModel(t)

	if m.Database() != "OP7" {
		t.Errorf("expected OP7, got %s", m.Database())
	}
	if len(m.rows) != 7 {
		t.Fatalf("expected 7 catalog rows, got %d", len(m.rows))
	}
	for _, p := range m.rows {
		if p.Present() {
			t.Errorf("%s should not be present", p.Equipment.Key)
		}
	}

	view := m.View()
	for _, want := range []string{"IES4 Operations", "OP7", "shahed136", "odesa_oblast.json"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestEquipmentModel_FilterAndAdd(t *testing.T) {
	m := newLoadedModel(t)

	filterTo(m, "shahed")
	if len(m.rows) != 1 || m.rows[0].Equipment.Key != "shahed136" {
		t.Fatalf("filter rows = %+v", m.rows)
	}

	press(m, "a")

	if m.busy {
		t.Error("model should not be busy after the operation finished")
	}
	if m.MessageErr || !strings.Contains(m.Message, "Added HESA Shahed 136 in OP7") {
		t.Errorf("message = %q", m.Message)
	}
	if !m.rows[0].Present() {
		t.Error("shahed136 should be present after add")
	}

	// esc clears the filter
	m.Update(keyMsg("/"))
	m.Update(keyMsg("esc"))
	if len(m.rows) != 7 {
		t.Errorf("expected full list, got %d rows", len(m.rows))
	}
}

func TestEquipmentModel_RemoveRequiresPresence(t *testing.T) {
	m := newLoadedModel(t)

	_, cmd := m.Update(keyMsg("d"))
	if cmd != nil {
		t.Error("absent equipment should not ask for confirmation")
	}
	if !m.MessageErr || !strings.Contains(m.Message, "is not in OP7") {
		t.Errorf("message = %q", m.Message)
	}
}

func TestEquipmentModel_CopyRecordID(t *testing.T) {
	m := newLoadedModel(t)
	var copied string
	m.writeClip = func(s string) error {
		copied = s
		return nil
	}

	filterTo(m, "orlan")
	press(m, "y")

	if copied != "uav-orlan10-drone-op7-001" {
		t.Errorf("copied %q", copied)
	}
}

func TestEquipmentModel_SwitchDatabase(t *testing.T) {
	m := newLoadedModel(t)

	press(m, "tab")
	if m.Database() != "OP3" {
		t.Fatalf("expected OP3, got %s", m.Database())
	}
	if !m.MessageErr {
		t.Error("missing OP3 file should be reported")
	}
	if len(m.rows) != 0 {
		t.Errorf("expected no rows, got %d", len(m.rows))
	}

	press(m, "shift+tab")
	if m.Database() != "OP7" || len(m.rows) != 7 {
		t.Errorf("back on %s with %d rows", m.Database(), len(m.rows))
	}
}

func TestEquipmentModel_StaleLoadIgnored(t *testing.T) {
	m := newLoadedModel(t)

	m.Update(inspectLoadedMsg{database: "OP3", err: os.ErrNotExist})
	if m.MessageErr || len(m.rows) != 7 {
		t.Error("answer for another database must not replace the list")
	}
}

func TestEquipmentModel_ReloadRereadsFile(t *testing.T) {
	m := newLoadedModel(t)
	m.SetMessage("old", true)

	body := `{"vehicles": [{"id": "uav-shahed136-drone-op7-001", "type": "loitering-munition"}], "vehicleTypes": []}`
	if err := os.WriteFile(m.result.DataFile, []byte(body), 0644); err != nil {
		t.Fatalf("rewrite data file: %v", err)
	}

	press(m, "r")
	if m.Message != "" {
		t.Errorf("message should be cleared, got %q", m.Message)
	}
	present := 0
	for _, p := range m.rows {
		if p.Present() {
			present++
			if p.Equipment.Key != "shahed136" {
				t.Errorf("unexpected present row %s", p.Equipment.Key)
			}
		}
	}
	if present != 1 {
		t.Errorf("expected shahed136 present after reload, %d rows present", present)
	}
}

func TestEquipmentModel_ServiceReloadWithoutService(t *testing.T) {
	m := newLoadedModel(t)

	press(m, "R")
	if !m.MessageErr || !strings.Contains(m.Message, "disabled") {
		t.Errorf("message = %q", m.Message)
	}
}

func TestRemoveModel_Cancel(t *testing.T) {
	m := NewRemoveModel(newTestRunner(t))

	_, cmd := m.Update(keyMsg("n"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(SwitchToEquipmentMsg); !ok {
		t.Error("cancel should return to the equipment view")
	}
}

func TestRemoveModel_NoTarget(t *testing.T) {
	m := NewRemoveModel(newTestRunner(t))

	_, cmd := m.Update(keyMsg("y"))
	done, ok := cmd().(OperationDoneMsg)
	if !ok || done.Err == nil {
		t.Errorf("expected error, got %+v", done)
	}
}

func TestVisibleRange(t *testing.T) {
	m := &EquipmentModel{rows: make([]application.Presence, 30)}

	m.Height = 0
	if s, e := m.visibleRange(); s != 0 || e != 30 {
		t.Errorf("unbounded height: %d-%d", s, e)
	}

	m.Height = 24 // room for 10
	m.cursor = 29
	if s, e := m.visibleRange(); e != 30 || e-s != 10 {
		t.Errorf("cursor at end: %d-%d", s, e)
	}

	m.cursor = 0
	if s, e := m.visibleRange(); s != 0 || e != 10 {
		t.Errorf("cursor at start: %d-%d", s, e)
	}
}
