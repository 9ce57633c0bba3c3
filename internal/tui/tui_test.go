package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/service"
	"github.com/amterp/tally/internal/store"
	"github.com/amterp/tally/testutil"
)

func setupModel(t *testing.T) (*Model, *service.CounterService) {
	t.Helper()
	counters := service.NewCounterService(store.NewCounterStore(testutil.NewTestPaths(t.TempDir())))
	t.Cleanup(func() { counters.Close() })

	m := New(counters)
	t.Cleanup(m.Close)
	return m, counters
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func space() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func press(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestModel_IncrementDecrementReset(t *testing.T) {
	m, counters := setupModel(t)
	c := counters.Add("Laps", "10", "Red")
	m.refresh()

	press(m, runes("+"), runes("+"), runes("-"))
	got, _ := counters.Get(c.ID)
	if got.Value != 11 {
		t.Errorf("Value = %d, want 11", got.Value)
	}

	press(m, runes("r"))
	got, _ = counters.Get(c.ID)
	if got.Value != 10 {
		t.Errorf("Value after reset = %d, want 10", got.Value)
	}
	if !strings.Contains(m.status, "Reset Laps") {
		t.Errorf("status = %q, want reset message", m.status)
	}
}

func TestModel_CursorTargetsSelectedCounter(t *testing.T) {
	m, counters := setupModel(t)
	first := counters.Add("First", "0", "")
	second := counters.Add("Second", "0", "")
	m.refresh()

	press(m, tea.KeyMsg{Type: tea.KeyDown}, runes("+"))

	if got, _ := counters.Get(first.ID); got.Value != 0 {
		t.Errorf("first.Value = %d, want 0", got.Value)
	}
	if got, _ := counters.Get(second.ID); got.Value != 1 {
		t.Errorf("second.Value = %d, want 1", got.Value)
	}

	// Cursor stops at the last counter
	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestModel_AddResetsDraft(t *testing.T) {
	m, counters := setupModel(t)

	press(m, runes("a"), runes("Push"), space(), runes("ups"))
	press(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyBackspace}, runes("25"))
	press(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyRight})
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	all := counters.GetAll()
	if len(all) != 1 {
		t.Fatalf("Expected 1 counter, got %d", len(all))
	}
	c := all[0]
	if c.Name != "Push ups" || c.InitialValue != 25 || c.Value != 25 || c.ColorName != "Red" {
		t.Errorf("Unexpected counter %+v", c)
	}

	if m.draft != model.NewDraft() {
		t.Errorf("draft = %+v, want defaults after add", m.draft)
	}
	if m.nameInput.Value() != "" || m.initialInput.Value() != "0" {
		t.Errorf("inputs = %q/%q, want cleared to defaults", m.nameInput.Value(), m.initialInput.Value())
	}
	if m.nameInput.Focused() || m.initialInput.Focused() {
		t.Error("inputs should lose focus when the form closes")
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want the new counter", m.cursor)
	}
}

func TestModel_AddWithDefaults(t *testing.T) {
	m, counters := setupModel(t)

	press(m, runes("a"), tea.KeyMsg{Type: tea.KeyEnter})

	all := counters.GetAll()
	if len(all) != 1 {
		t.Fatalf("Expected 1 counter, got %d", len(all))
	}
	if all[0].Name != model.DefaultCounterName || all[0].Value != 0 || all[0].ColorName != model.DefaultColorName {
		t.Errorf("Unexpected counter %+v", all[0])
	}
}

func TestModel_EscapeKeepsDraft(t *testing.T) {
	m, counters := setupModel(t)

	press(m, runes("a"), runes("Draft"), tea.KeyMsg{Type: tea.KeyEsc})

	if len(counters.GetAll()) != 0 {
		t.Error("Escape should not add a counter")
	}
	if m.draft.Name != "Draft" {
		t.Errorf("draft.Name = %q, want it kept", m.draft.Name)
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}

	// Reopening continues the same text
	press(m, runes("a"), runes("s"), tea.KeyMsg{Type: tea.KeyEnter})
	all := counters.GetAll()
	if len(all) != 1 || all[0].Name != "Drafts" {
		t.Errorf("counters = %+v, want one named Drafts", all)
	}
}

func TestModel_AddEditsMidString(t *testing.T) {
	m, counters := setupModel(t)

	press(m, runes("a"), runes("Lap"), tea.KeyMsg{Type: tea.KeyLeft}, runes("m"))
	if m.draft.Name != "Lamp" {
		t.Fatalf("draft.Name = %q, want Lamp", m.draft.Name)
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnd}, runes("s"), tea.KeyMsg{Type: tea.KeyEnter})
	all := counters.GetAll()
	if len(all) != 1 || all[0].Name != "Lamps" {
		t.Errorf("counters = %+v, want one named Lamps", all)
	}
}

func TestModel_NameLengthIsCapped(t *testing.T) {
	m, _ := setupModel(t)

	press(m, runes("a"), runes(strings.Repeat("x", maxNameLength+10)))
	if got := len([]rune(m.draft.Name)); got != maxNameLength {
		t.Errorf("name length = %d, want %d", got, maxNameLength)
	}
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, counters := setupModel(t)
	counters.Add("Keep", "0", "")
	m.refresh()

	press(m, runes("d"), runes("n"))
	if len(counters.GetAll()) != 1 {
		t.Fatal("Counter deleted without confirmation")
	}
	if m.status != "Cancelled" {
		t.Errorf("status = %q, want Cancelled", m.status)
	}

	press(m, runes("d"), runes("y"))
	if len(counters.GetAll()) != 0 {
		t.Error("Counter not deleted after confirmation")
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 on empty list", m.cursor)
	}
}

func TestModel_KeysOnEmptyListAreNoops(t *testing.T) {
	m, counters := setupModel(t)

	press(m, runes("+"), runes("-"), runes("r"), runes("d"))

	if len(counters.GetAll()) != 0 {
		t.Error("Expected no counters")
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse (nothing to delete)", m.mode)
	}
}

func TestModel_ChangedMsgRefreshesList(t *testing.T) {
	m, counters := setupModel(t)

	// Another surface (e.g. the HTTP API) adds a counter
	counters.Add("Elsewhere", "3", "Teal")

	_, cmd := m.Update(changedMsg{})
	if cmd == nil {
		t.Error("Expected the board to keep listening for changes")
	}
	if len(m.list) != 1 || m.list[0].Name != "Elsewhere" {
		t.Errorf("list = %+v, want the new counter", m.list)
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := setupModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestModel_View(t *testing.T) {
	m, counters := setupModel(t)

	if !strings.Contains(m.View(), "No counters yet") {
		t.Error("Expected empty-state hint")
	}

	counters.Add("Laps", "42", "Green")
	m.refresh()
	view := m.View()
	for _, want := range []string{"Laps", "42"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q:\n%s", want, view)
		}
	}

	press(m, runes("a"))
	if !strings.Contains(m.View(), "New counter") {
		t.Error("Expected add form in view")
	}
}

func TestCycleColorWraps(t *testing.T) {
	m, _ := setupModel(t)

	m.draft.ColorName = model.DefaultColorName
	m.cycleColor(-1)
	if m.draft.ColorName != "Indigo" {
		t.Errorf("ColorName = %q, want Indigo", m.draft.ColorName)
	}
	m.cycleColor(1)
	if m.draft.ColorName != model.DefaultColorName {
		t.Errorf("ColorName = %q, want %s", m.draft.ColorName, model.DefaultColorName)
	}
}
