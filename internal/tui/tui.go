// Package tui provides the interactive terminal board for the counter list.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amterp/tally/internal/model"
)

// Counters is the part of the counter service the board drives.
type Counters interface {
	GetAll() []model.Counter
	AvailableColors() []string
	Add(name, initialValueText, colorName string) model.Counter
	Increment(counterID string) (model.Counter, bool)
	Decrement(counterID string) (model.Counter, bool)
	Reset(counterID string) (model.Counter, bool)
	Delete(counterID string) bool
	Subscribe() (<-chan struct{}, func())
}

// Run starts the board and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, counters Counters) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	m := New(counters)
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeConfirmDelete
)

// Fields of the add form, in tab order.
const (
	fieldName = iota
	fieldInitial
	fieldColor
	fieldCount
)

// Model is the bubbletea model for the board.
type Model struct {
	counters    Counters
	changes     <-chan struct{}
	unsubscribe func()

	list     []model.Counter
	cursor   int
	mode     mode
	status   string
	showHelp bool

	// The add form. draft mirrors the inputs and survives leaving the form.
	draft        model.Draft
	field        int
	nameInput    textinput.Model
	initialInput textinput.Model
}

type changedMsg struct{}

type closedMsg struct{}

// New creates a board over counters. Call Close when done with it.
func New(counters Counters) *Model {
	changes, unsubscribe := counters.Subscribe()
	m := &Model{
		counters:     counters,
		changes:      changes,
		unsubscribe:  unsubscribe,
		draft:        model.NewDraft(),
		nameInput:    newTextInput(model.DefaultCounterName, maxNameLength),
		initialInput: newTextInput("0", maxInitialLength),
	}
	m.loadDraft()
	m.refresh()
	return m
}

const (
	maxNameLength    = 64
	maxInitialLength = 20 // fits any int64 with its sign
)

func newTextInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 32
	return in
}

// Close stops listening for collection changes.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBrowse(msg)
		}
	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	case closedMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
	case "+", "=", "right", "l":
		m.apply(m.counters.Increment)
	case "-", "_", "left", "h":
		m.apply(m.counters.Decrement)
	case "r":
		if c, ok := m.apply(m.counters.Reset); ok {
			m.status = fmt.Sprintf("Reset %s to %d", c.Name, c.Value)
		}
	case "d", "x", "delete":
		if m.selected() != nil {
			m.mode = modeConfirmDelete
		}
	case "a", "n":
		m.mode = modeAdd
		m.field = fieldName
		m.status = ""
		return m, m.focusField()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// The draft survives so reopening the form picks up where it left off
		m.mode = modeBrowse
		m.nameInput.Blur()
		m.initialInput.Blur()
		return m, nil
	case "enter":
		m.syncDraft()
		c := m.counters.Add(m.draft.Name, m.draft.InitialText, m.draft.ColorName)
		m.draft.Reset()
		m.loadDraft()
		m.nameInput.Blur()
		m.initialInput.Blur()
		m.mode = modeBrowse
		m.refresh()
		m.cursor = len(m.list) - 1
		m.status = fmt.Sprintf("Added %s", c.Name)
		return m, nil
	case "tab", "down":
		m.field = (m.field + 1) % fieldCount
		return m, m.focusField()
	case "shift+tab", "up":
		m.field = (m.field + fieldCount - 1) % fieldCount
		return m, m.focusField()
	case "left":
		if m.field == fieldColor {
			m.cycleColor(-1)
			return m, nil
		}
	case "right":
		if m.field == fieldColor {
			m.cycleColor(1)
			return m, nil
		}
	}

	// Everything else edits the focused text input
	input := m.focusedInput()
	if input == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	m.syncDraft()
	return m, cmd
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	c := m.selected()
	if c == nil {
		return m, nil
	}
	switch msg.String() {
	case "y", "Y":
		if m.counters.Delete(c.ID) {
			m.status = fmt.Sprintf("Deleted %s", c.Name)
		}
		m.refresh()
	default:
		m.status = "Cancelled"
	}
	return m, nil
}

// apply runs op on the selected counter.
func (m *Model) apply(op func(counterID string) (model.Counter, bool)) (model.Counter, bool) {
	c := m.selected()
	if c == nil {
		return model.Counter{}, false
	}
	updated, ok := op(c.ID)
	m.refresh()
	return updated, ok
}

func (m *Model) selected() *model.Counter {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return nil
	}
	return &m.list[m.cursor]
}

// refresh re-reads the collection, keeping the cursor on the same counter
// when it still exists.
func (m *Model) refresh() {
	var selectedID string
	if c := m.selected(); c != nil {
		selectedID = c.ID
	}

	m.list = m.counters.GetAll()

	for i, c := range m.list {
		if c.ID == selectedID {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.list) {
		m.cursor = len(m.list) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) focusedInput() *textinput.Model {
	switch m.field {
	case fieldName:
		return &m.nameInput
	case fieldInitial:
		return &m.initialInput
	}
	return nil
}

// focusField moves keyboard focus to the input of the current field.
// The color field has no input; left/right cycle it instead.
func (m *Model) focusField() tea.Cmd {
	m.nameInput.Blur()
	m.initialInput.Blur()
	if input := m.focusedInput(); input != nil {
		return input.Focus()
	}
	return nil
}

func (m *Model) syncDraft() {
	m.draft.Name = m.nameInput.Value()
	m.draft.InitialText = m.initialInput.Value()
}

// loadDraft puts the draft's text back into the inputs, cursor at the end.
func (m *Model) loadDraft() {
	m.nameInput.Reset()
	m.nameInput.SetValue(m.draft.Name)
	m.initialInput.Reset()
	m.initialInput.SetValue(m.draft.InitialText)
}

func (m *Model) cycleColor(step int) {
	colors := m.counters.AvailableColors()
	if len(colors) == 0 {
		return
	}
	i := 0
	for j, name := range colors {
		if name == m.draft.ColorName {
			i = j
			break
		}
	}
	m.draft.ColorName = colors[(i+step+len(colors))%len(colors)]
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return closedMsg{}
		}
		return changedMsg{}
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Dark: "#6b7280", Light: "#9ca3af"})
	selectedStyle = lipgloss.NewStyle().Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Dark: "#f59e0b", Light: "#d97706"})
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tally") + "\n\n")

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	m.writeCounters(&b)

	switch m.mode {
	case modeAdd:
		m.writeAddForm(&b)
	case modeConfirmDelete:
		if c := m.selected(); c != nil {
			b.WriteString(warnStyle.Render(fmt.Sprintf("Delete %q? (y/N)", c.Name)) + "\n\n")
		}
	}

	if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status) + "\n\n")
	}
	writeFooter(&b, m.mode)
	return b.String()
}

func (m *Model) writeCounters(b *strings.Builder) {
	if len(m.list) == 0 {
		b.WriteString(mutedStyle.Render("  No counters yet. Press a to add one.") + "\n\n")
		return
	}

	nameWidth := 0
	for _, c := range m.list {
		nameWidth = max(nameWidth, lipgloss.Width(c.Name))
	}

	for i, c := range m.list {
		colored := lipgloss.NewStyle().Foreground(lipgloss.Color(c.ColorHex))
		marker := "  "
		name := lipgloss.NewStyle().Width(nameWidth).Render(c.Name)
		if i == m.cursor {
			marker = "› "
			name = selectedStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %s\n",
			marker,
			colored.Render("██"),
			name,
			colored.Bold(true).Render(strconv.FormatInt(c.Value, 10)),
		))
	}
	b.WriteString("\n")
}

func (m *Model) writeAddForm(b *strings.Builder) {
	b.WriteString(titleStyle.Render("New counter") + "\n")
	labels := [fieldCount]string{"Name", "Initial", "Color"}
	var values [fieldCount]string
	values[fieldName] = m.nameInput.View()
	values[fieldInitial] = m.initialInput.View()
	values[fieldColor] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(model.ColorHex(m.draft.ColorName))).
		Render("██ ") + m.draft.ColorName

	for i, label := range labels {
		marker := "  "
		if i == m.field {
			marker = "› "
		}
		b.WriteString(fmt.Sprintf("%s%-8s %s\n", marker, label+":", values[i]))
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j   Move selection\n")
	b.WriteString("  +, right/l     Increment\n")
	b.WriteString("  -, left/h      Decrement\n")
	b.WriteString("  r              Reset to initial value\n")
	b.WriteString("  d              Delete\n")
	b.WriteString("  a              Add a counter\n")
	b.WriteString("  ?              Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n\n")
}

func writeFooter(b *strings.Builder, current mode) {
	var hint string
	switch current {
	case modeAdd:
		hint = "tab next field | left/right on color cycles | enter add | esc close"
	case modeConfirmDelete:
		hint = "y confirm | any other key cancels"
	default:
		hint = "+/- change | r reset | a add | d delete | ? help | q quit"
	}
	b.WriteString(mutedStyle.Render(hint) + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
