// Package tui provides a terminal browser for one task document.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notecraft/backend"
	"notecraft/internal/actions"
	"notecraft/internal/dateexpr"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
	"notecraft/internal/views"
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeDue
	ModeFilter
	ModeHelp
	ModeConfirmDelete
)

// Options configures a Model.
type Options struct {
	Parse   markdown.Options
	Actions *actions.Actions
	// View selects and orders the rows; nil shows every task.
	View *views.View
	// Now refreshes Parse.Now on every load. Nil means time.Now.
	Now func() time.Time
}

// ReloadMsg asks the model to read the document again, e.g. after the file
// watcher saw an external change.
type ReloadMsg struct{}

// Model represents the TUI state
type Model struct {
	store backend.DocumentStore
	opts  Options
	ctx   context.Context

	// Data
	text string
	doc  *markdown.Document
	rows []markdown.Task

	cursor int
	offset int

	mode      Mode
	textInput textinput.Model
	filter    string
	err       error

	width  int
	height int

	selectedStyle  lipgloss.Style
	completedStyle lipgloss.Style
	overdueStyle   lipgloss.Style
	helpStyle      lipgloss.Style
	errorStyle     lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
}

type documentLoadedMsg struct {
	text string
}

type errMsg struct {
	err error
}

type staleMsg struct {
	err error
}

// New creates a new TUI model
func New(store backend.DocumentStore, opts Options) *Model {
	if opts.Actions == nil {
		opts.Actions = actions.New(actions.Settings{Now: opts.Now})
	}
	ti := textinput.New()
	ti.CharLimit = 256

	return &Model{
		store:     store,
		opts:      opts,
		ctx:       context.Background(),
		textInput: ti,
		mode:      ModeNormal,
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		completedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		overdueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
	}
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) now() time.Time {
	if m.opts.Now != nil {
		return m.opts.Now()
	}
	return time.Now()
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		text, err := m.store.Read(m.ctx)
		if err != nil && !errors.Is(err, backend.ErrNotFound) {
			return errMsg{err}
		}
		return documentLoadedMsg{text}
	}
}

// apply computes a batch against the current snapshot and writes it. A
// stale snapshot reloads the document and reports the failure.
func (m *Model) apply(build func(doc *markdown.Document) (*edit.Batch, error)) tea.Cmd {
	if m.doc == nil {
		return nil
	}
	b, err := build(m.doc)
	if err != nil {
		m.err = err
		return nil
	}
	snapshot := m.text
	return func() tea.Msg {
		text, err := m.store.Apply(m.ctx, snapshot, b)
		if err != nil {
			if errors.Is(err, backend.ErrStaleSnapshot) {
				return staleMsg{err}
			}
			return errMsg{err}
		}
		return documentLoadedMsg{text}
	}
}

func (m *Model) setDocument(text string) {
	opts := m.opts.Parse
	opts.Now = m.now()
	m.text = text
	m.doc = markdown.ParseDocument(text, opts)
	m.refreshRows()
}

// refreshRows applies the view, the filter and collapsed parents.
func (m *Model) refreshRows() {
	if m.doc == nil {
		m.rows = nil
		return
	}
	tasks := m.doc.Tasks
	if m.opts.View != nil {
		tasks = views.ApplyView(tasks, m.opts.View)
	}
	if m.filter != "" {
		tasks = views.Filter(tasks, m.filter)
	}

	m.rows = m.rows[:0]
	for _, t := range tasks {
		if !m.underCollapsed(&t) {
			m.rows = append(m.rows, t)
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m *Model) underCollapsed(t *markdown.Task) bool {
	for p := t.ParentLineNumber; p != nil; {
		parent := m.doc.TaskAt(*p)
		if parent == nil {
			return false
		}
		if parent.IsCollapsed {
			return true
		}
		p = parent.ParentLineNumber
	}
	return false
}

func (m *Model) selected() *markdown.Task {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

// onSelected builds a batch for the selected task's line.
func (m *Model) onSelected(fn func(doc *markdown.Document, line int) (*edit.Batch, error)) tea.Cmd {
	t := m.selected()
	if t == nil {
		return nil
	}
	line := t.LineNumber
	return m.apply(func(doc *markdown.Document) (*edit.Batch, error) {
		return fn(doc, line)
	})
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case documentLoadedMsg:
		m.setDocument(msg.text)
		return m, nil

	case ReloadMsg:
		return m, m.load()

	case errMsg:
		m.err = msg.err
		return m, nil

	case staleMsg:
		m.err = msg.err
		return m, m.load()

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd, ModeDue, ModeFilter:
			return m.handleInputMode(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		}
		m.err = nil
		return m.handleNormalMode(msg)
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.opts.Actions
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(len(m.rows)-1, 0)

	case " ", "x":
		return m, m.onSelected(a.ToggleDoneOrIncrementCount)
	case "-":
		return m, m.onSelected(a.DecrementCount)
	case "+":
		return m, m.onSelected(a.IncrementPriority)
	case "=":
		return m, m.onSelected(a.DecrementPriority)
	case "s":
		return m, m.onSelected(a.StartTask)
	case "h":
		return m, m.onSelected(a.HideTask)
	case "c":
		return m, m.onSelected(a.ToggleCollapse)
	case "C":
		return m, m.onSelected(a.ToggleCollapseRecursive)
	case "o":
		return m, m.onSelected(func(doc *markdown.Document, line int) (*edit.Batch, error) {
			return a.RemoveOverdue(doc, line)
		})
	case "d":
		if m.selected() != nil {
			m.mode = ModeConfirmDelete
		}
	case "r":
		return m, m.load()

	case "a":
		return m, m.startInput(ModeAdd, "New task...", "")
	case "u":
		if m.selected() != nil {
			return m, m.startInput(ModeDue, "Due date...", "")
		}
	case "/":
		return m, m.startInput(ModeFilter, "Filter...", m.filter)
	case "?":
		m.mode = ModeHelp
	}
	return m, nil
}

func (m *Model) startInput(mode Mode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.SetValue(value)
	m.textInput.Focus()
	return textinput.Blink
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		mode := m.mode
		value := strings.TrimSpace(m.textInput.Value())
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, m.submit(mode, value)

	case tea.KeyEsc:
		if m.mode == ModeFilter {
			m.filter = ""
			m.refreshRows()
		}
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) submit(mode Mode, value string) tea.Cmd {
	a := m.opts.Actions
	switch mode {
	case ModeFilter:
		m.filter = value
		m.cursor = 0
		m.refreshRows()
	case ModeAdd:
		if value == "" {
			return nil
		}
		return m.apply(func(doc *markdown.Document) (*edit.Batch, error) {
			return a.AddTask(doc, value)
		})
	case ModeDue:
		if value == "" {
			return nil
		}
		due := dateexpr.Resolve(value, m.now(), m.opts.Parse.Due)
		if due == "" {
			m.err = fmt.Errorf("invalid due date: %s", value)
			return nil
		}
		return m.onSelected(func(doc *markdown.Document, line int) (*edit.Batch, error) {
			return a.SetDueDate(doc, line, due)
		})
	}
	return nil
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		return m, m.onSelected(m.opts.Actions.DeleteTask)
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd:
		return m.renderInputDialog("Add Task", "Enter: add  Esc: cancel")
	case ModeDue:
		return m.renderInputDialog("Set Due Date", "Enter: set  Esc: cancel")
	case ModeFilter:
		return m.renderInputDialog("Filter Tasks", "Enter: filter  Esc: clear")
	case ModeHelp:
		return m.centerDialog(m.dialogStyle.Render(helpText))
	case ModeConfirmDelete:
		return m.renderConfirmDeleteDialog()
	}

	var b strings.Builder
	b.WriteString(m.renderTasks())
	if m.err != nil {
		b.WriteString(m.errorStyle.Render("Error: "+firstLine(m.err.Error())) + "\n")
	}
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderTasks() string {
	var b strings.Builder
	if m.doc == nil {
		b.WriteString("Loading...\n")
		return b.String()
	}
	if len(m.rows) == 0 {
		b.WriteString("No tasks\n")
		return b.String()
	}

	visible := max(m.height-2, 1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	end := min(m.offset+visible, len(m.rows))

	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(&m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderRow(t *markdown.Task, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	marker := " "
	if t.IsCollapsed && m.hasSubtasks(t) {
		marker = "▸"
	}

	text := views.FormatTask(t)
	switch {
	case selected:
		text = m.selectedStyle.Render(text)
	case t.Done:
		text = m.completedStyle.Render(text)
	case t.Overdue != "":
		text = m.overdueStyle.Render(text)
	}
	indent := strings.Repeat("  ", t.IndentLvl)
	return fmt.Sprintf("%s%4d %s%s%s", cursor, t.LineNumber+1, indent, marker, text)
}

func (m *Model) hasSubtasks(t *markdown.Task) bool {
	next := m.doc.TaskAt(t.LineNumber + 1)
	return next != nil && next.ParentLineNumber != nil && *next.ParentLineNumber == t.LineNumber
}

func (m *Model) renderStatusBar() string {
	left := m.store.Path()
	if m.doc != nil {
		left += "  " + m.doc.Stats().String()
	}

	right := "q:quit  ?:help"
	if m.filter != "" {
		right = "Filter: " + m.filter + "  " + right
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderInputDialog(title, help string) string {
	dialog := m.dialogStyle.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render(help),
	)
	return m.centerDialog(dialog)
}

const helpText = `Help - Key Bindings

Navigation:
  j/↓ k/↑  Move down/up
  g G      First/last task

Actions:
  x/space  Toggle done or count up
  -        Count down
  + =      Raise/lower priority
  s        Start timer
  u        Set due date
  o        Clear overdue marker
  h        Hide task
  c C      Collapse (C: recursive)
  a        Add task
  d        Delete task (with confirm)
  /        Filter tasks
  r        Reload document

Press any key to close`

func (m *Model) renderConfirmDeleteDialog() string {
	title := "Delete selected task?"
	if t := m.selected(); t != nil {
		title = "Delete: " + t.Title + "?"
	}
	dialog := m.dialogStyle.Render(
		title + "\n\n" +
			m.helpStyle.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// NewProgram wraps a model for the terminal. Send ReloadMsg to the program
// when the document changes on disk.
func NewProgram(store backend.DocumentStore, opts Options) *tea.Program {
	return tea.NewProgram(New(store, opts), tea.WithAltScreen())
}
