package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/todo/internal/app"
	"github.com/ldi/todo/internal/logging"
	"github.com/ldi/todo/internal/ui/components"
	"github.com/ldi/todo/pkg/models"
)

var (
	headerTextStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)
)

// DefaultExportPath is offered when exporting from the TUI.
const DefaultExportPath = "tasks.csv"

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeConfirmDelete
	modePrompt
)

type promptAction int

const (
	promptSave promptAction = iota
	promptLoad
	promptExport
)

var promptLabels = map[promptAction]string{
	promptSave:   "Save to: ",
	promptLoad:   "Load from: ",
	promptExport: "Export CSV to: ",
}

// Model is the interactive task list. Every change goes through the App and
// the list is recomputed from ComputeView afterwards.
type Model struct {
	app     *app.App
	filter  models.StatusFilter
	query   string
	list    *components.TaskList
	details *components.Details

	mode          mode
	search        textinput.Model
	form          *Form
	prompt        textinput.Model
	promptAction  promptAction
	pendingDelete *models.Task

	status    string
	statusErr bool

	width    int
	height   int
	ready    bool
	quitting bool
}

func NewModel(a *app.App, filter models.StatusFilter) *Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search title or description"

	prompt := textinput.New()
	prompt.CharLimit = 1024

	m := &Model{
		app:     a,
		filter:  filter,
		list:    components.NewTaskList(80),
		details: components.NewDetails(40, 10),
		search:  search,
		prompt:  prompt,
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// refresh recomputes the visible list, keeping the selected task under the
// cursor when it is still visible.
func (m *Model) refresh() {
	var selectedID string
	if t := m.list.Selected(); t != nil {
		selectedID = t.ID
	}
	m.list.SetTasks(m.app.ComputeView(m.query, m.filter))
	m.list.Title = m.listTitle()
	if selectedID != "" {
		m.list.Select(selectedID)
	}
	m.details.SetTask(m.list.Selected())
}

func (m *Model) listTitle() string {
	title := fmt.Sprintf("%s tasks", m.filter)
	if strings.TrimSpace(m.query) != "" {
		title += fmt.Sprintf(" matching %q", strings.TrimSpace(m.query))
	}
	return title
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusErr = false
	if err := m.app.LastSaveError(); err != nil {
		m.setError(fmt.Errorf("autosave: %w", err))
	}
}

func (m *Model) setError(err error) {
	m.status = errorMessage(err)
	m.statusErr = true
}

// errorMessage turns boundary errors into the text shown to the user.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return "Validation: " + err.Error()
	case errors.Is(err, models.ErrNotFound):
		return "Select a task first."
	case errors.Is(err, models.ErrInvalidData):
		return "Invalid file: " + err.Error()
	case errors.Is(err, models.ErrIO):
		return "Error: " + err.Error()
	}
	return err.Error()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.recalculateLayout()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m, m.updateSearch(msg)
		case modeForm:
			return m, m.updateForm(msg)
		case modeConfirmDelete:
			return m, m.updateConfirm(msg)
		case modePrompt:
			return m, m.updatePrompt(msg)
		}
		return m.updateList(msg)
	}

	if m.mode == modeForm {
		return m, m.form.Update(msg)
	}
	return m, m.details.Update(msg)
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "j", "down":
		m.list.MoveCursor(1)
		m.details.SetTask(m.list.Selected())
	case "k", "up":
		m.list.MoveCursor(-1)
		m.details.SetTask(m.list.Selected())
	case "g", "home":
		m.list.MoveCursor(-len(m.list.Tasks))
		m.details.SetTask(m.list.Selected())
	case "G", "end":
		m.list.MoveCursor(len(m.list.Tasks))
		m.details.SetTask(m.list.Selected())

	case "a":
		m.form = NewForm(nil)
		m.mode = modeForm
		return m, textinput.Blink

	case "e":
		t := m.list.Selected()
		if t == nil {
			m.setError(&models.NotFoundError{})
			return m, nil
		}
		m.form = NewForm(t)
		m.mode = modeForm
		return m, textinput.Blink

	case "enter", " ", "x":
		m.toggleSelected()

	case "d", "delete":
		t := m.list.Selected()
		if t == nil {
			m.setError(&models.NotFoundError{})
			return m, nil
		}
		m.pendingDelete = t
		m.mode = modeConfirmDelete

	case "/":
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		m.mode = modeSearch
		return m, m.search.Focus()

	case "esc":
		if m.query != "" {
			m.query = ""
			m.refresh()
		}

	case "f":
		m.filter = m.filter.Next()
		m.refresh()

	case "s":
		return m, m.openPrompt(promptSave, m.app.DataFile())
	case "l":
		return m, m.openPrompt(promptLoad, m.app.DataFile())
	case "E":
		return m, m.openPrompt(promptExport, DefaultExportPath)

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		return m, m.details.Update(msg)
	}
	return m, nil
}

func (m *Model) toggleSelected() {
	t := m.list.Selected()
	if t == nil {
		m.setError(&models.NotFoundError{})
		return
	}
	toggled, err := m.app.ToggleTask(t.ID)
	if err != nil {
		m.setError(err)
		return
	}
	m.refresh()
	state := "active"
	if toggled.Completed {
		state = "completed"
	}
	m.setStatus(fmt.Sprintf("Marked %q %s", toggled.Title, state))
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = modeList
		return nil
	case "esc":
		m.search.Blur()
		m.search.SetValue("")
		m.query = ""
		m.mode = modeList
		m.refresh()
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query {
		m.query = m.search.Value()
		m.refresh()
	}
	return cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	cmd := m.form.Update(msg)

	switch m.form.result {
	case formCancelled:
		m.form = nil
		m.mode = modeList
		return nil

	case formSubmitted:
		var (
			t   *models.Task
			err error
		)
		if id := m.form.TaskID(); id != "" {
			t, err = m.app.EditTask(id, m.form.Fields())
		} else {
			t, err = m.app.CreateTask(m.form.Fields())
		}
		if err != nil {
			m.form.SetError(errorMessage(err))
			return nil
		}

		verb := "Added"
		if m.form.TaskID() != "" {
			verb = "Updated"
		}
		m.form = nil
		m.mode = modeList
		m.refresh()
		m.list.Select(t.ID)
		m.details.SetTask(m.list.Selected())
		m.setStatus(fmt.Sprintf("%s %q", verb, t.Title))
		return nil
	}
	return cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	t := m.pendingDelete
	switch msg.String() {
	case "y", "Y":
		m.pendingDelete = nil
		m.mode = modeList
		if err := m.app.DeleteTask(t.ID); err != nil {
			m.setError(err)
			return nil
		}
		m.refresh()
		m.setStatus(fmt.Sprintf("Deleted %q", t.Title))
	case "n", "N", "esc", "q":
		m.pendingDelete = nil
		m.mode = modeList
	}
	return nil
}

func (m *Model) openPrompt(action promptAction, value string) tea.Cmd {
	m.promptAction = action
	m.prompt.Prompt = promptLabels[action]
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.mode = modePrompt
	return m.prompt.Focus()
}

func (m *Model) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.prompt.Blur()
		m.mode = modeList
		return nil
	case "enter":
		m.prompt.Blur()
		m.mode = modeList
		m.runPrompt(strings.TrimSpace(m.prompt.Value()))
		return nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) runPrompt(path string) {
	if path == "" {
		m.setError(&models.ValidationError{Field: "path", Reason: "no file given"})
		return
	}

	switch m.promptAction {
	case promptSave:
		if err := m.app.SaveAll(path); err != nil {
			m.setError(err)
			return
		}
		m.setStatus("Saved to " + path)

	case promptLoad:
		if err := m.app.LoadAll(path); err != nil {
			m.setError(err)
			return
		}
		m.refresh()
		m.setStatus(fmt.Sprintf("Loaded %d tasks from %s", len(m.app.Tasks()), path))

	case promptExport:
		written, err := m.app.ExportCSV(path)
		if err != nil {
			m.setError(err)
			return
		}
		m.setStatus("Exported CSV to " + written)
	}
}

func (m *Model) recalculateLayout() {
	if !m.ready {
		return
	}

	listWidth := m.width * 3 / 5
	if listWidth < 30 {
		listWidth = m.width
	}
	detailsWidth := m.width - listWidth - 3

	bodyHeight := m.height - lipgloss.Height(m.renderHeader()) - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	m.list.Width = listWidth
	m.list.Height = bodyHeight - 1
	if detailsWidth > 10 {
		m.details.SetSize(detailsWidth, bodyHeight)
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.mode {
	case modeForm:
		body = m.form.View()
	default:
		body = m.renderBody()
	}

	return m.renderHeader() + "\n" + body + "\n" + m.renderFooter()
}

func (m *Model) renderHeader() string {
	c := m.app.Counts()
	stats := fmt.Sprintf("%d tasks • %d active • %d done", c.Total, c.Active, c.Completed)
	if c.Overdue > 0 {
		stats += fmt.Sprintf(" • %d overdue", c.Overdue)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		headerTextStyle.Render("todo"),
		statsStyle.Render(stats),
	)
}

func (m *Model) renderBody() string {
	list := m.list.View()
	if !m.ready || m.width-m.list.Width-3 <= 10 {
		return list
	}

	left := lipgloss.NewStyle().
		Width(m.list.Width).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color("240")).
		Render(list)
	right := lipgloss.NewStyle().PaddingLeft(1).Render(m.details.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m *Model) renderFooter() string {
	var line string
	switch m.mode {
	case modeSearch:
		line = m.search.View()
	case modePrompt:
		line = m.prompt.View()
	case modeConfirmDelete:
		line = promptStyle.Render(fmt.Sprintf("Delete %q? (y/n)", m.pendingDelete.Title))
	case modeForm:
		line = ""
	default:
		line = helpStyle.Render("a add • e edit • enter toggle • d delete • / search • f filter • s save • l load • E export • q quit")
	}

	status := ""
	if m.status != "" {
		if m.statusErr {
			status = statusErrStyle.Render(m.status)
		} else {
			status = statusOKStyle.Render(m.status)
		}
	}
	return line + "\n" + status
}

// Filter and Query expose the current view parameters.
func (m *Model) Filter() models.StatusFilter { return m.filter }
func (m *Model) Query() string               { return m.query }

// Visible returns the tasks currently listed, in display order.
func (m *Model) Visible() []*models.Task { return m.list.Tasks }

// Run starts the full-screen TUI. Logging is silenced while the alternate
// screen is active.
func Run(a *app.App, filter models.StatusFilter) error {
	prev := a.SetLogger(logging.Discard())
	defer a.SetLogger(prev)

	m := NewModel(a, filter)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
