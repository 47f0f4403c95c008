package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/todo/internal/ui/components"
	"github.com/ldi/todo/pkg/models"
)

var (
	formTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(13).
			Foreground(lipgloss.Color("241"))

	focusedLabelStyle = labelStyle.Copy().
				Foreground(lipgloss.Color("12")).
				Bold(true)

	formErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	formBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDue
	fieldPriority
	fieldCompleted
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Due", "Priority", "Completed"}

type formResult int

const (
	formPending formResult = iota
	formSubmitted
	formCancelled
)

// Form edits the fields of a single task. The priority and completed fields
// are pickers; the others are text inputs.
type Form struct {
	heading   string
	taskID    string
	inputs    [fieldDue + 1]textinput.Model
	priority  models.Priority
	completed bool
	focus     int
	err       string
	result    formResult
}

// NewForm starts an empty add form, or an edit form when t is non-nil.
func NewForm(t *models.Task) *Form {
	f := &Form{
		heading:  "New task",
		priority: models.PriorityMedium,
	}

	placeholders := [...]string{"What needs doing?", "optional", models.DateLayout}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 512
		f.inputs[i] = in
	}

	if t != nil {
		fields := models.FieldsOf(t)
		f.heading = "Edit task"
		f.taskID = t.ID
		f.inputs[fieldTitle].SetValue(fields.Title)
		f.inputs[fieldDescription].SetValue(fields.Description)
		f.inputs[fieldDue].SetValue(fields.DueDate)
		f.priority = t.Priority
		f.completed = t.Completed
	}

	f.setFocus(fieldTitle)
	return f
}

// TaskID is empty for an add form.
func (f *Form) TaskID() string {
	return f.taskID
}

// Fields returns the form contents as unvalidated task fields.
func (f *Form) Fields() models.TaskFields {
	completed := f.completed
	return models.TaskFields{
		Title:       f.inputs[fieldTitle].Value(),
		Description: f.inputs[fieldDescription].Value(),
		DueDate:     f.inputs[fieldDue].Value(),
		Priority:    f.priority.String(),
		Completed:   &completed,
	}
}

// SetError shows a validation message and keeps the form open.
func (f *Form) SetError(msg string) {
	f.err = msg
	f.result = formPending
}

func (f *Form) setFocus(i int) {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *Form) cyclePriority(delta int) {
	n := len(models.Priorities)
	for i, p := range models.Priorities {
		if p == f.priority {
			f.priority = models.Priorities[((i+delta)%n+n)%n]
			return
		}
	}
	f.priority = models.PriorityMedium
}

func (f *Form) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if f.focus < len(f.inputs) {
			var cmd tea.Cmd
			f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
			return cmd
		}
		return nil
	}

	switch key.String() {
	case "esc":
		f.result = formCancelled
		return nil
	case "enter", "ctrl+s":
		f.result = formSubmitted
		return nil
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return nil
	}

	switch f.focus {
	case fieldPriority:
		switch key.String() {
		case "left", "h", "-":
			f.cyclePriority(-1)
		case "right", "l", "+", " ":
			f.cyclePriority(1)
		}
		return nil
	case fieldCompleted:
		switch key.String() {
		case " ", "x", "left", "right":
			f.completed = !f.completed
		}
		return nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *Form) View() string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render(f.heading))
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		label := labelStyle
		if i == f.focus {
			label = focusedLabelStyle
		}
		b.WriteString(label.Render(fieldLabels[i]))

		switch i {
		case fieldPriority:
			fmt.Fprintf(&b, "< %s >", components.RenderPriority(f.priority))
		case fieldCompleted:
			if f.completed {
				b.WriteString("[x]")
			} else {
				b.WriteString("[ ]")
			}
		default:
			b.WriteString(f.inputs[i].View())
		}
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(formErrorStyle.Render(f.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/shift+tab move • ←/→ change • enter save • esc cancel"))
	return formBoxStyle.Render(b.String())
}
