package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/todo/pkg/models"
)

var (
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(lipgloss.Color("12")).
				Bold(true)

	completedRowStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(lipgloss.Color("240")).
				Strikethrough(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 1)

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// TaskList renders a computed view as one row per task.
type TaskList struct {
	Tasks  []*models.Task
	Cursor int
	Width  int
	Height int
	Title  string
	Today  models.Date

	offset int
}

func NewTaskList(width int) *TaskList {
	return &TaskList{
		Width: width,
		Title: "Tasks",
		Today: models.Today(),
	}
}

// SetTasks replaces the rows and keeps the cursor in range.
func (l *TaskList) SetTasks(tasks []*models.Task) {
	l.Tasks = tasks
	l.clampCursor()
}

func (l *TaskList) MoveCursor(delta int) {
	l.Cursor += delta
	l.clampCursor()
}

// Selected returns the task under the cursor, or nil for an empty list.
func (l *TaskList) Selected() *models.Task {
	if l.Cursor < 0 || l.Cursor >= len(l.Tasks) {
		return nil
	}
	return l.Tasks[l.Cursor]
}

// Select moves the cursor to the task with the given id, if it is listed.
func (l *TaskList) Select(id string) bool {
	for i, t := range l.Tasks {
		if t.ID == id {
			l.Cursor = i
			return true
		}
	}
	return false
}

func (l *TaskList) clampCursor() {
	if l.Cursor >= len(l.Tasks) {
		l.Cursor = len(l.Tasks) - 1
	}
	if l.Cursor < 0 {
		l.Cursor = 0
	}
}

func (l *TaskList) View() string {
	var content string
	if len(l.Tasks) == 0 {
		content = placeholderStyle.Render("No tasks to show")
	} else {
		content = strings.Join(l.visibleRows(), "\n")
	}

	if l.Title == "" {
		return content
	}
	return listHeaderStyle.Render(l.Title) + "\n" + content
}

func (l *TaskList) visibleRows() []string {
	start, end := 0, len(l.Tasks)
	if l.Height > 0 && end > l.Height {
		if l.Cursor < l.offset {
			l.offset = l.Cursor
		} else if l.Cursor >= l.offset+l.Height {
			l.offset = l.Cursor - l.Height + 1
		}
		if l.offset > end-l.Height {
			l.offset = end - l.Height
		}
		start, end = l.offset, l.offset+l.Height
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, l.renderRow(l.Tasks[i], i == l.Cursor))
	}
	return rows
}

func (l *TaskList) renderRow(t *models.Task, selected bool) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	pointer := " "
	if selected {
		pointer = ">"
	}

	meta := RenderPriority(t.Priority)
	if t.DueDate != nil {
		due := "due " + t.DueDate.String()
		if !t.Completed && t.DueDate.Before(l.Today) {
			meta += " " + overdueStyle.Render(due)
		} else {
			meta += " " + metaStyle.Render(due)
		}
	}

	title := t.Title
	titleWidth := l.Width - lipgloss.Width(meta) - 10
	if titleWidth > 0 && lipgloss.Width(title) > titleWidth {
		title = truncate(title, titleWidth)
	}

	style := rowStyle
	switch {
	case selected:
		style = selectedRowStyle
	case t.Completed:
		style = completedRowStyle
	}
	return fmt.Sprintf("%s %s %s  %s", pointer, check, style.Render(title), meta)
}

// RenderPriority colours a priority label.
func RenderPriority(p models.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return p.String()
	}
	return style.Render(p.String())
}

func truncate(s string, width int) string {
	if width <= 1 {
		return "…"
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
