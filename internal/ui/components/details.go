package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/todo/pkg/models"
)

var (
	detailsTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	detailsLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Italic(true)

	descriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	scrollbarTrackStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("236"))

	scrollbarHandleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))
)

// Details shows the selected task in a scrollable viewport.
type Details struct {
	viewport viewport.Model
	task     *models.Task
	ready    bool
	width    int
	height   int
}

func NewDetails(width, height int) *Details {
	return &Details{
		viewport: viewport.New(width, height),
		width:    width,
		height:   height,
	}
}

func (d *Details) SetSize(width, height int) {
	d.width = width
	d.height = height
	vpWidth := width
	if width > 0 {
		vpWidth = width - 1
	}
	if !d.ready {
		d.viewport = viewport.New(vpWidth, height)
		d.ready = true
	} else {
		d.viewport.Width = vpWidth
		d.viewport.Height = height
	}
	d.updateContent()
}

// SetTask shows t, or an empty pane for nil. The scroll position resets when
// a different task is selected.
func (d *Details) SetTask(t *models.Task) {
	changed := d.task == nil || t == nil || d.task.ID != t.ID
	d.task = t
	d.updateContent()
	if changed {
		d.viewport.GotoTop()
	}
}

func (d *Details) updateContent() {
	d.viewport.SetContent(d.render())
}

func (d *Details) render() string {
	if d.task == nil {
		return placeholderStyle.Render("Nothing selected")
	}
	t := d.task

	var b strings.Builder
	b.WriteString(detailsTitleStyle.Render(t.Title))
	b.WriteString("\n\n")

	status := "active"
	if t.Completed {
		status = "completed"
	}
	due := "none"
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	fmt.Fprintf(&b, "%s %s\n", detailsLabelStyle.Render("priority:"), RenderPriority(t.Priority))
	fmt.Fprintf(&b, "%s %s\n", detailsLabelStyle.Render("due:"), due)
	fmt.Fprintf(&b, "%s %s\n", detailsLabelStyle.Render("status:"), status)
	fmt.Fprintf(&b, "%s %s\n", detailsLabelStyle.Render("id:"), t.ID)

	if t.Description != "" {
		b.WriteString("\n")
		desc := descriptionStyle
		if w := d.viewport.Width; w > 0 {
			desc = desc.Width(w)
		}
		b.WriteString(desc.Render(t.Description))
	}
	return b.String()
}

func (d *Details) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd
}

func (d *Details) View() string {
	if !d.ready {
		return ""
	}

	if d.viewport.TotalLineCount() <= d.viewport.Height {
		return d.viewport.View()
	}

	h := d.viewport.Height
	handlePos := int(float64(h-1) * d.viewport.ScrollPercent())

	var sb strings.Builder
	for i := 0; i < h; i++ {
		if i == handlePos {
			sb.WriteString(scrollbarHandleStyle.Render("┃"))
		} else {
			sb.WriteString(scrollbarTrackStyle.Render("│"))
		}
		if i < h-1 {
			sb.WriteString("\n")
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, d.viewport.View(), sb.String())
}
