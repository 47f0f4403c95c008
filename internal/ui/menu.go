package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ldi/todo/internal/view"
)

var (
	logoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	summaryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2)
	summaryErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).PaddingLeft(2)
	choiceStyle     = lipgloss.NewStyle().PaddingLeft(2)
	activeStyle     = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("12")).Bold(true)
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const logo = `
 ███████████           █████
░█░░░███░░░█          ░░███
░   ░███  ░   ██████   ███████   ██████
    ░███     ███░░███ ███░░███  ███░░███
    ░███    ░███ ░███░███ ░███ ░███ ░███
    ░███    ░███ ░███░███ ░███ ░███ ░███
    █████   ░░██████ ░░████████░░██████
   ░░░░░     ░░░░░░   ░░░░░░░░  ░░░░░░
`

// MenuChoice is one launcher entry. Command is what RunMenu returns.
type MenuChoice struct {
	Command     string
	Label       string
	Description string
}

// DefaultMenuChoices are the commands that make sense from an interactive
// terminal. The MCP server speaks on stdio and is left to the CLI.
var DefaultMenuChoices = []MenuChoice{
	{Command: "tui", Label: "Open tasks", Description: "browse, edit and search tasks"},
	{Command: "list", Label: "List tasks", Description: "print the task table and exit"},
	{Command: "status", Label: "Status", Description: "totals and what is due next"},
	{Command: "web", Label: "Web view", Description: "serve a read-only task page"},
	{Command: "init", Label: "Set up here", Description: "create .todo.toml and a task file in this directory"},
}

// MenuSummary describes the data file shown above the choices.
type MenuSummary struct {
	DataFile string
	Counts   view.Counts
	// Missing is set when the data file does not exist yet.
	Missing bool
	// Err is set when the data file exists but could not be read.
	Err error
}

func (s MenuSummary) String() string {
	name := filepath.Base(s.DataFile)
	switch {
	case s.DataFile == "":
		return "No data file configured"
	case s.Err != nil:
		return fmt.Sprintf("%s: %v", name, s.Err)
	case s.Missing:
		return fmt.Sprintf("%s does not exist yet; it is created on first use", name)
	}

	c := s.Counts
	line := fmt.Sprintf("%s · %d %s · %d active · %d completed", name, c.Total, plural(c.Total, "task", "tasks"), c.Active, c.Completed)
	if c.Overdue > 0 {
		line += fmt.Sprintf(" · %d overdue", c.Overdue)
	}
	return line
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// MenuModel is the launcher shown when todo runs without a command.
type MenuModel struct {
	summary  MenuSummary
	choices  []MenuChoice
	cursor   int
	selected string
	done     bool
}

func NewMenuModel(summary MenuSummary) MenuModel {
	return MenuModel{summary: summary, choices: DefaultMenuChoices}
}

func (m MenuModel) Init() tea.Cmd { return nil }

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "ctrl+c", "q", "esc":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j", "tab":
		m.cursor = min(m.cursor+1, len(m.choices)-1)
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.choices) - 1
	case "enter":
		return m.choose(m.cursor)
	default:
		// Digits pick a choice directly.
		if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(m.choices) {
			return m.choose(int(s[0] - '1'))
		}
	}
	return m, nil
}

func (m MenuModel) choose(i int) (tea.Model, tea.Cmd) {
	m.cursor = i
	m.selected = m.choices[i].Command
	m.done = true
	return m, tea.Quit
}

func (m MenuModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(logoStyle.Render(logo))
	b.WriteString("\n")

	if m.summary.Err != nil {
		b.WriteString(summaryErrStyle.Render(m.summary.String()))
	} else {
		b.WriteString(summaryStyle.Render(m.summary.String()))
	}
	b.WriteString("\n\n")

	width := 0
	for _, c := range m.choices {
		width = max(width, len(c.Label))
	}
	for i, c := range m.choices {
		row := fmt.Sprintf("%d %-*s  %s", i+1, width, c.Label, hintStyle.Render(c.Description))
		if i == m.cursor {
			b.WriteString(activeStyle.Render("> " + row))
		} else {
			b.WriteString(choiceStyle.Render("  " + row))
		}
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render("\n↑/↓ or j/k move · 1-" + fmt.Sprint(len(m.choices)) + " or enter choose · q quit"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen command, or "" if the user quit.
func (m MenuModel) Selected() string {
	return m.selected
}

// RunMenu shows the launcher and returns the chosen command, or "" when the
// user quit.
func RunMenu(summary MenuSummary) (string, error) {
	final, err := tea.NewProgram(NewMenuModel(summary)).Run()
	if err != nil {
		return "", err
	}
	return final.(MenuModel).Selected(), nil
}
