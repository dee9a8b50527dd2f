// SPDX-License-Identifier: MIT
// Grounded on client/cmd/tui.go's bubbletea Model/Update/View shape,
// generalized from a one-shot search prompt to a polling task monitor:
// 'r' refreshes the task list, up/down/j/k move the selection, 'a'
// force-starts the selected pending task, 'x' stops the selected live
// task, 'q'/ctrl+c quits.
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	tuiTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tuiSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	tuiHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tuiErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	tuiStatusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type tuiTaskRow struct {
	ID        int64   `json:"ID"`
	Command   string  `json:"Command"`
	StartTime *string `json:"StartTime"`
	EndTime   *string `json:"EndTime"`
}

func (r tuiTaskRow) state() string {
	switch {
	case r.EndTime != nil:
		return "finished"
	case r.StartTime != nil:
		return "running"
	default:
		return "pending"
	}
}

type tuiRefreshMsg struct {
	rows []tuiTaskRow
	err  error
}

type tuiModel struct {
	rows     []tuiTaskRow
	selected int
	lastErr  error
	loading  bool
	quitting bool
}

func (m tuiModel) Init() tea.Cmd {
	return tuiRefreshCmd()
}

func tuiRefreshCmd() tea.Cmd {
	return func() tea.Msg {
		data, err := client.ListTasks("", "", "")
		if err != nil {
			return tuiRefreshMsg{err: err}
		}
		var rows []tuiTaskRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return tuiRefreshMsg{err: err}
		}
		return tuiRefreshMsg{rows: rows}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, tuiRefreshCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case "a":
			if m.selected < len(m.rows) {
				id := m.rows[m.selected].ID
				return m, func() tea.Msg {
					client.StartTask(id)
					return nil
				}
			}
		case "x":
			if m.selected < len(m.rows) {
				id := m.rows[m.selected].ID
				return m, func() tea.Msg {
					client.StopTask(id)
					return nil
				}
			}
		}

	case tuiRefreshMsg:
		m.loading = false
		m.lastErr = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			if m.selected >= len(m.rows) {
				m.selected = len(m.rows) - 1
			}
		}
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(tuiTitleStyle.Render("queued task monitor") + "\n\n")

	if m.loading {
		b.WriteString(tuiStatusStyle.Render("refreshing...") + "\n\n")
	} else if m.lastErr != nil {
		b.WriteString(tuiErrorStyle.Render("error: "+m.lastErr.Error()) + "\n\n")
	}

	if len(m.rows) == 0 {
		b.WriteString("(no tasks)\n\n")
	}
	for i, row := range m.rows {
		line := fmt.Sprintf("#%-6d %-8s %s", row.ID, row.state(), row.Command)
		if i == m.selected {
			b.WriteString(tuiSelectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + tuiHelpStyle.Render("r:refresh  a:start  x:stop  j/k:move  q:quit"))
	return b.String()
}

func runTUI() error {
	p := tea.NewProgram(tuiModel{loading: true}, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
