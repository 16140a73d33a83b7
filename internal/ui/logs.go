package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stockgrid/internal/logtail"
)

// logTailLines bounds how much of the log file the overlay reads.
const logTailLines = 200

// logModal shows the newest log entries, newest at the bottom.
type logModal struct {
	path    string
	entries []logtail.Entry
	err     error
}

func newLogModal(path string) *logModal {
	m := &logModal{path: path}
	m.entries, m.err = logtail.Tail(path, logTailLines)
	return m
}

// Update implements Modal.
func (m *logModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Cancel), key.Matches(keyMsg, keys.Logs), key.Matches(keyMsg, keys.Quit):
		return m, nil, true
	case key.Matches(keyMsg, keys.Reload):
		m.entries, m.err = logtail.Tail(m.path, logTailLines)
	}
	return m, nil, false
}

// View implements Modal.
func (m *logModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	inner := max(width-6, 10)
	rows := max(height-6, 1)

	var lines []string
	switch {
	case m.err != nil:
		lines = append(lines, styles.DangerText.Render(truncate(m.err.Error(), inner)))
	case len(m.entries) == 0:
		lines = append(lines, styles.MutedText.Render("No log entries yet"))
	default:
		start := max(len(m.entries)-rows, 0)
		for _, e := range m.entries[start:] {
			lines = append(lines, logLevelStyle(styles, e.Level).Render(truncate(e.String(), inner)))
		}
	}

	title := styles.Text.Bold(true).Render("Log") + "  " +
		styles.FaintText.Render(truncateMiddle(m.path, inner-8))
	body := title + "\n\n" + strings.Join(lines, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(0, 1).
		Width(width - 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(body))
}

func logLevelStyle(styles Styles, level string) lipgloss.Style {
	switch level {
	case "error", "dpanic", "panic", "fatal":
		return styles.DangerText
	case "warn":
		return styles.WarningText
	case "debug":
		return styles.FaintText
	default:
		return styles.Text
	}
}
