package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stockgrid/internal/searchform"
)

// searchSubmitMsg carries validated criteria out of the search modal.
type searchSubmitMsg struct {
	criteria searchform.Criteria
}

// searchModal edits the product and price criteria.
type searchModal struct {
	inputs [2]textinput.Model // product, max price
	focus  int
	err    string
}

func newSearchModal(c searchform.Criteria) *searchModal {
	m := &searchModal{}
	labels := [2]string{"any product", "any price"}
	values := [2]string{c.ProductSearch, c.PriceSearch}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = labels[i]
		ti.CharLimit = 40
		ti.Width = 28
		ti.SetValue(values[i])
		m.inputs[i] = ti
	}
	m.inputs[0].Focus()
	return m
}

func (m *searchModal) criteria() searchform.Criteria {
	return searchform.Criteria{
		ProductSearch: strings.TrimSpace(m.inputs[0].Value()),
		PriceSearch:   strings.TrimSpace(m.inputs[1].Value()),
	}
}

// Update implements Modal.
func (m *searchModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Cancel):
		return m, nil, true

	case key.Matches(keyMsg, keys.Save):
		c := m.criteria()
		if _, err := c.Filter(); err != nil {
			m.err = err.Error()
			return m, nil, false
		}
		return m, func() tea.Msg { return searchSubmitMsg{criteria: c} }, true

	case keyMsg.Type == tea.KeyTab, keyMsg.Type == tea.KeyShiftTab,
		keyMsg.Type == tea.KeyUp, keyMsg.Type == tea.KeyDown:
		m.inputs[m.focus].Blur()
		m.focus = 1 - m.focus
		return m, m.inputs[m.focus].Focus(), false
	}

	m.err = ""
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(keyMsg)
	return m, cmd, false
}

// View implements Modal.
func (m *searchModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)).Width(12)
	fieldStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color(theme.Border))
	focusStyle := fieldStyle.BorderForeground(lipgloss.Color(theme.BorderFocus))

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Search products"))
	b.WriteString("\n\n")

	labels := [2]string{"Product", "Max price"}
	for i := range m.inputs {
		style := fieldStyle
		if i == m.focus {
			style = focusStyle
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
			labelStyle.Render(labels[i]),
			style.Render(m.inputs[i].View())))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(styles.DangerText.Render(m.err))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("enter submit · tab switch · esc close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(48)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// describeCriteria summarises active criteria for the pager line.
func describeCriteria(c searchform.Criteria) string {
	var parts []string
	if c.ProductSearch != "" {
		parts = append(parts, "name ~ \""+c.ProductSearch+"\"")
	}
	if c.PriceSearch != "" {
		parts = append(parts, "price ≤ "+c.PriceSearch)
	}
	return strings.Join(parts, ", ")
}
