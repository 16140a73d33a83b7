package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stockgrid/internal/edit"
	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/query"
)

// renderMain stacks header, command bar, grid box and status line.
func (m Model) renderMain() string {
	header := m.renderHeader()
	cmdBar := m.renderCommandBar()
	statusLine := m.renderStatusLine()

	boxHeight := m.height - 3
	if boxHeight < 4 {
		boxHeight = 4
	}
	box := m.renderTitledBox(m.gridTitle(), m.renderGrid(m.width-2), m.width, boxHeight)

	return lipgloss.JoinVertical(lipgloss.Left, header, cmdBar, box, statusLine)
}

// renderHeader shows the source and load state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("stockgrid", styles.Logo)}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case m.snapshot.LastError != nil:
		parts = append(parts, bg.Render("● ERROR", styles.WarningText.Bold(true)))
	case m.loading:
		parts = append(parts, bg.Render("● LOADING", styles.InfoText))
	case m.snapshot.Loaded:
		parts = append(parts, bg.Render("● READY", styles.SuccessText))
	default:
		parts = append(parts, bg.Render("● CONNECTING", styles.WarningText))
	}

	parts = append(parts,
		bg.Render("Products:", styles.MutedText)+bg.Space()+
			bg.Render(strconv.Itoa(len(m.snapshot.Products)), styles.Text))

	if !compact && m.sourceLabel != "" {
		parts = append(parts,
			bg.Render("source", styles.FaintText)+bg.Space()+
				bg.Render(truncateMiddle(m.sourceLabel, 40), styles.MutedText))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.snapshot.LastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar lists the keys that apply in the current mode.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd
	if m.view.Session.Active() {
		commands = []cmd{
			{"enter", "Save"},
			{"esc", "Cancel"},
			{"tab", "Next field"},
			{"space", "Discontinued"},
		}
	} else {
		commands = []cmd{
			{"a", "Add"},
			{"enter", "Edit"},
			{"d", "Remove"},
			{"1-5", "Sort"},
			{"[/]", "Page"},
			{"/", "Search"},
			{"r", "Reload"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var text string
	switch m.status.level {
	case statusError:
		text = bg.Render(m.status.text, styles.DangerText)
	case statusWarn:
		text = bg.Render(m.status.text, styles.WarningText)
	default:
		text = bg.Render(m.status.text, styles.MutedText)
	}
	return styles.Footer.Width(m.width).Render(text)
}

func (m Model) gridTitle() string {
	title := "Products"
	if desc := describeCriteria(m.criteria); desc != "" {
		title += " [" + desc + "]"
	}
	return title
}

// columnWidths lays the five field columns, plus the badge column when
// there is room, into width cells.
func columnWidths(width int) (widths map[product.Field]int, badge int) {
	fixed := colIDWidth + colPriceWidth + colStockWidth + colDiscontinuedWidth + 4*colGap
	if width >= LayoutBadgeWidth {
		badge = colBadgeWidth
		fixed += colBadgeWidth + colGap
	}
	name := width - fixed
	if name < colMinNameWidth {
		name = colMinNameWidth
	}
	return map[product.Field]int{
		product.FieldID:           colIDWidth,
		product.FieldName:         name,
		product.FieldUnitPrice:    colPriceWidth,
		product.FieldUnitsInStock: colStockWidth,
		product.FieldDiscontinued: colDiscontinuedWidth,
	}, badge
}

func rightAligned(f product.Field) bool {
	return f == product.FieldID || f == product.FieldUnitPrice || f == product.FieldUnitsInStock
}

// renderGrid renders the column header, the add row, the page rows with an
// inline edit row, and the pager.
func (m Model) renderGrid(width int) string {
	styles := m.theme.Styles()
	widths, badge := columnWidths(width)
	session := m.view.Session
	gap := strings.Repeat(" ", colGap)

	var lines []string
	lines = append(lines, m.renderColumnHeader(widths, badge))

	if session.Mode() == edit.Adding {
		lines = append(lines, m.renderEditRow(session, widths, badge, width))
		lines = append(lines, m.renderEditErrors(session, width)...)
	}

	page := m.view.Result.Page
	if len(page) == 0 && session.Mode() != edit.Adding {
		msg := "No products"
		if !m.criteria.IsZero() {
			msg = "No products match the search"
		}
		lines = append(lines, styles.MutedText.Render(msg))
	}

	for i, p := range page {
		if session.IsEditing(i) {
			lines = append(lines, m.renderEditRow(session, widths, badge, width))
			lines = append(lines, m.renderEditErrors(session, width)...)
			continue
		}

		cells := make([]string, 0, len(product.Fields)+1)
		for _, f := range product.Fields {
			cells = append(cells, fit(formatValue(p, f), widths[f], rightAligned(f)))
		}
		row := strings.Join(cells, gap)

		style := styles.Text
		if p.Discontinued {
			style = styles.MutedText
		}
		if i == m.selectedRow && !session.Active() {
			style = styles.Selected
		}
		line := style.Width(width).Render(row)
		if badge > 0 {
			level := stockLevel(p.UnitsInStock, p.Discontinued)
			line = style.Render(row+gap) + styles.StockStyle(level).Render(fit(level, badge-2, false))
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", m.renderPager())
	return strings.Join(lines, "\n")
}

func (m Model) renderColumnHeader(widths map[product.Field]int, badge int) string {
	styles := m.theme.Styles()
	gap := strings.Repeat(" ", colGap)
	state := m.view.State

	cells := make([]string, 0, len(product.Fields)+1)
	for i, f := range product.Fields {
		label := fmt.Sprintf("%d %s", i+1, f.Label())
		dir, sorted := state.SortDir(f)
		if !sorted {
			cells = append(cells, fit(label, widths[f], false))
			continue
		}
		// The marker always survives; the label gives way instead.
		marker := " ▲"
		if dir == query.Desc {
			marker = " ▼"
		}
		cells = append(cells, padRight(truncate(label, widths[f]-2)+marker, widths[f]))
	}
	if badge > 0 {
		cells = append(cells, fit("Stock", badge, false))
	}
	return styles.AccentText.Bold(true).Render(strings.Join(cells, gap))
}

func (m Model) renderEditRow(session edit.Session, widths map[product.Field]int, badge, width int) string {
	draft := session.Draft()
	errs := session.Errors()
	gap := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.EditBg)).Render(strings.Repeat(" ", colGap))

	idStyle := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.EditBg)).Foreground(lipgloss.Color(m.theme.Accent))
	id := "new"
	if !draft.IsNew() {
		id = strconv.Itoa(draft.ID)
	}
	cells := []string{idStyle.Render(fit(id, widths[product.FieldID], true))}
	for _, f := range product.EditableFields {
		_, hasErr := errs[f]
		cells = append(cells, m.editor.cell(f, draft, widths[f], m.theme, hasErr))
	}
	row := strings.Join(cells, gap)
	return lipgloss.NewStyle().Background(lipgloss.Color(m.theme.EditBg)).Width(width).Render(row)
}

// renderEditErrors lists field errors beneath the edit row in field order.
func (m Model) renderEditErrors(session edit.Session, width int) []string {
	errs := session.Errors()
	if len(errs) == 0 {
		return nil
	}
	styles := m.theme.Styles()
	var lines []string
	for _, f := range product.EditableFields {
		if msg, ok := errs[f]; ok {
			lines = append(lines, styles.DangerText.Render(truncate("  ↳ "+f.Label()+" "+msg, width)))
		}
	}
	return lines
}

func (m Model) renderPager() string {
	styles := m.theme.Styles()
	state := m.view.State
	total := m.view.Result.Total

	pages := state.PageCount(total)
	page := state.Page()
	if pages == 0 {
		page = 0
	}
	text := fmt.Sprintf("Page %d/%d · %d products · %d per page", page, pages, total, state.Take)
	return styles.FaintText.Render(text)
}

func formatValue(p product.Product, f product.Field) string {
	switch f {
	case product.FieldID:
		return strconv.Itoa(p.ID)
	case product.FieldName:
		return p.Name
	case product.FieldUnitPrice:
		return "$" + strconv.FormatFloat(p.UnitPrice, 'f', 2, 64)
	case product.FieldUnitsInStock:
		return strconv.Itoa(p.UnitsInStock)
	case product.FieldDiscontinued:
		if p.Discontinued {
			return "yes"
		}
		return "no"
	default:
		return ""
	}
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int) string {
	bg := NewBgStyle(m.theme.SurfaceAlt)
	bgColor := lipgloss.Color(m.theme.SurfaceAlt)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.BorderFocus))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := width - 2
	title = truncate(title, innerWidth-4)
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(bgColor)
	contentLines := strings.Split(content, "\n")
	boxHeight := height - 2

	padded := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		padded = append(padded,
			bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(padded, "\n") + "\n" + bottomBorder
}
