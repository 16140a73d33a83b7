package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stockgrid/internal/edit"
	"github.com/five82/stockgrid/internal/product"
)

// editorKey identifies which draft an editor's inputs were built from.
type editorKey struct {
	mode edit.Mode
	row  int
	id   int
}

// editor holds the text inputs for the row being edited. The session in the
// controller stays authoritative; inputs only carry cursor and typing state.
type editor struct {
	key    editorKey
	bound  bool
	inputs map[product.Field]*textinput.Model
	focus  int
}

// textFields are the editable fields backed by a text input.
var textFields = []product.Field{product.FieldName, product.FieldUnitPrice, product.FieldUnitsInStock}

// charLimits cap input length; validation still decides what is acceptable.
var charLimits = map[product.Field]int{
	product.FieldName:         40,
	product.FieldUnitPrice:    12,
	product.FieldUnitsInStock: 6,
}

// sync rebuilds the inputs when the session now describes a different draft
// and drops them when the session closed.
func (e *editor) sync(s edit.Session) {
	if !s.Active() {
		*e = editor{}
		return
	}
	row, _ := s.Row()
	key := editorKey{mode: s.Mode(), row: row, id: s.Draft().ID}
	if e.bound && e.key == key {
		return
	}

	draft := s.Draft()
	e.inputs = make(map[product.Field]*textinput.Model, len(textFields))
	for _, f := range textFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Label()
		ti.CharLimit = charLimits[f]
		ti.SetValue(draft.Text(f))
		e.inputs[f] = &ti
	}
	e.key = key
	e.bound = true
	e.focus = 0
	e.applyFocus()
}

// focused returns the field under the cursor.
func (e *editor) focused() product.Field {
	return product.EditableFields[e.focus]
}

func (e *editor) next() {
	e.focus = (e.focus + 1) % len(product.EditableFields)
	e.applyFocus()
}

func (e *editor) prev() {
	e.focus = (e.focus - 1 + len(product.EditableFields)) % len(product.EditableFields)
	e.applyFocus()
}

func (e *editor) applyFocus() {
	current := e.focused()
	for f, ti := range e.inputs {
		if f == current {
			ti.Focus()
		} else {
			ti.Blur()
		}
	}
}

// update feeds msg to the focused text input and reports its new value when
// the text changed.
func (e *editor) update(msg tea.Msg) (product.Field, string, bool, tea.Cmd) {
	field := e.focused()
	ti, ok := e.inputs[field]
	if !ok {
		return field, "", false, nil
	}
	before := ti.Value()
	updated, cmd := ti.Update(msg)
	*ti = updated
	return field, ti.Value(), ti.Value() != before, cmd
}

// cell renders one edit cell with the cursor when focused.
func (e *editor) cell(field product.Field, draft product.Draft, width int, theme Theme, hasErr bool) string {
	style := lipgloss.NewStyle().Background(lipgloss.Color(theme.EditBg)).Foreground(lipgloss.Color(theme.Text))
	if hasErr {
		style = style.Foreground(lipgloss.Color(theme.Danger))
	}
	focused := e.bound && e.focused() == field

	if field == product.FieldDiscontinued {
		box := "[ ]"
		if draft.Discontinued {
			box = "[x]"
		}
		if focused {
			style = style.Underline(true).Foreground(lipgloss.Color(theme.Accent))
		}
		return style.Render(fit(box, width, false))
	}

	ti, ok := e.inputs[field]
	if !ok {
		return style.Render(fit(draft.Text(field), width, false))
	}
	ti.Width = width - 1
	if focused {
		return style.Render(padRight(ti.View(), width))
	}
	value := ti.Value()
	if value == "" {
		return style.Foreground(lipgloss.Color(theme.Faint)).Render(fit(field.Label(), width, false))
	}
	return style.Render(fit(value, width, false))
}
