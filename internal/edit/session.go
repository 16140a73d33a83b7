// Package edit holds the single-row edit session of the grid.
//
// A Session is an immutable value. Every transition returns a new Session,
// so the caller owns exactly one current session and opening a new add or
// edit can never leave an older draft behind.
//
//	Idle ──Add──→ Adding ──Cancel/commit──→ Idle
//	  └───Edit(row)──→ Editing(row) ──Cancel/commit──→ Idle
//	Add and Edit are accepted from any state and discard the open draft.
package edit

import (
	"errors"
	"maps"

	"github.com/five82/stockgrid/internal/product"
)

// ErrNoSession is returned when a draft operation runs while Idle.
var ErrNoSession = errors.New("no row is being edited")

// Mode is the state of the session machine.
type Mode int

const (
	Idle Mode = iota
	Adding
	Editing
)

func (m Mode) String() string {
	switch m {
	case Adding:
		return "adding"
	case Editing:
		return "editing"
	default:
		return "idle"
	}
}

// Session is the edit state. The zero value is Idle.
type Session struct {
	mode   Mode
	row    int
	draft  product.Draft
	errors map[product.Field]string
}

// Add opens a fresh draft with default values.
func (s Session) Add() Session {
	return Session{mode: Adding, draft: product.NewDraft()}
}

// Edit opens row for editing with a draft copied from rec.
func (s Session) Edit(row int, rec product.Product) Session {
	return Session{mode: Editing, row: row, draft: product.DraftFrom(rec)}
}

// Cancel discards the draft.
func (s Session) Cancel() Session {
	return Session{}
}

// Mode reports the current state.
func (s Session) Mode() Mode { return s.mode }

// Active reports whether a draft is open.
func (s Session) Active() bool { return s.mode != Idle }

// Row returns the page-relative row under edit.
func (s Session) Row() (int, bool) {
	if s.mode != Editing {
		return 0, false
	}
	return s.row, true
}

// IsEditing reports whether row is the one under edit.
func (s Session) IsEditing(row int) bool {
	r, ok := s.Row()
	return ok && r == row
}

// Draft returns the in-progress values.
func (s Session) Draft() product.Draft { return s.draft }

// Errors returns the field errors from the last rejected commit or input.
func (s Session) Errors() map[product.Field]string {
	return maps.Clone(s.errors)
}

// WithField sets one draft field from form text. Previous error for that
// field is cleared; a parse failure is recorded instead.
func (s Session) WithField(field product.Field, raw string) (Session, error) {
	if !s.Active() {
		return s, ErrNoSession
	}
	draft, err := s.draft.With(field, raw)
	next := s.withoutError(field)
	next.draft = draft
	if fields := product.FieldErrors(err); fields != nil {
		next = next.WithErrors(fields)
	}
	return next, err
}

// ToggleDiscontinued flips the boolean field.
func (s Session) ToggleDiscontinued() (Session, error) {
	if !s.Active() {
		return s, ErrNoSession
	}
	next := s.withoutError(product.FieldDiscontinued)
	next.draft = s.draft.ToggleDiscontinued()
	return next, nil
}

// Commit validates the draft. On success it returns the record to write and
// leaves the session open; closing it is up to the caller once the write has
// gone through. On failure the returned session carries the field errors.
func (s Session) Commit() (product.Product, Session, error) {
	if !s.Active() {
		return product.Product{}, s, ErrNoSession
	}
	rec, err := s.draft.Product()
	if err != nil {
		if fields := product.FieldErrors(err); fields != nil {
			return product.Product{}, s.WithErrors(fields), err
		}
		return product.Product{}, s, err
	}
	next := s
	next.errors = nil
	return rec, next, nil
}

// WithErrors replaces the recorded field errors.
func (s Session) WithErrors(fields map[product.Field]string) Session {
	if !s.Active() {
		return s
	}
	s.errors = maps.Clone(fields)
	return s
}

func (s Session) withoutError(field product.Field) Session {
	if _, ok := s.errors[field]; !ok {
		return s
	}
	errs := maps.Clone(s.errors)
	delete(errs, field)
	s.errors = errs
	return s
}
