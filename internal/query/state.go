package query

import (
	"errors"
	"fmt"

	"github.com/five82/stockgrid/internal/product"
)

// DefaultPageSize matches the grid's initial window.
const DefaultPageSize = 5

// Dir is a sort direction.
type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

// SortDescriptor orders by one field.
type SortDescriptor struct {
	Field product.Field `json:"field"`
	Dir   Dir           `json:"dir"`
}

// State is the declarative description of what the grid should show.
// It is a value: every helper returns a new State.
type State struct {
	Sort   []SortDescriptor `json:"sort"`
	Filter *CompositeFilter `json:"filter,omitempty"`
	Skip   int              `json:"skip"`
	Take   int              `json:"take"`
}

// Default returns the initial grid state: unsorted, unfiltered, first page.
func Default() State {
	return State{Take: DefaultPageSize}
}

// Validate reports malformed descriptors. Apply tolerates them, so this is
// for inputs that come from outside (config, flags, API).
func (s State) Validate() error {
	var errs []error
	if s.Skip < 0 {
		errs = append(errs, fmt.Errorf("skip must not be negative, got %d", s.Skip))
	}
	for i, d := range s.Sort {
		if !knownField(d.Field) {
			errs = append(errs, fmt.Errorf("sort[%d]: unknown field %q", i, d.Field))
		}
		if d.Dir != Asc && d.Dir != Desc {
			errs = append(errs, fmt.Errorf("sort[%d]: direction must be asc or desc, got %q", i, d.Dir))
		}
	}
	if s.Filter != nil {
		if err := s.Filter.validate("filter"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithFilter replaces the filter and rewinds to the first page.
func (s State) WithFilter(f *CompositeFilter) State {
	s.Sort = cloneSort(s.Sort)
	s.Filter = f.Clone()
	s.Skip = 0
	return s
}

// WithPageSize changes take and rewinds to the first page.
func (s State) WithPageSize(take int) State {
	s.Sort = cloneSort(s.Sort)
	s.Take = take
	s.Skip = 0
	return s
}

// PageCount returns how many pages total records span. An unlimited page
// size always yields one page.
func (s State) PageCount(total int) int {
	if total <= 0 {
		return 0
	}
	if s.Take <= 0 {
		return 1
	}
	return (total + s.Take - 1) / s.Take
}

// Page returns the 1-based index of the page skip falls on.
func (s State) Page() int {
	if s.Take <= 0 {
		return 1
	}
	return s.Skip/s.Take + 1
}

// NextPage advances one page, staying put on the last one.
func (s State) NextPage(total int) State {
	if s.Take <= 0 || s.Skip+s.Take >= total {
		return s
	}
	s.Sort = cloneSort(s.Sort)
	s.Skip += s.Take
	return s
}

// PrevPage moves back one page, stopping at the first.
func (s State) PrevPage() State {
	if s.Take <= 0 || s.Skip == 0 {
		return s
	}
	s.Sort = cloneSort(s.Sort)
	s.Skip -= s.Take
	if s.Skip < 0 {
		s.Skip = 0
	}
	return s
}

// ToggleSort cycles field through asc, desc and unsorted. It keeps a single
// sort key, the way clicking a column header does.
func (s State) ToggleSort(field product.Field) State {
	next := Asc
	if len(s.Sort) > 0 && s.Sort[0].Field == field {
		switch s.Sort[0].Dir {
		case Asc:
			next = Desc
		case Desc:
			next = ""
		}
	}
	if next == "" {
		s.Sort = nil
	} else {
		s.Sort = []SortDescriptor{{Field: field, Dir: next}}
	}
	s.Skip = 0
	return s
}

// SortDir returns the direction field is sorted in, if any.
func (s State) SortDir(field product.Field) (Dir, bool) {
	for _, d := range s.Sort {
		if d.Field == field {
			return d.Dir, true
		}
	}
	return "", false
}

// Equal reports whether two states describe the same view.
func (s State) Equal(o State) bool {
	if s.Skip != o.Skip || s.Take != o.Take || len(s.Sort) != len(o.Sort) {
		return false
	}
	for i := range s.Sort {
		if s.Sort[i] != o.Sort[i] {
			return false
		}
	}
	return s.Filter.equal(o.Filter)
}

func cloneSort(in []SortDescriptor) []SortDescriptor {
	if len(in) == 0 {
		return nil
	}
	out := make([]SortDescriptor, len(in))
	copy(out, in)
	return out
}

func knownField(f product.Field) bool {
	for _, known := range product.Fields {
		if f == known {
			return true
		}
	}
	return false
}
