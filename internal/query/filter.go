package query

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/five82/stockgrid/internal/product"
)

// Operator names a filter comparison.
type Operator string

const (
	OpEq             Operator = "eq"
	OpNeq            Operator = "neq"
	OpLt             Operator = "lt"
	OpLte            Operator = "lte"
	OpGt             Operator = "gt"
	OpGte            Operator = "gte"
	OpContains       Operator = "contains"
	OpDoesNotContain Operator = "doesnotcontain"
	OpStartsWith     Operator = "startswith"
	OpEndsWith       Operator = "endswith"
	OpIsEmpty        Operator = "isempty"
	OpIsNotEmpty     Operator = "isnotempty"
)

var operators = map[Operator]bool{
	OpEq: true, OpNeq: true, OpLt: true, OpLte: true, OpGt: true, OpGte: true,
	OpContains: true, OpDoesNotContain: true, OpStartsWith: true, OpEndsWith: true,
	OpIsEmpty: true, OpIsNotEmpty: true,
}

// Logic joins the members of a composite filter.
type Logic string

const (
	And Logic = "and"
	Or  Logic = "or"
)

// FilterDescriptor is a single predicate on one field.
type FilterDescriptor struct {
	Field      product.Field `json:"field"`
	Operator   Operator      `json:"operator"`
	Value      any           `json:"value,omitempty"`
	IgnoreCase bool          `json:"ignoreCase,omitempty"`
}

// CompositeFilter combines predicates and nested groups. An empty filter
// matches everything.
type CompositeFilter struct {
	Logic   Logic              `json:"logic"`
	Filters []FilterDescriptor `json:"filters,omitempty"`
	Groups  []*CompositeFilter `json:"groups,omitempty"`
}

// AllOf is shorthand for an "and" composite.
func AllOf(filters ...FilterDescriptor) *CompositeFilter {
	return &CompositeFilter{Logic: And, Filters: filters}
}

// IsEmpty reports whether the filter has no predicates at any depth.
func (c *CompositeFilter) IsEmpty() bool {
	if c == nil {
		return true
	}
	if len(c.Filters) > 0 {
		return false
	}
	for _, g := range c.Groups {
		if !g.IsEmpty() {
			return false
		}
	}
	return true
}

// Clone deep-copies the filter tree.
func (c *CompositeFilter) Clone() *CompositeFilter {
	if c == nil {
		return nil
	}
	out := &CompositeFilter{Logic: c.Logic}
	if len(c.Filters) > 0 {
		out.Filters = make([]FilterDescriptor, len(c.Filters))
		copy(out.Filters, c.Filters)
	}
	for _, g := range c.Groups {
		out.Groups = append(out.Groups, g.Clone())
	}
	return out
}

// Match evaluates the filter against a record.
func (c *CompositeFilter) Match(p product.Product) bool {
	if c.IsEmpty() {
		return true
	}
	or := c.Logic == Or
	for _, f := range c.Filters {
		ok := f.Match(p)
		if or && ok {
			return true
		}
		if !or && !ok {
			return false
		}
	}
	for _, g := range c.Groups {
		if g.IsEmpty() {
			continue
		}
		ok := g.Match(p)
		if or && ok {
			return true
		}
		if !or && !ok {
			return false
		}
	}
	return !or
}

func (c *CompositeFilter) validate(path string) error {
	var errs []error
	if c.Logic != And && c.Logic != Or {
		errs = append(errs, fmt.Errorf("%s: logic must be and or or, got %q", path, c.Logic))
	}
	for i, f := range c.Filters {
		if !knownField(f.Field) {
			errs = append(errs, fmt.Errorf("%s.filters[%d]: unknown field %q", path, i, f.Field))
		}
		if !operators[f.Operator] {
			errs = append(errs, fmt.Errorf("%s.filters[%d]: unknown operator %q", path, i, f.Operator))
		}
	}
	for i, g := range c.Groups {
		if g == nil {
			continue
		}
		if err := g.validate(fmt.Sprintf("%s.groups[%d]", path, i)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *CompositeFilter) equal(o *CompositeFilter) bool {
	if c.IsEmpty() || o.IsEmpty() {
		return c.IsEmpty() == o.IsEmpty()
	}
	if c.Logic != o.Logic || len(c.Filters) != len(o.Filters) || len(c.Groups) != len(o.Groups) {
		return false
	}
	for i := range c.Filters {
		if !reflect.DeepEqual(c.Filters[i], o.Filters[i]) {
			return false
		}
	}
	for i := range c.Groups {
		if !c.Groups[i].equal(o.Groups[i]) {
			return false
		}
	}
	return true
}

// Match evaluates one predicate. Unknown fields or operators never match.
func (f FilterDescriptor) Match(p product.Product) bool {
	v, ok := p.Value(f.Field)
	if !ok {
		return false
	}

	switch f.Operator {
	case OpIsEmpty:
		s, isString := v.(string)
		return isString && s == ""
	case OpIsNotEmpty:
		s, isString := v.(string)
		return !isString || s != ""
	case OpContains, OpDoesNotContain, OpStartsWith, OpEndsWith:
		have, want := text(v), text(f.Value)
		if f.IgnoreCase {
			have, want = strings.ToLower(have), strings.ToLower(want)
		}
		switch f.Operator {
		case OpContains:
			return strings.Contains(have, want)
		case OpDoesNotContain:
			return !strings.Contains(have, want)
		case OpStartsWith:
			return strings.HasPrefix(have, want)
		default:
			return strings.HasSuffix(have, want)
		}
	}

	operand, ok := coerce(v, f.Value)
	if !ok {
		return false
	}
	if f.IgnoreCase {
		if s, isString := v.(string); isString {
			v = strings.ToLower(s)
			operand = strings.ToLower(operand.(string))
		}
	}
	cmp := compare(v, operand)
	switch f.Operator {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	default:
		return false
	}
}

// coerce converts a filter operand to the dynamic type of the field value so
// that "10" can be compared with a price.
func coerce(field, operand any) (any, bool) {
	switch field.(type) {
	case string:
		return text(operand), operand != nil
	case int, float64:
		f, ok := number(operand)
		if !ok {
			return nil, false
		}
		return f, true
	case bool:
		switch b := operand.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			return parsed, err == nil
		}
	}
	return nil, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
