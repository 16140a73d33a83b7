package query

import (
	"cmp"
	"slices"

	"github.com/five82/stockgrid/internal/product"
)

// Result is the visible page plus the size of the filtered set it was cut from.
type Result struct {
	Page  []product.Product
	Total int
}

// Apply filters, sorts and pages records. It never modifies records and
// returns the same Result for the same inputs.
func Apply(records []product.Product, state State) Result {
	items := make([]product.Product, 0, len(records))
	for _, rec := range records {
		if state.Filter.Match(rec) {
			items = append(items, rec)
		}
	}
	total := len(items)

	if len(state.Sort) > 0 {
		slices.SortStableFunc(items, func(a, b product.Product) int {
			for _, d := range state.Sort {
				av, _ := a.Value(d.Field)
				bv, _ := b.Value(d.Field)
				c := compare(av, bv)
				if c == 0 {
					continue
				}
				if d.Dir == Desc {
					return -c
				}
				return c
			}
			return 0
		})
	}

	skip := max(state.Skip, 0)
	if skip >= total {
		return Result{Page: []product.Product{}, Total: total}
	}
	end := total
	if state.Take > 0 {
		end = min(skip+state.Take, total)
	}
	page := make([]product.Product, end-skip)
	copy(page, items[skip:end])
	return Result{Page: page, Total: total}
}

// compare orders two field values of the same kind. Numbers compare
// numerically regardless of int/float representation, false sorts before
// true, and mismatched kinds compare equal so they keep their input order.
func compare(a, b any) int {
	if af, ok := number(a); ok {
		if _, isString := a.(string); !isString {
			bf, ok := number(b)
			if !ok {
				return 0
			}
			return cmp.Compare(af, bf)
		}
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0
		}
		return cmp.Compare(av, bv)
	case bool:
		bv, ok := b.(bool)
		if !ok || av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	}
	return 0
}
