// Package searchform holds the secondary search form shown above the grid.
// Its values survive restarts through a key-value store and, when submitted,
// become the grid filter.
package searchform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/query"
)

// StorageKey is the fixed key the criteria blob lives under.
const StorageKey = "demoSearchCriteria"

// Criteria are the form values. Both are free text; an empty value means
// "no constraint".
type Criteria struct {
	ProductSearch string `json:"productSearch"`
	PriceSearch   string `json:"priceSearch"`
}

// IsZero reports whether neither field is set.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.ProductSearch) == "" && strings.TrimSpace(c.PriceSearch) == ""
}

// Filter converts the criteria into a grid filter: name contains the product
// text (ignoring case) and unit price is at most the price text. It returns
// nil when the form is empty.
func (c Criteria) Filter() (*query.CompositeFilter, error) {
	var filters []query.FilterDescriptor
	if name := strings.TrimSpace(c.ProductSearch); name != "" {
		filters = append(filters, query.FilterDescriptor{
			Field:      product.FieldName,
			Operator:   query.OpContains,
			Value:      name,
			IgnoreCase: true,
		})
	}
	if raw := strings.TrimSpace(c.PriceSearch); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("price %q is not a non-negative number", raw)
		}
		filters = append(filters, query.FilterDescriptor{
			Field:    product.FieldUnitPrice,
			Operator: query.OpLte,
			Value:    price,
		})
	}
	if len(filters) == 0 {
		return nil, nil
	}
	return query.AllOf(filters...), nil
}

// Backend is the key-value persistence the form uses.
type Backend interface {
	Get(key string, dst any) (bool, error)
	Set(key string, v any) error
}

// Form ties criteria to their persisted copy.
type Form struct {
	backend Backend
}

// New returns a form backed by b. A nil backend makes the form memory-only.
func New(b Backend) *Form {
	return &Form{backend: b}
}

// Restore loads the saved criteria, returning the zero value when nothing
// has been saved yet.
func (f *Form) Restore() (Criteria, error) {
	var c Criteria
	if f.backend == nil {
		return c, nil
	}
	if _, err := f.backend.Get(StorageKey, &c); err != nil {
		return Criteria{}, fmt.Errorf("restore search criteria: %w", err)
	}
	return c, nil
}

// Submit validates c, saves it and returns the filter it describes.
func (f *Form) Submit(c Criteria) (*query.CompositeFilter, error) {
	filter, err := c.Filter()
	if err != nil {
		return nil, err
	}
	if f.backend != nil {
		if err := f.backend.Set(StorageKey, c); err != nil {
			return filter, fmt.Errorf("save search criteria: %w", err)
		}
	}
	return filter, nil
}
