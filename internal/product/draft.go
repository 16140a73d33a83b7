package product

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownField is returned when a draft is asked to set a field it does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrReadOnlyField is returned when a draft is asked to change the record id.
	ErrReadOnlyField = errors.New("field is read-only")
)

// Draft is the unsaved form buffer behind an add or edit. Numeric fields are
// kept as the raw text the user typed so that invalid input can be shown back
// with an error instead of being coerced.
type Draft struct {
	ID           int
	Name         string
	UnitPrice    string
	UnitsInStock string
	Discontinued bool
}

// NewDraft returns the defaults for a record that has not been created yet.
func NewDraft() Draft {
	return Draft{UnitPrice: "0"}
}

// DraftFrom pre-fills a draft with the current values of p.
func DraftFrom(p Product) Draft {
	return Draft{
		ID:           p.ID,
		Name:         p.Name,
		UnitPrice:    strconv.FormatFloat(p.UnitPrice, 'f', -1, 64),
		UnitsInStock: strconv.Itoa(p.UnitsInStock),
		Discontinued: p.Discontinued,
	}
}

// IsNew reports whether the draft describes a record without an id.
func (d Draft) IsNew() bool {
	return d.ID == 0
}

// Text returns the form value for field.
func (d Draft) Text(field Field) string {
	switch field {
	case FieldID:
		if d.ID == 0 {
			return ""
		}
		return strconv.Itoa(d.ID)
	case FieldName:
		return d.Name
	case FieldUnitPrice:
		return d.UnitPrice
	case FieldUnitsInStock:
		return d.UnitsInStock
	case FieldDiscontinued:
		return strconv.FormatBool(d.Discontinued)
	default:
		return ""
	}
}

// With returns a copy of d with field set from raw form text.
func (d Draft) With(field Field, raw string) (Draft, error) {
	switch field {
	case FieldID:
		return d, fmt.Errorf("%s: %w", field, ErrReadOnlyField)
	case FieldName:
		d.Name = raw
	case FieldUnitPrice:
		d.UnitPrice = raw
	case FieldUnitsInStock:
		d.UnitsInStock = raw
	case FieldDiscontinued:
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return d, &ValidationError{Fields: map[Field]string{FieldDiscontinued: "must be true or false"}}
		}
		d.Discontinued = v
	default:
		return d, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return d, nil
}

// ToggleDiscontinued flips the discontinued flag.
func (d Draft) ToggleDiscontinued() Draft {
	d.Discontinued = !d.Discontinued
	return d
}

// Validate applies the field rule table. It returns nil or a *ValidationError.
func (d Draft) Validate() error {
	return validateStruct(draftRules{
		Name:         d.Name,
		UnitPrice:    d.UnitPrice,
		UnitsInStock: d.UnitsInStock,
	})
}

// Product validates the draft and converts it into a record.
func (d Draft) Product() (Product, error) {
	if err := d.Validate(); err != nil {
		return Product{}, err
	}
	price, err := parsePrice(d.UnitPrice)
	if err != nil {
		return Product{}, &ValidationError{Fields: map[Field]string{FieldUnitPrice: ruleMessages["price"]}}
	}
	stock, err := strconv.Atoi(strings.TrimSpace(d.UnitsInStock))
	if err != nil {
		return Product{}, &ValidationError{Fields: map[Field]string{FieldUnitsInStock: ruleMessages["stockcount"]}}
	}
	return Product{
		ID:           d.ID,
		Name:         strings.TrimSpace(d.Name),
		UnitPrice:    price,
		UnitsInStock: stock,
		Discontinued: d.Discontinued,
	}, nil
}
