package product

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// stockPattern is anchored on both ends so "1234" does not pass as a
// three-digit prefix.
var stockPattern = regexp.MustCompile(`^[0-9]{1,3}$`)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("field"); name != "" {
			return name
		}
		return fld.Name
	})
	_ = validate.RegisterValidation("notblank", validateNotBlank)
	_ = validate.RegisterValidation("stockcount", validateStockCount)
	_ = validate.RegisterValidation("price", validatePrice)
}

// draftRules is the per-field rule table applied to form input before it is
// converted into a Product.
type draftRules struct {
	Name         string `field:"ProductName" validate:"notblank"`
	UnitPrice    string `field:"UnitPrice" validate:"omitempty,price"`
	UnitsInStock string `field:"UnitsInStock" validate:"required,stockcount"`
}

var ruleMessages = map[string]string{
	"notblank":   "is required",
	"required":   "is required",
	"stockcount": "must be a whole number of 1 to 3 digits",
	"price":      "must be a non-negative number",
	"gte":        "must not be negative",
	"lt":         "must be less than 1000",
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateStockCount(fl validator.FieldLevel) bool {
	return stockPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validatePrice(fl validator.FieldLevel) bool {
	_, err := parsePrice(fl.Field().String())
	return err == nil
}

// ValidationError reports which fields failed and why.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range Fields {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", f, msg))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the failure message recorded for field.
func (e *ValidationError) Message(field Field) (string, bool) {
	if e == nil {
		return "", false
	}
	msg, ok := e.Fields[field]
	return msg, ok
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field Field) bool {
	_, ok := e.Message(field)
	return ok
}

// FieldErrors extracts the field map from err, or nil when err is not a
// ValidationError.
func FieldErrors(err error) map[Field]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &ValidationError{Fields: make(map[Field]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := Field(fe.Field())
		if _, seen := out.Fields[field]; seen {
			continue
		}
		msg, ok := ruleMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		out.Fields[field] = msg
	}
	return out
}

func parsePrice(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("price out of range: %q", raw)
	}
	return v, nil
}
