package product

// Field identifies a Product attribute. The values double as wire names and
// as the field keys used by sort and filter descriptors.
type Field string

const (
	FieldID           Field = "ProductID"
	FieldName         Field = "ProductName"
	FieldUnitPrice    Field = "UnitPrice"
	FieldUnitsInStock Field = "UnitsInStock"
	FieldDiscontinued Field = "Discontinued"
)

// Fields lists every Field in display order.
var Fields = []Field{FieldID, FieldName, FieldUnitPrice, FieldUnitsInStock, FieldDiscontinued}

// EditableFields lists the fields a draft may change.
var EditableFields = []Field{FieldName, FieldUnitPrice, FieldUnitsInStock, FieldDiscontinued}

// Label returns the column header for the field.
func (f Field) Label() string {
	switch f {
	case FieldID:
		return "ID"
	case FieldName:
		return "Product Name"
	case FieldUnitPrice:
		return "Unit Price"
	case FieldUnitsInStock:
		return "In Stock"
	case FieldDiscontinued:
		return "Discontinued"
	default:
		return string(f)
	}
}

// Product is a catalog record. ID is zero until the record has been created.
type Product struct {
	ID           int     `json:"ProductID" bson:"ProductID" yaml:"ProductID" field:"ProductID"`
	Name         string  `json:"ProductName" bson:"ProductName" yaml:"ProductName" field:"ProductName" validate:"notblank"`
	UnitPrice    float64 `json:"UnitPrice" bson:"UnitPrice" yaml:"UnitPrice" field:"UnitPrice" validate:"gte=0"`
	UnitsInStock int     `json:"UnitsInStock" bson:"UnitsInStock" yaml:"UnitsInStock" field:"UnitsInStock" validate:"gte=0,lt=1000"`
	Discontinued bool    `json:"Discontinued" bson:"Discontinued" yaml:"Discontinued" field:"Discontinued"`
}

// Value returns the value stored under field.
func (p Product) Value(field Field) (any, bool) {
	switch field {
	case FieldID:
		return p.ID, true
	case FieldName:
		return p.Name, true
	case FieldUnitPrice:
		return p.UnitPrice, true
	case FieldUnitsInStock:
		return p.UnitsInStock, true
	case FieldDiscontinued:
		return p.Discontinued, true
	default:
		return nil, false
	}
}

// Validate checks the record against the same rules drafts are held to.
func (p Product) Validate() error {
	return validateStruct(p)
}

// Apply returns a copy of p with every non-nil patch field merged in.
func (p Product) Apply(patch Patch) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.UnitPrice != nil {
		p.UnitPrice = *patch.UnitPrice
	}
	if patch.UnitsInStock != nil {
		p.UnitsInStock = *patch.UnitsInStock
	}
	if patch.Discontinued != nil {
		p.Discontinued = *patch.Discontinued
	}
	return p
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Name         *string  `json:"ProductName,omitempty"`
	UnitPrice    *float64 `json:"UnitPrice,omitempty"`
	UnitsInStock *int     `json:"UnitsInStock,omitempty"`
	Discontinued *bool    `json:"Discontinued,omitempty"`
}

// PatchFrom builds a patch that overwrites every mutable field with p's values.
func PatchFrom(p Product) Patch {
	return Patch{
		Name:         &p.Name,
		UnitPrice:    &p.UnitPrice,
		UnitsInStock: &p.UnitsInStock,
		Discontinued: &p.Discontinued,
	}
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Name == nil && p.UnitPrice == nil && p.UnitsInStock == nil && p.Discontinued == nil
}

// Clone copies a record slice so callers cannot alias store internals.
func Clone(items []Product) []Product {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Product, len(items))
	copy(dup, items)
	return dup
}
