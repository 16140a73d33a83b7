// Package product defines the catalog record edited by stockgrid.
//
// # Types
//
//   - Product: the committed record (id, name, unit price, units in stock, discontinued)
//   - Draft: the form buffer for an add or edit; numeric fields stay as raw text
//   - Patch: a partial update with nil meaning "leave unchanged"
//   - Field: attribute identifier shared by the wire format, sort and filter descriptors
//
// # Validation
//
// Rules are declared once as validator struct tags and evaluated the same way
// for drafts (form input) and for records reaching the store:
//
//	ProductName   required, not blank after trimming
//	UnitPrice     numeric, not negative (empty input means 0)
//	UnitsInStock  required, ^[0-9]{1,3}$
//	Discontinued  boolean, always valid
//
// Failures come back as *ValidationError, which maps each failing Field to a
// message so the UI can mark individual inputs.
package product
