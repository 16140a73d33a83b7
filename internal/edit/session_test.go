package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/stockgrid/internal/product"
)

var chai = product.Product{ID: 1, Name: "Chai", UnitPrice: 18, UnitsInStock: 39}

func TestZeroSessionIsIdle(t *testing.T) {
	var s Session
	assert.Equal(t, Idle, s.Mode())
	assert.False(t, s.Active())
	_, ok := s.Row()
	assert.False(t, ok)

	_, err := s.WithField(product.FieldName, "x")
	assert.ErrorIs(t, err, ErrNoSession)
	_, _, err = s.Commit()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAddStartsWithDefaults(t *testing.T) {
	s := Session{}.Edit(0, chai).Add()
	assert.Equal(t, Adding, s.Mode())
	assert.Equal(t, product.NewDraft(), s.Draft())
	assert.False(t, s.IsEditing(0))
}

func TestEditPrefillsDraft(t *testing.T) {
	s := Session{}.Edit(3, chai)
	row, ok := s.Row()
	require.True(t, ok)
	assert.Equal(t, 3, row)
	assert.Equal(t, "Chai", s.Draft().Name)
	assert.Equal(t, "39", s.Draft().UnitsInStock)
}

func TestSecondEditDiscardsFirstDraft(t *testing.T) {
	first, err := Session{}.Edit(0, chai).WithField(product.FieldName, "changed")
	require.NoError(t, err)

	chang := product.Product{ID: 2, Name: "Chang", UnitPrice: 19, UnitsInStock: 17}
	second := first.Edit(1, chang)
	assert.True(t, second.IsEditing(1))
	assert.False(t, second.IsEditing(0))
	assert.Equal(t, "Chang", second.Draft().Name)

	// Re-opening the first row starts from the record, not the abandoned draft.
	again := second.Edit(0, chai)
	assert.Equal(t, "Chai", again.Draft().Name)
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	s := Session{}.Edit(0, chai)
	next, err := s.WithField(product.FieldName, "")
	require.NoError(t, err)
	_, rejected, err := next.Commit()
	require.Error(t, err)

	assert.Equal(t, "Chai", s.Draft().Name)
	assert.Empty(t, s.Errors())
	assert.Empty(t, next.Errors())
	assert.Contains(t, rejected.Errors(), product.FieldName)
}

func TestCommitRejectsInvalidDraft(t *testing.T) {
	s, err := Session{}.Add().WithField(product.FieldUnitsInStock, "abc")
	require.NoError(t, err)

	_, after, err := s.Commit()
	var verr *product.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Adding, after.Mode(), "session stays open")
	assert.Contains(t, after.Errors(), product.FieldName)
	assert.Contains(t, after.Errors(), product.FieldUnitsInStock)

	fixed, err := after.WithField(product.FieldUnitsInStock, "12")
	require.NoError(t, err)
	assert.NotContains(t, fixed.Errors(), product.FieldUnitsInStock)
	assert.Contains(t, fixed.Errors(), product.FieldName)
}

func TestCommitReturnsRecord(t *testing.T) {
	s, err := Session{}.Edit(0, chai).WithField(product.FieldName, "B")
	require.NoError(t, err)
	s, err = s.ToggleDiscontinued()
	require.NoError(t, err)

	rec, after, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, product.Product{ID: 1, Name: "B", UnitPrice: 18, UnitsInStock: 39, Discontinued: true}, rec)
	assert.True(t, after.IsEditing(0), "commit leaves closing to the caller")
}

func TestCancelReturnsToIdle(t *testing.T) {
	s := Session{}.Edit(2, chai).Cancel()
	assert.Equal(t, Idle, s.Mode())
	assert.Equal(t, product.Draft{}, s.Draft())
}

func TestWithFieldRecordsParseError(t *testing.T) {
	s, err := Session{}.Add().WithField(product.FieldDiscontinued, "perhaps")
	require.Error(t, err)
	assert.Contains(t, s.Errors(), product.FieldDiscontinued)

	s, err = s.ToggleDiscontinued()
	require.NoError(t, err)
	assert.NotContains(t, s.Errors(), product.FieldDiscontinued)
}
