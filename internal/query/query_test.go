package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/stockgrid/internal/product"
)

func catalog() []product.Product {
	return []product.Product{
		{ID: 1, Name: "Chai", UnitPrice: 18, UnitsInStock: 39},
		{ID: 2, Name: "Chang", UnitPrice: 19, UnitsInStock: 17},
		{ID: 3, Name: "Aniseed Syrup", UnitPrice: 10, UnitsInStock: 13},
		{ID: 4, Name: "Chef Anton's Cajun Seasoning", UnitPrice: 22, UnitsInStock: 53},
		{ID: 5, Name: "Chef Anton's Gumbo Mix", UnitPrice: 21.35, UnitsInStock: 0, Discontinued: true},
		{ID: 6, Name: "Grandma's Boysenberry Spread", UnitPrice: 25, UnitsInStock: 120},
		{ID: 7, Name: "Uncle Bob's Organic Dried Pears", UnitPrice: 30, UnitsInStock: 15},
		{ID: 8, Name: "Northwoods Cranberry Sauce", UnitPrice: 40, UnitsInStock: 6},
		{ID: 9, Name: "Mishi Kobe Niku", UnitPrice: 97, UnitsInStock: 29, Discontinued: true},
		{ID: 10, Name: "Ikura", UnitPrice: 31, UnitsInStock: 31},
		{ID: 11, Name: "Queso Cabrales", UnitPrice: 21, UnitsInStock: 22},
		{ID: 12, Name: "Queso Manchego La Pastora", UnitPrice: 38, UnitsInStock: 86},
	}
}

func ids(items []product.Product) []int {
	out := make([]int, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestApplySingleRecordDefaultState(t *testing.T) {
	rec := product.Product{ID: 1, Name: "A", UnitPrice: 10, UnitsInStock: 5}
	res := Apply([]product.Product{rec}, State{Sort: nil, Skip: 0, Take: 5})
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, []product.Product{rec}, res.Page)
}

func TestApplyIsIdempotent(t *testing.T) {
	records := catalog()
	state := State{
		Sort:   []SortDescriptor{{Field: product.FieldUnitPrice, Dir: Desc}},
		Filter: AllOf(FilterDescriptor{Field: product.FieldName, Operator: OpContains, Value: "a"}),
		Skip:   2,
		Take:   3,
	}
	first := Apply(records, state)
	second := Apply(records, state)
	assert.Equal(t, first, second)
	assert.Equal(t, catalog(), records, "input must not be mutated")
}

func TestApplySortIsStable(t *testing.T) {
	records := []product.Product{
		{ID: 1, Name: "x", UnitPrice: 5},
		{ID: 2, Name: "y", UnitPrice: 3},
		{ID: 3, Name: "z", UnitPrice: 5},
		{ID: 4, Name: "w", UnitPrice: 3},
		{ID: 5, Name: "v", UnitPrice: 5},
	}
	asc := Apply(records, State{Sort: []SortDescriptor{{Field: product.FieldUnitPrice, Dir: Asc}}})
	assert.Equal(t, []int{2, 4, 1, 3, 5}, ids(asc.Page))

	desc := Apply(records, State{Sort: []SortDescriptor{{Field: product.FieldUnitPrice, Dir: Desc}}})
	assert.Equal(t, []int{1, 3, 5, 2, 4}, ids(desc.Page))
}

func TestApplyMultiKeySort(t *testing.T) {
	res := Apply(catalog(), State{Sort: []SortDescriptor{
		{Field: product.FieldDiscontinued, Dir: Desc},
		{Field: product.FieldName, Dir: Asc},
	}, Take: 4})
	assert.Equal(t, []int{5, 9, 3, 1}, ids(res.Page))
	assert.Equal(t, 12, res.Total)
}

func TestApplyPagingBounds(t *testing.T) {
	records := catalog()
	for _, skip := range []int{12, 13, 100} {
		res := Apply(records, State{Skip: skip, Take: 5})
		assert.Empty(t, res.Page, "skip=%d", skip)
		assert.NotNil(t, res.Page)
		assert.Equal(t, 12, res.Total)
	}

	last := Apply(records, State{Skip: 10, Take: 5})
	assert.Equal(t, []int{11, 12}, ids(last.Page))

	all := Apply(records, State{Take: 0})
	assert.Len(t, all.Page, 12)
}

func TestApplyFilterCountsTotalBeforePaging(t *testing.T) {
	res := Apply(catalog(), State{
		Filter: AllOf(FilterDescriptor{Field: product.FieldName, Operator: OpStartsWith, Value: "ch", IgnoreCase: true}),
		Take:   2,
	})
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, []int{1, 2}, ids(res.Page))
}

func TestFilterOperators(t *testing.T) {
	tests := []struct {
		name   string
		filter *CompositeFilter
		want   []int
	}{
		{"price lte string operand", AllOf(FilterDescriptor{Field: product.FieldUnitPrice, Operator: OpLte, Value: "19"}), []int{1, 2, 3}},
		{"stock eq", AllOf(FilterDescriptor{Field: product.FieldUnitsInStock, Operator: OpEq, Value: 0}), []int{5}},
		{"stock gt", AllOf(FilterDescriptor{Field: product.FieldUnitsInStock, Operator: OpGt, Value: 80}), []int{6, 12}},
		{"discontinued", AllOf(FilterDescriptor{Field: product.FieldDiscontinued, Operator: OpEq, Value: true}), []int{5, 9}},
		{"name eq ignore case", AllOf(FilterDescriptor{Field: product.FieldName, Operator: OpEq, Value: "CHAI", IgnoreCase: true}), []int{1}},
		{"endswith", AllOf(FilterDescriptor{Field: product.FieldName, Operator: OpEndsWith, Value: "Mix"}), []int{5}},
		{"doesnotcontain", AllOf(
			FilterDescriptor{Field: product.FieldName, Operator: OpDoesNotContain, Value: "e"},
			FilterDescriptor{Field: product.FieldUnitPrice, Operator: OpLt, Value: 30},
		), []int{1, 2}},
		{"or group", &CompositeFilter{Logic: Or, Filters: []FilterDescriptor{
			{Field: product.FieldID, Operator: OpEq, Value: 3},
			{Field: product.FieldID, Operator: OpEq, Value: 10},
		}}, []int{3, 10}},
		{"nested", &CompositeFilter{Logic: And,
			Filters: []FilterDescriptor{{Field: product.FieldName, Operator: OpContains, Value: "queso", IgnoreCase: true}},
			Groups: []*CompositeFilter{{Logic: Or, Filters: []FilterDescriptor{
				{Field: product.FieldUnitPrice, Operator: OpGte, Value: 30},
			}}},
		}, []int{12}},
		{"isempty", AllOf(FilterDescriptor{Field: product.FieldName, Operator: OpIsEmpty}), []int{}},
		{"unknown field", AllOf(FilterDescriptor{Field: "Color", Operator: OpEq, Value: "red"}), []int{}},
		{"bad operand", AllOf(FilterDescriptor{Field: product.FieldUnitPrice, Operator: OpEq, Value: "cheap"}), []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(catalog(), State{Filter: tt.filter})
			assert.Equal(t, tt.want, ids(res.Page))
			assert.Equal(t, len(tt.want), res.Total)
		})
	}
}

func TestStateValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	bad := State{
		Skip: -1,
		Sort: []SortDescriptor{{Field: "Color", Dir: "up"}},
		Filter: &CompositeFilter{Logic: "xor", Filters: []FilterDescriptor{
			{Field: product.FieldName, Operator: "like"},
		}},
	}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"skip", "unknown field", "direction", "logic", "unknown operator"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestStatePaging(t *testing.T) {
	s := Default()
	assert.Equal(t, 3, s.PageCount(12))
	assert.Equal(t, 0, s.PageCount(0))
	assert.Equal(t, 1, s.Page())

	s = s.NextPage(12).NextPage(12)
	assert.Equal(t, 10, s.Skip)
	assert.Equal(t, 10, s.NextPage(12).Skip, "last page stays put")
	assert.Equal(t, 3, s.Page())

	s = s.PrevPage().PrevPage().PrevPage()
	assert.Equal(t, 0, s.Skip)
}

func TestToggleSortCycles(t *testing.T) {
	s := Default().NextPage(12)
	s = s.ToggleSort(product.FieldName)
	dir, ok := s.SortDir(product.FieldName)
	require.True(t, ok)
	assert.Equal(t, Asc, dir)
	assert.Equal(t, 0, s.Skip)

	s = s.ToggleSort(product.FieldName)
	dir, _ = s.SortDir(product.FieldName)
	assert.Equal(t, Desc, dir)

	s = s.ToggleSort(product.FieldName)
	assert.Empty(t, s.Sort)

	s = s.ToggleSort(product.FieldName).ToggleSort(product.FieldUnitPrice)
	assert.Equal(t, []SortDescriptor{{Field: product.FieldUnitPrice, Dir: Asc}}, s.Sort)
}

func TestStateEqualAndHelpersDoNotAlias(t *testing.T) {
	base := State{Sort: []SortDescriptor{{Field: product.FieldName, Dir: Asc}}, Take: 5}
	moved := base.NextPage(20)
	moved.Sort[0].Dir = Desc
	assert.Equal(t, Asc, base.Sort[0].Dir)

	assert.True(t, base.Equal(State{Sort: []SortDescriptor{{Field: product.FieldName, Dir: Asc}}, Take: 5}))
	assert.False(t, base.Equal(base.WithFilter(AllOf(FilterDescriptor{Field: product.FieldName, Operator: OpContains, Value: "a"}))))
	assert.True(t, base.Equal(base.WithFilter(&CompositeFilter{Logic: And})))
}
