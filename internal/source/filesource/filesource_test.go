package filesource

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/stockgrid/internal/product"
)

var sample = []product.Product{
	{ID: 1, Name: "Chai", UnitPrice: 18, UnitsInStock: 39},
	{ID: 2, Name: "Chang", UnitPrice: 19, UnitsInStock: 17, Discontinued: true},
}

func TestFetchJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"ProductID": 1, "ProductName": "Chai", "UnitPrice": 18, "UnitsInStock": 39, "Discontinued": false}
]`), 0o644))

	items, err := New(path, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample[:1], items)
}

func TestFetchYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- ProductID: 2
  ProductName: Chang
  UnitPrice: 19
  UnitsInStock: 17
  Discontinued: true
`), 0o644))

	items, err := New(path, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample[1:], items)
}

func TestFetchMissingOrEmptyFile(t *testing.T) {
	dir := t.TempDir()
	items, err := New(filepath.Join(dir, "none.json"), nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	items, err = New(empty, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFetchMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err := New(path, nil).Fetch(context.Background())
	assert.ErrorContains(t, err, "decode")
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"products.json", "products.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			src := New(path, nil)
			require.NoError(t, src.Save(context.Background(), sample))

			items, err := src.Fetch(context.Background())
			require.NoError(t, err)
			assert.Equal(t, sample, items)

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temp file must not be left behind")
		})
	}
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(filepath.Join(t.TempDir(), "p.json"), nil).Save(ctx, sample)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchReportsExternalChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	src := New(path, nil)
	require.NoError(t, src.Save(context.Background(), sample))

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx, func() { calls.Add(1) }) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, src.Save(context.Background(), sample[:1]))
	time.Sleep(3 * debounce)
	assert.Equal(t, int32(0), calls.Load(), "own writes are ignored")

	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
