package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/stockgrid/internal/metrics"
	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/source/httpsource"
	"github.com/five82/stockgrid/internal/state"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves [][]product.Product
}

func (p *recordingPersister) Save(_ context.Context, items []product.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, items)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func newTestServer(t *testing.T) (*httptest.Server, *state.Store, *metrics.Metrics, *recordingPersister) {
	t.Helper()
	store := state.New(nil)
	require.NoError(t, store.Replace([]product.Product{
		{ID: 1, Name: "Chai", UnitPrice: 18, UnitsInStock: 39},
		{ID: 2, Name: "Chang", UnitPrice: 19, UnitsInStock: 17},
	}))
	m := metrics.New()
	p := &recordingPersister{}
	srv := httptest.NewServer(New(store, Options{Metrics: m, Persister: p}))
	t.Cleanup(srv.Close)
	return srv, store, m, p
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["products"])
}

func TestRequestIDEchoedOrGenerated(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	resp = doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}

func TestCreateAssignsIDAndPersists(t *testing.T) {
	srv, store, m, p := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products",
		`{"ProductID": 99, "ProductName": "Aniseed Syrup", "UnitPrice": 10, "UnitsInStock": 13}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created product.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, 3, created.ID)
	assert.Len(t, store.Products(), 3)
	assert.Equal(t, 1, p.count())
	assert.Contains(t, scrape(t, m), `stockgrid_product_mutations_total{op="create",result="ok"} 1`)
}

func TestCreateValidationFailure(t *testing.T) {
	srv, store, _, p := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products",
		`{"ProductName": "  ", "UnitsInStock": 1000}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body httpsource.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Fields, "ProductName")
	assert.Contains(t, body.Fields, "UnitsInStock")
	assert.Len(t, store.Products(), 2)
	assert.Zero(t, p.count())
}

func TestGetUpdateDelete(t *testing.T) {
	srv, store, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/products/2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/products/2", `{"UnitsInStock": 5, "Discontinued": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, 5, got.UnitsInStock)
	assert.True(t, got.Discontinued)
	assert.Equal(t, "Chang", got.Name)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/products/2", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/products/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/products/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/products/2", `{"UnitsInStock": 1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadIDAndBody(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/products", "{nope")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReplaceRejectsDuplicateIDs(t *testing.T) {
	srv, store, m, p := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/products",
		`{"items":[{"ProductID":1,"ProductName":"a"},{"ProductID":1,"ProductName":"b"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/products",
		`{"items":[{"ProductID":0,"ProductName":"a"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	assert.Equal(t, "Chai", store.Products()[0].Name)
	assert.Len(t, store.Products(), 2)
	assert.Zero(t, p.count())
	assert.Contains(t, scrape(t, m), `stockgrid_product_mutations_total{op="replace",result="invalid"} 2`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	doJSON(t, http.MethodGet, srv.URL+"/api/products", "")

	resp := doJSON(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	buf := new(strings.Builder)
	_, err := io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `stockgrid_http_requests_total{method="GET",route="/api/products",status="200"} 1`)
}

// The HTTP source is the client half of this API; both must agree on the
// wire shapes.
func TestRoundTripThroughHTTPSource(t *testing.T) {
	srv, store, _, _ := newTestServer(t)

	client, err := httpsource.NewClient(srv.URL)
	require.NoError(t, err)

	items, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	items = append(items, product.Product{ID: 7, Name: "Ikura", UnitPrice: 31, UnitsInStock: 31})
	require.NoError(t, client.Save(context.Background(), items))
	assert.Len(t, store.Products(), 3)

	items[0].Name = ""
	err = client.Save(context.Background(), items)
	var apiErr *httpsource.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Fields, "ProductName")
}
