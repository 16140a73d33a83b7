package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("GET", "/api/products", 200, 3*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/products", 200, time.Millisecond)
	m.RecordMutation("create", "ok")
	m.RecordMutation("update", "not_found")
	m.RecordLoad(nil)
	m.RecordLoad(errors.New("down"))
	m.SetProducts(12)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/products", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("update", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadsTotal.WithLabelValues("error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.products))
}

func TestInstancesDoNotShareRegistry(t *testing.T) {
	a, b := New(), New()
	a.SetProducts(1)
	b.SetProducts(2)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.products))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SetProducts(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stockgrid_products 3"))
}
