package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(m *Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/listings/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/metrics", m.Handler())
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := newTestRouter(m)

	for _, path := range []string{"/api/listings/a", "/api/listings/b", "/api/listings/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/listings/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/listings/{id}", "404")))
}

func TestMiddleware_Unmatched(t *testing.T) {
	m := New()
	r := newTestRouter(m)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	r := newTestRouter(m)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/listings/x", nil))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "qbay_http_requests_total")
	assert.Contains(t, body, "qbay_http_request_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}

func TestRegistry_AcceptsExtraCollectors(t *testing.T) {
	m := New()

	extra := prometheus.NewGauge(prometheus.GaugeOpts{Name: "qbay_test_extra"})
	require.NoError(t, m.Registry().Register(extra))
	extra.Set(3)

	// The runtime collectors are already registered.
	assert.Error(t, m.Registry().Register(collectors.NewGoCollector()))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"qbay_test_extra", "go_goroutines"} {
		assert.True(t, names[want], "missing metric family %q", want)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(extra))
}
