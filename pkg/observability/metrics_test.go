package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Related(t *testing.T) {
	m := NewMetrics("relview")

	m.ObserveRelated("orders", 10*time.Millisecond, nil)
	m.ObserveRelated("orders", 5*time.Millisecond, errors.New("boom"))

	out := scrape(t, m)
	assert.Contains(t, out, `relview_related_view_calls_total{outcome="ok",view="orders"} 1`)
	assert.Contains(t, out, `relview_related_view_calls_total{outcome="error",view="orders"} 1`)
	assert.Contains(t, out, `relview_related_view_duration_seconds_count{view="orders"} 2`)
}

func TestMetrics_Flow(t *testing.T) {
	m := NewMetrics("relview")

	m.ObserveFlow("address_form_view", "push")
	m.ObserveFlow("address_form_view", "push")

	assert.Contains(t, scrape(t, m), `relview_form_flow_events_total{event="push",view="address_form_view"} 2`)
}

func TestMetrics_Middleware(t *testing.T) {
	m := NewMetrics("relview")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/2", nil))

	assert.Contains(t, scrape(t, m), `relview_http_requests_total{code="202",route="/users/{id}"} 2`)
}
