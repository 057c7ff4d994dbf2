package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/docs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	r.Post("/docs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newRouter()
	rr := serve(r, http.MethodGet, "/docs/1")
	require.Equal(t, http.StatusOK, rr.Code)
	after := testutil.CollectAndCount(httpRequestDuration)

	serve(r, http.MethodGet, "/docs/2")
	assert.Equal(t, after, testutil.CollectAndCount(httpRequestDuration), "same route, same series")
	assert.Equal(t, 0.0, testutil.ToFloat64(httpInFlight))
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	r := newRouter()
	rr := serve(r, http.MethodPost, "/docs/1")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "pesto_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r := newRouter()
	rr := serve(r, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouteLabel_NoRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	assert.Equal(t, unmatchedRoute, routeLabel(req))
}
