package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_router/pkg/logging"
	"road_router/pkg/routing"
)

// funcRouter adapts a function to routing.Router.
type funcRouter func(ctx context.Context) (*routing.RouteResult, error)

func (f funcRouter) Route(ctx context.Context, _, _ routing.LatLng, _ routing.Profile) (*routing.RouteResult, error) {
	return f(ctx)
}

func newTestServer(t *testing.T, cfg ServerConfig, router routing.Router) (*httptest.Server, *Metrics) {
	t.Helper()
	metrics := NewMetrics()
	srv := NewServer(cfg, newTestHandlers(t, router), metrics, logging.Discard())
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, metrics
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServerRoutes(t *testing.T) {
	ts, _ := newTestServer(t, DefaultConfig(""), &mockRouter{})

	resp, body := get(t, ts.URL+"/api/v1/nodes/1/neighbors")
	assert.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"outgoing":[2]`)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, body = get(t, ts.URL+"/api/v1/edge?source=1&target=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"weight":3`)

	resp, _ = get(t, ts.URL+"/api/v1/route")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerCORS(t *testing.T) {
	cfg := DefaultConfig("")
	cfg.CORSOrigin = "https://maps.example.com"
	ts, _ := newTestServer(t, cfg, &mockRouter{})

	resp, _ := get(t, ts.URL+"/api/v1/health")
	assert.Equal(t, "https://maps.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerMetrics(t *testing.T) {
	ts, _ := newTestServer(t, DefaultConfig(""), &mockRouter{})

	get(t, ts.URL+"/api/v1/health")
	get(t, ts.URL+"/api/v1/edge?source=1&target=0")

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `road_router_http_requests_total{code="200",route="GET /api/v1/health"} 1`)
	assert.Contains(t, body, `road_router_http_requests_total{code="404",route="GET /api/v1/edge"} 1`)
	assert.Contains(t, body, "road_router_http_request_duration_seconds_bucket")
}

func TestServerRateLimit(t *testing.T) {
	cfg := DefaultConfig("")
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	ts, _ := newTestServer(t, cfg, &mockRouter{})

	resp, _ := get(t, ts.URL+"/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, ts.URL+"/api/v1/health")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "rate_limited")
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestServerConcurrencyLimit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	router := funcRouter(func(ctx context.Context) (*routing.RouteResult, error) {
		close(entered)
		<-release
		return &routing.RouteResult{}, nil
	})

	cfg := DefaultConfig("")
	cfg.MaxConcurrent = 1
	ts, _ := newTestServer(t, cfg, router)

	post := func() *http.Response {
		resp, err := http.Post(ts.URL+"/api/v1/route", "application/json", strings.NewReader(validRoute))
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var first *http.Response
	go func() {
		defer wg.Done()
		first = post()
	}()

	<-entered
	resp, _ := get(t, ts.URL+"/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.StatusCode)
}

func TestServerRecoversPanic(t *testing.T) {
	router := funcRouter(func(context.Context) (*routing.RouteResult, error) {
		panic("boom")
	})
	ts, _ := newTestServer(t, DefaultConfig(""), router)

	resp, err := http.Post(ts.URL+"/api/v1/route", "application/json", strings.NewReader(validRoute))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The slot is released after the panic.
	resp, _ = get(t, ts.URL+"/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerRequestTimeout(t *testing.T) {
	router := funcRouter(func(ctx context.Context) (*routing.RouteResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	cfg := DefaultConfig("")
	cfg.RequestTimeout = 10 * time.Millisecond
	ts, _ := newTestServer(t, cfg, router)

	resp, err := http.Post(ts.URL+"/api/v1/route", "application/json", strings.NewReader(validRoute))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServerStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>router</h1>"), 0o644))

	cfg := DefaultConfig("")
	cfg.StaticDir = dir
	ts, _ := newTestServer(t, cfg, &mockRouter{})

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>router</h1>", body)

	resp, _ = get(t, ts.URL+"/api/v1/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
