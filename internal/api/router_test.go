package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyalbum/faces/internal/api/middleware"
	"github.com/familyalbum/faces/internal/ws"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubDetector bool

func (d stubDetector) Loaded() bool { return bool(d) }

func newTestRouter(t *testing.T, limit int) *Router {
	t.Helper()

	cfg := middleware.DefaultRateLimiterConfig()
	cfg.Max = limit
	cfg.Window = time.Minute

	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), &Dependencies{
		Hub:       ws.NewHub(),
		DB:        stubPinger{},
		Detector:  stubDetector(true),
		RateLimit: cfg,
	})
	r.Setup()
	t.Cleanup(func() { _ = r.Shutdown() })
	return r
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, 0)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := r.App().Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRouter_UnknownRouteUsesEnvelope(t *testing.T) {
	r := newTestRouter(t, 0)

	resp, err := r.App().Test(httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "HTTP_ERROR", body.Error.Code)
}

func TestRouter_RateLimitSkipsEventStream(t *testing.T) {
	r := newTestRouter(t, 1)

	identify := func() int {
		req := httptest.NewRequest(http.MethodPost, "/v1/faces/identify", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/json")
		resp, err := r.App().Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusBadRequest, identify())
	assert.Equal(t, http.StatusTooManyRequests, identify())

	for i := 0; i < 3; i++ {
		resp, err := r.App().Test(httptest.NewRequest(http.MethodGet, "/v1/faces/events", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	}
}
