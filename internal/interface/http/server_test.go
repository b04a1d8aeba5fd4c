package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestServer() *Server {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return NewServer(cfg, Dependencies{})
}

func doRequest(s *Server, method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.buildMiddlewareChain(s.router).ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer()

	for _, path := range []string{"/health", "/healthz", "/live"} {
		rec := doRequest(s, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	s := newTestServer()

	rec := doRequest(s, http.MethodGet, "/health", map[string]string{"X-Request-ID": "req-123"}, "")
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = doRequest(s, http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRunEndpoints_RequireUser(t *testing.T) {
	s := newTestServer()
	runID := uuid.New().String()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/runs"},
		{http.MethodPost, "/api/v1/runs/" + runID + "/submit"},
		{http.MethodPost, "/api/v1/runs/" + runID + "/abandon"},
		{http.MethodGet, "/api/v1/runs"},
		{http.MethodGet, "/api/v1/leaderboard/me"},
	}

	for _, p := range paths {
		rec := doRequest(s, p.method, p.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)

		rec = doRequest(s, p.method, p.path, map[string]string{"X-User-ID": "not-a-uuid"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)
	}
}

func TestRunEndpoints_InvalidRunID(t *testing.T) {
	s := newTestServer()
	headers := map[string]string{"X-User-ID": uuid.New().String()}

	rec := doRequest(s, http.MethodPost, "/api/v1/runs/bogus/submit", headers, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/runs/bogus/abandon", headers, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboard_InvalidScope(t *testing.T) {
	s := newTestServer()

	rec := doRequest(s, http.MethodGet, "/api/v1/leaderboard?scope=monthly", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp JSONResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid_scope", resp.Error.Code)
}

func TestUnconfiguredHandlersReturnNotImplemented(t *testing.T) {
	s := newTestServer()
	headers := map[string]string{"X-User-ID": uuid.New().String()}

	rec := doRequest(s, http.MethodPost, "/api/v1/runs", headers, `{"dungeon_id":"`+uuid.New().String()+`"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/leaderboard?scope=today", nil, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 2
	s := NewServer(cfg, Dependencies{})

	headers := map[string]string{"X-Real-IP": "10.0.0.1"}
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/health", headers, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/health", headers, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(s, http.MethodGet, "/health", headers, "").Code)

	// A different client is unaffected.
	other := map[string]string{"X-Real-IP": "10.0.0.2"}
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/health", other, "").Code)
}
