// Package http implements the REST API of the Lorebound backend.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/application/command"
	"github.com/lorebound/lorebound-backend/internal/application/query"
	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Lorebound Backend API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/health",
			"runs":        "/api/v1/runs",
			"leaderboard": "/api/v1/leaderboard",
			"rank":        "/api/v1/leaderboard/me",
			"stats":       "/api/v1/leaderboard/stats",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// RUN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// startRunRequest is the body of POST /api/v1/runs.
type startRunRequest struct {
	DungeonID uuid.UUID `json:"dungeon_id"`
	Floor     int       `json:"floor"`
}

// handleStartRun handles POST /api/v1/runs
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if s.deps.StartRunHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Run handler not configured")
		return
	}

	var req startRunRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.StartRunHandler.Handle(r.Context(), command.StartRunCommand{
		UserID:    userID,
		DungeonID: req.DungeonID,
		Floor:     req.Floor,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to start run")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// submitRunRequest is the body of POST /api/v1/runs/{id}/submit.
type submitRunRequest struct {
	Turns     []run.TurnRecord `json:"turns"`
	Scores    []run.TurnScore  `json:"scores"`
	Signature string           `json:"signature"`
}

// handleSubmitRun handles POST /api/v1/runs/{id}/submit
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if s.deps.SubmitRunHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Run handler not configured")
		return
	}

	var req submitRunRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitRunHandler.Handle(r.Context(), command.SubmitRunCommand{
		RunID:           runID,
		UserID:          userID,
		Turns:           req.Turns,
		Scores:          req.Scores,
		ClientSignature: req.Signature,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to submit run")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleAbandonRun handles POST /api/v1/runs/{id}/abandon
func (s *Server) handleAbandonRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	runID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if s.deps.AbandonRunHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Run handler not configured")
		return
	}

	result, err := s.deps.AbandonRunHandler.Handle(r.Context(), command.AbandonRunCommand{
		RunID:  runID,
		UserID: userID,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to abandon run")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUserRuns handles GET /api/v1/runs
func (s *Server) handleGetUserRuns(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if s.deps.GetUserRunsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Runs handler not configured")
		return
	}

	result, err := s.deps.GetUserRunsHandler.Handle(r.Context(), query.GetUserRunsQuery{
		UserID: userID,
		Limit:  getQueryParamInt(r, "limit", 0),
		Offset: getQueryParamInt(r, "offset", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get user runs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	scope, err := leaderboard.ParseScope(getQueryParam(r, "scope", ""))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_scope", "scope must be today, weekly or alltime")
		return
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), query.GetLeaderboardQuery{
		Scope:  scope,
		Limit:  getQueryParamInt(r, "limit", 0),
		Offset: getQueryParamInt(r, "offset", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUserRank handles GET /api/v1/leaderboard/me
func (s *Server) handleGetUserRank(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if s.deps.GetUserRankHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Rank handler not configured")
		return
	}

	scope, err := leaderboard.ParseScope(getQueryParam(r, "scope", ""))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_scope", "scope must be today, weekly or alltime")
		return
	}

	result, err := s.deps.GetUserRankHandler.Handle(r.Context(), query.GetUserRankQuery{
		UserID: userID,
		Scope:  scope,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get user rank")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboardStats handles GET /api/v1/leaderboard/stats
func (s *Server) handleGetLeaderboardStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardStatsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Stats handler not configured")
		return
	}

	scope, err := leaderboard.ParseScope(getQueryParam(r, "scope", ""))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_scope", "scope must be today, weekly or alltime")
		return
	}

	result, err := s.deps.GetLeaderboardStatsHandler.Handle(r.Context(), query.GetLeaderboardStatsQuery{Scope: scope})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get leaderboard stats")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// requireUser extracts the authenticated user from the X-User-ID header.
// The gateway in front of this service validates the session and injects
// the header; a missing or malformed value is a client error.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "X-User-ID header is required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "X-User-ID header is not a valid UUID")
		return uuid.Nil, false
	}
	return userID, true
}

// decodeBody decodes a JSON request body into dst.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}

// pathUUID extracts a UUID path parameter.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	raw := r.PathValue(key)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Path parameter is not a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// writeDomainError maps a domain error to an HTTP status and writes it.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrRunNotInProgress):
		writeJSONError(w, http.StatusConflict, "run_already_settled", err.Error())
	case shared.IsAntiCheat(err) || shared.IsScoreCalculation(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "submission_rejected", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error(logMessage,
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}
