package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RUNS QUERY
// История забегов пользователя с агрегированной статистикой.
// Без кэша: история читается редко и всегда из Postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Границы пагинации истории забегов.
const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 100
)

// GetUserRunsQuery содержит параметры запроса истории забегов.
type GetUserRunsQuery struct {
	// UserID - пользователь, чья история запрашивается.
	UserID uuid.UUID

	// Limit - размер страницы (по умолчанию 20, максимум 100).
	Limit int

	// Offset - смещение от последнего забега.
	Offset int
}

// Validate проверяет параметры и нормализует пагинацию.
func (q *GetUserRunsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return shared.NewDomainError("query", "GetUserRuns", shared.ErrInvalidID, "user id is required")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultRunsLimit
	}
	if q.Limit > MaxRunsLimit {
		q.Limit = MaxRunsLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}

// UserRunDTO - один забег в истории пользователя.
type UserRunDTO struct {
	RunID       uuid.UUID  `json:"run_id"`
	DungeonID   uuid.UUID  `json:"dungeon_id"`
	Floor       int        `json:"floor"`
	Status      string     `json:"status"`
	TotalScore  *int       `json:"total_score"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// UserRunsResult - история забегов со статистикой пользователя.
type UserRunsResult struct {
	Runs  []UserRunDTO   `json:"runs"`
	Stats *run.UserStats `json:"stats"`
}

// GetUserRunsHandler обрабатывает запрос истории забегов.
type GetUserRunsHandler struct {
	runRepo run.Repository
}

// NewGetUserRunsHandler создаёт обработчик истории забегов.
func NewGetUserRunsHandler(runRepo run.Repository) *GetUserRunsHandler {
	return &GetUserRunsHandler{runRepo: runRepo}
}

// Handle возвращает страницу истории забегов и статистику пользователя.
func (h *GetUserRunsHandler) Handle(ctx context.Context, query GetUserRunsQuery) (*UserRunsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	runs, err := h.runRepo.FindByUser(ctx, query.UserID, query.Limit, query.Offset)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserRuns", shared.ErrServiceUnavailable,
			"failed to load user runs", err)
	}

	stats, err := h.runRepo.UserStats(ctx, query.UserID)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserRuns", shared.ErrServiceUnavailable,
			"failed to load user stats", err)
	}

	dtos := make([]UserRunDTO, 0, len(runs))
	for _, r := range runs {
		dtos = append(dtos, UserRunDTO{
			RunID:       r.ID,
			DungeonID:   r.DungeonID,
			Floor:       r.Floor,
			Status:      string(r.Status),
			TotalScore:  r.TotalScore,
			StartedAt:   r.StartedAt,
			CompletedAt: r.CompletedAt,
		})
	}

	return &UserRunsResult{Runs: dtos, Stats: stats}, nil
}
