package query

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
	"github.com/lorebound/lorebound-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK QUERY
// Персональный ранг пользователя с соседями по счёту.
// Ранг считается по лучшему (max) счёту периода.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserRankQuery содержит параметры запроса ранга.
type GetUserRankQuery struct {
	// UserID - пользователь, чей ранг запрашивается.
	UserID uuid.UUID

	// Scope - временной срез лидерборда.
	Scope leaderboard.Scope

	// Handle - ник пользователя для ответа. Берётся из профиля
	// вызывающим кодом, запрос его не резолвит.
	Handle string
}

// Validate проверяет корректность параметров запроса.
func (q *GetUserRankQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return shared.NewDomainError("query", "GetUserRank", shared.ErrInvalidID, "user id is required")
	}
	if !q.Scope.IsValid() {
		return shared.WrapError("query", "GetUserRank", shared.ErrValidation,
			"unknown leaderboard scope", shared.ErrInvalidScope)
	}
	return nil
}

// GetUserRankHandler обрабатывает запрос персонального ранга.
type GetUserRankHandler struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
	log   *logger.Logger
	now   func() time.Time
}

// NewGetUserRankHandler создаёт обработчик персонального ранга.
func NewGetUserRankHandler(repo leaderboard.Repository, cache leaderboard.Cache, log *logger.Logger) *GetUserRankHandler {
	return &GetUserRankHandler{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.Component("get_user_rank")),
		now:   timeutil.NowUTC,
	}
}

// Handle возвращает ранг пользователя в текущем периоде среза.
// Пользователь без счетов в периоде получает ответ с нулевым Rank
// и пустыми соседями, а не ошибку.
func (h *GetUserRankHandler) Handle(ctx context.Context, query GetUserRankQuery) (*leaderboard.UserRank, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	now := h.now()
	periodKey := leaderboard.CurrentPeriodKey(query.Scope, now)

	if h.cache != nil {
		if ur, ok := h.cache.GetUserRank(ctx, query.UserID, query.Scope, periodKey); ok {
			return ur, nil
		}
	}

	ur := &leaderboard.UserRank{
		UserID:    query.UserID,
		Handle:    query.Handle,
		Scope:     query.Scope,
		PeriodKey: periodKey,
		Neighbors: []leaderboard.Neighbor{},
	}

	best, runs, err := h.repo.UserBestScore(ctx, query.UserID, query.Scope, periodKey)
	if err != nil {
		if errors.Is(err, shared.ErrRankNotFound) {
			return ur, nil
		}
		return nil, shared.WrapError("query", "GetUserRank", shared.ErrServiceUnavailable,
			"failed to load user best score", err)
	}
	ur.Score = best
	ur.TotalRuns = runs

	rank, err := h.repo.UserRank(ctx, query.UserID, query.Scope, periodKey)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserRank", shared.ErrServiceUnavailable,
			"failed to compute user rank", err)
	}
	ur.Rank = rank

	neighbors, err := h.repo.Neighbors(ctx, query.UserID, query.Scope, periodKey, best, leaderboard.DefaultNeighborCount)
	if err != nil {
		// Соседи - украшение ответа: их сбой не должен прятать ранг.
		h.log.Warn("failed to load rank neighbors",
			logger.UserID(query.UserID.String()),
			logger.Scope(query.Scope.String()),
			logger.Err(err),
		)
	} else {
		ur.Neighbors = neighbors
	}

	if h.cache != nil {
		h.cache.SetUserRank(ctx, ur)
	}

	return ur, nil
}
