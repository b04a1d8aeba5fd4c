package query

import (
	"context"
	"time"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
	"github.com/lorebound/lorebound-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD STATS QUERY
// Агрегированная статистика периода лидерборда.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardStatsQuery содержит параметры запроса статистики.
type GetLeaderboardStatsQuery struct {
	// Scope - временной срез лидерборда.
	Scope leaderboard.Scope
}

// Validate проверяет корректность среза.
func (q *GetLeaderboardStatsQuery) Validate() error {
	if !q.Scope.IsValid() {
		return shared.WrapError("query", "GetLeaderboardStats", shared.ErrValidation,
			"unknown leaderboard scope", shared.ErrInvalidScope)
	}
	return nil
}

// GetLeaderboardStatsHandler обрабатывает запрос статистики.
type GetLeaderboardStatsHandler struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
	log   *logger.Logger
	now   func() time.Time
}

// NewGetLeaderboardStatsHandler создаёт обработчик статистики.
func NewGetLeaderboardStatsHandler(repo leaderboard.Repository, cache leaderboard.Cache, log *logger.Logger) *GetLeaderboardStatsHandler {
	return &GetLeaderboardStatsHandler{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.Component("get_leaderboard_stats")),
		now:   timeutil.NowUTC,
	}
}

// Handle возвращает статистику текущего периода среза.
func (h *GetLeaderboardStatsHandler) Handle(ctx context.Context, query GetLeaderboardStatsQuery) (*leaderboard.Stats, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	now := h.now()
	periodKey := leaderboard.CurrentPeriodKey(query.Scope, now)

	if h.cache != nil {
		if stats, ok := h.cache.GetStats(ctx, query.Scope, periodKey); ok {
			return stats, nil
		}
	}

	stats, err := h.repo.PeriodStats(ctx, query.Scope, periodKey)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboardStats", shared.ErrServiceUnavailable,
			"failed to load leaderboard stats", err)
	}
	stats.Scope = query.Scope
	stats.PeriodKey = periodKey
	stats.LastUpdated = now

	if h.cache != nil {
		h.cache.SetStats(ctx, stats)
	}

	return stats, nil
}
