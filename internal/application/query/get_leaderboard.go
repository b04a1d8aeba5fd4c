// Package query contains read operations following CQRS pattern.
// Queries never mutate state: they read from cache-first and fall back
// to the repository, repopulating the cache best-effort.
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
// GET LEADERBOARD QUERY
// Страница лидерборда: Redis-кэш впереди, Postgres как источник истины.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса страницы лидерборда.
type GetLeaderboardQuery struct {
	// Scope - временной срез: today, weekly или alltime.
	Scope leaderboard.Scope

	// Limit - размер страницы (по умолчанию и максимум 100).
	Limit int

	// Offset - смещение от вершины таблицы.
	Offset int
}

// Validate проверяет срез и нормализует пагинацию.
func (q *GetLeaderboardQuery) Validate() error {
	if !q.Scope.IsValid() {
		return shared.WrapError("query", "GetLeaderboard", shared.ErrValidation,
			"unknown leaderboard scope", shared.ErrInvalidScope)
	}
	q.Limit, q.Offset = leaderboard.ClampPage(q.Limit, q.Offset)
	return nil
}

// GetLeaderboardHandler обрабатывает запрос страницы лидерборда.
type GetLeaderboardHandler struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
	log   *logger.Logger
	now   func() time.Time
}

// NewGetLeaderboardHandler создаёт обработчик страницы лидерборда.
// cache может быть nil: обработчик работает напрямую с репозиторием.
func NewGetLeaderboardHandler(repo leaderboard.Repository, cache leaderboard.Cache, log *logger.Logger) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.Component("get_leaderboard")),
		now:   timeutil.NowUTC,
	}
}

// Handle возвращает страницу лидерборда текущего периода среза.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*leaderboard.Page, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	now := h.now()
	periodKey := leaderboard.CurrentPeriodKey(query.Scope, now)

	if h.cache != nil {
		if page, ok := h.cache.GetPage(ctx, query.Scope, periodKey, query.Limit, query.Offset); ok {
			return page, nil
		}
	}

	entries, err := h.repo.TopEntries(ctx, query.Scope, periodKey, query.Limit, query.Offset)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable,
			"failed to load leaderboard entries", err)
	}
	total, err := h.repo.CountParticipants(ctx, query.Scope, periodKey)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable,
			"failed to count participants", err)
	}

	page := &leaderboard.Page{
		Scope:             query.Scope,
		PeriodKey:         periodKey,
		TotalParticipants: total,
		Entries:           entries,
		LastUpdated:       now,
	}

	if h.cache != nil {
		h.cache.SetPage(ctx, page, query.Limit, query.Offset)
	}

	return page, nil
}
