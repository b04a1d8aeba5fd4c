// Package redis implements the Redis caching layer for the Lorebound backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/pkg/circuitbreaker"
	"github.com/lorebound/lorebound-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// Read-through cache implementing leaderboard.Cache. Strictly
// best-effort: every Redis error is logged and swallowed here, the
// caller sees a plain miss. A dead Redis degrades latency, not
// correctness.
// ══════════════════════════════════════════════════════════════════════════════

// Per-scope cache TTLs. Today moves fastest and gets the shortest TTL.
const (
	TTLToday   = 30 * time.Second
	TTLWeekly  = 60 * time.Second
	TTLAllTime = 60 * time.Second
)

// TTLForScope returns the cache TTL for a leaderboard scope.
func TTLForScope(scope leaderboard.Scope) time.Duration {
	switch scope {
	case leaderboard.ScopeToday:
		return TTLToday
	case leaderboard.ScopeWeekly:
		return TTLWeekly
	default:
		return TTLAllTime
	}
}

// LeaderboardCache implements leaderboard.Cache over Redis.
// A circuit breaker guards every Redis round trip: after repeated
// failures reads short-circuit to misses without touching Redis,
// so a dead cache does not add a timeout to every request.
type LeaderboardCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache, log *logger.Logger) *LeaderboardCache {
	lc := &LeaderboardCache{
		cache: cache,
		log:   log.With(logger.Component("leaderboard_cache")),
	}
	lc.breaker = circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		lc.log.Warn("cache breaker state change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return lc
}

// get runs a cache read through the circuit breaker.
// A plain miss is a normal outcome and must not count as a failure.
func (lc *LeaderboardCache) get(ctx context.Context, key string, dest interface{}) error {
	var miss error
	err := lc.breaker.Execute(ctx, func(ctx context.Context) error {
		err := lc.cache.Get(ctx, key, dest)
		if errors.Is(err, ErrCacheMiss) {
			miss = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return miss
}

// set runs a cache write through the circuit breaker.
func (lc *LeaderboardCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return lc.breaker.Execute(ctx, func(ctx context.Context) error {
		return lc.cache.Set(ctx, key, value, ttl)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// PAGES
// ─────────────────────────────────────────────────────────────────────────────

// GetPage returns a cached leaderboard page, or ok=false on miss or error.
func (lc *LeaderboardCache) GetPage(ctx context.Context, scope leaderboard.Scope, periodKey string, limit, offset int) (*leaderboard.Page, bool) {
	key := PageKey(scope.String(), periodKey, limit, offset)

	var page leaderboard.Page
	if err := lc.get(ctx, key, &page); err != nil {
		lc.logMiss("GetPage", key, err)
		return nil, false
	}

	return &page, true
}

// SetPage caches a leaderboard page with the scope's TTL.
func (lc *LeaderboardCache) SetPage(ctx context.Context, page *leaderboard.Page, limit, offset int) {
	key := PageKey(page.Scope.String(), page.PeriodKey, limit, offset)

	if err := lc.set(ctx, key, page, TTLForScope(page.Scope)); err != nil {
		lc.log.Warn("failed to cache leaderboard page", logger.CacheKey(key), logger.Err(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// USER RANKS
// ─────────────────────────────────────────────────────────────────────────────

// GetUserRank returns a cached user rank, or ok=false on miss or error.
func (lc *LeaderboardCache) GetUserRank(ctx context.Context, userID uuid.UUID, scope leaderboard.Scope, periodKey string) (*leaderboard.UserRank, bool) {
	key := UserRankKey(userID.String(), scope.String(), periodKey)

	var rank leaderboard.UserRank
	if err := lc.get(ctx, key, &rank); err != nil {
		lc.logMiss("GetUserRank", key, err)
		return nil, false
	}

	return &rank, true
}

// SetUserRank caches a user's rank with the scope's TTL.
func (lc *LeaderboardCache) SetUserRank(ctx context.Context, rank *leaderboard.UserRank) {
	key := UserRankKey(rank.UserID.String(), rank.Scope.String(), rank.PeriodKey)

	if err := lc.set(ctx, key, rank, TTLForScope(rank.Scope)); err != nil {
		lc.log.Warn("failed to cache user rank", logger.CacheKey(key), logger.Err(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// STATS
// ─────────────────────────────────────────────────────────────────────────────

// GetStats returns cached leaderboard statistics, or ok=false.
func (lc *LeaderboardCache) GetStats(ctx context.Context, scope leaderboard.Scope, periodKey string) (*leaderboard.Stats, bool) {
	key := StatsKey(scope.String(), periodKey)

	var stats leaderboard.Stats
	if err := lc.get(ctx, key, &stats); err != nil {
		lc.logMiss("GetStats", key, err)
		return nil, false
	}

	return &stats, true
}

// SetStats caches leaderboard statistics with the scope's TTL.
func (lc *LeaderboardCache) SetStats(ctx context.Context, stats *leaderboard.Stats) {
	key := StatsKey(stats.Scope.String(), stats.PeriodKey)

	if err := lc.set(ctx, key, stats, TTLForScope(stats.Scope)); err != nil {
		lc.log.Warn("failed to cache leaderboard stats", logger.CacheKey(key), logger.Err(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// INVALIDATION
// ─────────────────────────────────────────────────────────────────────────────

// invalidationKeys lists the pattern deletes and exact-key deletes an
// invalidation request translates to. Page entries are matched by
// pattern because page keys embed limit and offset. A zero userID
// touches only the aggregate entries; per-user ranks of other users
// are left to expire by TTL. An empty scope covers all scopes.
func invalidationKeys(userID uuid.UUID, scope leaderboard.Scope, now time.Time) (patterns, keys []string) {
	scopes := leaderboard.AllScopes
	if scope != "" {
		scopes = []leaderboard.Scope{scope}
	}

	for _, sc := range scopes {
		periodKey := leaderboard.CurrentPeriodKey(sc, now)
		patterns = append(patterns, fmt.Sprintf("%s:%s:%s:*", PrefixLeaderboard, sc, periodKey))
		keys = append(keys, StatsKey(sc.String(), periodKey))
		if userID != uuid.Nil {
			keys = append(keys, UserRankKey(userID.String(), sc.String(), periodKey))
		}
	}
	return patterns, keys
}

// Invalidate drops cached pages and stats for the affected scopes plus
// the submitting user's rank entries. Errors are logged and swallowed.
func (lc *LeaderboardCache) Invalidate(ctx context.Context, userID uuid.UUID, scope leaderboard.Scope, now time.Time) {
	patterns, keys := invalidationKeys(userID, scope, now)

	for _, pattern := range patterns {
		if err := lc.cache.DeleteByPattern(ctx, pattern); err != nil {
			lc.log.Warn("failed to invalidate leaderboard pages", logger.CacheKey(pattern), logger.Err(err))
		}
	}
	for _, key := range keys {
		if err := lc.cache.Delete(ctx, key); err != nil {
			lc.log.Warn("failed to invalidate cache entry", logger.CacheKey(key), logger.Err(err))
		}
	}
}

// logMiss demotes expected misses to debug, keeps real errors at warn.
func (lc *LeaderboardCache) logMiss(op, key string, err error) {
	if errors.Is(err, ErrCacheMiss) {
		lc.log.Debug("cache miss", logger.Operation(op), logger.CacheKey(key))
		return
	}
	lc.log.Warn("cache read failed", logger.Operation(op), logger.CacheKey(key), logger.Err(err))
}
