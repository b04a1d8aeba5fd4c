package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeLeaderboardRepo struct {
	entries      []leaderboard.Entry
	participants int
	best         int
	bestRuns     int
	bestErr      error
	rank         *leaderboard.Rank
	neighbors    []leaderboard.Neighbor
	neighborsErr error
	stats        *leaderboard.Stats

	topCalls   int
	lastPeriod string
}

func (f *fakeLeaderboardRepo) TopEntries(_ context.Context, _ leaderboard.Scope, periodKey string, _, _ int) ([]leaderboard.Entry, error) {
	f.topCalls++
	f.lastPeriod = periodKey
	return f.entries, nil
}

func (f *fakeLeaderboardRepo) CountParticipants(_ context.Context, _ leaderboard.Scope, _ string) (int, error) {
	return f.participants, nil
}

func (f *fakeLeaderboardRepo) UserRank(_ context.Context, _ uuid.UUID, _ leaderboard.Scope, _ string) (*leaderboard.Rank, error) {
	return f.rank, nil
}

func (f *fakeLeaderboardRepo) UserBestScore(_ context.Context, _ uuid.UUID, _ leaderboard.Scope, _ string) (int, int, error) {
	if f.bestErr != nil {
		return 0, 0, f.bestErr
	}
	return f.best, f.bestRuns, nil
}

func (f *fakeLeaderboardRepo) Neighbors(_ context.Context, _ uuid.UUID, _ leaderboard.Scope, _ string, _, _ int) ([]leaderboard.Neighbor, error) {
	if f.neighborsErr != nil {
		return nil, f.neighborsErr
	}
	return f.neighbors, nil
}

func (f *fakeLeaderboardRepo) PeriodStats(_ context.Context, _ leaderboard.Scope, _ string) (*leaderboard.Stats, error) {
	if f.stats == nil {
		return &leaderboard.Stats{}, nil
	}
	return f.stats, nil
}

func (f *fakeLeaderboardRepo) SaveSnapshot(_ context.Context, _ *leaderboard.Snapshot) error {
	return nil
}

func (f *fakeLeaderboardRepo) LatestSnapshot(_ context.Context, _ leaderboard.Scope, _ string) (*leaderboard.Snapshot, error) {
	return nil, shared.ErrSnapshotNotFound
}

type memoryCache struct {
	pages map[string]*leaderboard.Page
	ranks map[string]*leaderboard.UserRank
	stats map[string]*leaderboard.Stats
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		pages: make(map[string]*leaderboard.Page),
		ranks: make(map[string]*leaderboard.UserRank),
		stats: make(map[string]*leaderboard.Stats),
	}
}

func (m *memoryCache) GetPage(_ context.Context, scope leaderboard.Scope, periodKey string, _, _ int) (*leaderboard.Page, bool) {
	p, ok := m.pages[string(scope)+":"+periodKey]
	return p, ok
}

func (m *memoryCache) SetPage(_ context.Context, page *leaderboard.Page, _, _ int) {
	m.pages[string(page.Scope)+":"+page.PeriodKey] = page
}

func (m *memoryCache) GetUserRank(_ context.Context, userID uuid.UUID, scope leaderboard.Scope, periodKey string) (*leaderboard.UserRank, bool) {
	r, ok := m.ranks[userID.String()+":"+string(scope)+":"+periodKey]
	return r, ok
}

func (m *memoryCache) SetUserRank(_ context.Context, rank *leaderboard.UserRank) {
	m.ranks[rank.UserID.String()+":"+string(rank.Scope)+":"+rank.PeriodKey] = rank
}

func (m *memoryCache) GetStats(_ context.Context, scope leaderboard.Scope, periodKey string) (*leaderboard.Stats, bool) {
	s, ok := m.stats[string(scope)+":"+periodKey]
	return s, ok
}

func (m *memoryCache) SetStats(_ context.Context, stats *leaderboard.Stats) {
	m.stats[string(stats.Scope)+":"+stats.PeriodKey] = stats
}

func (m *memoryCache) Invalidate(_ context.Context, _ uuid.UUID, _ leaderboard.Scope, _ time.Time) {
	m.pages = make(map[string]*leaderboard.Page)
	m.ranks = make(map[string]*leaderboard.UserRank)
	m.stats = make(map[string]*leaderboard.Stats)
}

var queryNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLeaderboard_CacheMissThenHit(t *testing.T) {
	repo := &fakeLeaderboardRepo{
		entries: []leaderboard.Entry{
			{Rank: 1, UserID: uuid.New(), Handle: "alice", Score: 900},
			{Rank: 2, UserID: uuid.New(), Handle: "bob", Score: 700},
		},
		participants: 2,
	}
	cache := newMemoryCache()

	h := NewGetLeaderboardHandler(repo, cache, logger.Default())
	h.now = func() time.Time { return queryNow }

	page, err := h.Handle(context.Background(), GetLeaderboardQuery{Scope: leaderboard.ScopeToday})
	assert.NoError(t, err)
	assert.Equal(t, "2026-03-01", page.PeriodKey)
	assert.Equal(t, 2, page.TotalParticipants)
	assert.Len(t, page.Entries, 2)
	assert.Equal(t, 1, repo.topCalls)

	// Second read is served entirely from cache.
	_, err = h.Handle(context.Background(), GetLeaderboardQuery{Scope: leaderboard.ScopeToday})
	assert.NoError(t, err)
	assert.Equal(t, 1, repo.topCalls)
}

func TestGetLeaderboard_NilCache(t *testing.T) {
	repo := &fakeLeaderboardRepo{participants: 0}

	h := NewGetLeaderboardHandler(repo, nil, logger.Default())
	h.now = func() time.Time { return queryNow }

	page, err := h.Handle(context.Background(), GetLeaderboardQuery{Scope: leaderboard.ScopeWeekly})
	assert.NoError(t, err)
	assert.Equal(t, "2026-W09", page.PeriodKey)
	assert.Empty(t, page.Entries)
}

func TestGetLeaderboard_InvalidScope(t *testing.T) {
	h := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, nil, logger.Default())

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{Scope: "monthly"})
	assert.ErrorIs(t, err, shared.ErrInvalidScope)
}

func TestGetLeaderboard_ClampsPagination(t *testing.T) {
	repo := &fakeLeaderboardRepo{}
	h := NewGetLeaderboardHandler(repo, nil, logger.Default())
	h.now = func() time.Time { return queryNow }

	q := GetLeaderboardQuery{Scope: leaderboard.ScopeAllTime, Limit: 500, Offset: -5}
	_, err := h.Handle(context.Background(), q)
	assert.NoError(t, err)
	assert.Equal(t, "alltime", repo.lastPeriod)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK
// ══════════════════════════════════════════════════════════════════════════════

func TestGetUserRank_Ranked(t *testing.T) {
	rank := leaderboard.Rank(4)
	repo := &fakeLeaderboardRepo{
		best:     1200,
		bestRuns: 3,
		rank:     &rank,
		neighbors: []leaderboard.Neighbor{
			{Rank: 3, UserID: uuid.New(), Handle: "carol", Score: 1300},
		},
	}
	cache := newMemoryCache()

	h := NewGetUserRankHandler(repo, cache, logger.Default())
	h.now = func() time.Time { return queryNow }

	userID := uuid.New()
	ur, err := h.Handle(context.Background(), GetUserRankQuery{UserID: userID, Scope: leaderboard.ScopeToday})
	assert.NoError(t, err)
	assert.True(t, ur.Ranked())
	assert.Equal(t, leaderboard.Rank(4), *ur.Rank)
	assert.Equal(t, 1200, ur.Score)
	assert.Equal(t, 3, ur.TotalRuns)
	assert.Len(t, ur.Neighbors, 1)

	cached, ok := cache.GetUserRank(context.Background(), userID, leaderboard.ScopeToday, "2026-03-01")
	assert.True(t, ok)
	assert.Equal(t, ur, cached)
}

func TestGetUserRank_Unranked(t *testing.T) {
	repo := &fakeLeaderboardRepo{bestErr: shared.ErrRankNotFound}

	h := NewGetUserRankHandler(repo, nil, logger.Default())
	h.now = func() time.Time { return queryNow }

	ur, err := h.Handle(context.Background(), GetUserRankQuery{UserID: uuid.New(), Scope: leaderboard.ScopeWeekly})
	assert.NoError(t, err)
	assert.False(t, ur.Ranked())
	assert.Nil(t, ur.Rank)
	assert.Zero(t, ur.Score)
	assert.Empty(t, ur.Neighbors)
	assert.Equal(t, "2026-W09", ur.PeriodKey)
}

func TestGetUserRank_NeighborFailureTolerated(t *testing.T) {
	rank := leaderboard.Rank(1)
	repo := &fakeLeaderboardRepo{
		best:         2000,
		bestRuns:     1,
		rank:         &rank,
		neighborsErr: shared.ErrServiceUnavailable,
	}

	h := NewGetUserRankHandler(repo, nil, logger.Default())
	h.now = func() time.Time { return queryNow }

	ur, err := h.Handle(context.Background(), GetUserRankQuery{UserID: uuid.New(), Scope: leaderboard.ScopeAllTime})
	assert.NoError(t, err)
	assert.True(t, ur.Ranked())
	assert.Empty(t, ur.Neighbors)
}

func TestGetUserRank_MissingUser(t *testing.T) {
	h := NewGetUserRankHandler(&fakeLeaderboardRepo{}, nil, logger.Default())

	_, err := h.Handle(context.Background(), GetUserRankQuery{Scope: leaderboard.ScopeToday})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD STATS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLeaderboardStats_SetsPeriodMetadata(t *testing.T) {
	repo := &fakeLeaderboardRepo{
		stats: &leaderboard.Stats{Participants: 10, TotalScores: 42, AverageScore: 310.5, HighestScore: 990},
	}
	cache := newMemoryCache()

	h := NewGetLeaderboardStatsHandler(repo, cache, logger.Default())
	h.now = func() time.Time { return queryNow }

	stats, err := h.Handle(context.Background(), GetLeaderboardStatsQuery{Scope: leaderboard.ScopeToday})
	assert.NoError(t, err)
	assert.Equal(t, leaderboard.ScopeToday, stats.Scope)
	assert.Equal(t, "2026-03-01", stats.PeriodKey)
	assert.Equal(t, queryNow, stats.LastUpdated)
	assert.Equal(t, 10, stats.Participants)

	_, ok := cache.GetStats(context.Background(), leaderboard.ScopeToday, "2026-03-01")
	assert.True(t, ok)
}

func TestGetLeaderboardStats_InvalidScope(t *testing.T) {
	h := NewGetLeaderboardStatsHandler(&fakeLeaderboardRepo{}, nil, logger.Default())

	_, err := h.Handle(context.Background(), GetLeaderboardStatsQuery{Scope: "hourly"})
	assert.ErrorIs(t, err, shared.ErrInvalidScope)
}
