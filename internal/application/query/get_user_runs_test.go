package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

type fakeRunRepo struct {
	runs  []*run.Run
	stats *run.UserStats

	lastLimit  int
	lastOffset int
}

func (f *fakeRunRepo) Create(context.Context, *run.Run) error { return nil }

func (f *fakeRunRepo) FindByID(context.Context, uuid.UUID) (*run.Run, error) {
	return nil, shared.ErrRunNotFound
}

func (f *fakeRunRepo) Complete(context.Context, *run.Completion) error     { return nil }
func (f *fakeRunRepo) Abandon(context.Context, uuid.UUID, time.Time) error { return nil }
func (f *fakeRunRepo) ExpireStale(context.Context, time.Time) (int, error) { return 0, nil }

func (f *fakeRunRepo) FindByUser(_ context.Context, _ uuid.UUID, limit, offset int) ([]*run.Run, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return f.runs, nil
}

func (f *fakeRunRepo) UserStats(context.Context, uuid.UUID) (*run.UserStats, error) {
	if f.stats == nil {
		return &run.UserStats{}, nil
	}
	return f.stats, nil
}

func TestGetUserRuns_Success(t *testing.T) {
	userID := uuid.New()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(5 * time.Minute)
	score := 750

	repo := &fakeRunRepo{
		runs: []*run.Run{
			{
				ID:          uuid.New(),
				UserID:      userID,
				DungeonID:   uuid.New(),
				Floor:       2,
				Status:      run.StatusCompleted,
				TotalScore:  &score,
				StartedAt:   started,
				CompletedAt: &completed,
			},
			{
				ID:        uuid.New(),
				UserID:    userID,
				DungeonID: uuid.New(),
				Floor:     1,
				Status:    run.StatusAbandoned,
				StartedAt: started.Add(-time.Hour),
			},
		},
		stats: &run.UserStats{TotalRuns: 2, TotalScore: 750, BestScore: 750},
	}

	h := NewGetUserRunsHandler(repo)
	result, err := h.Handle(context.Background(), GetUserRunsQuery{UserID: userID})

	assert.NoError(t, err)
	assert.Len(t, result.Runs, 2)
	assert.Equal(t, "completed", result.Runs[0].Status)
	assert.Equal(t, 750, *result.Runs[0].TotalScore)
	assert.Nil(t, result.Runs[1].TotalScore)
	assert.Equal(t, 2, result.Stats.TotalRuns)
}

func TestGetUserRuns_PaginationDefaults(t *testing.T) {
	repo := &fakeRunRepo{}
	h := NewGetUserRunsHandler(repo)

	_, err := h.Handle(context.Background(), GetUserRunsQuery{UserID: uuid.New(), Limit: 0, Offset: -3})
	assert.NoError(t, err)
	assert.Equal(t, DefaultRunsLimit, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	_, err = h.Handle(context.Background(), GetUserRunsQuery{UserID: uuid.New(), Limit: 1000})
	assert.NoError(t, err)
	assert.Equal(t, MaxRunsLimit, repo.lastLimit)
}

func TestGetUserRuns_MissingUser(t *testing.T) {
	h := NewGetUserRunsHandler(&fakeRunRepo{})

	_, err := h.Handle(context.Background(), GetUserRunsQuery{})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}
