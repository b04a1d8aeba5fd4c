// Package jobs contains implementations of scheduled jobs for the
// Lorebound backend.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT LEADERBOARDS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotLeaderboardsJob persists a snapshot of every leaderboard scope.
// Snapshots freeze closing periods so historical tables survive the
// rollover of the day and the ISO week.
type SnapshotLeaderboardsJob struct {
	repo    leaderboard.Repository
	logger  *slog.Logger
	retrier *retry.Retrier

	// TopN is how many entries each snapshot captures.
	TopN int
}

// DefaultSnapshotTopN is the number of entries captured per snapshot.
const DefaultSnapshotTopN = 100

// NewSnapshotLeaderboardsJob creates the snapshot job.
func NewSnapshotLeaderboardsJob(repo leaderboard.Repository, logger *slog.Logger) *SnapshotLeaderboardsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotLeaderboardsJob{
		repo:    repo,
		logger:  logger,
		retrier: retry.DatabaseRetrier(),
		TopN:    DefaultSnapshotTopN,
	}
}

// Name returns the unique name of the job.
func (j *SnapshotLeaderboardsJob) Name() string {
	return "snapshot_leaderboards"
}

// Description returns a human-readable description of the job.
func (j *SnapshotLeaderboardsJob) Description() string {
	return "Persists a snapshot of the top entries of every leaderboard scope"
}

// Run captures one snapshot per scope. A failing scope does not stop
// the remaining scopes; the job reports the first error at the end.
func (j *SnapshotLeaderboardsJob) Run(ctx context.Context) error {
	now := time.Now().UTC()

	var firstErr error
	for _, scope := range leaderboard.AllScopes {
		if err := j.snapshotScope(ctx, scope, now); err != nil {
			j.logger.Error("scope snapshot failed", "scope", scope.String(), "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("snapshot %s: %w", scope, err)
			}
			continue
		}
		j.logger.Info("scope snapshot saved", "scope", scope.String())
	}
	return firstErr
}

func (j *SnapshotLeaderboardsJob) snapshotScope(ctx context.Context, scope leaderboard.Scope, now time.Time) error {
	periodKey := leaderboard.CurrentPeriodKey(scope, now)

	var entries []leaderboard.Entry
	var total int

	err := j.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		entries, err = j.repo.TopEntries(ctx, scope, periodKey, j.TopN, 0)
		if err != nil {
			return retry.Retryable(err)
		}
		total, err = j.repo.CountParticipants(ctx, scope, periodKey)
		return retry.Retryable(err)
	})
	if err != nil {
		return err
	}

	snapshot := leaderboard.NewSnapshot(leaderboard.Page{
		Scope:             scope,
		PeriodKey:         periodKey,
		TotalParticipants: total,
		Entries:           entries,
		LastUpdated:       now,
	}, now)

	return j.retrier.Do(ctx, func(ctx context.Context) error {
		return retry.Retryable(j.repo.SaveSnapshot(ctx, snapshot))
	})
}
