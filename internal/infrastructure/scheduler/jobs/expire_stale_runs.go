package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorebound/lorebound-backend/internal/domain/run"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE STALE RUNS JOB
// ══════════════════════════════════════════════════════════════════════════════

// StaleRunGrace is how long past the maximum run duration an in_progress
// run may linger before it is force-abandoned. The grace absorbs clock
// skew and slow submissions that are still in flight.
const StaleRunGrace = 10 * time.Minute

// ExpireStaleRunsJob abandons runs that stayed in_progress past any
// plausible run duration. Clients that crashed mid-run never submit,
// and their runs would otherwise block the history view forever.
type ExpireStaleRunsJob struct {
	runRepo run.Repository
	logger  *slog.Logger
}

// NewExpireStaleRunsJob creates the stale run cleanup job.
func NewExpireStaleRunsJob(runRepo run.Repository, logger *slog.Logger) *ExpireStaleRunsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpireStaleRunsJob{runRepo: runRepo, logger: logger}
}

// Name returns the unique name of the job.
func (j *ExpireStaleRunsJob) Name() string {
	return "expire_stale_runs"
}

// Description returns a human-readable description of the job.
func (j *ExpireStaleRunsJob) Description() string {
	return "Abandons in_progress runs older than the maximum run duration"
}

// Run abandons every in_progress run started before the cutoff.
func (j *ExpireStaleRunsJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-(run.MaxRunDuration + StaleRunGrace))

	expired, err := j.runRepo.ExpireStale(ctx, cutoff)
	if err != nil {
		return err
	}

	if expired > 0 {
		j.logger.Info("stale runs abandoned", "count", expired, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
