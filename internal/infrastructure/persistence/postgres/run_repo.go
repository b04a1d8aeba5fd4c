// Package postgres implements the PostgreSQL persistence layer for the
// Lorebound backend.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RunRepository implements run.Repository for PostgreSQL.
type RunRepository struct {
	conn *Connection
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(conn *Connection) *RunRepository {
	return &RunRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// RUN LIFECYCLE
// ─────────────────────────────────────────────────────────────────────────────

// Create saves a new run in the in_progress state.
func (r *RunRepository) Create(ctx context.Context, rn *run.Run) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO runs (id, user_id, dungeon_id, seed, floor, status, session_token, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rn.ID,
		rn.UserID,
		rn.DungeonID,
		rn.Seed,
		rn.Floor,
		string(rn.Status),
		rn.SessionToken,
		rn.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FindByID returns a run by its identifier.
func (r *RunRepository) FindByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	return scanRun(r.conn.QueryRow(ctx, `
		SELECT id, user_id, dungeon_id, seed, floor, status, session_token, total_score, signature, summary, started_at, completed_at
		FROM runs
		WHERE id = $1
	`, id))
}

// Complete atomically flips the run from in_progress to completed and
// inserts the immutable score record. The conditional UPDATE guards
// against double submission: the second submit matches zero rows.
func (r *RunRepository) Complete(ctx context.Context, c *run.Completion) error {
	s := c.Score
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE runs
			SET status = $2, total_score = $3, signature = $4, summary = $5, completed_at = $6
			WHERE id = $1 AND status = $7
		`,
			s.RunID,
			string(run.StatusCompleted),
			s.Value,
			c.Signature,
			c.Summary,
			c.CompletedAt,
			string(run.StatusInProgress),
		)
		if err != nil {
			return fmt.Errorf("failed to complete run: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return r.settleConflict(ctx, tx, s.RunID)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO scores (id, run_id, user_id, floor, correct_count, turn_count, total_time_ms, streak_max, score, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			s.ID,
			s.RunID,
			s.UserID,
			s.Floor,
			s.CorrectCount,
			s.TurnCount,
			s.TotalTimeMs,
			s.StreakMax,
			s.Value,
			s.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}

		return nil
	})
}

// settleConflict decides why a status transition matched zero rows.
func (r *RunRepository) settleConflict(ctx context.Context, q Querier, id uuid.UUID) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM runs WHERE id = $1`, id).Scan(&status)
	if IsNoRows(err) {
		return shared.ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect run status: %w", err)
	}
	return shared.WrapError("run", "Complete", shared.ErrInvalidState,
		fmt.Sprintf("run is %s, expected in_progress", status), shared.ErrRunNotInProgress)
}

// Abandon flips the run from in_progress to abandoned.
func (r *RunRepository) Abandon(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return r.transition(ctx, id, run.StatusAbandoned, completedAt)
}

func (r *RunRepository) transition(ctx context.Context, id uuid.UUID, to run.Status, completedAt time.Time) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE runs
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
	`, id, string(to), completedAt, string(run.StatusInProgress))
	if err != nil {
		return fmt.Errorf("failed to transition run to %s: %w", to, err)
	}
	if tag.RowsAffected() == 0 {
		return r.settleConflict(ctx, r.conn, id)
	}
	return nil
}

// ExpireStale abandons all in_progress runs started before the cutoff.
func (r *RunRepository) ExpireStale(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := r.conn.Exec(ctx, `
		UPDATE runs
		SET status = $1, completed_at = NOW()
		WHERE status = $2 AND started_at < $3
	`, string(run.StatusAbandoned), string(run.StatusInProgress), olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// HISTORY AND STATS
// ─────────────────────────────────────────────────────────────────────────────

// FindByUser returns the user's runs, newest first.
func (r *RunRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*run.Run, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, dungeon_id, seed, floor, status, session_token, total_score, signature, summary, started_at, completed_at
		FROM runs
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query user runs: %w", err)
	}
	defer rows.Close()

	var runs []*run.Run
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rn)
	}

	return runs, rows.Err()
}

// UserStats aggregates the user's completed runs.
func (r *RunRepository) UserStats(ctx context.Context, userID uuid.UUID) (*run.UserStats, error) {
	stats := &run.UserStats{}

	err := r.conn.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(score), 0),
			COALESCE(MAX(score), 0),
			COALESCE(SUM(correct_count), 0),
			COALESCE(SUM(turn_count), 0)
		FROM scores
		WHERE user_id = $1
	`, userID).Scan(
		&stats.TotalRuns,
		&stats.TotalScore,
		&stats.BestScore,
		&stats.TotalCorrect,
		&stats.TotalQuestions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	if stats.TotalRuns > 0 {
		stats.AverageScore = float64(stats.TotalScore) / float64(stats.TotalRuns)
	}
	if stats.TotalQuestions > 0 {
		stats.Accuracy = float64(stats.TotalCorrect) / float64(stats.TotalQuestions) * 100
	}

	return stats, nil
}

// scanRun reads a run row in the canonical column order.
func scanRun(row pgx.Row) (*run.Run, error) {
	var rn run.Run
	var status string
	var sessionToken *string

	err := row.Scan(
		&rn.ID,
		&rn.UserID,
		&rn.DungeonID,
		&rn.Seed,
		&rn.Floor,
		&status,
		&sessionToken,
		&rn.TotalScore,
		&rn.Signature,
		&rn.Summary,
		&rn.StartedAt,
		&rn.CompletedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rn.Status = run.Status(status)
	if sessionToken != nil {
		rn.SessionToken = *sessionToken
	}

	return &rn, nil
}
