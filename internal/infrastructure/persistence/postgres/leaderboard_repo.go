// Package postgres implements the PostgreSQL persistence layer for the
// Lorebound backend.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// All period windows resolve to a single lower bound on scores.created_at.
// An unparseable period key means no filter at all, never an error:
// a leaderboard that shows too much beats one that errors out.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// periodFilter returns the SQL fragment and args for a period window.
// The fragment is empty for alltime and for malformed period keys.
func periodFilter(scope leaderboard.Scope, periodKey string, argOffset int) (string, []interface{}) {
	start, ok := leaderboard.PeriodStart(scope, periodKey)
	if !ok {
		return "", nil
	}
	return fmt.Sprintf(" AND s.created_at >= $%d", argOffset), []interface{}{start}
}

// ─────────────────────────────────────────────────────────────────────────────
// PAGES
// ─────────────────────────────────────────────────────────────────────────────

// TopEntries returns leaderboard rows best-first. Page scores are the
// per-user SUM over the period; a grinder with many decent runs can
// outrank a single lucky one.
func (r *LeaderboardRepository) TopEntries(ctx context.Context, scope leaderboard.Scope, periodKey string, limit, offset int) ([]leaderboard.Entry, error) {
	filter, filterArgs := periodFilter(scope, periodKey, 3)
	query := fmt.Sprintf(`
		SELECT s.user_id,
		       COALESCE(p.handle, 'Anonymous'),
		       COALESCE(p.avatar_layers, '{}'::jsonb),
		       SUM(s.score),
		       COUNT(s.id)
		FROM scores s
		LEFT JOIN profiles p ON p.user_id = s.user_id
		WHERE TRUE%s
		GROUP BY s.user_id, p.handle, p.avatar_layers
		ORDER BY SUM(s.score) DESC, s.user_id
		LIMIT $1 OFFSET $2
	`, filter)

	args := append([]interface{}{limit, offset}, filterArgs...)
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top entries: %w", err)
	}
	defer rows.Close()

	var entries []leaderboard.Entry
	for rows.Next() {
		var e leaderboard.Entry
		var avatarRaw []byte

		if err := rows.Scan(&e.UserID, &e.Handle, &avatarRaw, &e.Score, &e.RunCount); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if len(avatarRaw) > 0 {
			_ = json.Unmarshal(avatarRaw, &e.AvatarLayers)
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Competition ranking within the fetched window: tied sums share
	// a rank, the rank after a tied group skips the shared places.
	totals := make([]int, len(entries))
	for i, e := range entries {
		totals[i] = e.Score
	}
	for i, rank := range leaderboard.CompetitionRanks(totals, offset) {
		entries[i].Rank = rank
	}

	return entries, nil
}

// CountParticipants returns the number of distinct users with scores
// in the period.
func (r *LeaderboardRepository) CountParticipants(ctx context.Context, scope leaderboard.Scope, periodKey string) (int, error) {
	filter, filterArgs := periodFilter(scope, periodKey, 1)
	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT s.user_id)
		FROM scores s
		WHERE TRUE%s
	`, filter)

	var count int
	if err := r.conn.QueryRow(ctx, query, filterArgs...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// RANKS
// Rank queries use the per-user best (MAX) score, not the period sum:
// "what is my rank" answers "how good was my best run".
// Competition ranking: rank = 1 + users with a strictly greater best,
// so equal bests share a rank.
// ─────────────────────────────────────────────────────────────────────────────

// UserRank returns the user's rank by best score, or nil if the user
// has no scores in the period.
func (r *LeaderboardRepository) UserRank(ctx context.Context, userID uuid.UUID, scope leaderboard.Scope, periodKey string) (*leaderboard.Rank, error) {
	filter, filterArgs := periodFilter(scope, periodKey, 2)

	bestQuery := fmt.Sprintf(`
		SELECT MAX(s.score)
		FROM scores s
		WHERE s.user_id = $1%s
	`, filter)

	var best *int
	args := append([]interface{}{userID}, filterArgs...)
	if err := r.conn.QueryRow(ctx, bestQuery, args...).Scan(&best); err != nil {
		return nil, fmt.Errorf("failed to query user best score: %w", err)
	}
	if best == nil {
		return nil, nil
	}

	filter2, filterArgs2 := periodFilter(scope, periodKey, 2)
	higherQuery := fmt.Sprintf(`
		SELECT COUNT(DISTINCT s.user_id)
		FROM scores s
		WHERE s.score > $1%s
	`, filter2)

	var higher int
	args = append([]interface{}{*best}, filterArgs2...)
	if err := r.conn.QueryRow(ctx, higherQuery, args...).Scan(&higher); err != nil {
		return nil, fmt.Errorf("failed to count higher scores: %w", err)
	}

	rank := leaderboard.Rank(higher + 1)
	return &rank, nil
}

// UserBestScore returns the user's best score and run count for the
// period. Returns shared.ErrRankNotFound when the user has no scores.
func (r *LeaderboardRepository) UserBestScore(ctx context.Context, userID uuid.UUID, scope leaderboard.Scope, periodKey string) (int, int, error) {
	filter, filterArgs := periodFilter(scope, periodKey, 2)
	query := fmt.Sprintf(`
		SELECT MAX(s.score), COUNT(s.id)
		FROM scores s
		WHERE s.user_id = $1%s
	`, filter)

	var best *int
	var runs int
	args := append([]interface{}{userID}, filterArgs...)
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&best, &runs); err != nil {
		return 0, 0, fmt.Errorf("failed to query user best score: %w", err)
	}
	if best == nil {
		return 0, 0, shared.ErrRankNotFound
	}

	return *best, runs, nil
}

// Neighbors returns up to count players whose best score falls within
// NeighborScoreWindow of the given score, excluding the user, best-first.
// Each neighbor carries its own competition rank.
func (r *LeaderboardRepository) Neighbors(ctx context.Context, userID uuid.UUID, scope leaderboard.Scope, periodKey string, score, count int) ([]leaderboard.Neighbor, error) {
	filter, filterArgs := periodFilter(scope, periodKey, 5)
	query := fmt.Sprintf(`
		WITH bests AS (
			SELECT s.user_id, MAX(s.score) AS best
			FROM scores s
			WHERE TRUE%s
			GROUP BY s.user_id
		)
		SELECT b.user_id,
		       COALESCE(p.handle, 'Anonymous'),
		       b.best,
		       (SELECT COUNT(*) FROM bests h WHERE h.best > b.best) + 1
		FROM bests b
		LEFT JOIN profiles p ON p.user_id = b.user_id
		WHERE b.user_id <> $1
		  AND b.best BETWEEN $2 - $3 AND $2 + $3
		ORDER BY b.best DESC, b.user_id
		LIMIT $4
	`, filter)

	args := append([]interface{}{userID, score, leaderboard.NeighborScoreWindow, count}, filterArgs...)
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	defer rows.Close()

	var neighbors []leaderboard.Neighbor
	for rows.Next() {
		var n leaderboard.Neighbor
		var rank int
		if err := rows.Scan(&n.UserID, &n.Handle, &n.Score, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		n.Rank = leaderboard.Rank(rank)
		neighbors = append(neighbors, n)
	}

	return neighbors, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// STATS
// ─────────────────────────────────────────────────────────────────────────────

// PeriodStats aggregates the period's score records.
func (r *LeaderboardRepository) PeriodStats(ctx context.Context, scope leaderboard.Scope, periodKey string) (*leaderboard.Stats, error) {
	filter, filterArgs := periodFilter(scope, periodKey, 1)
	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT s.user_id),
		       COUNT(s.id),
		       COALESCE(AVG(s.score), 0),
		       COALESCE(MAX(s.score), 0),
		       COALESCE(MIN(s.score), 0)
		FROM scores s
		WHERE TRUE%s
	`, filter)

	stats := &leaderboard.Stats{
		Scope:       scope,
		PeriodKey:   periodKey,
		LastUpdated: time.Now().UTC(),
	}
	err := r.conn.QueryRow(ctx, query, filterArgs...).Scan(
		&stats.Participants,
		&stats.TotalScores,
		&stats.AverageScore,
		&stats.HighestScore,
		&stats.LowestScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query period stats: %w", err)
	}

	return stats, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SNAPSHOT OPERATIONS
// ─────────────────────────────────────────────────────────────────────────────

// SaveSnapshot persists a leaderboard snapshot as JSONB.
func (r *LeaderboardRepository) SaveSnapshot(ctx context.Context, s *leaderboard.Snapshot) error {
	payload, err := json.Marshal(s.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO leaderboard_snapshots (id, scope, period_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, string(s.Scope), s.PeriodKey, payload, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// LatestSnapshot returns the most recent snapshot for a period.
func (r *LeaderboardRepository) LatestSnapshot(ctx context.Context, scope leaderboard.Scope, periodKey string) (*leaderboard.Snapshot, error) {
	var s leaderboard.Snapshot
	var scopeStr string
	var payload []byte

	err := r.conn.QueryRow(ctx, `
		SELECT id, scope, period_key, payload, created_at
		FROM leaderboard_snapshots
		WHERE scope = $1 AND period_key = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, string(scope), periodKey).Scan(&s.ID, &scopeStr, &s.PeriodKey, &payload, &s.CreatedAt)

	if IsNoRows(err) {
		return nil, shared.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	s.Scope = leaderboard.Scope(scopeStr)
	if err := json.Unmarshal(payload, &s.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot payload: %w", err)
	}

	return &s, nil
}
