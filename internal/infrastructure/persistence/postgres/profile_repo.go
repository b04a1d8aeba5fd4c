// Package postgres implements the PostgreSQL persistence layer for the
// Lorebound backend.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// Implements run.ProgressionService: XP grants after completed runs.
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository manages user profiles and progression.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// AddExperience adds XP to the user's profile and recomputes the level.
// Level formula: floor(xp / 1000) + 1, levels never go down.
func (r *ProfileRepository) AddExperience(ctx context.Context, userID uuid.UUID, xp int) error {
	if xp <= 0 {
		return nil
	}

	tag, err := r.conn.Exec(ctx, `
		UPDATE profiles
		SET xp = xp + $2,
		    level = GREATEST(level, (xp + $2) / 1000 + 1)
		WHERE user_id = $1
	`, userID, xp)
	if err != nil {
		return fmt.Errorf("failed to add experience: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}

	return nil
}
