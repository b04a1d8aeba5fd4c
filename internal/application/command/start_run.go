// Package command contains write operations following CQRS pattern.
// Each command is a self-contained use case: a request struct with
// validation, a handler with injected dependencies, and a result DTO.
package command

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
	"github.com/lorebound/lorebound-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// START RUN COMMAND
// Создаёт новый забег: выдаёт seed и анти-чит токен сессии.
// ══════════════════════════════════════════════════════════════════════════════

// StartRunCommand содержит параметры старта забега.
type StartRunCommand struct {
	// UserID - пользователь, начинающий забег.
	UserID uuid.UUID

	// DungeonID - данж забега.
	DungeonID uuid.UUID

	// Floor - стартовый этаж (по умолчанию 1).
	Floor int
}

// Validate проверяет корректность параметров команды.
func (c *StartRunCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return shared.NewDomainError("run", "StartRun", shared.ErrInvalidID, "user id is required")
	}
	if c.DungeonID == uuid.Nil {
		return shared.NewDomainError("run", "StartRun", shared.ErrInvalidID, "dungeon id is required")
	}
	if c.Floor == 0 {
		c.Floor = 1
	}
	if c.Floor < 1 || c.Floor > 100 {
		return shared.NewDomainError("run", "StartRun", shared.ErrValueOutOfRange, "floor must be between 1 and 100")
	}
	return nil
}

// StartRunResult - результат старта забега.
type StartRunResult struct {
	RunID        uuid.UUID `json:"run_id"`
	DungeonID    uuid.UUID `json:"dungeon_id"`
	Floor        int       `json:"floor"`
	Seed         int64     `json:"seed"`
	SessionToken string    `json:"session_token"`
	StartedAt    time.Time `json:"started_at"`
}

// StartRunHandler обрабатывает команду старта забега.
type StartRunHandler struct {
	runRepo run.Repository
	tokens  *run.TokenIssuer
	log     *logger.Logger
	now     func() time.Time
}

// NewStartRunHandler создаёт обработчик старта забега.
func NewStartRunHandler(runRepo run.Repository, tokens *run.TokenIssuer, log *logger.Logger) *StartRunHandler {
	return &StartRunHandler{
		runRepo: runRepo,
		tokens:  tokens,
		log:     log.With(logger.Component("start_run")),
		now:     timeutil.NowUTC,
	}
}

// Handle создаёт забег в статусе in_progress.
func (h *StartRunHandler) Handle(ctx context.Context, cmd StartRunCommand) (*StartRunResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.now()
	seed := rand.Int63n(1_000_000)
	token := h.tokens.Issue(cmd.UserID, cmd.DungeonID, now)

	r := run.NewRun(cmd.UserID, cmd.DungeonID, cmd.Floor, seed, token, now)
	if err := h.runRepo.Create(ctx, r); err != nil {
		return nil, shared.WrapError("run", "StartRun", shared.ErrServiceUnavailable, "failed to create run", err)
	}

	h.log.Info("run started",
		logger.RunID(r.ID.String()),
		logger.UserID(cmd.UserID.String()),
		logger.DungeonID(cmd.DungeonID.String()),
	)

	return &StartRunResult{
		RunID:        r.ID,
		DungeonID:    r.DungeonID,
		Floor:        r.Floor,
		Seed:         r.Seed,
		SessionToken: r.SessionToken,
		StartedAt:    r.StartedAt,
	}, nil
}
