package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
	"github.com/lorebound/lorebound-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ABANDON RUN COMMAND
// Досрочный выход из забега без записи счёта.
// ══════════════════════════════════════════════════════════════════════════════

// AbandonRunCommand содержит параметры отказа от забега.
type AbandonRunCommand struct {
	// RunID - прерываемый забег.
	RunID uuid.UUID

	// UserID - пользователь, прерывающий забег.
	UserID uuid.UUID
}

// Validate проверяет корректность параметров команды.
func (c *AbandonRunCommand) Validate() error {
	if c.RunID == uuid.Nil {
		return shared.NewDomainError("run", "AbandonRun", shared.ErrInvalidID, "run id is required")
	}
	if c.UserID == uuid.Nil {
		return shared.NewDomainError("run", "AbandonRun", shared.ErrInvalidID, "user id is required")
	}
	return nil
}

// AbandonRunResult - результат прерывания забега.
type AbandonRunResult struct {
	RunID       uuid.UUID `json:"run_id"`
	Status      string    `json:"status"`
	AbandonedAt time.Time `json:"abandoned_at"`
}

// AbandonRunHandler обрабатывает прерывание забега.
type AbandonRunHandler struct {
	runRepo run.Repository
	log     *logger.Logger
	now     func() time.Time
}

// NewAbandonRunHandler создаёт обработчик прерывания забега.
func NewAbandonRunHandler(runRepo run.Repository, log *logger.Logger) *AbandonRunHandler {
	return &AbandonRunHandler{
		runRepo: runRepo,
		log:     log.With(logger.Component("abandon_run")),
		now:     timeutil.NowUTC,
	}
}

// Handle переводит забег in_progress -> abandoned.
func (h *AbandonRunHandler) Handle(ctx context.Context, cmd AbandonRunCommand) (*AbandonRunResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	r, err := h.runRepo.FindByID(ctx, cmd.RunID)
	if err != nil {
		return nil, err
	}
	if !r.BelongsTo(cmd.UserID) {
		return nil, shared.NewDomainError("run", "AbandonRun", shared.ErrInvalidInput, "run belongs to another user")
	}
	if !r.IsInProgress() {
		return nil, shared.WrapError("run", "AbandonRun", shared.ErrInvalidState,
			"run is already settled", shared.ErrRunNotInProgress)
	}

	now := h.now()
	if err := h.runRepo.Abandon(ctx, cmd.RunID, now); err != nil {
		return nil, err
	}

	h.log.Info("run abandoned",
		logger.RunID(cmd.RunID.String()),
		logger.UserID(cmd.UserID.String()),
	)

	return &AbandonRunResult{
		RunID:       cmd.RunID,
		Status:      string(run.StatusAbandoned),
		AbandonedAt: now,
	}, nil
}
