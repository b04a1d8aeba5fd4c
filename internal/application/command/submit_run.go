package command

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
	"github.com/lorebound/lorebound-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT RUN COMMAND
// Приём результата забега: анти-чит проверка, подсчёт очков, атомарное
// завершение, начисление опыта и сброс кэшей лидерборда.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitRunCommand содержит сабмит завершённого забега.
type SubmitRunCommand struct {
	// RunID - завершаемый забег.
	RunID uuid.UUID

	// UserID - пользователь, отправивший сабмит.
	UserID uuid.UUID

	// Turns - записи ходов от клиента.
	Turns []run.TurnRecord

	// Scores - заявленные очки по ходам.
	Scores []run.TurnScore

	// ClientSignature - агрегатная подпись клиента.
	ClientSignature string
}

// Validate проверяет структурную корректность команды.
// Анти-чит проверки выполняет доменный валидатор, не команда.
func (c *SubmitRunCommand) Validate() error {
	if c.RunID == uuid.Nil {
		return shared.NewDomainError("run", "SubmitRun", shared.ErrInvalidID, "run id is required")
	}
	if c.UserID == uuid.Nil {
		return shared.NewDomainError("run", "SubmitRun", shared.ErrInvalidID, "user id is required")
	}
	if len(c.Scores) == 0 {
		return shared.NewDomainError("run", "SubmitRun", shared.ErrEmptyValue, "submission has no turns")
	}
	return nil
}

// runSummary - итог забега, сохраняемый на записи run как JSON.
type runSummary struct {
	TurnCount    int `json:"turn_count"`
	CorrectCount int `json:"correct_count"`
	StreakMax    int `json:"streak_max"`
	TotalTimeMs  int `json:"total_time_ms"`
}

// SubmitRunResult - результат принятого сабмита.
type SubmitRunResult struct {
	RunID        uuid.UUID `json:"run_id"`
	TotalScore   int       `json:"total_score"`
	CorrectCount int       `json:"correct_count"`
	TurnCount    int       `json:"turn_count"`
	StreakMax    int       `json:"streak_max"`
	XPAwarded    int       `json:"xp_awarded"`
	CompletedAt  time.Time `json:"completed_at"`
}

// SubmitRunHandler обрабатывает сабмит забега.
type SubmitRunHandler struct {
	runRepo     run.Repository
	validator   *run.Validator
	calculator  *run.Calculator
	progression run.ProgressionService
	cache       leaderboard.Cache
	log         *logger.Logger
	now         func() time.Time
}

// NewSubmitRunHandler создаёт обработчик сабмита.
// progression и cache могут быть nil: начисление опыта и сброс кэша
// строго best-effort и не влияют на результат сабмита.
func NewSubmitRunHandler(
	runRepo run.Repository,
	validator *run.Validator,
	calculator *run.Calculator,
	progression run.ProgressionService,
	cache leaderboard.Cache,
	log *logger.Logger,
) *SubmitRunHandler {
	return &SubmitRunHandler{
		runRepo:     runRepo,
		validator:   validator,
		calculator:  calculator,
		progression: progression,
		cache:       cache,
		log:         log.With(logger.Component("submit_run")),
		now:         timeutil.NowUTC,
	}
}

// Handle принимает сабмит. Порядок шагов:
//  1. забег найден и принадлежит пользователю;
//  2. анти-чит валидация;
//  3. детерминированный подсчёт очков;
//  4. атомарное завершение с записью счёта (защита от двойного сабмита);
//  5. best-effort начисление опыта;
//  6. best-effort сброс кэшей лидерборда.
//
// Отклонённый сабмит не трогает состояние: забег остаётся in_progress,
// клиент может исправить данные и повторить либо отказаться от забега.
// Зависшие забеги подбирает фоновая очистка.
func (h *SubmitRunHandler) Handle(ctx context.Context, cmd SubmitRunCommand) (*SubmitRunResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	r, err := h.runRepo.FindByID(ctx, cmd.RunID)
	if err != nil {
		return nil, err
	}
	if !r.BelongsTo(cmd.UserID) {
		return nil, shared.NewDomainError("run", "SubmitRun", shared.ErrInvalidInput, "run belongs to another user")
	}
	if !r.IsInProgress() {
		return nil, shared.WrapError("run", "SubmitRun", shared.ErrInvalidState,
			"run is already settled", shared.ErrRunNotInProgress)
	}

	now := h.now()
	sub := &run.Submission{
		Turns:           cmd.Turns,
		Scores:          cmd.Scores,
		ClientSignature: cmd.ClientSignature,
		SubmittedAt:     now,
	}

	if err := h.validator.Validate(r, sub); err != nil {
		h.logRejection(r, err)
		return nil, err
	}

	result, err := h.calculator.Calculate(cmd.Scores)
	if err != nil {
		h.logRejection(r, err)
		return nil, err
	}

	score := run.NewScore(r.ID, r.UserID, r.Floor, result, now)
	// runSummary состоит из плоских int-полей, маршалинг не может упасть.
	summary, _ := json.Marshal(runSummary{
		TurnCount:    result.TurnCount,
		CorrectCount: result.CorrectCount,
		StreakMax:    result.StreakMax,
		TotalTimeMs:  result.TotalTimeMs,
	})

	completion := &run.Completion{
		Score:       score,
		Signature:   cmd.ClientSignature,
		Summary:     summary,
		CompletedAt: now,
	}
	if err := h.runRepo.Complete(ctx, completion); err != nil {
		return nil, err
	}

	xp := run.XPForScore(result.Total)
	if h.progression != nil && xp > 0 {
		if err := h.progression.AddExperience(ctx, r.UserID, xp); err != nil {
			h.log.Warn("failed to award experience",
				logger.UserID(r.UserID.String()),
				logger.Int("xp", xp),
				logger.Err(err),
			)
		}
	}

	if h.cache != nil {
		h.cache.Invalidate(ctx, r.UserID, "", now)
	}

	h.log.Info("run completed",
		logger.RunID(r.ID.String()),
		logger.UserID(r.UserID.String()),
		logger.Score(result.Total),
		logger.Int("turns", result.TurnCount),
	)

	return &SubmitRunResult{
		RunID:        r.ID,
		TotalScore:   result.Total,
		CorrectCount: result.CorrectCount,
		TurnCount:    result.TurnCount,
		StreakMax:    result.StreakMax,
		XPAwarded:    xp,
		CompletedAt:  now,
	}, nil
}

func (h *SubmitRunHandler) logRejection(r *run.Run, cause error) {
	h.log.Warn("run submission rejected",
		logger.RunID(r.ID.String()),
		logger.UserID(r.UserID.String()),
		logger.Err(cause),
	)
}
