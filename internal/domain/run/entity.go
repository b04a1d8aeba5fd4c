// Package run содержит доменную модель игрового забега Lorebound.
// Забег (run) - это одна игровая сессия в данже: от старта до сабмита
// результатов. Вся анти-чит логика и подсчёт очков живут здесь,
// в чистых функциях без внешних зависимостей.
package run

import (
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status представляет состояние забега.
type Status string

const (
	// StatusInProgress - забег начат, результаты ещё не отправлены.
	StatusInProgress Status = "in_progress"
	// StatusCompleted - результаты приняты, счёт записан.
	StatusCompleted Status = "completed"
	// StatusAbandoned - игрок бросил забег, счёт не записывается.
	StatusAbandoned Status = "abandoned"
	// StatusFailed - забег завершился неудачей. Терминальный статус,
	// зарезервированный схемой данных.
	StatusFailed Status = "failed"
)

// IsValid проверяет, что статус - одно из известных значений.
func (s Status) IsValid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusAbandoned, StatusFailed:
		return true
	}
	return false
}

// IsTerminal возвращает true, если забег завершён и не может менять статус.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusFailed
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Единственные допустимые переходы: in_progress -> {completed, abandoned, failed}.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusInProgress && next.IsValid() && next != StatusInProgress
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// RUN ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Run представляет игровую сессию пользователя в данже.
type Run struct {
	// ID - уникальный идентификатор забега.
	ID uuid.UUID
	// UserID - владелец забега. Сабмит от другого пользователя отклоняется.
	UserID uuid.UUID
	// DungeonID - данж, в котором проходит забег.
	DungeonID uuid.UUID
	// Seed - детерминированное зерно генерации вопросов.
	Seed int64
	// Floor - этаж данжа, на котором начат забег.
	Floor int
	// Status - текущее состояние забега.
	Status Status
	// SessionToken - анти-чит токен формата "<unix_ts>:<hmac_hex>",
	// выданный при старте забега.
	SessionToken string
	// TotalScore - итоговый счёт. nil, пока забег не завершён.
	TotalScore *int
	// Signature - агрегатная подпись клиента, записанная при успешном
	// сабмите. nil для незавершённых и брошенных забегов.
	Signature *string
	// Summary - непрозрачный JSON-итог забега, записанный при сабмите.
	Summary []byte
	// StartedAt - момент старта забега (UTC).
	StartedAt time.Time
	// CompletedAt - момент завершения. nil, пока забег в процессе.
	CompletedAt *time.Time
}

// NewRun создаёт новый забег в статусе in_progress.
func NewRun(userID, dungeonID uuid.UUID, floor int, seed int64, sessionToken string, now time.Time) *Run {
	return &Run{
		ID:           uuid.New(),
		UserID:       userID,
		DungeonID:    dungeonID,
		Seed:         seed,
		Floor:        floor,
		Status:       StatusInProgress,
		SessionToken: sessionToken,
		StartedAt:    now.UTC(),
	}
}

// IsInProgress возвращает true, если забег ещё не завершён.
func (r *Run) IsInProgress() bool {
	return r.Status == StatusInProgress
}

// BelongsTo проверяет принадлежность забега пользователю.
func (r *Run) BelongsTo(userID uuid.UUID) bool {
	return r.UserID == userID
}

// Elapsed возвращает длительность забега относительно переданного момента.
func (r *Run) Elapsed(now time.Time) time.Duration {
	return now.UTC().Sub(r.StartedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TurnRecord - данные одного хода, присланные клиентом.
type TurnRecord struct {
	// Index - порядковый номер хода, начиная с 0.
	Index int `json:"i"`
	// QuestionID - идентификатор вопроса.
	QuestionID string `json:"qid"`
	// AnswerIndex - выбранный вариант ответа.
	AnswerIndex int `json:"a"`
	// Correct - был ли ответ верным.
	Correct bool `json:"c"`
	// TimeMs - время ответа в миллисекундах.
	TimeMs int `json:"t"`
	// Timestamp - клиентская метка времени (unix millis).
	Timestamp int64 `json:"ts"`
	// HMAC - подпись клиента для этого хода.
	HMAC string `json:"h"`
}

// TurnScore - заявленные клиентом очки за один ход.
type TurnScore struct {
	// Points - очки за ход.
	Points int `json:"points"`
	// AnswerTime - время ответа в секундах.
	AnswerTime float64 `json:"answer_time"`
	// IsCorrect - был ли ответ верным.
	IsCorrect bool `json:"is_correct"`
	// StreakBonus - бонус за серию верных ответов.
	StreakBonus int `json:"streak_bonus"`
	// TimeBonus - бонус за скорость.
	TimeBonus int `json:"time_bonus"`
}

// Submission - полный пакет данных сабмита забега.
type Submission struct {
	// Turns - данные по каждому ходу.
	Turns []TurnRecord
	// Scores - заявленные очки, по одному элементу на ход.
	Scores []TurnScore
	// ClientSignature - агрегатная подпись клиента.
	ClientSignature string
	// SubmittedAt - серверное время приёма сабмита (UTC).
	SubmittedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Score - неизменяемая запись результата завершённого забега.
// Именно по этим записям строится лидерборд.
type Score struct {
	// ID - уникальный идентификатор записи.
	ID uuid.UUID
	// RunID - забег, породивший запись.
	RunID uuid.UUID
	// UserID - владелец результата.
	UserID uuid.UUID
	// Floor - этаж, на котором шёл забег.
	Floor int
	// CorrectCount - число верных ответов.
	CorrectCount int
	// TurnCount - общее число ходов забега.
	TurnCount int
	// TotalTimeMs - суммарное время ответов в миллисекундах.
	TotalTimeMs int
	// StreakMax - максимальный бонус за серию.
	StreakMax int
	// Value - итоговый счёт забега.
	Value int
	// CreatedAt - момент записи (UTC).
	CreatedAt time.Time
}

// NewScore собирает запись результата из валидированного сабмита.
func NewScore(runID, userID uuid.UUID, floor int, result *ScoreResult, now time.Time) *Score {
	return &Score{
		ID:           uuid.New(),
		RunID:        runID,
		UserID:       userID,
		Floor:        floor,
		CorrectCount: result.CorrectCount,
		TurnCount:    result.TurnCount,
		TotalTimeMs:  result.TotalTimeMs,
		StreakMax:    result.StreakMax,
		Value:        result.Total,
		CreatedAt:    now.UTC(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// USER STATS
// ══════════════════════════════════════════════════════════════════════════════

// UserStats - агрегированная статистика пользователя по завершённым забегам.
type UserStats struct {
	TotalRuns      int
	TotalScore     int
	AverageScore   float64
	BestScore      int
	TotalCorrect   int
	TotalQuestions int
	Accuracy       float64
}
