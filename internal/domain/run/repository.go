// Package run содержит доменную модель игрового забега Lorebound.
package run

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранилища забегов.
// Реализация находится в infrastructure слое (PostgreSQL).
type Repository interface {
	// ──────────────────────────────────────────────────────────────────────────
	// RUN LIFECYCLE

	// Create сохраняет новый забег в статусе in_progress.
	Create(ctx context.Context, r *Run) error

	// FindByID возвращает забег по идентификатору.
	// Возвращает shared.ErrRunNotFound, если забег не существует.
	FindByID(ctx context.Context, id uuid.UUID) (*Run, error)

	// Complete атомарно переводит забег in_progress -> completed,
	// записывает итоговый счёт, подпись и summary и вставляет запись
	// Score в одной транзакции. Возвращает shared.ErrRunNotInProgress,
	// если забег уже завершён: условный UPDATE по статусу защищает от
	// двойного сабмита, частичной записи не бывает.
	Complete(ctx context.Context, c *Completion) error

	// Abandon переводит забег in_progress -> abandoned.
	Abandon(ctx context.Context, id uuid.UUID, completedAt time.Time) error

	// ExpireStale переводит в abandoned все забеги in_progress старше
	// переданного порога. Возвращает число затронутых забегов.
	ExpireStale(ctx context.Context, olderThan time.Time) (int, error)

	// ──────────────────────────────────────────────────────────────────────────
	// HISTORY AND STATS

	// FindByUser возвращает забеги пользователя от новых к старым.
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Run, error)

	// UserStats возвращает агрегированную статистику пользователя
	// по завершённым забегам.
	UserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}

// Completion - полный набор данных атомарного завершения забега.
type Completion struct {
	// Score - неизменяемая запись результата.
	Score *Score
	// Signature - агрегатная подпись клиента, сохраняется на забеге.
	Signature string
	// Summary - непрозрачный JSON-итог для истории забегов.
	Summary []byte
	// CompletedAt - серверное время завершения (UTC).
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION SERVICE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Константы начисления опыта за забег.
const (
	// XPPerScorePoints - делитель: 1 XP за каждые 10 очков счёта.
	XPPerScorePoints = 10
	// MaxXPPerRun - потолок опыта за один забег.
	MaxXPPerRun = 500
)

// XPForScore считает опыт за итоговый счёт забега.
func XPForScore(totalScore int) int {
	xp := totalScore / XPPerScorePoints
	if xp > MaxXPPerRun {
		return MaxXPPerRun
	}
	if xp < 0 {
		return 0
	}
	return xp
}

// ProgressionService начисляет опыт пользователю. Сбой начисления
// не должен отменять сабмит: вызывающий код логирует ошибку и
// продолжает работу.
type ProgressionService interface {
	// AddExperience добавляет xp очков опыта пользователю.
	AddExperience(ctx context.Context, userID uuid.UUID, xp int) error
}
