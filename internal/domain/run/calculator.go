package run

import (
	"fmt"

	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CALCULATOR
// Детерминированный подсчёт итогового счёта по заявленным очкам ходов.
// Один и тот же сабмит всегда даёт один и тот же результат.
// ══════════════════════════════════════════════════════════════════════════════

// Границы допустимых значений одного хода.
const (
	// MaxTurnPoints - максимум очков за один вопрос.
	MaxTurnPoints = 1000
	// MinAnswerTime - минимальное время ответа в секундах.
	MinAnswerTime = 0.5
	// MaxAnswerTime - максимальное время ответа в секундах.
	MaxAnswerTime = 60.0
)

// ScoreResult - результат подсчёта очков по валидному сабмиту.
type ScoreResult struct {
	// Total - сумма очков всех ходов.
	Total int
	// CorrectCount - число верных ответов.
	CorrectCount int
	// TurnCount - общее число ходов.
	TurnCount int
	// TotalTimeMs - суммарное время ответов в миллисекундах.
	TotalTimeMs int
	// StreakMax - максимальный бонус за серию среди ходов.
	StreakMax int
}

// Calculator считает итоговый счёт забега.
type Calculator struct{}

// NewCalculator создаёт калькулятор.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate проверяет каждый ход и суммирует очки.
// Любое значение вне границ прерывает подсчёт: ошибка несёт индекс
// хода, частичных результатов не бывает.
func (c *Calculator) Calculate(scores []TurnScore) (*ScoreResult, error) {
	result := &ScoreResult{TurnCount: len(scores)}

	for i, s := range scores {
		if s.Points < 0 || s.Points > MaxTurnPoints {
			return nil, shared.WrapError("run", "Score", shared.ErrScoreCalculation,
				fmt.Sprintf("turn %d: points %d out of range [0, %d]", i, s.Points, MaxTurnPoints),
				shared.ErrTurnPointsRange)
		}
		if s.AnswerTime < MinAnswerTime || s.AnswerTime > MaxAnswerTime {
			return nil, shared.WrapError("run", "Score", shared.ErrScoreCalculation,
				fmt.Sprintf("turn %d: answer time %.3fs out of range [%.1f, %.0f]", i, s.AnswerTime, MinAnswerTime, MaxAnswerTime),
				shared.ErrAnswerTimeRange)
		}

		result.Total += s.Points
		result.TotalTimeMs += int(s.AnswerTime * 1000)
		if s.IsCorrect {
			result.CorrectCount++
		}
		if s.StreakBonus > result.StreakMax {
			result.StreakMax = s.StreakBonus
		}
	}

	return result, nil
}
