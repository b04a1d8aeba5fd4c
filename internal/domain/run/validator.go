package run

import (
	"fmt"
	"time"

	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANTI-CHEAT VALIDATOR
// Проверяет сабмит забега перед подсчётом очков. Все проверки чистые:
// ни базы, ни кэша, ни часов - момент времени передаётся явно.
// Проверки идут в фиксированном порядке, возвращается первая ошибка.
// ══════════════════════════════════════════════════════════════════════════════

// Пороги валидации забега.
const (
	// MinRunDuration - минимальная длительность забега. Забег короче
	// физически невозможен для честного игрока.
	MinRunDuration = 30 * time.Second
	// MaxRunDuration - максимальная длительность забега.
	MaxRunDuration = time.Hour
)

// Validator выполняет анти-чит проверку сабмита.
type Validator struct{}

// NewValidator создаёт валидатор.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate проверяет сабмит против забега. Порядок проверок фиксирован:
//  1. подпись клиента присутствует;
//  2. токен сессии структурно корректен;
//  3. длительность забега в пределах [MinRunDuration, MaxRunDuration];
//  4. число ходов совпадает с числом записей очков.
//
// Содержимое подписи намеренно не сверяется: структурная проверка
// отсекает поломанных клиентов, а криптографическая сверка подписей
// ходов - предмет отдельного контура верификации.
func (v *Validator) Validate(r *Run, sub *Submission) error {
	if sub.ClientSignature == "" {
		return shared.ErrMissingSignature
	}

	if _, err := ParseTimestamp(r.SessionToken); err != nil {
		return shared.ErrInvalidToken
	}

	elapsed := r.Elapsed(sub.SubmittedAt)
	if elapsed < MinRunDuration {
		return shared.WrapError("run", "Validate", shared.ErrAntiCheat,
			fmt.Sprintf("run finished in %.3fs, minimum is %.0fs", elapsed.Seconds(), MinRunDuration.Seconds()),
			shared.ErrRunTooFast)
	}
	if elapsed > MaxRunDuration {
		return shared.WrapError("run", "Validate", shared.ErrAntiCheat,
			fmt.Sprintf("run lasted %.3fs, maximum is %.0fs", elapsed.Seconds(), MaxRunDuration.Seconds()),
			shared.ErrRunTooSlow)
	}

	if len(sub.Turns) != len(sub.Scores) {
		return shared.WrapError("run", "Validate", shared.ErrAntiCheat,
			fmt.Sprintf("%d turns vs %d scores", len(sub.Turns), len(sub.Scores)),
			shared.ErrTurnCountMismatch)
	}

	return nil
}
