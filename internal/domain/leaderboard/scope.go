// Package leaderboard содержит доменную модель лидерборда Lorebound.
// Лидерборд строится по записям Score: три временных среза (today,
// weekly, alltime), каждый со своим ключом периода. Таблицы считаются
// из Postgres и кэшируются в Redis с коротким TTL.
package leaderboard

import (
	"time"

	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCOPE
// ══════════════════════════════════════════════════════════════════════════════

// Scope определяет временной срез лидерборда.
type Scope string

const (
	// ScopeToday - лидерборд текущего дня (UTC).
	ScopeToday Scope = "today"
	// ScopeWeekly - лидерборд текущей ISO-недели.
	ScopeWeekly Scope = "weekly"
	// ScopeAllTime - лидерборд за всё время.
	ScopeAllTime Scope = "alltime"
)

// AllScopes перечисляет все срезы в фиксированном порядке.
// Используется при инвалидации кэша и снапшотах.
var AllScopes = []Scope{ScopeToday, ScopeWeekly, ScopeAllTime}

// ParseScope разбирает строку в Scope.
// Пустая строка трактуется как alltime.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeToday, ScopeWeekly, ScopeAllTime:
		return Scope(s), nil
	case "":
		return ScopeAllTime, nil
	}
	return "", shared.ErrInvalidScope
}

// IsValid проверяет, что срез - одно из известных значений.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeToday, ScopeWeekly, ScopeAllTime:
		return true
	}
	return false
}

// String возвращает строковое представление среза.
func (s Scope) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD KEYS
// Ключ периода однозначно идентифицирует окно лидерборда:
//   today  -> "2026-03-01"
//   weekly -> "2026-W09"  (ISO-неделя)
//   alltime -> "alltime"
// ══════════════════════════════════════════════════════════════════════════════

// AllTimePeriodKey - ключ единственного периода среза alltime.
const AllTimePeriodKey = "alltime"

// CurrentPeriodKey возвращает ключ периода, в который попадает момент now.
// Все вычисления в UTC: смена дня и недели происходит в полночь UTC.
func CurrentPeriodKey(scope Scope, now time.Time) string {
	switch scope {
	case ScopeToday:
		return timeutil.DayKey(now)
	case ScopeWeekly:
		return timeutil.ISOWeekKey(now)
	default:
		return AllTimePeriodKey
	}
}

// PeriodStart возвращает нижнюю границу окна периода.
// Для alltime окна нет: возвращается ok=false, фильтр не применяется.
// Некорректный ключ периода тоже даёт ok=false - запрос работает
// без временного фильтра, а не падает.
func PeriodStart(scope Scope, periodKey string) (time.Time, bool) {
	switch scope {
	case ScopeToday:
		day, err := timeutil.ParseDayKey(periodKey)
		if err != nil {
			return time.Time{}, false
		}
		return day, true
	case ScopeWeekly:
		week, err := timeutil.ParseISOWeekKey(periodKey)
		if err != nil {
			return time.Time{}, false
		}
		return week, true
	default:
		return time.Time{}, false
	}
}
