// Package leaderboard содержит доменную модель лидерборда Lorebound.
package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// Периодический срез верхушки лидерборда, сохраняемый в Postgres.
// Снапшоты - исторический архив: горячие запросы их не читают, но по
// ним можно восстановить итоги любого закрытого периода.
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - сохранённый срез лидерборда.
type Snapshot struct {
	// ID - уникальный идентификатор снапшота.
	ID uuid.UUID
	// Scope - срез, по которому сделан снапшот.
	Scope Scope
	// PeriodKey - ключ периода на момент снапшота.
	PeriodKey string
	// Payload - сериализованная страница лидерборда.
	Payload Page
	// CreatedAt - момент снятия снапшота (UTC).
	CreatedAt time.Time
}

// NewSnapshot снимает снапшот со страницы лидерборда.
func NewSnapshot(page Page, now time.Time) *Snapshot {
	return &Snapshot{
		ID:        uuid.New(),
		Scope:     page.Scope,
		PeriodKey: page.PeriodKey,
		Payload:   page,
		CreatedAt: now.UTC(),
	}
}
