// Package leaderboard содержит доменную модель лидерборда Lorebound.
package leaderboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт чтения лидерборда из хранилища.
// Реализация находится в infrastructure слое (PostgreSQL).
//
// Два разных агрегата по одним и тем же записям Score:
//   - страницы считают суммарный счёт пользователя за период;
//   - ранг и соседи считают лучший (max) счёт за период.
type Repository interface {
	// ──────────────────────────────────────────────────────────────────────────
	// PAGES

	// TopEntries возвращает строки лидерборда от лучших к худшим.
	// Ранг строки = offset + позиция + 1.
	TopEntries(ctx context.Context, scope Scope, periodKey string, limit, offset int) ([]Entry, error)

	// CountParticipants возвращает число уникальных участников периода.
	CountParticipants(ctx context.Context, scope Scope, periodKey string) (int, error)

	// ──────────────────────────────────────────────────────────────────────────
	// RANKS

	// UserRank возвращает ранг пользователя по лучшему счёту периода.
	// Возвращает nil без ошибки, если у пользователя нет счетов в периоде.
	UserRank(ctx context.Context, userID uuid.UUID, scope Scope, periodKey string) (*Rank, error)

	// UserBestScore возвращает лучший счёт пользователя за период
	// вместе с числом его забегов. Возвращает shared.ErrRankNotFound,
	// если счетов нет.
	UserBestScore(ctx context.Context, userID uuid.UUID, scope Scope, periodKey string) (int, int, error)

	// Neighbors возвращает до count игроков с лучшим счётом в пределах
	// NeighborScoreWindow от score, исключая самого пользователя,
	// от больших счетов к меньшим.
	Neighbors(ctx context.Context, userID uuid.UUID, scope Scope, periodKey string, score, count int) ([]Neighbor, error)

	// ──────────────────────────────────────────────────────────────────────────
	// STATS

	// PeriodStats возвращает агрегированную статистику периода.
	PeriodStats(ctx context.Context, scope Scope, periodKey string) (*Stats, error)

	// ──────────────────────────────────────────────────────────────────────────
	// SNAPSHOTS

	// SaveSnapshot сохраняет срез лидерборда.
	SaveSnapshot(ctx context.Context, s *Snapshot) error

	// LatestSnapshot возвращает последний снапшот периода.
	// Возвращает shared.ErrSnapshotNotFound, если снапшотов нет.
	LatestSnapshot(ctx context.Context, scope Scope, periodKey string) (*Snapshot, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет контракт кэша лидерборда. Реализация - Redis.
//
// Кэш строго best-effort: любая ошибка кэша поглощается на месте,
// логируется и никогда не доходит до клиента. Промах и сбой для
// вызывающего кода неразличимы.
type Cache interface {
	// GetPage возвращает закэшированную страницу или ok=false.
	GetPage(ctx context.Context, scope Scope, periodKey string, limit, offset int) (*Page, bool)

	// SetPage кэширует страницу с TTL среза.
	SetPage(ctx context.Context, page *Page, limit, offset int)

	// GetUserRank возвращает закэшированный ранг или ok=false.
	GetUserRank(ctx context.Context, userID uuid.UUID, scope Scope, periodKey string) (*UserRank, bool)

	// SetUserRank кэширует ранг пользователя с TTL среза.
	SetUserRank(ctx context.Context, rank *UserRank)

	// GetStats возвращает закэшированную статистику или ok=false.
	GetStats(ctx context.Context, scope Scope, periodKey string) (*Stats, bool)

	// SetStats кэширует статистику с TTL среза.
	SetStats(ctx context.Context, stats *Stats)

	// Invalidate сбрасывает кэши после нового счёта. Сбрасываются
	// страницы и статистика затронутых срезов и персональный ранг
	// пользователя. Нулевой userID сбрасывает ранги всех пользователей,
	// пустой срез - все срезы.
	Invalidate(ctx context.Context, userID uuid.UUID, scope Scope, now time.Time)
}
