// Package leaderboard содержит доменную модель лидерборда Lorebound.
package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию пользователя в лидерборде.
// Rank начинается с 1 (первое место). Используется competition ranking:
// ранг = 1 + число пользователей со строго большим лучшим счётом,
// то есть равные счета делят одну позицию.
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если пользователь в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// CompetitionRanks проставляет ранги списку счётов, отсортированных по
// убыванию. Равные счёта делят одну позицию, следующий за группой ранг
// пропускает занятые места (1, 1, 3 - не dense ranking).
// base - число мест перед окном, для страницы это её offset.
func CompetitionRanks(scores []int, base int) []Rank {
	ranks := make([]Rank, len(scores))
	for i := range scores {
		if i > 0 && scores[i] == scores[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = Rank(base + i + 1)
	}
	return ranks
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRIES AND PAGES
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка страницы лидерборда.
// Score здесь - сумма очков пользователя за период, RunCount - число
// завершённых забегов в периоде.
type Entry struct {
	Rank         Rank           `json:"rank"`
	UserID       uuid.UUID      `json:"user_id"`
	Handle       string         `json:"handle"`
	Score        int            `json:"score"`
	RunCount     int            `json:"total_runs"`
	AvatarLayers map[string]any `json:"avatar_layers,omitempty"`
}

// Page - страница лидерборда с метаданными периода.
type Page struct {
	Scope             Scope     `json:"scope"`
	PeriodKey         string    `json:"period_key"`
	TotalParticipants int       `json:"total_participants"`
	Entries           []Entry   `json:"entries"`
	LastUpdated       time.Time `json:"last_updated"`
}

// ══════════════════════════════════════════════════════════════════════════════
// USER RANK
// ══════════════════════════════════════════════════════════════════════════════

// Neighbor - сосед пользователя в лидерборде: игрок с лучшим счётом
// в пределах NeighborScoreWindow очков от счёта пользователя.
type Neighbor struct {
	Rank   Rank      `json:"rank"`
	UserID uuid.UUID `json:"user_id"`
	Handle string    `json:"handle"`
	Score  int       `json:"score"`
}

// NeighborScoreWindow - полуширина окна счёта для поиска соседей.
const NeighborScoreWindow = 1000

// DefaultNeighborCount - число соседей по умолчанию.
const DefaultNeighborCount = 3

// UserRank - позиция пользователя с соседями по счёту.
// Ранг и соседи считаются по лучшему (max) счёту периода, в отличие
// от страниц, где счёт - сумма за период.
type UserRank struct {
	UserID    uuid.UUID  `json:"user_id"`
	Handle    string     `json:"handle"`
	Rank      *Rank      `json:"rank"`
	Score     int        `json:"score"`
	TotalRuns int        `json:"total_runs"`
	Scope     Scope      `json:"scope"`
	PeriodKey string     `json:"period_key"`
	Neighbors []Neighbor `json:"neighbors"`
}

// Ranked возвращает true, если у пользователя есть счёт в периоде.
func (ur *UserRank) Ranked() bool {
	return ur.Rank != nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS
// ══════════════════════════════════════════════════════════════════════════════

// Stats - агрегированная статистика периода лидерборда.
type Stats struct {
	Scope        Scope     `json:"scope"`
	PeriodKey    string    `json:"period_key"`
	Participants int       `json:"participants"`
	TotalScores  int       `json:"total_scores"`
	AverageScore float64   `json:"average_score"`
	HighestScore int       `json:"highest_score"`
	LowestScore  int       `json:"lowest_score"`
	LastUpdated  time.Time `json:"last_updated"`
}

// ══════════════════════════════════════════════════════════════════════════════
// PAGINATION
// ══════════════════════════════════════════════════════════════════════════════

// Границы пагинации страниц лидерборда.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 100
)

// ClampPage нормализует limit и offset к допустимым границам.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
