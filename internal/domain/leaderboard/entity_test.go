package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompetitionRanks_TiesShareRank(t *testing.T) {
	ranks := CompetitionRanks([]int{500, 500, 400, 400, 400, 300}, 0)

	assert.Equal(t, []Rank{1, 1, 3, 3, 3, 6}, ranks)
}

func TestCompetitionRanks_NoTies(t *testing.T) {
	ranks := CompetitionRanks([]int{900, 700, 100}, 0)

	assert.Equal(t, []Rank{1, 2, 3}, ranks)
}

func TestCompetitionRanks_OffsetBase(t *testing.T) {
	// Вторая страница: перед окном уже 50 мест.
	ranks := CompetitionRanks([]int{400, 400, 300}, 50)

	assert.Equal(t, []Rank{51, 51, 53}, ranks)
}

func TestCompetitionRanks_AllTied(t *testing.T) {
	ranks := CompetitionRanks([]int{250, 250, 250}, 0)

	assert.Equal(t, []Rank{1, 1, 1}, ranks)
}

func TestCompetitionRanks_Empty(t *testing.T) {
	assert.Empty(t, CompetitionRanks(nil, 0))
}

func TestRank_IsValid(t *testing.T) {
	assert.True(t, Rank(1).IsValid())
	assert.False(t, Rank(0).IsValid())
	assert.False(t, Rank(-3).IsValid())
}

func TestRank_IsTop10(t *testing.T) {
	assert.True(t, Rank(1).IsTop10())
	assert.True(t, Rank(10).IsTop10())
	assert.False(t, Rank(11).IsTop10())
}
