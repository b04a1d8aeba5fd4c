package run

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

func TestCalculator_SumsTurnPoints(t *testing.T) {
	scores := []TurnScore{
		{Points: 100, AnswerTime: 1.5, IsCorrect: true, StreakBonus: 0},
		{Points: 250, AnswerTime: 3.2, IsCorrect: true, StreakBonus: 10},
		{Points: 0, AnswerTime: 12.0, IsCorrect: false, StreakBonus: 0},
		{Points: 1000, AnswerTime: 0.9, IsCorrect: true, StreakBonus: 25},
	}

	result, err := NewCalculator().Calculate(scores)
	assert.NoError(t, err)
	assert.Equal(t, 1350, result.Total)
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 17600, result.TotalTimeMs)
	assert.Equal(t, 25, result.StreakMax)
}

func TestCalculator_EmptySubmission(t *testing.T) {
	result, err := NewCalculator().Calculate(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.CorrectCount)
}

func TestCalculator_PointsBounds(t *testing.T) {
	tests := []struct {
		name   string
		points int
		ok     bool
	}{
		{"zero points", 0, true},
		{"max points", 1000, true},
		{"negative points", -1, false},
		{"above max", 1001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := []TurnScore{{Points: tt.points, AnswerTime: 2.0}}
			result, err := NewCalculator().Calculate(scores)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.points, result.Total)
			} else {
				assert.ErrorIs(t, err, shared.ErrTurnPointsRange)
				assert.ErrorIs(t, err, shared.ErrScoreCalculation)
				assert.Nil(t, result)
			}
		})
	}
}

func TestCalculator_AnswerTimeBounds(t *testing.T) {
	tests := []struct {
		name       string
		answerTime float64
		ok         bool
	}{
		{"at minimum", 0.5, true},
		{"at maximum", 60.0, true},
		{"too fast", 0.499, false},
		{"too slow", 60.001, false},
		{"instant", 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := []TurnScore{{Points: 100, AnswerTime: tt.answerTime}}
			_, err := NewCalculator().Calculate(scores)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrAnswerTimeRange)
			}
		})
	}
}

func TestCalculator_ErrorCarriesTurnIndex(t *testing.T) {
	scores := []TurnScore{
		{Points: 100, AnswerTime: 1.5},
		{Points: 200, AnswerTime: 2.5},
		{Points: 5000, AnswerTime: 1.0},
	}

	_, err := NewCalculator().Calculate(scores)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "turn 2")
}

func TestCalculator_Deterministic(t *testing.T) {
	scores := []TurnScore{
		{Points: 150, AnswerTime: 2.345, IsCorrect: true, StreakBonus: 5},
		{Points: 320, AnswerTime: 0.8, IsCorrect: true, StreakBonus: 15},
	}

	calc := NewCalculator()
	first, err := calc.Calculate(scores)
	assert.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := calc.Calculate(scores)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestXPForScore(t *testing.T) {
	assert.Equal(t, 0, XPForScore(0))
	assert.Equal(t, 0, XPForScore(9))
	assert.Equal(t, 1, XPForScore(10))
	assert.Equal(t, 135, XPForScore(1350))
	assert.Equal(t, 500, XPForScore(5000))
	assert.Equal(t, 500, XPForScore(99999))
	assert.Equal(t, 0, XPForScore(-100))
}
