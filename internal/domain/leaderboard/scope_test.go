package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lorebound/lorebound-backend/internal/domain/shared"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		input string
		want  Scope
		ok    bool
	}{
		{"today", ScopeToday, true},
		{"weekly", ScopeWeekly, true},
		{"alltime", ScopeAllTime, true},
		{"", ScopeAllTime, true},
		{"TODAY", "", false},
		{"monthly", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScope(tt.input)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			} else {
				assert.ErrorIs(t, err, shared.ErrInvalidScope)
			}
		})
	}
}

func TestCurrentPeriodKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC) // Sunday

	assert.Equal(t, "2026-03-01", CurrentPeriodKey(ScopeToday, now))
	assert.Equal(t, "2026-W09", CurrentPeriodKey(ScopeWeekly, now))
	assert.Equal(t, "alltime", CurrentPeriodKey(ScopeAllTime, now))
}

func TestCurrentPeriodKey_FlipsAtUTCMidnight(t *testing.T) {
	before := time.Date(2026, 3, 1, 23, 59, 59, 999_000_000, time.UTC)
	after := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-01", CurrentPeriodKey(ScopeToday, before))
	assert.Equal(t, "2026-03-02", CurrentPeriodKey(ScopeToday, after))

	// Sunday 2026-03-01 belongs to week 9, Monday 2026-03-02 opens week 10.
	assert.Equal(t, "2026-W09", CurrentPeriodKey(ScopeWeekly, before))
	assert.Equal(t, "2026-W10", CurrentPeriodKey(ScopeWeekly, after))

	// The alltime key never changes.
	assert.Equal(t, "alltime", CurrentPeriodKey(ScopeAllTime, before))
	assert.Equal(t, "alltime", CurrentPeriodKey(ScopeAllTime, after))
}

func TestPeriodStart(t *testing.T) {
	start, ok := PeriodStart(ScopeToday, "2026-03-01")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)

	start, ok = PeriodStart(ScopeWeekly, "2026-W09")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), start) // Monday

	_, ok = PeriodStart(ScopeAllTime, "alltime")
	assert.False(t, ok)
}

func TestPeriodStart_MalformedKeyMeansNoFilter(t *testing.T) {
	tests := []struct {
		scope Scope
		key   string
	}{
		{ScopeToday, "not-a-date"},
		{ScopeToday, "2026-13-45"},
		{ScopeToday, ""},
		{ScopeWeekly, "2026-09"},
		{ScopeWeekly, "2026-W99"},
		{ScopeWeekly, "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, ok := PeriodStart(tt.scope, tt.key)
			assert.False(t, ok)
		})
	}
}

func TestClampPage(t *testing.T) {
	limit, offset := ClampPage(0, 0)
	assert.Equal(t, DefaultPageLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = ClampPage(500, -10)
	assert.Equal(t, MaxPageLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = ClampPage(25, 50)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)
}

func TestNewSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	page := Page{
		Scope:             ScopeWeekly,
		PeriodKey:         "2026-W09",
		TotalParticipants: 42,
		LastUpdated:       now,
	}

	snap := NewSnapshot(page, now)
	assert.NotEqual(t, snap.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, ScopeWeekly, snap.Scope)
	assert.Equal(t, "2026-W09", snap.PeriodKey)
	assert.Equal(t, page, snap.Payload)
	assert.Equal(t, now, snap.CreatedAt)
}
