package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_TodayIsMidnight(t *testing.T) {
	clock := NewClock(time.UTC)
	today := clock.Today()

	assert.Zero(t, today.Hour())
	assert.Zero(t, today.Minute())
	assert.Zero(t, today.Second())
	assert.Equal(t, time.UTC, today.Location())
}

func TestFixedClock(t *testing.T) {
	pinned := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	clock := NewFixedClock(time.UTC, pinned)

	// The override is normalized to midnight.
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), clock.Today())
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), clock.Tomorrow())
}

func TestFixedClock_ConvertsToOwnLocation(t *testing.T) {
	almaty := time.FixedZone("UTC+5", 5*60*60)

	// 22:00 UTC on the 14th is already the 15th in UTC+5.
	pinned := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	clock := NewFixedClock(almaty, pinned)
	assert.Equal(t, 15, clock.Today().Day())
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2026, 7, 1, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), DateOf(ts))
}

func TestSameDate(t *testing.T) {
	morning := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 7, 1, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDate(morning, evening))
	assert.False(t, SameDate(evening, nextDay))
}

func TestFormatAndParseDate(t *testing.T) {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-05", FormatDate(date))

	parsed, err := ParseDate("2026-01-05", time.UTC)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(date))

	_, err = ParseDate("05.01.2026", time.UTC)
	assert.Error(t, err)

	_, err = ParseDate("2026-13-40", time.UTC)
	assert.Error(t, err)
}

func TestNextOccurrence(t *testing.T) {
	t.Run("later today", func(t *testing.T) {
		from := time.Date(2026, 3, 14, 4, 0, 0, 0, time.UTC)
		next := NextOccurrence(from, 5, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC), next)
	})

	t.Run("already passed rolls to tomorrow", func(t *testing.T) {
		from := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
		next := NextOccurrence(from, 5, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 15, 5, 0, 0, 0, time.UTC), next)
	})

	t.Run("exact moment rolls to tomorrow", func(t *testing.T) {
		from := time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC)
		next := NextOccurrence(from, 5, 0, time.UTC)
		assert.True(t, next.After(from), "next occurrence must be strictly after from")
	})
}
