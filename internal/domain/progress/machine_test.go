package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func attempt(ordinal int, completed bool) Attempt {
	return Attempt{Ordinal: ordinal, LearnerID: 1, Completed: completed}
}

func TestNextFor_EmptyDay(t *testing.T) {
	action := NextFor(0, nil)
	assert.Equal(t, ActionNoProblems, action.Kind)

	// An empty day is not a completed day, even with stray attempts.
	action = NextFor(0, []Attempt{attempt(0, true)})
	assert.Equal(t, ActionNoProblems, action.Kind)
}

func TestNextFor_FreshDay(t *testing.T) {
	action := NextFor(10, nil)
	assert.Equal(t, ActionPresent, action.Kind)
	assert.Equal(t, 0, action.Ordinal)
	assert.Equal(t, 10, action.Total)
	assert.Equal(t, 1, action.Position())
}

func TestNextFor_ResumesAtLowestIncomplete(t *testing.T) {
	attempts := []Attempt{
		attempt(0, true),
		attempt(1, true),
		attempt(2, false), // opened but not solved
	}
	action := NextFor(10, attempts)
	assert.Equal(t, ActionPresent, action.Kind)
	assert.Equal(t, 2, action.Ordinal)
	assert.Equal(t, 3, action.Position())
}

func TestNextFor_SkipsGapsToLowestMissing(t *testing.T) {
	// Ordinal 1 was never attempted; it comes before the later completed ones.
	attempts := []Attempt{
		attempt(0, true),
		attempt(2, true),
		attempt(3, true),
	}
	action := NextFor(5, attempts)
	assert.Equal(t, ActionPresent, action.Kind)
	assert.Equal(t, 1, action.Ordinal)
}

func TestNextFor_DayComplete(t *testing.T) {
	attempts := make([]Attempt, 0, 3)
	for i := 0; i < 3; i++ {
		attempts = append(attempts, attempt(i, true))
	}
	action := NextFor(3, attempts)
	assert.Equal(t, ActionDayComplete, action.Kind)
	assert.Equal(t, 3, action.Total)
}

func TestNextFor_IgnoresOutOfRangeAttempts(t *testing.T) {
	attempts := []Attempt{
		attempt(-1, true),
		attempt(0, true),
		attempt(1, true),
		attempt(7, true), // beyond the scheduled set
	}
	action := NextFor(3, attempts)
	assert.Equal(t, ActionPresent, action.Kind)
	assert.Equal(t, 2, action.Ordinal)
}

func TestNextFor_IncompleteAttemptsDoNotCount(t *testing.T) {
	attempts := []Attempt{
		attempt(0, false),
		attempt(1, false),
		attempt(2, false),
	}
	action := NextFor(3, attempts)
	assert.Equal(t, ActionPresent, action.Kind)
	assert.Equal(t, 0, action.Ordinal)
}
