// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED COMMAND TYPES
// ══════════════════════════════════════════════════════════════════════════════

// ResultKind classifies what a practice command resolved to.
type ResultKind int

const (
	// ResultProblem means a problem is presented to the learner.
	ResultProblem ResultKind = iota
	// ResultDayComplete means every problem of the day is done.
	ResultDayComplete
	// ResultNoProblems means nothing is scheduled for the date.
	ResultNoProblems
)

// ProblemView is the learner-facing slice of a catalog entry. The answer
// never leaves the application layer.
type ProblemView struct {
	Display  string
	Position int // one-based, for "problem N of M"
	Total    int
}

// CompletionGuard deduplicates day completion notifications. The first caller
// to observe a completion wins; later observers get false.
type CompletionGuard interface {
	FirstCompletion(ctx context.Context, learnerID int64, date time.Time) (bool, error)
}

// InMemoryCompletionGuard is the fallback guard for deployments without
// Redis. It forgets its flags on restart, which at worst repeats one
// notification.
type InMemoryCompletionGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryCompletionGuard creates an empty guard.
func NewInMemoryCompletionGuard() *InMemoryCompletionGuard {
	return &InMemoryCompletionGuard{seen: make(map[string]struct{})}
}

// FirstCompletion implements CompletionGuard.
func (g *InMemoryCompletionGuard) FirstCompletion(_ context.Context, learnerID int64, date time.Time) (bool, error) {
	key := date.Format("2006-01-02") + ":" + strconv.FormatInt(learnerID, 10)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = struct{}{}
	return true, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PER-LEARNER LOCKS
// ══════════════════════════════════════════════════════════════════════════════

// learnerLocks serializes commands per learner so that a double-tapped answer
// cannot race its own ledger writes. Locks are never released from the map;
// the whitelist keeps the population small.
type learnerLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newLearnerLocks() *learnerLocks {
	return &learnerLocks{locks: make(map[int64]*sync.Mutex)}
}

// LockSet is the shared per-learner lock table. Both practice handlers must
// be built from the same LockSet or the serialization guarantee is lost.
type LockSet struct {
	inner *learnerLocks
}

// NewLockSet creates an empty lock table.
func NewLockSet() *LockSet {
	return &LockSet{inner: newLearnerLocks()}
}

func (l *learnerLocks) lock(learnerID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[learnerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[learnerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
