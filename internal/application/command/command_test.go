package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/progress"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeCatalog struct {
	mu   sync.Mutex
	days map[string][]*problem.Problem

	// forceCount makes CountForDate lie, to simulate a catalog whose count
	// and rows disagree.
	forceCount int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{days: make(map[string][]*problem.Problem)}
}

func (c *fakeCatalog) SaveDay(_ context.Context, date time.Time, problems []*problem.Problem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := timeutil.FormatDate(date)
	if len(c.days[key]) > 0 {
		return shared.ErrDayNotEmpty
	}
	for i, p := range problems {
		if p.Ordinal != i {
			return shared.ErrSparseOrdinals
		}
	}
	c.days[key] = problems
	return nil
}

func (c *fakeCatalog) GetByOrdinal(_ context.Context, date time.Time, ordinal int) (*problem.Problem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	day := c.days[timeutil.FormatDate(date)]
	if ordinal < 0 || ordinal >= len(day) {
		return nil, shared.ErrProblemNotFound
	}
	return day[ordinal], nil
}

func (c *fakeCatalog) CountForDate(_ context.Context, date time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.forceCount > 0 {
		return c.forceCount, nil
	}
	return len(c.days[timeutil.FormatDate(date)]), nil
}

func (c *fakeCatalog) GetDay(_ context.Context, date time.Time) ([]*problem.Problem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.days[timeutil.FormatDate(date)], nil
}

type ledgerKey struct {
	date      string
	ordinal   int
	learnerID int64
}

type fakeLedger struct {
	mu       sync.Mutex
	attempts map[ledgerKey]bool // value is Completed
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{attempts: make(map[ledgerKey]bool)}
}

func (l *fakeLedger) key(date time.Time, ordinal int, learnerID int64) ledgerKey {
	return ledgerKey{date: timeutil.FormatDate(date), ordinal: ordinal, learnerID: learnerID}
}

func (l *fakeLedger) EnsureOpen(_ context.Context, date time.Time, ordinal int, learnerID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := l.key(date, ordinal, learnerID)
	if _, ok := l.attempts[k]; !ok {
		l.attempts[k] = false
	}
	return nil
}

func (l *fakeLedger) MarkCompleted(_ context.Context, date time.Time, ordinal int, learnerID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := l.key(date, ordinal, learnerID)
	completed, ok := l.attempts[k]
	if !ok {
		return false, shared.ErrAttemptNotFound
	}
	if completed {
		return false, shared.ErrAttemptCompleted
	}
	l.attempts[k] = true
	return true, nil
}

// racingLedger simulates another session completing the attempt between the
// handler's list and its update.
type racingLedger struct {
	*fakeLedger
}

func (l *racingLedger) MarkCompleted(ctx context.Context, date time.Time, ordinal int, learnerID int64) (bool, error) {
	_, _ = l.fakeLedger.MarkCompleted(ctx, date, ordinal, learnerID)
	return false, shared.ErrAttemptCompleted
}

func (l *fakeLedger) ListForLearner(_ context.Context, date time.Time, learnerID int64) ([]progress.Attempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := timeutil.FormatDate(date)
	var out []progress.Attempt
	for k, completed := range l.attempts {
		if k.date == day && k.learnerID == learnerID {
			out = append(out, progress.Attempt{
				Date:      date,
				Ordinal:   k.ordinal,
				LearnerID: learnerID,
				Completed: completed,
			})
		}
	}
	return out, nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *fakeBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) published(eventType shared.EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type failingGuard struct{}

func (failingGuard) FirstCompletion(context.Context, int64, time.Time) (bool, error) {
	return false, errors.New("guard store down")
}

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURE
// ══════════════════════════════════════════════════════════════════════════════

const learnerID int64 = 100500

var testDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func seedProblems(t *testing.T, catalog *fakeCatalog, answers ...int) {
	t.Helper()
	problems := make([]*problem.Problem, len(answers))
	for i, answer := range answers {
		display, tokens, err := problem.Encode(problem.ShapeProductPlusTerm, 1, 1, answer-1)
		require.NoError(t, err)
		problems[i] = &problem.Problem{
			Date:    testDate,
			Ordinal: i,
			Display: display,
			Answer:  answer,
			Tokens:  tokens,
		}
	}
	require.NoError(t, catalog.SaveDay(context.Background(), testDate, problems))
}

type fixture struct {
	catalog *fakeCatalog
	ledger  *fakeLedger
	bus     *fakeBus
	begin   *BeginOrResumeHandler
	submit  *SubmitAnswerHandler
}

func newFixture() *fixture {
	catalog := newFakeCatalog()
	ledger := newFakeLedger()
	bus := &fakeBus{}
	clock := timeutil.NewFixedClock(time.UTC, testDate)
	locks := NewLockSet()
	guard := NewInMemoryCompletionGuard()

	return &fixture{
		catalog: catalog,
		ledger:  ledger,
		bus:     bus,
		begin:   NewBeginOrResumeHandler(catalog, ledger, clock, locks),
		submit:  NewSubmitAnswerHandler(catalog, ledger, clock, locks, guard, bus),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BEGIN OR RESUME
// ══════════════════════════════════════════════════════════════════════════════

func TestBeginOrResume_NoProblemsScheduled(t *testing.T) {
	f := newFixture()

	result, err := f.begin.Handle(context.Background(), BeginOrResumeCommand{LearnerID: learnerID})
	require.NoError(t, err)
	assert.Equal(t, ResultNoProblems, result.Kind)
	assert.Nil(t, result.Problem)
}

func TestBeginOrResume_PresentsFirstProblem(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 2, 3, 4)

	result, err := f.begin.Handle(context.Background(), BeginOrResumeCommand{LearnerID: learnerID})
	require.NoError(t, err)
	require.Equal(t, ResultProblem, result.Kind)
	assert.Equal(t, 1, result.Problem.Position)
	assert.Equal(t, 3, result.Problem.Total)

	// Presenting opens the attempt.
	attempts, err := f.ledger.ListForLearner(context.Background(), testDate, learnerID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Completed)
}

func TestBeginOrResume_IsIdempotent(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 2, 3)

	first, err := f.begin.Handle(context.Background(), BeginOrResumeCommand{LearnerID: learnerID})
	require.NoError(t, err)
	second, err := f.begin.Handle(context.Background(), BeginOrResumeCommand{LearnerID: learnerID})
	require.NoError(t, err)

	assert.Equal(t, first.Problem.Display, second.Problem.Display)
	assert.Equal(t, first.Problem.Position, second.Problem.Position)

	attempts, err := f.ledger.ListForLearner(context.Background(), testDate, learnerID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1, "repeat presentation must not add attempts")
}

func TestBeginOrResume_ReportsInconsistentCatalog(t *testing.T) {
	f := newFixture()

	// The count claims two problems but no rows exist.
	f.catalog.forceCount = 2

	_, err := f.begin.Handle(context.Background(), BeginOrResumeCommand{LearnerID: learnerID})
	require.Error(t, err)
	assert.True(t, shared.IsInconsistency(err))
}

func TestBeginOrResume_RequiresLearnerID(t *testing.T) {
	f := newFixture()
	_, err := f.begin.Handle(context.Background(), BeginOrResumeCommand{})
	assert.Error(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWER
// ══════════════════════════════════════════════════════════════════════════════

func TestSubmitAnswer_WrongAnswerRepeatsProblem(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 7)

	result, err := f.submit.Handle(context.Background(), SubmitAnswerCommand{LearnerID: learnerID, Text: "8"})
	require.NoError(t, err)
	assert.Equal(t, ResultProblem, result.Kind)
	assert.True(t, result.Graded)
	assert.False(t, result.Correct)
	assert.Equal(t, 1, result.Problem.Position)
}

func TestSubmitAnswer_ExactTextMatchOnly(t *testing.T) {
	cases := []struct {
		text    string
		correct bool
	}{
		{"6", true},
		{" 6 ", true},   // surrounding whitespace is forgiven
		{"\t6\n", true}, // any whitespace, not just spaces
		{"06", false},   // leading zero is not the same text
		{"+6", false},
		{"6.0", false},
		{"six", false},
		{"", false},
	}

	for _, tc := range cases {
		f := newFixture()
		seedProblems(t, f.catalog, 6)

		result, err := f.submit.Handle(context.Background(), SubmitAnswerCommand{LearnerID: learnerID, Text: tc.text})
		require.NoError(t, err, "text %q", tc.text)
		assert.Equal(t, tc.correct, result.Correct, "text %q", tc.text)
	}
}

func TestSubmitAnswer_WalksThroughTheDay(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 10, 20, 30)
	ctx := context.Background()

	// Problem 1: wrong first, then right.
	result, err := f.submit.Handle(ctx, SubmitAnswerCommand{LearnerID: learnerID, Text: "99"})
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, 1, result.Problem.Position)

	result, err = f.submit.Handle(ctx, SubmitAnswerCommand{LearnerID: learnerID, Text: "10"})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 2, result.Problem.Position)

	// Problem 2.
	result, err = f.submit.Handle(ctx, SubmitAnswerCommand{LearnerID: learnerID, Text: "20"})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 3, result.Problem.Position)

	// Problem 3 finishes the day.
	result, err = f.submit.Handle(ctx, SubmitAnswerCommand{LearnerID: learnerID, Text: "30"})
	require.NoError(t, err)
	assert.Equal(t, ResultDayComplete, result.Kind)
	assert.True(t, result.Correct)
	assert.True(t, result.DayCompleted)
	assert.Equal(t, 3, result.Total)

	assert.Equal(t, 1, f.bus.published(shared.EventDayCompleted))
}

func TestSubmitAnswer_CompletionEventFiresOnce(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 5)
	ctx := context.Background()

	result, err := f.submit.Handle(ctx, SubmitAnswerCommand{LearnerID: learnerID, Text: "5"})
	require.NoError(t, err)
	assert.True(t, result.DayCompleted)

	// Further submissions see the summary, grade nothing, and publish nothing.
	result, err = f.submit.Handle(ctx, SubmitAnswerCommand{LearnerID: learnerID, Text: "5"})
	require.NoError(t, err)
	assert.Equal(t, ResultDayComplete, result.Kind)
	assert.False(t, result.Graded)
	assert.False(t, result.DayCompleted)

	assert.Equal(t, 1, f.bus.published(shared.EventDayCompleted))
}

func TestSubmitAnswer_GuardFailureSkipsNotification(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 5)

	clock := timeutil.NewFixedClock(time.UTC, testDate)
	submit := NewSubmitAnswerHandler(f.catalog, f.ledger, clock, NewLockSet(), failingGuard{}, f.bus)

	result, err := submit.Handle(context.Background(), SubmitAnswerCommand{LearnerID: learnerID, Text: "5"})
	require.NoError(t, err, "a broken guard must not fail the learner's progress")
	assert.Equal(t, ResultDayComplete, result.Kind)
	assert.True(t, result.Correct)
	assert.False(t, result.DayCompleted)
	assert.Zero(t, f.bus.published(shared.EventDayCompleted))

	// The completion itself is durable.
	attempts, err := f.ledger.ListForLearner(context.Background(), testDate, learnerID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Completed)
}

func TestSubmitAnswer_AnswerWithoutAskingOpensAttempt(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 7, 8)

	// No /start first; the answer itself opens and completes the attempt.
	result, err := f.submit.Handle(context.Background(), SubmitAnswerCommand{LearnerID: learnerID, Text: "7"})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 2, result.Problem.Position)
}

func TestSubmitAnswer_ToleratesConcurrentCompletion(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 5)

	clock := timeutil.NewFixedClock(time.UTC, testDate)
	ledger := &racingLedger{fakeLedger: f.ledger}
	submit := NewSubmitAnswerHandler(f.catalog, ledger, clock, NewLockSet(), NewInMemoryCompletionGuard(), f.bus)

	// The correct answer lands on an attempt another session just completed.
	// The learner still sees the day summary instead of an error.
	result, err := submit.Handle(context.Background(), SubmitAnswerCommand{LearnerID: learnerID, Text: "5"})
	require.NoError(t, err)
	assert.Equal(t, ResultDayComplete, result.Kind)
	assert.True(t, result.Correct)
}

func TestSubmitAnswer_NoProblemsScheduled(t *testing.T) {
	f := newFixture()

	result, err := f.submit.Handle(context.Background(), SubmitAnswerCommand{LearnerID: learnerID, Text: "1"})
	require.NoError(t, err)
	assert.Equal(t, ResultNoProblems, result.Kind)
	assert.False(t, result.Graded)
	assert.Zero(t, f.bus.published(shared.EventDayCompleted))
}

func TestSubmitAnswer_LearnersAreIndependent(t *testing.T) {
	f := newFixture()
	seedProblems(t, f.catalog, 5, 6)
	ctx := context.Background()

	const otherLearner int64 = 200600

	result, err := f.submit.Handle(ctx, SubmitAnswerCommand{LearnerID: learnerID, Text: "5"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Problem.Position)

	// The other learner still starts at problem 1.
	other, err := f.begin.Handle(ctx, BeginOrResumeCommand{LearnerID: otherLearner})
	require.NoError(t, err)
	assert.Equal(t, 1, other.Problem.Position)
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE DAY
// ══════════════════════════════════════════════════════════════════════════════

func TestGenerateDay_FillsEmptyDay(t *testing.T) {
	catalog := newFakeCatalog()
	bus := &fakeBus{}
	gen, err := problem.NewSeededGenerator(problem.DefaultGeneratorConfig(), 1)
	require.NoError(t, err)

	handler := NewGenerateDayHandler(gen, catalog, bus)
	result, err := handler.Handle(context.Background(), GenerateDayCommand{Date: testDate})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Generated)
	assert.False(t, result.AlreadyFilled)
	assert.Equal(t, 1, bus.published(shared.EventDayGenerated))

	count, err := catalog.CountForDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestGenerateDay_SecondRunIsNoOp(t *testing.T) {
	catalog := newFakeCatalog()
	bus := &fakeBus{}
	gen, err := problem.NewSeededGenerator(problem.DefaultGeneratorConfig(), 1)
	require.NoError(t, err)

	handler := NewGenerateDayHandler(gen, catalog, bus)
	_, err = handler.Handle(context.Background(), GenerateDayCommand{Date: testDate})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), GenerateDayCommand{Date: testDate})
	require.NoError(t, err)
	assert.True(t, result.AlreadyFilled)
	assert.Zero(t, result.Generated)
	assert.Equal(t, 1, bus.published(shared.EventDayGenerated), "no event for a no-op run")
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION GUARD
// ══════════════════════════════════════════════════════════════════════════════

func TestInMemoryCompletionGuard(t *testing.T) {
	guard := NewInMemoryCompletionGuard()
	ctx := context.Background()

	first, err := guard.FirstCompletion(ctx, learnerID, testDate)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := guard.FirstCompletion(ctx, learnerID, testDate)
	require.NoError(t, err)
	assert.False(t, again)

	// Different learner and different date are independent flags.
	other, err := guard.FirstCompletion(ctx, learnerID+1, testDate)
	require.NoError(t, err)
	assert.True(t, other)

	nextDay, err := guard.FirstCompletion(ctx, learnerID, testDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, nextDay)
}
