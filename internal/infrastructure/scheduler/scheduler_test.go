package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub" }
func (j *stubJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRegister_Validation(t *testing.T) {
	s := NewScheduler(nil, time.UTC)
	schedule := NewIntervalSchedule(time.Hour)

	assert.ErrorIs(t, s.Register(nil, schedule), ErrNilJob)
	assert.ErrorIs(t, s.Register(&stubJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&stubJob{name: "a"}, schedule))
	assert.ErrorIs(t, s.Register(&stubJob{name: "a"}, schedule), ErrJobAlreadyExists)
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := NewScheduler(nil, time.UTC)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestRunNow(t *testing.T) {
	s := NewScheduler(nil, time.UTC)
	job := &stubJob{name: "generate"}
	require.NoError(t, s.Register(job, NewDailyAtSchedule(5, 0, time.UTC)))

	result, err := s.RunNow(context.Background(), "generate")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	last, ok := s.LastRun("generate")
	require.True(t, ok)
	assert.Equal(t, "generate", last.JobName)
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := NewScheduler(nil, time.UTC)
	_, err := s.RunNow(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNow_FailureIsRecorded(t *testing.T) {
	s := NewScheduler(nil, time.UTC)
	job := &stubJob{name: "broken", err: errors.New("boom")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, result.Success)

	last, ok := s.LastRun("broken")
	require.True(t, ok)
	assert.False(t, last.Success)
	assert.Error(t, last.Error)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := NewScheduler(nil, time.UTC)
	job := &stubJob{name: "tick"}

	// Due almost immediately; the loop checks every second.
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	require.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)
}
