package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job" }
func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(5 * time.Minute)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(5*time.Minute), s.Next(at))
	assert.Equal(t, "@every 5m0s", s.String())
}

func TestDailySchedule_Next(t *testing.T) {
	s := NewDailySchedule(0, 5)

	before := time.Date(2026, 3, 1, 0, 4, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC), s.Next(before))

	after := time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC), s.Next(after))
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(nil)

	job := &countingJob{name: "a"}
	assert.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)

	infos := s.ListJobs()
	assert.Len(t, infos, 1)
	assert.Equal(t, "a", infos[0].Name)
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(nil)
	job := &countingJob{name: "a"}
	assert.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "a")
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, job.runs)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(nil)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	assert.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
