package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsJob(t *testing.T) {
	s := NewScheduler(testLogger(), 0)

	fired := make(chan struct{}, 8)
	s.RegisterTask("tick", func() error {
		fired <- struct{}{}
		return nil
	})

	require.NoError(t, s.AddJob(Job{
		Name:     "tick-every-second",
		Schedule: "* * * * * *",
		TaskName: "tick",
	}))

	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never fired")
	}
}

func TestScheduler_AddJobErrors(t *testing.T) {
	s := NewScheduler(testLogger(), 0)
	s.RegisterTask("noop", func() error { return nil })

	// Unknown task.
	err := s.AddJob(Job{Name: "a", Schedule: "* * * * * *", TaskName: "missing"})
	assert.Error(t, err)

	// Bad cron expression.
	err = s.AddJob(Job{Name: "b", Schedule: "not a schedule", TaskName: "noop"})
	assert.Error(t, err)

	// Duplicate job name.
	require.NoError(t, s.AddJob(Job{Name: "c", Schedule: "* * * * * *", TaskName: "noop"}))
	err = s.AddJob(Job{Name: "c", Schedule: "0 0 * * * *", TaskName: "noop"})
	assert.Error(t, err)
}

func TestScheduler_Jobs(t *testing.T) {
	s := NewScheduler(testLogger(), 0)
	s.RegisterTask("noop", func() error { return nil })

	require.NoError(t, s.AddJob(Job{
		Name:     "hourly",
		Schedule: "0 0 * * * *",
		TaskName: "noop",
	}))
	require.NoError(t, s.Start())
	defer s.Stop()

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "hourly", jobs[0].Name)
	assert.Equal(t, "0 0 * * * *", jobs[0].Schedule)
	assert.Equal(t, "noop", jobs[0].TaskName)
	assert.NotEmpty(t, jobs[0].NextRun)
}

func TestScheduler_StartTwice(t *testing.T) {
	s := NewScheduler(testLogger(), 0)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.Start())
}
