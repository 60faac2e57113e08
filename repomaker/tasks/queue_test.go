package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/repoforge/repomaker/repomaker/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestQueue_RunsJobs(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateRepo("main", "ABCD"))

	ran := make(chan string, 1)
	run := func(ctx context.Context, repoName string) error {
		// The real runner clears the scheduled flag through BeginUpdate.
		if err := st.BeginUpdate(repoName); err != nil {
			return err
		}
		defer st.FinishUpdate(repoName, true)
		ran <- repoName
		return nil
	}

	q := NewQueue(st, testLogger(), run, 0)
	q.Start()
	defer q.Stop()

	scheduled, err := q.Enqueue("main")
	require.NoError(t, err)
	assert.True(t, scheduled)

	select {
	case name := <-ran:
		assert.Equal(t, "main", name)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not pick up the job")
	}
}

func TestQueue_EnqueueDedup(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateRepo("main", "ABCD"))

	// No worker running, so the first job stays pending.
	q := NewQueue(st, testLogger(), func(ctx context.Context, repoName string) error {
		return nil
	}, 0)

	scheduled, err := q.Enqueue("main")
	require.NoError(t, err)
	assert.True(t, scheduled)

	scheduled, err = q.Enqueue("main")
	require.NoError(t, err)
	assert.False(t, scheduled)
}

func TestQueue_EnqueueUnknownRepo(t *testing.T) {
	st := newTestStore(t)

	q := NewQueue(st, testLogger(), func(ctx context.Context, repoName string) error {
		return nil
	}, 0)

	_, err := q.Enqueue("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateRepo("main", "ABCD"))

	q := NewQueue(st, testLogger(), func(ctx context.Context, repoName string) error {
		return nil
	}, 0)
	q.Start()
	q.Stop()

	// A late watcher callback can still enqueue; the scheduled flag
	// survives for the next run instead of panicking on shutdown.
	scheduled, err := q.Enqueue("main")
	require.NoError(t, err)
	assert.True(t, scheduled)

	rec, err := st.GetRepo("main")
	require.NoError(t, err)
	assert.True(t, rec.UpdateScheduled)
}

func TestQueue_FailedJobDoesNotStopWorker(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateRepo("bad", "B"))
	require.NoError(t, st.CreateRepo("good", "G"))

	ran := make(chan string, 2)
	run := func(ctx context.Context, repoName string) error {
		if err := st.BeginUpdate(repoName); err != nil {
			return err
		}
		defer st.FinishUpdate(repoName, false)
		ran <- repoName
		if repoName == "bad" {
			return assert.AnError
		}
		return nil
	}

	q := NewQueue(st, testLogger(), run, 0)
	q.Start()
	defer q.Stop()

	_, err := q.Enqueue("bad")
	require.NoError(t, err)
	_, err = q.Enqueue("good")
	require.NoError(t, err)

	for _, want := range []string{"bad", "good"} {
		select {
		case name := <-ran:
			assert.Equal(t, want, name)
		case <-time.After(5 * time.Second):
			t.Fatalf("worker never ran %s", want)
		}
	}
}
