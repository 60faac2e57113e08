package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForScheduled(t *testing.T, check func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestWatcher_SchedulesOnPackageChange(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateRepo("main", "ABCD"))

	dir := t.TempDir()

	// No worker: the scheduled flag in the store is the observable effect.
	q := NewQueue(st, testLogger(), func(ctx context.Context, repoName string) error {
		return nil
	}, 0)

	w, err := NewWatcher(q, testLogger(), 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.WatchRepo("main", dir))
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "org.example.app_1.apk"), []byte("pkg"), 0644))

	ok := waitForScheduled(t, func() bool {
		rec, err := st.GetRepo("main")
		return err == nil && rec.UpdateScheduled
	})
	assert.True(t, ok, "package change never scheduled an update")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.CreateRepo("main", "ABCD"))

	dir := t.TempDir()
	q := NewQueue(st, testLogger(), func(ctx context.Context, repoName string) error {
		return nil
	}, 0)

	w, err := NewWatcher(q, testLogger(), 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.WatchRepo("main", dir))
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yml"), []byte("repo: {}"), 0644))

	time.Sleep(300 * time.Millisecond)

	rec, err := st.GetRepo("main")
	require.NoError(t, err)
	assert.False(t, rec.UpdateScheduled)
}
