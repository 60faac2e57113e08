package tasks

import (
	"context"
	"sync"

	"github.com/repoforge/repomaker/repomaker/store"
	"github.com/sirupsen/logrus"
)

// RunFunc performs one update (and follow-up publish) of a repo.
type RunFunc func(ctx context.Context, repoName string) error

// Queue serializes repo updates on a single worker. Scheduling a repo
// that already has a pending update is a no-op, tracked through the
// store's update flags so the dedup survives restarts.
type Queue struct {
	logger *logrus.Logger
	store  *store.Store
	run    RunFunc

	jobs   chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

func NewQueue(st *store.Store, logger *logrus.Logger, run RunFunc, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{
		logger: logger,
		store:  st,
		run:    run,
		jobs:   make(chan string, buffer),
	}
}

// Start launches the worker goroutine.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.started = true

	q.wg.Add(1)
	go q.worker(ctx)
}

// Stop cancels the running job and waits for the worker to exit. The
// jobs channel stays open: a debounced watcher callback may still fire
// after Stop, and the scheduled flag it sets survives in the store.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
}

// Enqueue schedules an update for the repo. Returns false when an
// update was already pending.
func (q *Queue) Enqueue(repoName string) (bool, error) {
	scheduled, err := q.store.ScheduleUpdate(repoName)
	if err != nil {
		return false, err
	}
	if !scheduled {
		q.logger.Debugf("Update for %s already scheduled, skipping", repoName)
		return false, nil
	}

	select {
	case q.jobs <- repoName:
	default:
		// The scheduled flag is set, so the repo is picked up by the
		// next scheduled run even though the buffer was full.
		q.logger.Warnf("Update queue is full, %s stays scheduled", repoName)
	}
	return true, nil
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case name := <-q.jobs:
			q.logger.WithField("repo", name).Info("Starting scheduled update")

			if err := q.run(ctx, name); err != nil {
				q.logger.WithFields(logrus.Fields{
					"repo":  name,
					"error": err.Error(),
				}).Error("Scheduled update failed")
				continue
			}

			q.logger.WithField("repo", name).Info("Scheduled update completed")
		}
	}
}
