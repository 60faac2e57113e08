package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/repoforge/repomaker/repomaker/rollout"
	"github.com/repoforge/repomaker/repomaker/storage"
	"github.com/repoforge/repomaker/repomaker/store"
)

// now is swapped out in tests.
var now = time.Now

// ErrUpdateInProgress is returned when a publish is requested while the
// repo's index is being rewritten.
var ErrUpdateInProgress = errors.New("update in progress")

// PublishResult summarizes one publish run.
type PublishResult struct {
	RunID         string
	StartTime     time.Time
	EndTime       time.Time
	Failed        bool
	FailedStorage string
	Error         error
}

// Publish uploads the repo tree to every backend, in batches sized by
// the parallelism setting. Batches run sequentially, backends within a
// batch in parallel, aborting after the first failed batch. Every
// backend attempt is recorded in the publish history.
func (r *Repository) Publish(ctx context.Context, backends []storage.Storage, parallelism string) (*PublishResult, error) {
	result := &PublishResult{
		RunID:     uuid.New().String(),
		StartTime: now(),
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no storages configured for repo %q", r.name)
	}

	// Never upload a half-written index.
	rec, err := r.store.GetRepo(r.name)
	if err != nil {
		return nil, err
	}
	if rec.IsUpdating {
		return nil, fmt.Errorf("repo %q: %w", r.name, ErrUpdateInProgress)
	}

	strategy, err := rollout.ParseStrategy(parallelism, len(backends))
	if err != nil {
		result.Failed = true
		result.Error = fmt.Errorf("invalid parallelism: %w", err)
		return result, result.Error
	}

	batches := strategy.CreateBatches(backends)

	for _, batch := range batches {
		if failed, err := r.publishBatch(ctx, result.RunID, batch); err != nil {
			result.Failed = true
			result.FailedStorage = failed
			result.Error = err
			result.EndTime = now()
			return result, result.Error
		}
	}

	result.EndTime = now()
	if err := r.store.SetPublished(r.name, result.EndTime); err != nil {
		r.logger.Warnf("Failed to record publication date for %s: %v", r.name, err)
	}

	return result, nil
}

func (r *Repository) publishBatch(ctx context.Context, runID string, batch []storage.Storage) (string, error) {
	type outcome struct {
		storage string
		err     error
	}

	results := make(chan outcome, len(batch))
	var wg sync.WaitGroup

	for _, backend := range batch {
		wg.Add(1)
		go func(b storage.Storage) {
			defer wg.Done()

			started := now()
			err := b.Publish(ctx, r.RepoPath())
			finished := now()

			rec := store.PublishRecord{
				RunID:      runID,
				Repo:       r.name,
				Storage:    b.Name(),
				StartedAt:  started,
				FinishedAt: finished,
			}
			if err != nil {
				rec.Error = err.Error()
			}
			if recErr := r.store.RecordPublish(rec); recErr != nil {
				r.logger.Warnf("Failed to record publish history: %v", recErr)
			}

			results <- outcome{storage: b.Name(), err: err}
		}(backend)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results (abort on first failure)
	for res := range results {
		if res.err != nil {
			return res.storage, fmt.Errorf("publish failed on storage %s: %w", res.storage, res.err)
		}
	}

	return "", nil
}
