package store

import "time"

// RecordPublish appends one storage upload result to the history.
func (s *Store) RecordPublish(rec PublishRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO publish_runs (run_id, repo, storage, started_at, finished_at, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Repo, rec.Storage, rec.StartedAt.Unix(), rec.FinishedAt.Unix(), rec.Error,
	)
	return err
}

// PublishHistory returns the most recent publish records for a repo,
// newest first, capped at limit.
func (s *Store) PublishHistory(repo string, limit int) ([]PublishRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT run_id, repo, storage, started_at, finished_at, error
		 FROM publish_runs WHERE repo = ? ORDER BY started_at DESC LIMIT ?`, repo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PublishRecord
	for rows.Next() {
		var rec PublishRecord
		var started, finished int64
		if err := rows.Scan(&rec.RunID, &rec.Repo, &rec.Storage, &started, &finished, &rec.Error); err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.FinishedAt = time.Unix(finished, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}
