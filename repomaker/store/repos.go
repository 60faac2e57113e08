package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateRepo inserts a new repo record. The fingerprint is immutable
// once written.
func (s *Store) CreateRepo(name, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO repos (name, fingerprint, created_at) VALUES (?, ?, ?)`,
		name, fingerprint, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create repo %q: %w", name, err)
	}
	return nil
}

// GetRepo returns the record for name, or ErrNotFound.
func (s *Store) GetRepo(name string) (*RepoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT name, fingerprint, created_at, updated_at, published_at, update_scheduled, is_updating
		 FROM repos WHERE name = ?`, name)

	return scanRepo(row)
}

// ListRepos returns all repo records ordered by name.
func (s *Store) ListRepos() ([]RepoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT name, fingerprint, created_at, updated_at, published_at, update_scheduled, is_updating
		 FROM repos ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []RepoRecord
	for rows.Next() {
		rec, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *rec)
	}
	return repos, rows.Err()
}

// ScheduleUpdate marks the repo as having a pending update. Returns
// false when an update is already scheduled, so callers can dedup.
func (s *Store) ScheduleUpdate(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE repos SET update_scheduled = 1 WHERE name = ? AND update_scheduled = 0`, name)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Either already scheduled or unknown repo.
		if _, err := s.getRepoLocked(name); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// BeginUpdate flips the repo into the updating state and clears the
// scheduled flag.
func (s *Store) BeginUpdate(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE repos SET is_updating = 1, update_scheduled = 0 WHERE name = ?`, name)
	return err
}

// FinishUpdate clears the updating state and, on success, bumps the
// updated timestamp.
func (s *Store) FinishUpdate(name string, ok bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok {
		_, err := s.db.Exec(
			`UPDATE repos SET is_updating = 0, updated_at = ? WHERE name = ?`, time.Now().Unix(), name)
		return err
	}
	_, err := s.db.Exec(`UPDATE repos SET is_updating = 0 WHERE name = ?`, name)
	return err
}

// SetPublished records the last publication time.
func (s *Store) SetPublished(name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE repos SET published_at = ? WHERE name = ?`, at.Unix(), name)
	return err
}

func (s *Store) getRepoLocked(name string) (*RepoRecord, error) {
	row := s.db.QueryRow(
		`SELECT name, fingerprint, created_at, updated_at, published_at, update_scheduled, is_updating
		 FROM repos WHERE name = ?`, name)
	return scanRepo(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepo(row rowScanner) (*RepoRecord, error) {
	var rec RepoRecord
	var created, updated, published int64
	var scheduled, updating int

	err := row.Scan(&rec.Name, &rec.Fingerprint, &created, &updated, &published, &scheduled, &updating)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = time.Unix(created, 0)
	if updated > 0 {
		rec.UpdatedAt = time.Unix(updated, 0)
	}
	if published > 0 {
		rec.PublishedAt = time.Unix(published, 0)
	}
	rec.UpdateScheduled = scheduled != 0
	rec.IsUpdating = updating != 0

	return &rec, nil
}
