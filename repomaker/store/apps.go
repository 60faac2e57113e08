package store

import "fmt"

// UpsertApp inserts or replaces curated app metadata.
func (s *Store) UpsertApp(app AppRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.Name == "" {
		app.Name = app.PackageID
	}

	_, err := s.db.Exec(
		`INSERT INTO apps (repo, package_id, name, summary, description, category)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (repo, package_id) DO UPDATE SET
		   name = excluded.name,
		   summary = excluded.summary,
		   description = excluded.description,
		   category = excluded.category`,
		app.Repo, app.PackageID, app.Name, app.Summary, app.Description, app.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert app %s/%s: %w", app.Repo, app.PackageID, err)
	}
	return nil
}

// AppsForRepo returns curated metadata keyed by package id.
func (s *Store) AppsForRepo(repo string) (map[string]AppRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT repo, package_id, name, summary, description, category FROM apps WHERE repo = ?`, repo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make(map[string]AppRecord)
	for rows.Next() {
		var app AppRecord
		if err := rows.Scan(&app.Repo, &app.PackageID, &app.Name, &app.Summary, &app.Description, &app.Category); err != nil {
			return nil, err
		}
		apps[app.PackageID] = app
	}
	return apps, rows.Err()
}

// DeleteApp removes curated metadata for one app.
func (s *Store) DeleteApp(repo, packageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM apps WHERE repo = ? AND package_id = ?`, repo, packageID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
