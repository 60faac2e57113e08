package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Store holds the repo metadata database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// RepoRecord is the persisted state of a repository.
type RepoRecord struct {
	Name            string
	Fingerprint     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PublishedAt     time.Time
	UpdateScheduled bool
	IsUpdating      bool
}

// AppRecord is curated metadata for one app in a repo.
type AppRecord struct {
	Repo        string `json:"repo"`
	PackageID   string `json:"package_id"`
	Name        string `json:"name"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// PublishRecord is one storage upload within a publish run.
type PublishRecord struct {
	RunID      string
	Repo       string
	Storage    string
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// Open creates or opens the metadata store in dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "repomaker.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repos (
		name TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT 0,
		published_at INTEGER NOT NULL DEFAULT 0,
		update_scheduled INTEGER NOT NULL DEFAULT 0,
		is_updating INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS apps (
		repo TEXT NOT NULL,
		package_id TEXT NOT NULL,
		name TEXT NOT NULL,
		summary TEXT,
		description TEXT,
		category TEXT,
		PRIMARY KEY (repo, package_id)
	);
	CREATE INDEX IF NOT EXISTS idx_apps_repo ON apps(repo);

	CREATE TABLE IF NOT EXISTS publish_runs (
		run_id TEXT NOT NULL,
		repo TEXT NOT NULL,
		storage TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, storage)
	);
	CREATE INDEX IF NOT EXISTS idx_publish_runs_repo ON publish_runs(repo);
	`

	_, err := s.db.Exec(schema)
	return err
}
