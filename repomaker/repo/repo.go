package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/repoforge/repomaker/repomaker/apk"
	"github.com/repoforge/repomaker/repomaker/index"
	"github.com/repoforge/repomaker/repomaker/keyring"
	"github.com/repoforge/repomaker/repomaker/schema"
	"github.com/repoforge/repomaker/repomaker/store"
	"github.com/sirupsen/logrus"
)

// RepoDir is the subdirectory that holds the published tree: packages,
// index files, QR code and landing page.
const RepoDir = "repo"

// Repository is one managed package repository on disk.
type Repository struct {
	name    string
	cfg     schema.Repo
	root    string
	logger  *logrus.Logger
	store   *store.Store
	scanner *apk.Scanner
}

func New(name string, cfg schema.Repo, dataDir string, st *store.Store, logger *logrus.Logger) *Repository {
	return &Repository{
		name:    name,
		cfg:     cfg,
		root:    filepath.Join(dataDir, "repos", name),
		logger:  logger,
		store:   st,
		scanner: apk.NewScanner(logger),
	}
}

func (r *Repository) Name() string {
	return r.name
}

// Path returns the repo root directory.
func (r *Repository) Path() string {
	return r.root
}

// RepoPath returns the published tree directory.
func (r *Repository) RepoPath() string {
	return filepath.Join(r.root, RepoDir)
}

func (r *Repository) keyPath() string {
	return filepath.Join(r.root, keyring.KeyFileName)
}

func (r *Repository) cachePath() string {
	return filepath.Join(r.root, apk.CacheFileName)
}

// Fingerprint loads the signing key and returns its fingerprint.
func (r *Repository) Fingerprint() (string, error) {
	key, err := keyring.Load(r.keyPath())
	if err != nil {
		return "", err
	}
	return key.Fingerprint(), nil
}

// FingerprintURL returns the repo URL with the fingerprint parameter.
func (r *Repository) FingerprintURL() (string, error) {
	fp, err := r.Fingerprint()
	if err != nil {
		return "", err
	}
	return keyring.FingerprintURL(r.cfg.URL, fp), nil
}

// Create initializes the repository on disk: directory layout, signing
// key, QR code, landing page and the store record. Fails if a signing
// key already exists so the fingerprint stays stable.
func (r *Repository) Create() error {
	if err := os.MkdirAll(r.RepoPath(), 0755); err != nil {
		return fmt.Errorf("failed to create repo directories: %w", err)
	}

	key, err := keyring.Generate(r.keyPath())
	if err != nil {
		return err
	}
	fingerprint := key.Fingerprint()

	fpURL := keyring.FingerprintURL(r.cfg.URL, fingerprint)
	if err := index.WriteQRCode(r.RepoPath(), fpURL); err != nil {
		return err
	}
	if err := index.WritePage(r.RepoPath(), fpURL); err != nil {
		return err
	}

	if err := r.store.CreateRepo(r.name, fingerprint); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"repo":        r.name,
		"fingerprint": fingerprint,
	}).Info("Repository created")

	return nil
}

// Update scans the packages in the repo directory, merges curated app
// metadata from the store and rewrites the signed index.
func (r *Repository) Update(ctx context.Context) error {
	if err := r.store.BeginUpdate(r.name); err != nil {
		return err
	}

	ok := false
	defer func() {
		if err := r.store.FinishUpdate(r.name, ok); err != nil {
			r.logger.Warnf("Failed to clear update state for %s: %v", r.name, err)
		}
	}()

	key, err := keyring.Load(r.keyPath())
	if err != nil {
		return err
	}

	packages, cacheChanged, err := r.scanner.Scan(r.RepoPath(), r.cachePath())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	curatedRecords, err := r.store.AppsForRepo(r.name)
	if err != nil {
		return fmt.Errorf("failed to load app metadata: %w", err)
	}
	curated := make(map[string]index.Metadata, len(curatedRecords))
	for packageID, rec := range curatedRecords {
		curated[packageID] = index.Metadata{
			Name:        rec.Name,
			Summary:     rec.Summary,
			Description: rec.Description,
			Category:    rec.Category,
		}
	}

	meta := index.Meta{
		Name:        r.cfg.Name,
		Description: r.cfg.Description,
		URL:         r.cfg.URL,
		Fingerprint: key.Fingerprint(),
		Timestamp:   now().UTC(),
	}

	idx := index.Build(meta, curated, packages)
	if err := index.Write(r.RepoPath(), idx, key); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"repo":          r.name,
		"apps":          len(idx.Apps),
		"packages":      len(packages),
		"cache_changed": cacheChanged,
	}).Info("Repository updated")

	ok = true
	return nil
}
