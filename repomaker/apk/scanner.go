package apk

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const CacheFileName = "scan-cache.json"

// cacheEntry is what gets persisted per file. A file is considered
// unchanged when name, size and mtime all match.
type cacheEntry struct {
	Size    int64   `json:"size"`
	ModTime int64   `json:"mod_time"`
	Package Package `json:"package"`
}

type Scanner struct {
	logger *logrus.Logger
	mem    *gocache.Cache
}

func NewScanner(logger *logrus.Logger) *Scanner {
	return &Scanner{
		logger: logger,
		mem:    gocache.New(15*time.Minute, 30*time.Minute),
	}
}

// Scan walks repoDir for package archives and returns their metadata,
// sorted by file name. cachePath persists scan results between runs so
// unchanged files are not re-hashed. The second return value reports
// whether the persisted cache changed.
func (s *Scanner) Scan(repoDir, cachePath string) ([]Package, bool, error) {
	cached, err := loadCache(cachePath)
	if err != nil {
		s.logger.Warnf("Ignoring unreadable scan cache %s: %v", cachePath, err)
		cached = make(map[string]cacheEntry)
	}

	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read repo directory %s: %w", repoDir, err)
	}

	fresh := make(map[string]cacheEntry)
	var packages []Package
	changed := false

	for _, entry := range entries {
		if entry.IsDir() || !IsPackageFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, false, err
		}

		memKey := fmt.Sprintf("%s|%d|%d", entry.Name(), info.Size(), info.ModTime().Unix())

		if prev, ok := cached[entry.Name()]; ok && prev.Size == info.Size() && prev.ModTime == info.ModTime().Unix() {
			fresh[entry.Name()] = prev
			packages = append(packages, prev.Package)
			s.mem.Set(memKey, prev.Package, gocache.DefaultExpiration)
			continue
		}

		if hit, ok := s.mem.Get(memKey); ok {
			pkg := hit.(Package)
			fresh[entry.Name()] = cacheEntry{Size: info.Size(), ModTime: info.ModTime().Unix(), Package: pkg}
			packages = append(packages, pkg)
			changed = true
			continue
		}

		pkg, err := s.scanFile(repoDir, entry.Name(), info)
		if err != nil {
			s.logger.Warnf("Skipping %s: %v", entry.Name(), err)
			continue
		}

		fresh[entry.Name()] = cacheEntry{Size: info.Size(), ModTime: info.ModTime().Unix(), Package: pkg}
		packages = append(packages, pkg)
		s.mem.Set(memKey, pkg, gocache.DefaultExpiration)
		changed = true
	}

	// Removed files also dirty the cache.
	if len(fresh) != len(cached) {
		changed = true
	}

	if changed {
		if err := saveCache(cachePath, fresh); err != nil {
			return nil, false, fmt.Errorf("failed to write scan cache: %w", err)
		}
	}

	sort.Slice(packages, func(i, j int) bool {
		return packages[i].FileName < packages[j].FileName
	})

	return packages, changed, nil
}

func (s *Scanner) scanFile(repoDir, name string, info os.FileInfo) (Package, error) {
	packageID, versionCode, err := ParseFileName(name)
	if err != nil {
		return Package{}, err
	}

	path := filepath.Join(repoDir, name)

	signed, err := archiveSigned(path)
	if err != nil {
		return Package{}, err
	}

	sum, err := fileSHA256(path)
	if err != nil {
		return Package{}, err
	}

	return Package{
		PackageID:   packageID,
		VersionCode: versionCode,
		FileName:    name,
		Size:        info.Size(),
		SHA256:      sum,
		Signed:      signed,
		Added:       info.ModTime().UTC(),
	}, nil
}

// archiveSigned opens the archive and looks for signature block files.
// An unreadable archive is an error so the caller can skip the file.
func archiveSigned(path string) (bool, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false, fmt.Errorf("not a readable archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		switch strings.ToUpper(filepath.Ext(f.Name)) {
		case ".RSA", ".DSA", ".EC":
			return true, nil
		}
	}
	return false, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func loadCache(path string) (map[string]cacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]cacheEntry), nil
		}
		return nil, err
	}

	var cached map[string]cacheEntry
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached, nil
}

func saveCache(path string, entries map[string]cacheEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
