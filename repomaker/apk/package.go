package apk

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Package describes one scanned archive in a repo directory.
type Package struct {
	PackageID   string    `json:"package_id"`
	VersionCode int64     `json:"version_code"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	Signed      bool      `json:"signed"`
	Added       time.Time `json:"added"`
}

// ParseFileName extracts the package id and version code from the
// <package>_<versioncode>.apk naming convention.
func ParseFileName(name string) (string, int64, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))

	idx := strings.LastIndex(base, "_")
	if idx <= 0 || idx == len(base)-1 {
		return "", 0, fmt.Errorf("file name %q does not match <package>_<versioncode>", name)
	}

	versionCode, err := strconv.ParseInt(base[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("file name %q has non-numeric version code: %w", name, err)
	}

	return base[:idx], versionCode, nil
}

// IsPackageFile reports whether name looks like a package archive.
func IsPackageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".apk", ".zip":
		return true
	}
	return false
}
