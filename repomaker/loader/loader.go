package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/repoforge/repomaker/repomaker/schema"
	"github.com/repoforge/repomaker/repomaker/utils"
	"gopkg.in/yaml.v3"
)

type Loader struct{}

func New() *Loader {
	return &Loader{}
}

// LoadFile parses a YAML file and returns the schema. ${VAR}
// references are expanded against the OS environment first.
func (l *Loader) LoadFile(path string) (*schema.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	expanded, err := expandString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s: %w", path, err)
	}

	var file schema.File
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &file, nil
}

// LoadDirectory loads and merges all *.repomaker.yml files found in dir.
// Repo and storage names must be unique across all files.
func (l *Loader) LoadDirectory(dir string) (*schema.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	merged := &schema.File{
		Repos:    make(map[string]schema.Repo),
		Storages: make(map[string]schema.Storage),
	}

	found := false
	for _, entry := range entries {
		if entry.IsDir() || !utils.FileHasValidExtension(entry.Name()) {
			continue
		}
		found = true

		path := filepath.Join(dir, entry.Name())
		file, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}

		for name, repo := range file.Repos {
			if _, ok := merged.Repos[name]; ok {
				return nil, fmt.Errorf("repo %q defined more than once (in %s)", name, entry.Name())
			}
			merged.Repos[name] = repo
		}
		for name, storage := range file.Storages {
			if _, ok := merged.Storages[name]; ok {
				return nil, fmt.Errorf("storage %q defined more than once (in %s)", name, entry.Name())
			}
			merged.Storages[name] = storage
		}
		if file.Tasks != (schema.Tasks{}) {
			if merged.Tasks != (schema.Tasks{}) {
				return nil, fmt.Errorf("tasks section defined more than once (in %s)", entry.Name())
			}
			merged.Tasks = file.Tasks
		}
	}

	if !found {
		return nil, fmt.Errorf("no *.repomaker.yml files found in %s", dir)
	}

	return merged, nil
}

// StoragesForRepo returns the names of all storages that list the repo,
// in sorted order.
func StoragesForRepo(file *schema.File, repoName string) []string {
	var names []string
	for name, storage := range file.Storages {
		for _, r := range storage.Repos {
			if r == repoName {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks the file for structural correctness
func (l *Loader) Validate(file *schema.File) error {
	for name, repo := range file.Repos {
		if repo.Name == "" {
			return fmt.Errorf("repo %q has no name", name)
		}
		if repo.URL == "" {
			return fmt.Errorf("repo %q has no url", name)
		}
	}

	for name, storage := range file.Storages {
		if len(storage.Repos) == 0 {
			return fmt.Errorf("storage %q references no repos", name)
		}
		for _, repoName := range storage.Repos {
			if _, ok := file.Repos[repoName]; !ok {
				return fmt.Errorf("storage %q references non-existent repo %q", name, repoName)
			}
		}

		switch storage.Type {
		case schema.StorageLocal:
			if storage.Path == "" {
				return fmt.Errorf("local storage %q has no path", name)
			}
		case schema.StorageSSH:
			if err := validateSSHStorage(name, &storage); err != nil {
				return err
			}
		case schema.StorageS3:
			if storage.Bucket == "" {
				return fmt.Errorf("s3 storage %q has no bucket", name)
			}
			if storage.Region == "" && storage.Endpoint == "" {
				return fmt.Errorf("s3 storage %q needs a region or endpoint", name)
			}
		default:
			return fmt.Errorf("storage %q has unknown type %q", name, storage.Type)
		}
	}

	return nil
}

func validateSSHStorage(name string, storage *schema.Storage) error {
	if storage.User == "" || !ValidUsername(storage.User) {
		return fmt.Errorf("ssh storage %q has invalid user %q", name, storage.User)
	}
	if storage.Host == "" || !ValidHostname(storage.Host) {
		return fmt.Errorf("ssh storage %q has invalid host %q", name, storage.Host)
	}
	if storage.Path == "" || !ValidRemotePath(storage.Path) {
		return fmt.Errorf("ssh storage %q has invalid path %q", name, storage.Path)
	}
	return nil
}
