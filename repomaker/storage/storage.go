package storage

import (
	"context"
	"fmt"

	"github.com/repoforge/repomaker/repomaker/schema"
	sshx "github.com/repoforge/repomaker/repomaker/ssh"
	"github.com/sirupsen/logrus"
)

// Storage publishes a local repo tree to one remote location.
type Storage interface {
	Name() string
	URL() string
	Publish(ctx context.Context, localDir string) error
}

// Factory builds storage backends from their config declarations.
type Factory struct {
	logger    *logrus.Logger
	sshClient sshx.Client
}

func NewFactory(logger *logrus.Logger, sshClient sshx.Client) *Factory {
	return &Factory{
		logger:    logger,
		sshClient: sshClient,
	}
}

// Build returns the backend for one storage declaration.
func (f *Factory) Build(name string, cfg schema.Storage) (Storage, error) {
	switch cfg.Type {
	case schema.StorageLocal:
		return NewLocal(name, cfg.Path, f.logger), nil
	case schema.StorageSSH:
		return NewSSH(name, cfg, f.sshClient, f.logger), nil
	case schema.StorageS3:
		return NewS3(name, cfg, f.logger), nil
	default:
		return nil, fmt.Errorf("storage %q has unknown type %q", name, cfg.Type)
	}
}

// BuildFor returns backends for every storage that lists repoName,
// in the order of names.
func (f *Factory) BuildFor(file *schema.File, names []string) ([]Storage, error) {
	backends := make([]Storage, 0, len(names))
	for _, name := range names {
		cfg, ok := file.Storages[name]
		if !ok {
			return nil, fmt.Errorf("storage %q not found", name)
		}
		backend, err := f.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		backends = append(backends, backend)
	}
	return backends, nil
}
