package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/repoforge/repomaker/repomaker/utils"
	"github.com/sirupsen/logrus"
)

// Local mirrors the repo tree into a webroot directory on this machine.
type Local struct {
	name   string
	path   string
	logger *logrus.Logger
}

func NewLocal(name, path string, logger *logrus.Logger) *Local {
	return &Local{
		name:   name,
		path:   path,
		logger: logger,
	}
}

func (l *Local) Name() string {
	return l.name
}

func (l *Local) URL() string {
	return l.path
}

func (l *Local) Publish(ctx context.Context, localDir string) error {
	l.logger.WithFields(logrus.Fields{
		"storage": l.name,
		"path":    l.path,
	}).Info("Publishing to local webroot")

	if err := os.MkdirAll(l.path, 0755); err != nil {
		return fmt.Errorf("failed to create webroot %s: %w", l.path, err)
	}

	if err := utils.CopyTree(localDir, l.path); err != nil {
		return fmt.Errorf("failed to copy repo tree to %s: %w", l.path, err)
	}

	return nil
}
