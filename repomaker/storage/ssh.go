package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/repoforge/repomaker/repomaker/schema"
	sshx "github.com/repoforge/repomaker/repomaker/ssh"
	"github.com/sirupsen/logrus"
)

// SSH uploads the repo tree to a user@host:path webroot.
type SSH struct {
	name   string
	cfg    schema.Storage
	client sshx.Client
	logger *logrus.Logger
}

func NewSSH(name string, cfg schema.Storage, client sshx.Client, logger *logrus.Logger) *SSH {
	return &SSH{
		name:   name,
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

func (s *SSH) Name() string {
	return s.name
}

func (s *SSH) URL() string {
	return fmt.Sprintf("%s@%s:%s", s.cfg.User, s.cfg.Host, s.cfg.Path)
}

func (s *SSH) Publish(ctx context.Context, localDir string) error {
	s.logger.WithFields(logrus.Fields{
		"storage": s.name,
		"remote":  s.URL(),
	}).Info("Publishing to SSH webroot")

	host := sshx.Host{
		Name:    s.name,
		Address: s.cfg.Host,
		Port:    s.cfg.Port,
		User:    s.cfg.User,
		KeyPath: s.cfg.IdentityFile,
	}

	sess, err := s.client.Connect(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.URL(), err)
	}
	defer sess.Close()

	return filepath.Walk(localDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		remote := path.Join(s.cfg.Path, filepath.ToSlash(rel))

		if info.IsDir() {
			return sess.Mkdir(ctx, remote)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", p, err)
		}
		defer f.Close()

		if err := sess.CopyFile(ctx, f, remote, uint32(info.Mode().Perm())); err != nil {
			return fmt.Errorf("failed to upload %s: %w", rel, err)
		}
		return nil
	})
}
