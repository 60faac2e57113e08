package ssh

import (
	"context"
	"fmt"
	"io"
	"path"

	"golang.org/x/crypto/ssh"
)

type Session interface {
	Mkdir(ctx context.Context, remotePath string) error
	CopyFile(ctx context.Context, content io.Reader, remotePath string, mode uint32) error
	Close() error
}

type session struct {
	conn *ssh.Client
	host Host
}

func newSession(conn *ssh.Client, host Host) Session {
	return &session{
		conn: conn,
		host: host,
	}
}

func (s *session) Mkdir(ctx context.Context, remotePath string) error {
	sess, err := s.conn.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer sess.Close()

	if err := sess.Run(fmt.Sprintf("mkdir -p %q", remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", remotePath, err)
	}
	return nil
}

func (s *session) CopyFile(ctx context.Context, content io.Reader, remotePath string, mode uint32) error {
	// Use atomic write: write to temp file, then move
	tmpPath := fmt.Sprintf("/tmp/repomaker-%s", path.Base(remotePath))

	sess, err := s.conn.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer sess.Close()

	// Write content to temp file using cat
	stdin, err := sess.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	writeCmd := fmt.Sprintf("cat > %s && chmod %o %s", tmpPath, mode, tmpPath)
	if err := sess.Start(writeCmd); err != nil {
		return fmt.Errorf("failed to start write command: %w", err)
	}

	if _, err := io.Copy(stdin, content); err != nil {
		stdin.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	stdin.Close()

	if err := sess.Wait(); err != nil {
		return fmt.Errorf("write command failed: %w", err)
	}

	// Move temp file to final location (atomic)
	sess2, err := s.conn.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session for mv: %w", err)
	}
	defer sess2.Close()

	mvCmd := fmt.Sprintf("mv %s %s", tmpPath, remotePath)
	if err := sess2.Run(mvCmd); err != nil {
		return fmt.Errorf("failed to move file to final location: %w", err)
	}

	return nil
}

func (s *session) Close() error {
	// Connection is managed by the client, not individual sessions
	return nil
}
