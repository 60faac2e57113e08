package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/repoforge/repomaker/repomaker/utils"
	"golang.org/x/crypto/ssh"
)

type Client interface {
	Connect(ctx context.Context, host Host) (Session, error)
	Close() error
}

type Host struct {
	Name    string
	Address string
	Port    int
	User    string
	KeyPath string
}

// client reuses one connection per user@host:port. Backends within a
// publish batch connect from parallel goroutines, so the connection map
// is mutex-guarded.
type client struct {
	mu          sync.Mutex
	connections map[string]*ssh.Client
}

func NewClient() Client {
	return &client{
		connections: make(map[string]*ssh.Client),
	}
}

func (c *client) Connect(ctx context.Context, host Host) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if we already have a connection to this host
	key := fmt.Sprintf("%s@%s:%d", host.User, host.Address, host.Port)
	if conn, ok := c.connections[key]; ok {
		return newSession(conn, host), nil
	}

	// Read private key
	keyPath, err := utils.ExpandPath(host.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve SSH key path %s: %w", host.KeyPath, err)
	}
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key %s: %w", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}

	config := &ssh.ClientConfig{
		User: host.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: Add host key verification
	}

	port := host.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(host.Address, strconv.Itoa(port))

	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	// Store connection for reuse
	c.connections[key] = conn

	return newSession(conn, host), nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for key, conn := range c.connections {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.connections, key)
	}
	return firstErr
}
