package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	gossh "golang.org/x/crypto/ssh"
)

func writeTestKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}

	path := filepath.Join(t.TempDir(), "id_ed25519")
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}
	return path
}

type testServer struct {
	addr  string
	port  int
	conns atomic.Int32
}

// startTestServer runs a minimal SSH server that accepts any client and
// rejects all channels.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate host key: %v", err)
	}
	signer, err := gossh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("Failed to build host signer: %v", err)
	}

	cfg := &gossh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := &testServer{
		addr: ln.Addr().(*net.TCPAddr).IP.String(),
		port: ln.Addr().(*net.TCPAddr).Port,
	}

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			srv.conns.Add(1)
			go func(c net.Conn) {
				conn, chans, reqs, err := gossh.NewServerConn(c, cfg)
				if err != nil {
					return
				}
				go gossh.DiscardRequests(reqs)
				for ch := range chans {
					ch.Reject(gossh.UnknownChannelType, "unsupported")
				}
				conn.Close()
			}(c)
		}
	}()

	return srv
}

func TestConnect_ParallelBackends(t *testing.T) {
	keyPath := writeTestKey(t)
	servers := []*testServer{startTestServer(t), startTestServer(t)}

	c := NewClient()
	defer c.Close()

	// One shared client, one goroutine per backend, as during a publish
	// batch.
	var wg sync.WaitGroup
	errs := make(chan error, len(servers))
	for i, srv := range servers {
		wg.Add(1)
		go func(name string, srv *testServer) {
			defer wg.Done()
			sess, err := c.Connect(context.Background(), Host{
				Name:    name,
				Address: srv.addr,
				Port:    srv.port,
				User:    "deploy",
				KeyPath: keyPath,
			})
			if err != nil {
				errs <- err
				return
			}
			sess.Close()
		}(fmt.Sprintf("mirror-%d", i+1), srv)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Connect failed: %v", err)
	}
}

func TestConnect_ReusesConnection(t *testing.T) {
	keyPath := writeTestKey(t)
	srv := startTestServer(t)

	c := NewClient()
	defer c.Close()

	host := Host{
		Name:    "mirror-1",
		Address: srv.addr,
		Port:    srv.port,
		User:    "deploy",
		KeyPath: keyPath,
	}

	for i := 0; i < 3; i++ {
		sess, err := c.Connect(context.Background(), host)
		if err != nil {
			t.Fatalf("Connect %d failed: %v", i, err)
		}
		sess.Close()
	}

	if n := srv.conns.Load(); n != 1 {
		t.Errorf("Expected 1 connection to the server, got %d", n)
	}
}
