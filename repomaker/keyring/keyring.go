package keyring

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

const (
	KeyFileName = "signing.key"
	SigFileName = "index.sig"
)

// Keyring holds the repo signing keypair.
type Keyring struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// Generate creates a new ed25519 keypair and writes it PEM-encoded to
// path with mode 0600. Fails if the file already exists: the fingerprint
// must stay stable for the lifetime of a repo.
func Generate(path string) (*Keyring, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("signing key already exists at %s", path)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	return &Keyring{priv: priv, pub: pub}, nil
}

// Load reads a PEM-encoded ed25519 private key from path.
func Load(path string) (*Keyring, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("no private key found in %s", path)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key: %w", err)
	}

	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unexpected key type %T in %s", key, path)
	}

	return &Keyring{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// Fingerprint returns the uppercase hex SHA-256 of the public key.
func (k *Keyring) Fingerprint() string {
	sum := sha256.Sum256(k.pub)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// PublicKey returns the raw public key bytes, hex-encoded.
func (k *Keyring) PublicKey() string {
	return hex.EncodeToString(k.pub)
}

// Sign returns a detached signature over data.
func (k *Keyring) Sign(data []byte) []byte {
	return ed25519.Sign(k.priv, data)
}

// Verify reports whether sig is a valid signature over data.
func (k *Keyring) Verify(data, sig []byte) bool {
	return ed25519.Verify(k.pub, data, sig)
}

// FingerprintURL appends the fingerprint query parameter to a repo URL.
func FingerprintURL(repoURL, fingerprint string) string {
	return repoURL + "?fingerprint=" + fingerprint
}
