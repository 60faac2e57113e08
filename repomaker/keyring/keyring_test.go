package keyring

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeyFileName)

	key, err := Generate(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, key.Fingerprint(), loaded.Fingerprint())
	assert.Len(t, key.Fingerprint(), 64)
	assert.Equal(t, key.PublicKey(), loaded.PublicKey())
}

func TestGenerate_ExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeyFileName)

	_, err := Generate(path)
	require.NoError(t, err)

	_, err = Generate(path)
	require.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeyFileName)

	key, err := Generate(path)
	require.NoError(t, err)

	data := []byte("index contents")
	sig := key.Sign(data)

	assert.True(t, key.Verify(data, sig))
	assert.False(t, key.Verify([]byte("tampered"), sig))

	// A reloaded key verifies signatures from the original.
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Verify(data, sig))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.key"))
	require.Error(t, err)
}

func TestFingerprintURL(t *testing.T) {
	url := FingerprintURL("https://repo.example.org/fdroid", "ABCD")
	assert.Equal(t, "https://repo.example.org/fdroid?fingerprint=ABCD", url)
}
