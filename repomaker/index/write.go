package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/repoforge/repomaker/repomaker/keyring"
	qrcode "github.com/skip2/go-qrcode"
	"gopkg.in/yaml.v3"
)

const (
	YAMLFileName       = "index.yml"
	JSONFileName       = "index.json"
	CategoriesFileName = "categories.txt"
	QRCodeFileName     = "qrcode.png"
	PageFileName       = "index.html"
)

// Write emits the index files into dir and signs the YAML index with the
// repo key. The signature covers the exact bytes of index.yml.
func Write(dir string, idx *Index, key *keyring.Keyring) error {
	yamlData, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, YAMLFileName), yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", YAMLFileName, err)
	}

	jsonData, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, JSONFileName), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", JSONFileName, err)
	}

	sig := key.Sign(yamlData)
	if err := os.WriteFile(filepath.Join(dir, keyring.SigFileName), sig, 0644); err != nil {
		return fmt.Errorf("failed to write signature: %w", err)
	}

	categories := idx.Categories()
	content := ""
	if len(categories) > 0 {
		content = strings.Join(categories, "\n") + "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, CategoriesFileName), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", CategoriesFileName, err)
	}

	return nil
}

// WriteQRCode renders the fingerprint URL as a PNG in dir.
func WriteQRCode(dir, fingerprintURL string) error {
	path := filepath.Join(dir, QRCodeFileName)
	if err := qrcode.WriteFile(fingerprintURL, qrcode.Medium, 256, path); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	return nil
}

// WritePage writes the landing page linking the fingerprint URL.
func WritePage(dir, fingerprintURL string) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<a href=%q>", fingerprintURL))
	b.WriteString(`<img src="qrcode.png"/> `)
	b.WriteString(fingerprintURL)
	b.WriteString("</a>\n")

	if err := os.WriteFile(filepath.Join(dir, PageFileName), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", PageFileName, err)
	}
	return nil
}
