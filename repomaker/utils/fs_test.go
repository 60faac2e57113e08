package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandPath_Tilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde with path",
			input:    "~/.ssh/id_rsa",
			expected: filepath.Join(home, ".ssh/id_rsa"),
		},
		{
			name:     "tilde alone",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestExpandPath_AbsolutePath(t *testing.T) {
	input := "/absolute/path/to/file"
	result, err := ExpandPath(input)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("Expected %q, got %q", input, result)
	}
}

func TestExpandPath_RelativePath(t *testing.T) {
	input := "relative/path/file.txt"
	result, err := ExpandPath(input)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !filepath.IsAbs(result) {
		t.Errorf("Expected absolute path, got %q", result)
	}
	if !strings.HasSuffix(result, input) {
		t.Errorf("Expected result to end with %q, got %q", input, result)
	}
}

func TestFileHasValidExtension(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"repos.repomaker.yml", true},
		{"storages.repomaker.yaml", true},
		{"repos.yaml", false},
		{"repomaker.txt", false},
	}

	for _, tt := range tests {
		if got := FileHasValidExtension(tt.input); got != tt.want {
			t.Errorf("FileHasValidExtension(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	if err := os.MkdirAll(filepath.Join(src, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("world"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil {
		t.Fatalf("Missing copied file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", string(data))
	}

	data, err = os.ReadFile(filepath.Join(dst, "sub", "b.txt"))
	if err != nil {
		t.Fatalf("Missing copied file: %v", err)
	}
	if string(data) != "world" {
		t.Errorf("Expected %q, got %q", "world", string(data))
	}
}
