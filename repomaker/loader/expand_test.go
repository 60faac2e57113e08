package loader

import (
	"strings"
	"testing"
)

func TestExpandString(t *testing.T) {
	t.Setenv("REPO_HOST", "mirror.example.org")

	got, err := expandString("url: https://${REPO_HOST}/fdroid\nname: unchanged\n")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := "url: https://mirror.example.org/fdroid\nname: unchanged\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExpandString_Missing(t *testing.T) {
	_, err := expandString("host: ${DEFINITELY_NOT_SET_REPO_VAR}")
	if err == nil {
		t.Fatal("Expected error for missing variable")
	}
	if !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_REPO_VAR") {
		t.Errorf("Expected error to name the missing variable, got %v", err)
	}
}

func TestExpandString_ReservedPrefix(t *testing.T) {
	t.Setenv("REPOMAKER_DATA_DIR", "data")

	_, err := expandString("path: ${REPOMAKER_DATA_DIR}")
	if err == nil {
		t.Fatal("Expected error for reserved prefix")
	}
}
