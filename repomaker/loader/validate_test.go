package loader

import "testing"

func TestValidUsername(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"deploy", true},
		{"fdroid-bot", true},
		{"user_2", true},
		{"", false},
		{"bad user", false},
		{"user@host", false},
	}

	for _, tt := range tests {
		if got := ValidUsername(tt.input); got != tt.want {
			t.Errorf("ValidUsername(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidHostname(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"localhost", true},
		{"mirror.example.org", true},
		{"repo-1.example.org.", true},
		{"192.168.1.10", true},
		{"[2001:db8::1]", true},
		{"", false},
		{"-bad.example.org", false},
		{"host_name", false},
	}

	for _, tt := range tests {
		if got := ValidHostname(tt.input); got != tt.want {
			t.Errorf("ValidHostname(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidHostname_TooLong(t *testing.T) {
	long := ""
	for i := 0; i < 64; i++ {
		long += "abcd."
	}
	long += "org"

	if ValidHostname(long) {
		t.Error("Expected hostnames over 253 characters to be invalid")
	}
}

func TestValidRemotePath(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/srv/fdroid", true},
		{"/srv/fdroid/", true},
		{"/var/www/repo.mirror", true},
		{"", false},
		{"relative/path", false},
		{"/", false},
		{"/bad path", false},
	}

	for _, tt := range tests {
		if got := ValidRemotePath(tt.input); got != tt.want {
			t.Errorf("ValidRemotePath(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
