package apk

import "testing"

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		packageID   string
		versionCode int64
		wantErr     bool
	}{
		{
			name:        "simple",
			input:       "org.example.app_42.apk",
			packageID:   "org.example.app",
			versionCode: 42,
		},
		{
			name:        "underscore in package",
			input:       "org.example.my_app_7.apk",
			packageID:   "org.example.my_app",
			versionCode: 7,
		},
		{
			name:        "zip archive",
			input:       "org.example.app_3.zip",
			packageID:   "org.example.app",
			versionCode: 3,
		},
		{
			name:    "no version",
			input:   "org.example.app.apk",
			wantErr: true,
		},
		{
			name:    "non-numeric version",
			input:   "org.example.app_beta.apk",
			wantErr: true,
		},
		{
			name:    "empty package",
			input:   "_42.apk",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packageID, versionCode, err := ParseFileName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFileName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if packageID != tt.packageID {
				t.Errorf("Expected package %q, got %q", tt.packageID, packageID)
			}
			if versionCode != tt.versionCode {
				t.Errorf("Expected version %d, got %d", tt.versionCode, versionCode)
			}
		})
	}
}

func TestIsPackageFile(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"org.example.app_1.apk", true},
		{"org.example.app_1.APK", true},
		{"bundle_2.zip", true},
		{"index.yml", false},
		{"qrcode.png", false},
	}

	for _, tt := range tests {
		if got := IsPackageFile(tt.input); got != tt.want {
			t.Errorf("IsPackageFile(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
