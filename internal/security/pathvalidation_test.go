package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	workDir := filepath.Join(tmpDir, "work")
	outside := filepath.Join(tmpDir, "outside")
	for _, d := range []string{workDir, outside} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.Symlink(outside, filepath.Join(workDir, "escape")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"log folder", filepath.Join(workDir, "city-logs"), false},
		{"nested new file", filepath.Join(workDir, "city-logs", "city_Clean_summary_output.xml"), false},
		{"the directory itself", workDir, false},
		{"dot dot", filepath.Join(workDir, "..", "outside"), true},
		{"symlinked dir", filepath.Join(workDir, "escape", "secret.xml"), true},
		{"absolute elsewhere", "/etc/passwd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, workDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathWithinDirectory_MissingSafeDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if err := ValidatePathWithinDirectory(filepath.Join(missing, "a"), missing); err == nil {
		t.Error("expected error for a safe directory that does not exist")
	}
}

func TestValidateScenarioName(t *testing.T) {
	valid := []string{"barcelona", "la_downtown-2", "run.v2", "_tmp", "A1"}
	for _, name := range valid {
		if err := ValidateScenarioName(name); err != nil {
			t.Errorf("ValidateScenarioName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", ".hidden", "-flag", "a/b", "../up", "city*", "with space", "semi;colon", strings.Repeat("x", 129)}
	for _, name := range invalid {
		err := ValidateScenarioName(name)
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateScenarioName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"city", "city"},
		{"New York / Manhattan", "New_York_Manhattan"},
		{"..", "unknown"},
		{"a***b", "a_b"},
		{"__x__", "x"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeFilename(strings.Repeat("a", 500))
	if len(long) != 128 {
		t.Errorf("len = %d, want 128", len(long))
	}
}
