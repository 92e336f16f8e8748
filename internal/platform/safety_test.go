package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/quill/internal/platform"
)

func TestResolveDatabasePath(t *testing.T) {
	t.Parallel()

	tempRoot := os.TempDir()
	devBase := filepath.Join(tempRoot, "quill-dev")

	tests := []struct {
		name      string
		userPath  string
		forceTemp bool
		expected  string
	}{
		{
			name:     "Normal Mode - Empty Path",
			userPath: "",
			expected: platform.DefaultDatabase,
		},
		{
			name:     "Normal Mode - Specific Path",
			userPath: "/some/notes.db",
			expected: "/some/notes.db",
		},
		{
			name:      "Dev Mode - Empty Path",
			userPath:  "",
			forceTemp: true,
			expected:  filepath.Join(devBase, platform.DefaultDatabase),
		},
		{
			name:      "Dev Mode - Current Dir",
			userPath:  ".",
			forceTemp: true,
			expected:  filepath.Join(devBase, platform.DefaultDatabase),
		},
		{
			name:      "Dev Mode - Relative Name",
			userPath:  "work.db",
			forceTemp: true,
			expected:  filepath.Join(devBase, "work.db"),
		},
		{
			name:      "Dev Mode - Clean Name",
			userPath:  "../bad/notes.db",
			forceTemp: true,
			expected:  filepath.Join(devBase, "notes.db"),
		},
		{
			name:      "Dev Mode - Exception for Temp Dir",
			userPath:  filepath.Join(tempRoot, "my-test.db"),
			forceTemp: true,
			expected:  filepath.Join(tempRoot, "my-test.db"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := platform.ResolveDatabasePath(tt.userPath, tt.forceTemp)
			if got != tt.expected {
				t.Errorf("ResolveDatabasePath(%q, %v) = %q; want %q", tt.userPath, tt.forceTemp, got, tt.expected)
			}
		})
	}
}

func TestIsDevRun(t *testing.T) {
	// This test runs inside "go test", so IsDevRun() MUST return true.
	if !platform.IsDevRun() {
		t.Errorf("IsDevRun() = false; want true inside go test")
	}
}
