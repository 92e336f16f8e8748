package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabase is the database file used when no path is given.
const DefaultDatabase = "quill.db"

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	// "go run" builds into the system temp dir.
	tempDir := os.TempDir()
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}

	// "go test" binaries end in .test
	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}

	return false
}

// ResolveDatabasePath determines the actual database file based on safety rules.
// When forceTemp is set the file is re-rooted into a temporary directory so dev
// runs never touch the user's real notes.
func ResolveDatabasePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return DefaultDatabase
		}
		return userPath
	}

	// Paths already inside the temp dir (t.TempDir()) are trusted as is.
	cleanUserPath := filepath.Clean(userPath)
	rel, err := filepath.Rel(os.TempDir(), cleanUserPath)
	if userPath != "" && err == nil && !strings.HasPrefix(rel, "..") {
		return cleanUserPath
	}

	name := filepath.Base(cleanUserPath)
	if userPath == "" || name == "." || name == string(os.PathSeparator) {
		name = DefaultDatabase
	}
	return filepath.Join(os.TempDir(), "quill-dev", name)
}
