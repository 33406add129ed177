package pathutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/JamesPrial/kencana-farm/internal/pathutil"
)

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func resolvedTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolve temp dir: %v", err)
	}
	return dir
}

// ---------------------------------------------------------------------------
// ResolveSafePath: accepted paths
// ---------------------------------------------------------------------------

func Test_ResolveSafePath_Accepted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(t *testing.T, base string)
		userPath func(base string) string
		want     func(base string) string
	}{
		{
			name:     "relative file directly in base",
			userPath: func(string) string { return "kencana.json" },
			want:     func(base string) string { return filepath.Join(base, "kencana.json") },
		},
		{
			name:     "relative file in missing nested directories",
			userPath: func(string) string { return "backups/2025/farm.json" },
			want:     func(base string) string { return filepath.Join(base, "backups", "2025", "farm.json") },
		},
		{
			name: "absolute path inside base",
			setup: func(t *testing.T, base string) {
				mustMkdirAll(t, filepath.Join(base, "db"))
			},
			userPath: func(base string) string { return filepath.Join(base, "db", "farm.db") },
			want:     func(base string) string { return filepath.Join(base, "db", "farm.db") },
		},
		{
			name:     "dot segments that stay inside base",
			userPath: func(string) string { return "a/../kencana.json" },
			want:     func(base string) string { return filepath.Join(base, "kencana.json") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base := resolvedTempDir(t)
			if tt.setup != nil {
				tt.setup(t, base)
			}

			got, err := pathutil.ResolveSafePath(base, tt.userPath(base))
			if err != nil {
				t.Fatalf("ResolveSafePath() unexpected error: %v", err)
			}
			if want := tt.want(base); got != want {
				t.Errorf("ResolveSafePath() = %q, want %q", got, want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ResolveSafePath: rejected paths
// ---------------------------------------------------------------------------

func Test_ResolveSafePath_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		userPath    func(base string) string
		wantEscape  bool
		errContains string
	}{
		{
			name:        "empty path",
			userPath:    func(string) string { return "" },
			errContains: "empty",
		},
		{
			name:        "whitespace path",
			userPath:    func(string) string { return "   " },
			errContains: "empty",
		},
		{
			name:        "null byte",
			userPath:    func(string) string { return "farm\x00.json" },
			errContains: "null byte",
		},
		{
			name:       "parent traversal",
			userPath:   func(string) string { return "../outside.json" },
			wantEscape: true,
		},
		{
			name:       "absolute path outside base",
			userPath:   func(base string) string { return filepath.Join(filepath.Dir(base), "elsewhere.json") },
			wantEscape: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base := resolvedTempDir(t)

			_, err := pathutil.ResolveSafePath(base, tt.userPath(base))
			if err == nil {
				t.Fatal("ResolveSafePath() expected error, got nil")
			}
			if tt.wantEscape && !errors.Is(err, pathutil.ErrEscapesBase) {
				t.Errorf("error = %v, want ErrEscapesBase", err)
			}
			if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.errContains)
			}
		})
	}
}

func Test_ResolveSafePath_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on Windows")
	}
	t.Parallel()

	base := resolvedTempDir(t)
	outside := resolvedTempDir(t)
	if err := os.Symlink(outside, filepath.Join(base, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	_, err := pathutil.ResolveSafePath(base, "link/farm.json")
	if !errors.Is(err, pathutil.ErrEscapesBase) {
		t.Errorf("ResolveSafePath() error = %v, want ErrEscapesBase", err)
	}
}

func Test_ResolveSafePath_SymlinkInsideBase(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on Windows")
	}
	t.Parallel()

	base := resolvedTempDir(t)
	mustMkdirAll(t, filepath.Join(base, "real"))
	if err := os.Symlink(filepath.Join(base, "real"), filepath.Join(base, "alias")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	got, err := pathutil.ResolveSafePath(base, "alias/farm.json")
	if err != nil {
		t.Fatalf("ResolveSafePath() unexpected error: %v", err)
	}
	if want := filepath.Join(base, "real", "farm.json"); got != want {
		t.Errorf("ResolveSafePath() = %q, want %q", got, want)
	}
}
