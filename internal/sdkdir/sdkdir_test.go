package sdkdir

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDirOverride(t *testing.T) {
	t.Setenv(EnvOverride, "/custom/data")

	if got := Dir(); got != "/custom/data" {
		t.Errorf("Dir() = %q, want /custom/data", got)
	}
}

func TestDirXDGDataHome(t *testing.T) {
	t.Setenv(EnvOverride, "")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	want := filepath.Join("/xdg/data", "halyard")
	if got := Dir(); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestDirHomeFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("HOME-based fallback layout is POSIX-specific")
	}
	home := t.TempDir()
	t.Setenv(EnvOverride, "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", home)

	want := filepath.Join(home, ".local", "share", "halyard")
	if got := Dir(); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestEnsureCreatesPrivateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv(EnvOverride, dir)

	got, err := Ensure()
	if err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}
	if got != dir {
		t.Errorf("Ensure() = %q, want %q", got, dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("Ensure() did not create a directory")
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm != 0o700 {
			t.Errorf("directory mode = %o, want 700", perm)
		}
	}
}

func TestEnsureIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv(EnvOverride, dir)

	if _, err := Ensure(); err != nil {
		t.Fatalf("first Ensure() error: %v", err)
	}
	if _, err := Ensure(); err != nil {
		t.Fatalf("second Ensure() error: %v", err)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvOverride, "/data")

	want := filepath.Join("/data", "profiles", "run.pprof")
	if got := Path("profiles", "run.pprof"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestListAbsentDirectory(t *testing.T) {
	t.Setenv(EnvOverride, filepath.Join(t.TempDir(), "nothing-here"))

	names, err := List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvOverride, dir)

	for _, name := range []string{"alpha", "beta"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	names, err := List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List() = %v, want [alpha beta]", names)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"web/api:key", "web-api-key"},
		{"plain", "plain"},
		{"with space", "with_space"},
		{`a\b*c?d`, "a-b-c-d"},
		{"pipe|and<angle>", "pipe-and-angle-"},
	}

	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
