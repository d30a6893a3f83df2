package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/systmms/halyard/internal/sdkdir"
	"github.com/systmms/halyard/internal/wordid"
)

// StartCPUProfile begins a CPU capture named after the operation, written
// to profiles/<name>-<id>.pprof under the data directory. The returned
// stop function ends the capture and reports the file path.
//
// Only one CPU profile can run per process; a second Start before stop
// fails.
func StartCPUProfile(name string) (stop func() (string, error), err error) {
	if _, err := sdkdir.Ensure(); err != nil {
		return nil, err
	}

	dir := sdkdir.Path("profiles")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create profiles directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.pprof", sdkdir.SafeName(name), wordid.New()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	return func() (string, error) {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close profile file: %w", err)
		}
		return path, nil
	}, nil
}
