// Package watchfile provides a polling, mtime-cached view of a parsed
// local file.
//
// Watch waits for the file to appear and parse within a deadline, then
// returns a File that re-checks staleness on every access. There is no
// background goroutine and no inotify machinery: each call to Value or
// ModTime stats the file, re-parses only when the modification time has
// advanced, and falls back to the last good value when the file vanishes
// or stops parsing. That makes it suitable for values other processes
// rewrite in place, such as rotated credentials or rendered config.
//
// A File is not safe for concurrent use; wrap access in the caller's own
// synchronization if shared.
package watchfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/systmms/halyard/pkg/retry"
)

// ParseFunc turns the file's content into a value of type T.
type ParseFunc[T any] func(io.Reader) (T, error)

// Option configures Watch.
type Option func(*options)

type options struct {
	interval time.Duration
}

// WithInterval sets the base pacing interval between existence checks
// while waiting for the file. Default 10ms.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// File is an mtime-cached view of a parsed file.
type File[T any] struct {
	path  string
	parse ParseFunc[T]

	value T
	mtime time.Time
	valid bool
	stale bool
}

// Watch polls for path to exist and parse, for at most wait. The first
// successful parse wins. If the deadline passes without one, the returned
// error wraps fs.ErrNotExist along with the last underlying cause, which
// may be a parse failure rather than absence.
func Watch[T any](path string, parse ParseFunc[T], wait time.Duration, opts ...Option) (*File[T], error) {
	o := options{interval: 10 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	policy, err := retry.New(retry.WithMaxTime(wait), retry.WithBackoff(o.interval))
	if err != nil {
		return nil, fmt.Errorf("watchfile: %w", err)
	}

	f := &File[T]{path: path, parse: parse}
	var last error
	for range policy.Attempts() {
		if err := f.refresh(); err != nil {
			last = err
			continue
		}
		return f, nil
	}
	return nil, fmt.Errorf("watchfile: %s not ready within %s: %w: %w", path, wait, fs.ErrNotExist, last)
}

// Value returns the parsed content, re-reading the file if it changed on
// disk. When the file has vanished or no longer parses, the last good
// value is served instead; a failed parse does not advance the cached
// mtime, so the next call tries again.
func (f *File[T]) Value() (T, error) {
	if err := f.access(); err != nil {
		var zero T
		return zero, err
	}
	return f.value, nil
}

// ModTime returns the modification time of the content currently served
// by Value, applying the same refresh rules.
func (f *File[T]) ModTime() (time.Time, error) {
	if err := f.access(); err != nil {
		return time.Time{}, err
	}
	return f.mtime, nil
}

// Stale reports whether the most recent access fell back to the cached
// value because the file was missing or failed to parse.
func (f *File[T]) Stale() bool {
	return f.stale
}

// access runs the refresh rules and decides between surfacing the error
// and degrading to the cache.
func (f *File[T]) access() error {
	if err := f.refresh(); err != nil {
		if !f.valid {
			return err
		}
		f.stale = true
		return nil
	}
	f.stale = false
	return nil
}

func (f *File[T]) refresh() error {
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("watchfile: %w", err)
	}
	if f.valid && !info.ModTime().After(f.mtime) {
		return nil
	}

	rd, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("watchfile: %w", err)
	}
	defer rd.Close()

	v, err := f.parse(rd)
	if err != nil {
		return fmt.Errorf("watchfile: parse %s: %w", f.path, err)
	}

	f.value = v
	f.mtime = info.ModTime()
	f.valid = true
	return nil
}

// Lines parses the content into lines, without their terminators.
func Lines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	var out []string
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// YAML returns a parser decoding the content into T.
func YAML[T any]() ParseFunc[T] {
	return func(r io.Reader) (T, error) {
		var v T
		if err := yaml.NewDecoder(r).Decode(&v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}
}

// JSON returns a parser decoding the content into T.
func JSON[T any]() ParseFunc[T] {
	return func(r io.Reader) (T, error) {
		var v T
		if err := json.NewDecoder(r).Decode(&v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}
}
