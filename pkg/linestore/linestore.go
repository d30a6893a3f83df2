// Package linestore reads and writes encrypted line-oriented stores: flat
// local files holding small text records, one envelope token per line.
//
// Tokens are base64url ASCII, so the newline separator can never collide
// with record content and records may themselves contain newlines.
//
// A Writer buffers sealed records in memory and persists nothing until
// Commit, which replaces the target file atomically (temp file + rename in
// the same directory); a crash or an abandoned writer leaves the previous
// file contents intact. A Reader fails fast if the file is absent and
// decrypts all-or-nothing: one damaged record poisons the whole read.
//
// Both types scrub their internal buffers on Close. The scrub is best
// effort; strings handed to the caller are copies the caller owns.
package linestore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"

	"github.com/systmms/halyard/pkg/envelope"
	"github.com/systmms/halyard/pkg/secret"
)

// ErrClosed is returned by operations on a closed Writer or Reader.
var ErrClosed = errors.New("linestore: use after close")

// Option configures a Writer or Reader.
type Option func(*options)

type options struct {
	env *envelope.Envelope
}

// WithEnvelope substitutes the envelope used to seal and open records,
// for callers that need a blind transform on stored values.
func WithEnvelope(e *envelope.Envelope) Option {
	return func(o *options) { o.env = e }
}

func buildOptions(opts []Option) options {
	o := options{env: envelope.New()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Writer accumulates sealed records and persists them on Commit.
// Not safe for concurrent use.
type Writer struct {
	path   string
	key    *secret.Secret
	env    *envelope.Envelope
	buf    [][]byte
	closed bool
}

// NewWriter prepares a writer targeting path. Nothing is created or
// checked until Commit.
func NewWriter(path string, key *secret.Secret, opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{path: path, key: key, env: o.env}
}

// Append seals line immediately and buffers the ciphertext. The plaintext
// copy made for sealing is wiped before returning; the writer never holds
// cleartext.
func (w *Writer) Append(line string) error {
	if w.closed {
		return ErrClosed
	}

	plaintext := []byte(line)
	tok, err := w.env.Seal(w.key, plaintext)
	memguard.WipeBytes(plaintext)
	if err != nil {
		return fmt.Errorf("linestore: seal record: %w", err)
	}

	w.buf = append(w.buf, tok)
	return nil
}

// Commit replaces the file at the target path with the buffered records,
// one token per line. The content is written to a temporary file in the
// target directory and renamed into place, so other processes observe
// either the old file or the complete new one, never a partial write.
//
// On success the buffer is scrubbed and emptied; a following Append starts
// a new batch that the next Commit will write in full.
func (w *Writer) Commit() error {
	if w.closed {
		return ErrClosed
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("linestore: create temp file: %w", err)
	}

	for _, tok := range w.buf {
		if _, err := tmp.Write(append(tok, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("linestore: write record: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("linestore: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("linestore: replace %s: %w", w.path, err)
	}

	w.scrub()
	return nil
}

// Close scrubs the buffer and blocks further use. Uncommitted records are
// discarded without touching the target path. Idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.scrub()
	w.buf = nil
	w.closed = true
	return nil
}

func (w *Writer) scrub() {
	for _, tok := range w.buf {
		memguard.WipeBytes(tok)
	}
	w.buf = w.buf[:0]
}

// Reader decrypts a store written by Writer. Not safe for concurrent use.
type Reader struct {
	path   string
	key    *secret.Secret
	env    *envelope.Envelope
	plain  [][]byte
	closed bool
}

// Open prepares a reader, failing fast when the file does not exist. The
// returned error wraps fs.ErrNotExist in that case so callers can
// distinguish absence from damage.
func Open(path string, key *secret.Secret, opts ...Option) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("linestore: open %s: %w", path, err)
	}
	o := buildOptions(opts)
	return &Reader{path: path, key: key, env: o.env}, nil
}

// Lines reads and decrypts every record, in file order. Any undecryptable
// record aborts the whole read: no partial results are returned. The
// returned strings are copies owned by the caller; the reader's own
// plaintext buffers are scrubbed on Close.
func (r *Reader) Lines() ([]string, error) {
	if r.closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("linestore: read %s: %w", r.path, err)
	}

	records := bytes.Split(data, []byte{'\n'})
	if n := len(records); n > 0 && len(records[n-1]) == 0 {
		records = records[:n-1] // trailing newline
	}

	lines := make([]string, 0, len(records))
	for i, tok := range records {
		pt, err := r.env.Open(r.key, tok)
		if err != nil {
			return nil, fmt.Errorf("linestore: record %d of %s: %w", i+1, r.path, err)
		}
		r.plain = append(r.plain, pt)
		lines = append(lines, string(pt))
	}
	return lines, nil
}

// Close scrubs decrypted buffers and blocks further use. Idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	for _, pt := range r.plain {
		memguard.WipeBytes(pt)
	}
	r.plain = nil
	r.closed = true
	return nil
}
