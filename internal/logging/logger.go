// Package logging is the CLI's human-facing logger: prefixed status lines
// on stderr, colored when enabled, with helpers for keeping secret
// material out of the output.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Logger writes prefixed status lines for terminal consumption.
type Logger struct {
	debug   bool
	noColor bool
	out     io.Writer
}

// New creates a logger writing to stderr. Payload output (tokens, decrypted
// values) belongs on stdout; status lines stay on stderr so pipelines
// remain clean.
func New(debug, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		noColor: noColor,
		out:     os.Stderr,
	}
}

// SetOutput redirects the logger's writer, primarily for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(l.mark(color.FgGreen, "✓"), format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(l.mark(color.FgYellow, "⚠"), format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(l.mark(color.FgRed, "✗"), format, args...)
}

// Debug logs a message only when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit(l.mark(color.FgCyan, "[DEBUG]"), format, args...)
}

func (l *Logger) mark(attr color.Attribute, sym string) string {
	if l.noColor {
		return sym
	}
	return color.New(attr).Sprint(sym)
}

func (l *Logger) emit(prefix, format string, args ...interface{}) {
	fmt.Fprintf(l.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Secret represents a value that must be redacted in logs. Passing one to
// any fmt verb yields the redaction marker, never the value.
type Secret string

// String implements fmt.Stringer, always returning a redacted value.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED].
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 { // only redact non-trivial values
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
