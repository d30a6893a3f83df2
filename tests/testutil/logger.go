package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/halyard/internal/logging"
)

// TestLogger is a real halyard logger whose output is captured in memory,
// so tests can verify what was logged and that secrets stay redacted.
//
// Example usage:
//
//	tl := testutil.NewTestLogger(t)
//	tl.Logger.Info("fetched %s", logging.Secret("password123"))
//	tl.AssertContains(t, "[REDACTED]")
//	tl.AssertNotContains(t, "password123")
type TestLogger struct {
	Logger *logging.Logger

	mu     sync.Mutex
	buffer *bytes.Buffer
}

// NewTestLogger builds a colorless logger writing into a buffer. Pass
// debug=true via NewTestLoggerWithDebug to capture Debug lines too.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()
	return NewTestLoggerWithDebug(t, false)
}

// NewTestLoggerWithDebug is NewTestLogger with debug logging toggled.
func NewTestLoggerWithDebug(t *testing.T, debug bool) *TestLogger {
	t.Helper()

	buffer := &bytes.Buffer{}
	logger := logging.New(debug, true)
	logger.SetOutput(buffer)

	return &TestLogger{Logger: logger, buffer: buffer}
}

// Output returns everything logged so far.
func (l *TestLogger) Output() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffer.String()
}

// Reset discards captured output.
func (l *TestLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buffer.Reset()
}

// AssertContains fails the test when the captured output lacks substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	output := l.Output()
	assert.True(t, strings.Contains(output, substr),
		"expected log output to contain %q, got:\n%s", substr, output)
}

// AssertNotContains fails the test when the captured output holds substr.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	output := l.Output()
	assert.False(t, strings.Contains(output, substr),
		"expected log output to not contain %q, got:\n%s", substr, output)
}
