package keysource

import (
	"context"
	"errors"
	"fmt"
	"time"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// timeoutSource bounds every call to the wrapped source with a deadline.
type timeoutSource struct {
	inner   Source
	timeout time.Duration
}

// withTimeout wraps a source so its calls fail after d. A non-positive d
// leaves the source unwrapped.
func withTimeout(s Source, d time.Duration) Source {
	if d <= 0 {
		return s
	}
	return &timeoutSource{inner: s, timeout: d}
}

func (t *timeoutSource) Name() string {
	return t.inner.Name()
}

func (t *timeoutSource) Material(ctx context.Context) (*secret.Secret, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	material, err := t.inner.Material(ctx)
	if err != nil {
		return nil, t.mapTimeout(err)
	}
	return material, nil
}

func (t *timeoutSource) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.mapTimeout(t.inner.Validate(ctx))
}

// mapTimeout rewrites a deadline error into a user-facing message with a
// timeout suggestion; all other errors pass through unchanged.
func (t *timeoutSource) mapTimeout(err error) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return hlerrors.UserError{
		Message:    fmt.Sprintf("Key source for '%s' timed out", t.inner.Name()),
		Details:    fmt.Sprintf("No answer within %s", t.timeout),
		Suggestion: "Increase timeout_ms for this key in halyard.yaml, or check network connectivity to the source",
		Err:        err,
	}
}
