package keysource

import (
	"context"
	"fmt"
	"time"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// LiteralSource holds key material inline in the configuration. Anyone who
// can read halyard.yaml can read the key, so this is only reasonable for
// tests and throwaway setups.
type LiteralSource struct {
	name     string
	value    string
	encoding string
}

// NewLiteralSource creates a literal source from its configuration map.
func NewLiteralSource(name string, cfg map[string]interface{}) (*LiteralSource, error) {
	s := &LiteralSource{name: name}

	if value, ok := cfg["value"].(string); ok {
		s.value = value
	}
	if s.value == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".value",
			Message:    "value is required for the literal source",
			Suggestion: "Set the key material inline, or switch to a file or keyring source",
		}
	}

	encoding, err := parseEncoding("keys."+name, cfg)
	if err != nil {
		return nil, err
	}
	s.encoding = encoding

	return s, nil
}

// Name returns the key name.
func (s *LiteralSource) Name() string {
	return s.name
}

// Material decodes the inline value.
func (s *LiteralSource) Material(ctx context.Context) (*secret.Secret, error) {
	material, err := decodeMaterial([]byte(s.value), s.encoding)
	if err != nil {
		return nil, fmt.Errorf("literal key %s: %w", s.name, err)
	}
	return secret.New(material)
}

// Validate always succeeds; the material was checked at construction.
func (s *LiteralSource) Validate(ctx context.Context) error {
	return nil
}

// NewLiteralSourceFactory creates a literal source factory.
func NewLiteralSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewLiteralSource(name, cfg)
}

// MockSource simulates a key source for testing, with settable material,
// failure injection, and an artificial delay.
type MockSource struct {
	name     string
	material []byte
	err      error
	delay    time.Duration
}

// NewMockSource creates a mock source with the given material.
func NewMockSource(name string, material []byte) *MockSource {
	return &MockSource{name: name, material: material}
}

// Name returns the key name.
func (s *MockSource) Name() string {
	return s.name
}

// Material returns a copy of the mock material after any configured delay.
func (s *MockSource) Material(ctx context.Context) (*secret.Secret, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if len(s.material) == 0 {
		return nil, NotFoundError{Source: s.name, Key: "mock material"}
	}

	// secret.New wipes its input, so hand it a copy.
	buf := make([]byte, len(s.material))
	copy(buf, s.material)
	return secret.New(buf)
}

// Validate fails with the configured error, if any.
func (s *MockSource) Validate(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.err
}

func (s *MockSource) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetError makes subsequent calls fail with err.
func (s *MockSource) SetError(err error) {
	s.err = err
}

// SetDelay simulates source latency.
func (s *MockSource) SetDelay(delay time.Duration) {
	s.delay = delay
}

// NewMockSourceFactory creates a mock source factory. The optional
// "material" setting seeds the returned material.
func NewMockSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	material := []byte("mock-key-material")
	if m, ok := cfg["material"].(string); ok && m != "" {
		material = []byte(m)
	}
	return NewMockSource(name, material), nil
}
