package keysource

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// KeyringAPI defines the OS keyring operations used by the keyring source.
// This allows for mocking in tests.
type KeyringAPI interface {
	Get(service, user string) (string, error)
}

// systemKeyring talks to the real OS keyring (macOS Keychain, Linux Secret
// Service, Windows Credential Manager).
type systemKeyring struct{}

func (systemKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// KeyringSource reads key material from the OS keyring.
type KeyringSource struct {
	name     string
	service  string
	user     string
	encoding string
	client   KeyringAPI
}

// KeyringOption is a functional option for configuring keyring sources.
type KeyringOption func(*KeyringSource)

// WithKeyringClient sets a custom keyring client (for testing).
func WithKeyringClient(client KeyringAPI) KeyringOption {
	return func(s *KeyringSource) {
		s.client = client
	}
}

// NewKeyringSource creates a keyring source from its configuration map.
func NewKeyringSource(name string, cfg map[string]interface{}, opts ...KeyringOption) (*KeyringSource, error) {
	s := &KeyringSource{name: name}

	if service, ok := cfg["service"].(string); ok {
		s.service = service
	}
	if user, ok := cfg["user"].(string); ok {
		s.user = user
	}

	if s.service == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".service",
			Message:    "service is required for the keyring source",
			Suggestion: "Name the keyring service the entry was stored under, for example 'halyard'",
		}
	}
	if s.user == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".user",
			Message:    "user is required for the keyring source",
			Suggestion: "Name the keyring account the entry was stored under",
		}
	}

	encoding, err := parseEncoding("keys."+name, cfg)
	if err != nil {
		return nil, err
	}
	s.encoding = encoding

	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = systemKeyring{}
	}

	return s, nil
}

// Name returns the key name.
func (s *KeyringSource) Name() string {
	return s.name
}

// Material fetches and decodes the keyring entry.
func (s *KeyringSource) Material(ctx context.Context) (*secret.Secret, error) {
	value, err := s.client.Get(s.service, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, NotFoundError{Source: s.name, Key: s.service + "/" + s.user}
		}
		return nil, fmt.Errorf("keyring query for %s/%s: %w", s.service, s.user, err)
	}

	material, err := decodeMaterial([]byte(value), s.encoding)
	if err != nil {
		return nil, fmt.Errorf("keyring entry %s/%s: %w", s.service, s.user, err)
	}

	return secret.New(material)
}

// Validate checks that the keyring entry exists and is readable.
func (s *KeyringSource) Validate(ctx context.Context) error {
	_, err := s.client.Get(s.service, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return NotFoundError{Source: s.name, Key: s.service + "/" + s.user}
		}
		return fmt.Errorf("keyring not reachable: %w", err)
	}
	return nil
}

// NewKeyringSourceFactory creates a keyring source factory.
func NewKeyringSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewKeyringSource(name, cfg)
}
