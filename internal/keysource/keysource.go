// Package keysource resolves the named keys of halyard.yaml to their raw
// material.
//
// Each key names a source type (file, keyring, a cloud secret manager) plus
// source-specific settings. A Source fetches the material on demand and
// hands it over as a *secret.Secret; sources never create, rotate, or
// persist key material.
//
// Remote sources expose mockable client interfaces and functional options so
// tests run against fakes instead of live services.
package keysource

import (
	"context"

	"github.com/systmms/halyard/pkg/secret"
)

// Source yields key material for one named key.
type Source interface {
	// Name returns the key name from the configuration, not the source type.
	Name() string

	// Material fetches the key bytes. The caller owns the returned secret
	// and must Destroy it when done.
	Material(ctx context.Context) (*secret.Secret, error)

	// Validate checks that the configured material is reachable without
	// holding on to it. Used by `halyard doctor`.
	Validate(ctx context.Context) error
}

// NotFoundError indicates the configured item does not exist at the source.
type NotFoundError struct {
	// Source is the key name whose lookup failed.
	Source string

	// Key is the source-specific identifier that could not be found.
	Key string
}

func (e NotFoundError) Error() string {
	return "key material not found: " + e.Key + " in " + e.Source
}

// AuthError indicates that authentication to the source failed.
type AuthError struct {
	Source  string
	Message string
}

func (e AuthError) Error() string {
	return "authentication failed for " + e.Source + ": " + e.Message
}
