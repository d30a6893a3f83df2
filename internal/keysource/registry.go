package keysource

import (
	"sort"
	"strings"

	"github.com/systmms/halyard/internal/config"
	hlerrors "github.com/systmms/halyard/internal/errors"
)

// Factory builds a source for one named key from its configuration map.
type Factory func(name string, cfg map[string]interface{}) (Source, error)

// Registry maps source types to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with all built-in source types registered.
func NewRegistry() *Registry {
	registry := &Registry{
		factories: make(map[string]Factory),
	}

	registry.Register("file", NewFileSourceFactory)
	registry.Register("keyring", NewKeyringSourceFactory)
	registry.Register("literal", NewLiteralSourceFactory)
	registry.Register("mock", NewMockSourceFactory)
	registry.Register("aws.secretsmanager", NewSecretsManagerSourceFactory)
	registry.Register("aws.ssm", NewSSMSourceFactory)
	registry.Register("gcp.secretmanager", NewGCPSecretManagerSourceFactory)
	registry.Register("azure.keyvault", NewAzureKeyVaultSourceFactory)
	registry.Register("akeyless", NewAkeylessSourceFactory)

	return registry
}

// Register adds or replaces the factory for a source type.
func (r *Registry) Register(sourceType string, factory Factory) {
	r.factories[sourceType] = factory
}

// Create builds the source for one key of the configuration. Remote calls
// on the returned source are bounded by the key's timeout_ms.
func (r *Registry) Create(name string, kc config.KeyConfig) (Source, error) {
	factory, ok := r.factories[kc.Source]
	if !ok {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".source",
			Value:      kc.Source,
			Message:    "unknown key source type",
			Suggestion: "Supported sources: " + strings.Join(r.Types(), ", "),
		}
	}

	source, err := factory(name, kc.Config)
	if err != nil {
		return nil, err
	}

	return withTimeout(source, kc.GetTimeout()), nil
}

// Types returns the registered source types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for sourceType := range r.factories {
		types = append(types, sourceType)
	}
	sort.Strings(types)
	return types
}

// IsSupported reports whether a source type is registered.
func (r *Registry) IsSupported(sourceType string) bool {
	_, ok := r.factories[sourceType]
	return ok
}
