package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/logging"
)

// DefaultFilename is the configuration file halyard looks for in the
// working directory when --config is not given.
const DefaultFilename = "halyard.yaml"

// DefaultMaxAge bounds token validity when neither the --max-age flag nor
// defaults.max_age sets one.
const DefaultMaxAge = 15 * time.Minute

// defaultFetchTimeout applies to key sources without timeout_ms.
const defaultFetchTimeout = 30 * time.Second

//go:embed halyard.schema.json
var schemaJSON string

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the halyard.yaml structure
type Definition struct {
	Version  int                  `yaml:"version"`
	Keys     map[string]KeyConfig `yaml:"keys,omitempty"`
	Defaults Defaults             `yaml:"defaults,omitempty"`
}

// KeyConfig names the source a key is fetched from, plus source-specific
// settings captured inline (path, region, vault_url, ...).
type KeyConfig struct {
	Source    string                 `yaml:"source"`
	TimeoutMs int                    `yaml:"timeout_ms,omitempty"`
	Config    map[string]interface{} `yaml:",inline"`
}

// Defaults apply when command flags are omitted
type Defaults struct {
	Key    string `yaml:"key,omitempty"`
	MaxAge string `yaml:"max_age,omitempty"`
}

// Load reads, schema-validates and parses the halyard.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return hlerrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Run 'halyard init' to create a new configuration file",
			}
		}
		return hlerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	// Validate the generic document first so unknown fields and type
	// mismatches surface before struct decoding silently drops them.
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return hlerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if err := validateSchema(doc); err != nil {
		return err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return hlerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 1 {
		return hlerrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 1' at the top of your halyard.yaml file",
		}
	}

	if def.Defaults.MaxAge != "" {
		if _, err := time.ParseDuration(def.Defaults.MaxAge); err != nil {
			return hlerrors.ConfigError{
				Field:      "defaults.max_age",
				Value:      def.Defaults.MaxAge,
				Message:    "not a valid duration",
				Suggestion: "Use Go duration syntax, for example '15m' or '1h30m'",
			}
		}
	}

	if def.Defaults.Key != "" {
		if _, ok := def.Keys[def.Defaults.Key]; !ok {
			return hlerrors.ConfigError{
				Field:      "defaults.key",
				Value:      def.Defaults.Key,
				Message:    "references a key that is not defined",
				Suggestion: fmt.Sprintf("Available keys: %s", strings.Join(keyNames(def.Keys), ", ")),
			}
		}
	}

	c.Definition = &def
	return nil
}

func validateSchema(doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return hlerrors.ConfigError{
			Message:    "configuration could not be prepared for validation",
			Suggestion: "Use plain string keys throughout halyard.yaml",
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return hlerrors.ConfigError{
			Message:    fmt.Sprintf("schema validation failed:\n  - %s", strings.Join(messages, "\n  - ")),
			Suggestion: "Compare your halyard.yaml against the format shown by 'halyard init'",
		}
	}

	return nil
}

// GetKey returns the configuration for a named key
func (c *Config) GetKey(name string) (KeyConfig, error) {
	if c.Definition == nil {
		return KeyConfig{}, hlerrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	if key, ok := c.Definition.Keys[name]; ok {
		return key, nil
	}

	suggestion := "Add the key to the 'keys:' section of your halyard.yaml"
	if available := c.KeyNames(); len(available) > 0 {
		suggestion = fmt.Sprintf("Available keys: %s. %s", strings.Join(available, ", "), suggestion)
	}

	return KeyConfig{}, hlerrors.ConfigError{
		Field:      "key",
		Value:      name,
		Message:    "key not found in configuration",
		Suggestion: suggestion,
	}
}

// KeyNames returns the configured key names, sorted
func (c *Config) KeyNames() []string {
	if c.Definition == nil {
		return nil
	}
	return keyNames(c.Definition.Keys)
}

func keyNames(keys map[string]KeyConfig) []string {
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultKey returns the key name used when no --key flag is given
func (c *Config) DefaultKey() (string, bool) {
	if c.Definition == nil || c.Definition.Defaults.Key == "" {
		return "", false
	}
	return c.Definition.Defaults.Key, true
}

// MaxAge returns the default token lifetime
func (c *Config) MaxAge() time.Duration {
	if c.Definition != nil && c.Definition.Defaults.MaxAge != "" {
		if d, err := time.ParseDuration(c.Definition.Defaults.MaxAge); err == nil {
			return d
		}
	}
	return DefaultMaxAge
}

// GetTimeout returns the fetch timeout for this key's source
func (k KeyConfig) GetTimeout() time.Duration {
	if k.TimeoutMs <= 0 {
		return defaultFetchTimeout
	}
	return time.Duration(k.TimeoutMs) * time.Millisecond
}
