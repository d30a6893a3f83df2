package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/systmms/halyard/internal/config"
	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/keysource"
	"github.com/systmms/halyard/pkg/secret"
)

// resolveKey fetches the material of a named key through its configured
// source. An empty name falls back to defaults.key. The caller owns the
// returned secret and must Destroy it.
func resolveKey(ctx context.Context, cfg *config.Config, name string) (*secret.Secret, error) {
	if name == "" {
		defName, ok := cfg.DefaultKey()
		if !ok {
			return nil, hlerrors.UserError{
				Message:    "No key selected",
				Suggestion: "Pass --key <name> or set defaults.key in halyard.yaml",
			}
		}
		name = defName
	}

	kc, err := cfg.GetKey(name)
	if err != nil {
		return nil, err
	}

	source, err := keysource.NewRegistry().Create(name, kc)
	if err != nil {
		return nil, err
	}

	material, err := source.Material(ctx)
	if err != nil {
		return nil, hlerrors.SourceError(kc.Source, "key fetch", err)
	}

	return material, nil
}

// readArgOrStdin returns the first positional argument, or all of stdin
// when no argument is given or the argument is "-". A single trailing
// newline is stripped so `echo value | halyard encrypt` round-trips.
func readArgOrStdin(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
