package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/halyard/internal/config"
)

const exampleConfig = `version: 1

# Named keys. Each entry points at the source its raw material is fetched
# from; halyard never creates or rotates the material itself.
keys:
  default:
    source: file
    path: ~/.config/halyard/signing.key

  # ci:
  #   source: keyring
  #   service: halyard
  #   user: ci

  # Cloud sources (uncomment as needed)
  # prod:
  #   source: aws.secretsmanager
  #   secret_id: halyard/prod-signing-key
  #   region: us-east-1

  # gcp:
  #   source: gcp.secretmanager
  #   project_id: my-project
  #   secret: halyard-signing-key

  # vault:
  #   source: azure.keyvault
  #   vault_url: https://my-vault.vault.azure.net/
  #   secret_name: halyard-signing-key

defaults:
  key: default
  max_age: 15m
`

func NewInitCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new halyard configuration",
		Long:  "Create a halyard.yaml file with example key sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Refuse to clobber an existing configuration
			if _, err := os.Stat(cfg.Path); err == nil {
				return fmt.Errorf("%s already exists. Remove it first if you want to reinitialize", cfg.Path)
			}

			// The file may later carry literal key material, so keep it
			// private from the start.
			if err := os.WriteFile(cfg.Path, []byte(exampleConfig), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cfg.Logger.Info("Created %s with example key sources", cfg.Path)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Put raw key material where the 'default' key points (chmod 600)")
			cfg.Logger.Info("  2. Run 'halyard doctor' to verify every key source")
			cfg.Logger.Info("  3. Run 'halyard sign \"hello\"' to issue a first token")

			return nil
		},
	}

	return cmd
}
