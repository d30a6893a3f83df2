package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/halyard/internal/config"
	"github.com/systmms/halyard/pkg/token"
)

func NewSignCommand(cfg *config.Config) *cobra.Command {
	var (
		keyName string
		maxAge  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sign [MESSAGE]",
		Short: "Sign a message into an expiring token",
		Long: `Issue a signed, time-limited token for a message.

The token proves possession of the key at signing time; it carries no
payload, so the verifier must present the same message again. Reads the
message from stdin when the argument is absent or '-'.

Examples:
  # Sign with the default key
  halyard sign "deploy:2026-08-25"

  # Sign with a named key and a custom validity window
  halyard sign --key prod --max-age 1h "release-42"

  # Sign stdin
  cat manifest.txt | halyard sign`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			message, err := readArgOrStdin(args)
			if err != nil {
				return err
			}

			if maxAge <= 0 {
				maxAge = cfg.MaxAge()
			}

			key, err := resolveKey(cmd.Context(), cfg, keyName)
			if err != nil {
				return err
			}
			defer key.Destroy()

			tok, err := token.Sign(key, message, maxAge)
			if err != nil {
				return err
			}

			cfg.Logger.Debug("Signed %d-byte message, valid for %s", len(message), maxAge)
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyName, "key", "", "Named key from halyard.yaml (default: defaults.key)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Validity window (default: defaults.max_age)")

	return cmd
}
