package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/halyard/internal/config"
	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/token"
)

func NewVerifyCommand(cfg *config.Config) *cobra.Command {
	var (
		keyName    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "verify MESSAGE TOKEN",
		Short: "Verify a token against its message",
		Long: `Check that a token was signed for this exact message with the named key
and has not expired.

The three failure kinds exit non-zero with distinct messages: a corrupt
token (damaged or not one of ours), an expired token (authentic but past
its validity window), and an invalid token (well-formed but signed with a
different key or for different content). They are operationally different
events; scripts can match on the wording.

Examples:
  halyard verify "deploy:2026-08-25" "$TOKEN"
  halyard verify --key prod --json "release-42" "$TOKEN"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			message, tok := args[0], args[1]

			key, err := resolveKey(cmd.Context(), cfg, keyName)
			if err != nil {
				return err
			}
			defer key.Destroy()

			header, err := token.Verify(key, message, tok)
			if err != nil {
				return describeVerifyFailure(err)
			}

			if jsonOutput {
				output := map[string]interface{}{
					"valid":      true,
					"version":    header.Version,
					"expires_at": header.Expiry.UTC().Format(time.RFC3339),
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(output)
			}

			cfg.Logger.Info("Token is valid")
			fmt.Printf("valid through %s\n", header.Expiry.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&keyName, "key", "", "Named key from halyard.yaml (default: defaults.key)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the verdict in JSON format")

	return cmd
}

// describeVerifyFailure keeps the three verification failure kinds distinct
// on the way to the user; the original error stays wrapped for errors.Is.
func describeVerifyFailure(err error) error {
	switch {
	case errors.Is(err, token.ErrCorruptSignature):
		return hlerrors.UserError{
			Message:    "Token is corrupt",
			Details:    err.Error(),
			Suggestion: "The token was damaged in transit or was never issued by halyard. Request a fresh one",
			Err:        err,
		}
	case errors.Is(err, token.ErrExpiredSignature):
		return hlerrors.UserError{
			Message:    "Token has expired",
			Details:    err.Error(),
			Suggestion: "Expired tokens cannot be renewed; sign a fresh one",
			Err:        err,
		}
	case errors.Is(err, token.ErrInvalidSignature):
		return hlerrors.UserError{
			Message:    "Token signature does not match",
			Details:    err.Error(),
			Suggestion: "Check that the message is byte-identical to what was signed and that the same key is selected",
			Err:        err,
		}
	default:
		return err
	}
}
