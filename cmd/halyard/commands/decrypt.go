package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/halyard/internal/config"
	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/envelope"
)

func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	var keyName string

	cmd := &cobra.Command{
		Use:   "decrypt [TOKEN]",
		Short: "Decrypt a token back into its message",
		Long: `Open a token produced by 'halyard encrypt' and print the message.

Decryption is all-or-nothing: a token that was tampered with, truncated,
or sealed under a different key fails authentication and nothing is
printed. Reads the token from stdin when the argument is absent or '-'.

Examples:
  halyard decrypt "$TOKEN"
  halyard decrypt --key prod < credentials.enc`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			tok, err := readArgOrStdin(args)
			if err != nil {
				return err
			}

			key, err := resolveKey(cmd.Context(), cfg, keyName)
			if err != nil {
				return err
			}
			defer key.Destroy()

			plaintext, err := envelope.Open(key, []byte(tok))
			if err != nil {
				if errors.Is(err, envelope.ErrDecryption) {
					return hlerrors.UserError{
						Message:    "Decryption failed",
						Details:    err.Error(),
						Suggestion: "Check that the token is complete and that the same key it was sealed under is selected",
						Err:        err,
					}
				}
				return err
			}

			fmt.Println(string(plaintext))
			return nil
		},
	}

	cmd.Flags().StringVar(&keyName, "key", "", "Named key from halyard.yaml (default: defaults.key)")

	return cmd
}
