package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/halyard/internal/config"
	"github.com/systmms/halyard/pkg/envelope"
)

func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	var keyName string

	cmd := &cobra.Command{
		Use:   "encrypt [MESSAGE]",
		Short: "Encrypt a message into a printable token",
		Long: `Seal a message under the named key with authenticated encryption.

The output is a self-describing ASCII token; decrypt it with
'halyard decrypt'. Sealing is randomized, so encrypting the same message
twice produces different tokens. Reads the message from stdin when the
argument is absent or '-'.

Examples:
  halyard encrypt "postgres://user:pw@db/prod"
  cat credentials.txt | halyard encrypt --key prod > credentials.enc`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			message, err := readArgOrStdin(args)
			if err != nil {
				return err
			}

			key, err := resolveKey(cmd.Context(), cfg, keyName)
			if err != nil {
				return err
			}
			defer key.Destroy()

			tok, err := envelope.Seal(key, []byte(message))
			if err != nil {
				return err
			}

			fmt.Println(string(tok))
			return nil
		},
	}

	cmd.Flags().StringVar(&keyName, "key", "", "Named key from halyard.yaml (default: defaults.key)")

	return cmd
}
