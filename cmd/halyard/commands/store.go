package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/halyard/internal/config"
	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/linestore"
)

func NewStoreCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Read and write encrypted line stores",
		Long: `Manage files of independently encrypted lines.

'store write' seals each stdin line under the named key and replaces the
target file atomically; a partial file is never left behind. 'store read'
decrypts every line and prints them in order, refusing to emit anything
if even one record fails authentication.`,
	}

	cmd.AddCommand(
		newStoreWriteCommand(cfg),
		newStoreReadCommand(cfg),
	)

	return cmd
}

func newStoreWriteCommand(cfg *config.Config) *cobra.Command {
	var keyName string

	cmd := &cobra.Command{
		Use:   "write FILE",
		Short: "Encrypt stdin lines into a store file",
		Long: `Read plaintext lines from stdin, seal each one, and commit them to FILE.

Examples:
  printf 'alpha\nbravo\n' | halyard store write secrets.hal
  halyard store write --key prod secrets.hal < plaintext.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			key, err := resolveKey(cmd.Context(), cfg, keyName)
			if err != nil {
				return err
			}
			defer key.Destroy()

			writer := linestore.NewWriter(args[0], key)
			defer writer.Close()

			count := 0
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if err := writer.Append(scanner.Text()); err != nil {
					return err
				}
				count++
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}

			if err := writer.Commit(); err != nil {
				return err
			}

			cfg.Logger.Info("Wrote %d encrypted records to %s", count, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&keyName, "key", "", "Named key from halyard.yaml (default: defaults.key)")

	return cmd
}

func newStoreReadCommand(cfg *config.Config) *cobra.Command {
	var keyName string

	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Decrypt a store file to stdout",
		Long: `Decrypt every record of FILE and print the plaintext lines in order.

A single damaged record aborts the whole read; halyard never emits a
partially decrypted store.

Examples:
  halyard store read secrets.hal
  halyard store read --key prod secrets.hal > plaintext.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			key, err := resolveKey(cmd.Context(), cfg, keyName)
			if err != nil {
				return err
			}
			defer key.Destroy()

			reader, err := linestore.Open(args[0], key)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return hlerrors.UserError{
						Message:    fmt.Sprintf("Store %s does not exist", args[0]),
						Suggestion: "Create it first with 'halyard store write'",
						Err:        err,
					}
				}
				return err
			}
			defer reader.Close()

			lines, err := reader.Lines()
			if err != nil {
				return hlerrors.UserError{
					Message:    fmt.Sprintf("Store %s could not be decrypted", args[0]),
					Details:    err.Error(),
					Suggestion: "Check that the same key the store was written with is selected and that the file is undamaged",
					Err:        err,
				}
			}

			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keyName, "key", "", "Named key from halyard.yaml (default: defaults.key)")

	return cmd
}
