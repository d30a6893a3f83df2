package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/halyard/cmd/halyard/commands"
	"github.com/systmms/halyard/internal/config"
	"github.com/systmms/halyard/internal/logging"
	"github.com/systmms/halyard/internal/profile"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()

	// Wipe every enclave the key sources may have left behind before the
	// process image goes away.
	memguard.Purge()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
		cpuProfile bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	var stopProfile func() (string, error)

	rootCmd := &cobra.Command{
		Use:   "halyard",
		Short: "Expiring signed tokens and encrypted line stores for local secrets",
		Long: `halyard signs short-lived tokens, seals small values with authenticated
encryption, and keeps line-oriented files encrypted at rest. Key material is
fetched from named sources (files, the OS keyring, cloud secret managers)
configured in halyard.yaml.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Path = configFile
			cfg.Logger = logger

			if cpuProfile {
				stop, err := profile.StartCPUProfile(cmd.Name())
				if err != nil {
					return err
				}
				stopProfile = stop
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultFilename, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&cpuProfile, "cpu-profile", false, "Capture a CPU profile of this run into the data directory")

	// Add commands
	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewSignCommand(cfg),
		commands.NewVerifyCommand(cfg),
		commands.NewEncryptCommand(cfg),
		commands.NewDecryptCommand(cfg),
		commands.NewStoreCommand(cfg),
		commands.NewWatchCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	execErr := rootCmd.Execute()

	// Stop profiling even when the command failed; the capture of a failing
	// run is usually the interesting one.
	if stopProfile != nil {
		if path, err := stopProfile(); err != nil {
			cfg.Logger.Warn("CPU profile was not written: %v", err)
		} else {
			cfg.Logger.Info("CPU profile written to %s", path)
		}
	}

	return execErr
}
