package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/halyard/internal/config"
	"github.com/systmms/halyard/internal/keysource"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check key sources and configuration",
		Long: `Verify that every configured key source is reachable.

This command checks:
- Configuration file validity
- Reachability of each key's material (without holding on to it)
- Source authentication where the source requires it

Exit status is non-zero when any source is unhealthy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking halyard configuration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.Logger.Info("Configuration loaded successfully")

			if len(cfg.Definition.Keys) == 0 {
				cfg.Logger.Warn("No keys configured; nothing to check")
				return nil
			}

			registry := keysource.NewRegistry()
			results := make([]keyHealth, 0, len(cfg.Definition.Keys))

			for _, name := range cfg.KeyNames() {
				kc, err := cfg.GetKey(name)
				if err != nil {
					return err
				}

				health := keyHealth{Name: name, Source: kc.Source}

				source, err := registry.Create(name, kc)
				if err != nil {
					health.Status = "error"
					health.Error = err.Error()
					health.Suggestions = sourceSuggestions(kc.Source, err)
					results = append(results, health)
					continue
				}

				if err := source.Validate(cmd.Context()); err != nil {
					health.Status = "error"
					health.Error = err.Error()
					health.Suggestions = sourceSuggestions(kc.Source, err)
				} else {
					health.Status = "healthy"
					health.Message = "Key material is reachable"
				}

				results = append(results, health)
			}

			displayKeyHealth(results, verbose)

			healthy := 0
			for _, result := range results {
				if result.Status == "healthy" {
					healthy++
				}
			}

			fmt.Printf("\nSummary: %d/%d keys healthy\n", healthy, len(results))
			if healthy < len(results) {
				return fmt.Errorf("some key sources are not healthy")
			}

			cfg.Logger.Info("All key sources operational")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for unhealthy sources")

	return cmd
}

// keyHealth represents the health status of one configured key.
type keyHealth struct {
	Name        string
	Source      string
	Status      string // healthy, error
	Error       string
	Message     string
	Suggestions []string
}

// displayKeyHealth shows key health in a formatted table.
func displayKeyHealth(results []keyHealth, verbose bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "KEY\tSOURCE\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "---\t------\t------\t-------\n")

	for _, result := range results {
		status := result.Status
		message := result.Message
		if result.Error != "" {
			// Keep the table single-line; suggestions carry the detail.
			message = strings.SplitN(result.Error, "\n", 2)[0]
		}

		switch result.Status {
		case "healthy":
			status = "✓ " + status
		default:
			status = "✗ " + status
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			result.Name, result.Source, status, message)
	}

	_ = w.Flush()

	if verbose {
		for _, result := range results {
			if result.Status == "error" && len(result.Suggestions) > 0 {
				fmt.Printf("\n%s (%s) suggestions:\n", result.Name, result.Source)
				for _, suggestion := range result.Suggestions {
					fmt.Printf("  • %s\n", suggestion)
				}
			}
		}
	}
}

// sourceSuggestions returns fix-it hints for key source failures.
func sourceSuggestions(sourceType string, err error) []string {
	suggestions := make([]string, 0)
	errStr := err.Error()

	switch sourceType {
	case "file":
		if strings.Contains(errStr, "not found") {
			suggestions = append(suggestions, "Create the key file and restrict it: install -m 600 <material> <path>")
		}
		if strings.Contains(errStr, "readable by other users") {
			suggestions = append(suggestions, "Tighten permissions: chmod 600 <path>")
		}

	case "keyring":
		suggestions = append(suggestions, "Store the entry first, for example with 'secret-tool' or 'security add-generic-password'")
		if strings.Contains(errStr, "dbus") {
			suggestions = append(suggestions, "A desktop keyring daemon (gnome-keyring, kwallet) must be running")
		}

	case "aws.secretsmanager", "aws.ssm":
		suggestions = append(suggestions, "Configure AWS credentials via 'aws configure' or AWS_PROFILE")
		if strings.Contains(errStr, "authentication") || strings.Contains(errStr, "credentials") {
			suggestions = append(suggestions, "Verify identity with: aws sts get-caller-identity")
		}
		if strings.Contains(errStr, "not found") {
			if sourceType == "aws.ssm" {
				suggestions = append(suggestions, "List parameters with: aws ssm describe-parameters")
			} else {
				suggestions = append(suggestions, "List secrets with: aws secretsmanager list-secrets")
			}
		}

	case "gcp.secretmanager":
		suggestions = append(suggestions, "Authenticate with 'gcloud auth application-default login' or set GOOGLE_APPLICATION_CREDENTIALS")
		if strings.Contains(errStr, "not found") {
			suggestions = append(suggestions, "Verify the secret with: gcloud secrets describe <name>")
		}

	case "azure.keyvault":
		suggestions = append(suggestions, "Authenticate with 'az login' or set AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET")
		if strings.Contains(errStr, "not found") {
			suggestions = append(suggestions, "List secrets with: az keyvault secret list --vault-name <vault>")
		}

	case "akeyless":
		suggestions = append(suggestions, "Check the access_id and access_key configured for this source")
		if strings.Contains(errStr, "not found") {
			suggestions = append(suggestions, "List items with: akeyless list-items")
		}

	default:
		suggestions = append(suggestions, "Verify the source configuration in halyard.yaml")
	}

	return suggestions
}
