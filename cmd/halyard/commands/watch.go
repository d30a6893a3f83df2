package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systmms/halyard/internal/config"
	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/profile"
	"github.com/systmms/halyard/pkg/watchfile"
)

func NewWatchCommand(cfg *config.Config) *cobra.Command {
	var (
		wait        time.Duration
		interval    time.Duration
		format      string
		metricsPort int
		once        bool
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Wait for a file and print it on every change",
		Long: `Poll for FILE to appear, then print its parsed content whenever the
modification time advances.

Waiting is bounded by --wait; once the first parse succeeds, the command
keeps polling and reprints on change until interrupted (or exits after
the first print with --once). A file that vanishes or briefly stops
parsing does not interrupt the loop: the last good content is kept and a
warning is logged.

Examples:
  # Block until another process writes the file, then follow it
  halyard watch rendered.env --wait 30s

  # One-shot: wait for a YAML file and print it once
  halyard watch deploy.yaml --format yaml --once

  # Long-running watch with Prometheus metrics on :9090
  halyard watch rendered.env --metrics-port 9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			parse, err := renderParser(format)
			if err != nil {
				return err
			}

			metrics := profile.NewOpMetrics()
			if metricsPort > 0 {
				profile.InitMetrics()

				serverConfig := profile.DefaultMetricsServerConfig()
				serverConfig.Enabled = true
				serverConfig.Port = metricsPort
				server := profile.NewMetricsServer(serverConfig)
				if err := server.Start(); err != nil {
					return fmt.Errorf("failed to start metrics server: %w", err)
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Stop(ctx)
				}()
				cfg.Logger.Info("Serving metrics on :%d/metrics", metricsPort)
			}

			// The spinner writes to stderr so piped stdout stays clean.
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			s.Suffix = fmt.Sprintf(" Waiting for %s...", path)
			s.Start()

			var file *watchfile.File[string]
			err = profile.Timed(metrics, "watch_open", func() error {
				var watchErr error
				file, watchErr = watchfile.Watch(path, parse, wait, watchfile.WithInterval(interval))
				return watchErr
			})
			s.Stop()
			if err != nil {
				return hlerrors.UserError{
					Message:    fmt.Sprintf("%s did not become readable within %s", path, wait),
					Details:    err.Error(),
					Suggestion: "Check the path, raise --wait, or verify the producing process is running",
					Err:        err,
				}
			}

			content, err := file.Value()
			if err != nil {
				return err
			}
			fmt.Println(content)

			if once {
				return nil
			}

			lastMod, err := file.ModTime()
			if err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(stop)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					var modTime time.Time
					err := profile.Timed(metrics, "watch_refresh", func() error {
						var refreshErr error
						modTime, refreshErr = file.ModTime()
						return refreshErr
					})
					if err != nil {
						// No cached value survives only when the file never
						// parsed, which Watch already ruled out.
						return err
					}

					metrics.SetWatchStale(path, file.Stale())
					if file.Stale() {
						cfg.Logger.Warn("%s is unreadable; serving the last good content", path)
						continue
					}

					if modTime.After(lastMod) {
						content, err := file.Value()
						if err != nil {
							return err
						}
						lastMod = modTime
						cfg.Logger.Debug("%s changed at %s", path, modTime.Format(time.RFC3339))
						fmt.Println(content)
					}
				case <-stop:
					cfg.Logger.Info("Stopping watch of %s", path)
					return nil
				}
			}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "How long to wait for the file to appear and parse")
	cmd.Flags().DurationVar(&interval, "interval", 250*time.Millisecond, "Polling interval")
	cmd.Flags().StringVar(&format, "format", "lines", "How to parse the file: lines, yaml, or json")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")
	cmd.Flags().BoolVar(&once, "once", false, "Exit after the first successful print")

	return cmd
}

// renderParser wraps one of the bundled parsers so the watch loop always
// handles a printable string.
func renderParser(format string) (watchfile.ParseFunc[string], error) {
	switch format {
	case "lines":
		return func(r io.Reader) (string, error) {
			lines, err := watchfile.Lines(r)
			if err != nil {
				return "", err
			}
			return strings.Join(lines, "\n"), nil
		}, nil
	case "yaml":
		parse := watchfile.YAML[interface{}]()
		return func(r io.Reader) (string, error) {
			v, err := parse(r)
			if err != nil {
				return "", err
			}
			out, err := yaml.Marshal(v)
			if err != nil {
				return "", err
			}
			return strings.TrimSuffix(string(out), "\n"), nil
		}, nil
	case "json":
		parse := watchfile.JSON[interface{}]()
		return func(r io.Reader) (string, error) {
			v, err := parse(r)
			if err != nil {
				return "", err
			}
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return "", err
			}
			return string(out), nil
		}, nil
	default:
		return nil, hlerrors.UserError{
			Message:    fmt.Sprintf("Unknown watch format '%s'", format),
			Suggestion: "Use one of: lines, yaml, json",
		}
	}
}
