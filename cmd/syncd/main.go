// Command syncd serves the survey webhook over HTTP and replays stored
// payloads through the same pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kylejryan/survey-sync/internal/app"
	"github.com/kylejryan/survey-sync/internal/config"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "syncd",
		Short:         "Sync KoboToolbox submissions into Notion",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "YAML config file (environment variables take precedence)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(replayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// build loads configuration and wires the application.
func build(ctx context.Context, service string) (*app.App, *slog.Logger, error) {
	env, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := app.Logger(env, service)
	a, err := app.Build(ctx, env, logger)
	if err != nil {
		return nil, logger, fmt.Errorf("failed to build app: %w", err)
	}
	return a, logger, nil
}
