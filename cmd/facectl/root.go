package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/familyalbum/faces/internal/app"
	"github.com/familyalbum/faces/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "facectl",
	Short: "Batch maintenance for the family album face index",
	Long: `facectl runs the long batch jobs of the face index from a shell:
position-based training, aggregate rebuilds and the full reset used before
a controlled re-training run.

Configuration is read from the environment and an optional .env file, the
same way as the API server.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads configuration and wires the face stack. Logs go to stderr so
// that --json output stays clean.
func openApp(ctx context.Context) (*app.App, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}
