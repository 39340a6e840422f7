package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/folio-content/pkg/folio"
	"github.com/tendant/folio-content/pkg/folio/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	var envFile string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "folioctl",
		Short: "Folio CMS admin CLI",
		Long: `Folio CMS admin command line interface.

Operates directly on the configured document store and upload storage,
using the same environment variables as the server (DATABASE_URL,
DATABASE_NAME, STORAGE_URL, ...).`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewModelsCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewUpsertCommand())
	rootCmd.AddCommand(NewUploadCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewDiagCommand())
	rootCmd.AddCommand(NewEnvCommand())

	return rootCmd
}

// serviceFromFlags builds the service from --env-file and the environment.
// Logs go to stderr, and only at debug level with --verbose.
func serviceFromFlags(cmd *cobra.Command) (folio.Service, config.CleanupFunc, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(config.WithDotEnv(envFile), config.WithEnv())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var logger *slog.Logger
	if verbose {
		cfg.LogLevel = "debug"
		logger = cfg.NewLogger(cmd.ErrOrStderr())
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	svc, cleanup, err := cfg.BuildService(cmd.Context(), logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func closeService(cleanup config.CleanupFunc) {
	if err := cleanup(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
	}
}
