// Command playervalue serves football player market-value predictions. It
// loads configuration, validates it, wires dependencies, sets up signal
// handling, and runs the HTTP server or a one-shot CLI operation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/playervalue/internal/app"
	"github.com/alanyoungcy/playervalue/internal/config"
	"github.com/alanyoungcy/playervalue/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "playervalue",
		Short:         "Predict football player market values with per-position models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (TOML)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	var input string
	predict := &cobra.Command{
		Use:   "predict",
		Short: "Predict one player record read from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, configPath, input)
		},
	}
	predict.Flags().StringVarP(&input, "input", "i", "-", "player record JSON file, or - for stdin")

	models := &cobra.Command{
		Use:   "models",
		Short: "List model artifacts and verify them against the player schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, configPath)
		},
	}

	root.AddCommand(serve, predict, models)
	// Serving is the default.
	root.RunE = serve.RunE
	return root
}

// setup loads and validates configuration and builds the logger. CLI commands
// log to stderr so stdout stays machine-readable.
func setup(configPath string, out io.Writer) (*config.Config, *slog.Logger, error) {
	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Load configuration.
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", configPath),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(configPath string) error {
	cfg, logger, err := setup(configPath, os.Stdout)
	if err != nil {
		return err
	}

	logger.Info("playervalue starting",
		slog.String("config", configPath),
		slog.String("addr", cfg.Server.Addr()),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return err
		}
	}

	logger.Info("playervalue stopped")
	return nil
}

func runPredict(cmd *cobra.Command, configPath, input string) error {
	cfg, logger, err := setup(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var body []byte
	if input == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(input)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), app.DefaultTimeout)
	defer cancel()

	pred, err := application.Predict(ctx, body)
	if err != nil {
		if de, ok := domain.AsError(err); ok {
			_ = printJSON(cmd.OutOrStdout(), map[string]any{
				"detail": de.Detail(),
				"kind":   de.Kind,
				"stage":  de.Stage.String(),
			})
		}
		return err
	}
	return printJSON(cmd.OutOrStdout(), pred)
}

func runModels(cmd *cobra.Command, configPath string) error {
	cfg, logger, err := setup(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), app.DefaultTimeout)
	defer cancel()

	report, err := application.Models(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
