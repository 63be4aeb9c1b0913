package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/haimeda/statement-scorer/internal/app"
	"github.com/haimeda/statement-scorer/internal/platform/config"
)

// cli is shared by every subcommand once the persistent pre-run has loaded config.
type cli struct {
	cfg    *config.Config
	logger zerolog.Logger
	app    *app.App
}

func newRootCmd() *cobra.Command {
	rt := &cli{}

	cmd := &cobra.Command{
		Use:   "scorer",
		Short: "Score semantic similarity between German and English statements",
		Long: `scorer compares pairs of statements with several similarity signals
(transformer embeddings, TF-IDF, vector distances, domain vocabulary and keyword
overlap) and combines them into a score, a confidence and a label.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			rt.cfg = cfg
			rt.logger = newLogger(cfg.AppEnv, cfg.LogLevel)

			application, err := app.New(cfg, &rt.logger)
			if err != nil {
				return err
			}

			rt.app = application

			return nil
		},
	}

	cmd.AddCommand(
		newServeCmd(rt),
		newStdioCmd(rt),
		newBatchCmd(rt),
		newCompareCmd(rt),
		newWorkersCmd(rt),
		newVRAMCmd(rt),
	)

	return cmd
}

// newLogger writes to stderr so stdout stays free for results and stdio responses.
func newLogger(appEnv, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	return nil
}
