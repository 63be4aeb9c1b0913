package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/haimeda/statement-scorer/internal/api"
)

func newServeCmd(rt *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring operations over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				port = rt.cfg.HTTPPort
			}

			err := rt.app.RunServer(cmd.Context(), port)
			if errors.Is(err, context.Canceled) {
				rt.logger.Info().Msg("application stopped")
				return nil
			}

			return err
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (defaults to HTTP_PORT)")

	return cmd
}

func newStdioCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Answer line-delimited JSON requests on stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := rt.app.RunStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		},
	}
}

func newBatchCmd(rt *cli) *cobra.Command {
	var in, out, format string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score a JSON or Parquet file of statement pairs",
		Example: `  scorer batch --in pairs.json
  scorer batch --in pairs.parquet --out results.parquet`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.RunBatch(cmd.Context(), in, out, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input file with statement1/statement2 records (.json or .parquet)")
	cmd.Flags().StringVar(&out, "out", "", "output file (stdout when empty)")
	cmd.Flags().StringVar(&format, "format", "", "output format: json or parquet (derived from --out when empty)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func newCompareCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <statement1> <statement2>",
		Short: "Score a single pair of statements",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer rt.app.Engine().Release(ctx)

			return printJSON(cmd.OutOrStdout(), rt.app.Engine().Compare(ctx, args[0], args[1]))
		},
	}
}

func newWorkersCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "Print the scoring worker count for this host",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n := rt.app.Engine().WorkerCount(cmd.Context())
			return printJSON(cmd.OutOrStdout(), api.WorkerCountResponse{Workers: n})
		},
	}
}

func newVRAMCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "vram",
		Short: "Print accelerator memory per device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), rt.app.Engine().VRAMInfo(cmd.Context()))
		},
	}
}
