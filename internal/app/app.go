// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires the encoder, analyzer, vocabulary and resource monitor into a
// scoring engine and exposes methods to run the different operational modes:
//
//   - Server mode: HTTP operation table plus health, readiness and metrics
//   - Stdio mode: one JSON request per line on stdin, one response per line on stdout
//   - Batch mode: score a pair file and write JSON or Parquet results
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/api"
	"github.com/haimeda/statement-scorer/internal/core/analysis"
	"github.com/haimeda/statement-scorer/internal/core/embeddings"
	"github.com/haimeda/statement-scorer/internal/export"
	"github.com/haimeda/statement-scorer/internal/platform/circuit"
	"github.com/haimeda/statement-scorer/internal/platform/config"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
	"github.com/haimeda/statement-scorer/internal/process/batch"
	"github.com/haimeda/statement-scorer/internal/process/resources"
	"github.com/haimeda/statement-scorer/internal/process/similarity"
)

const (
	logFieldComponent = "component"
	logFieldPairs     = "pairs"
	logFieldPath      = "path"
	logFieldFormat    = "format"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg    *config.Config
	logger *zerolog.Logger
	handle *embeddings.Handle
	engine *batch.Engine
}

// New wires the scoring engine. The encoder itself is built on first use.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	vocab, err := similarity.LoadVocabulary(cfg.Scoring.VocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	a := &App{cfg: cfg, logger: logger}
	a.handle = embeddings.NewHandle(a.newEncoder)

	monitorLogger := logger.With().Str(logFieldComponent, "resources").Logger()
	monitor := resources.NewMonitor(resources.NewNvidiaSMI(), resources.MonitorConfig{
		WorkerOverride:  cfg.Scoring.WorkerCount,
		VRAMPerWorkerMB: cfg.Scoring.VRAMPerWorkerMB,
		QueryTimeout:    cfg.Scoring.GPUQueryTimeout,
	}, &monitorLogger)

	a.engine = batch.NewEngine(a.handle, a.newAnalyzer(), vocab, monitor, batch.Options{
		BatchSize:         cfg.Embedding.BatchSize,
		DispatchMode:      cfg.Scoring.DispatchMode,
		KeywordMode:       cfg.Scoring.KeywordMode,
		ReclaimEvery:      cfg.Scoring.ReclaimEvery,
		ProgressEvery:     cfg.Scoring.ProgressLogEvery,
		SequentialLogEach: cfg.Scoring.SequentialLogEach,
	}, logger)

	return a, nil
}

// Engine returns the scoring engine.
func (a *App) Engine() *batch.Engine {
	return a.engine
}

// RunServer serves the operation table, health, readiness and metrics on port.
func (a *App) RunServer(ctx context.Context, port int) error {
	a.logger.Info().Msg("Starting server mode")

	handler := api.NewHandler(a.engine, a.logger)

	return observability.NewServer(port, handler, a.ready, a.logger).Start(ctx)
}

// RunStdio answers line-delimited JSON requests until in is exhausted or ctx ends.
func (a *App) RunStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	a.logger.Info().Msg("Starting stdio mode")

	defer a.engine.Release(ctx)

	return api.ServeStdio(ctx, a.engine, in, out, a.logger)
}

// RunBatch scores every pair in inPath and writes results to outPath, or to out
// when outPath is empty. An empty format is derived from outPath.
func (a *App) RunBatch(ctx context.Context, inPath, outPath, format string, out io.Writer) error {
	pairs, err := export.LoadPairs(inPath)
	if err != nil {
		return err
	}

	if format == "" {
		format = export.FormatFromPath(outPath)
	}

	a.logger.Info().
		Int(logFieldPairs, len(pairs)).
		Str(logFieldPath, inPath).
		Str(logFieldFormat, format).
		Msg("Starting batch mode")

	results := a.engine.CompareBatch(ctx, pairs)

	if outPath == "" {
		return export.WriteResults(out, format, results)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}

	if err := export.WriteResults(f, format, results); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outPath, err)
	}

	return nil
}

// ready loads the encoder so the first scoring request does not pay for it.
func (a *App) ready(ctx context.Context) error {
	if _, err := a.handle.Encoder(ctx); err != nil {
		return fmt.Errorf("encoder: %w", err)
	}

	return nil
}

func (a *App) newEncoder(ctx context.Context) (embeddings.Encoder, error) {
	logger := a.logger.With().Str(logFieldComponent, "embeddings").Logger()
	emb := a.cfg.Embedding

	return embeddings.NewEncoder(ctx, embeddings.Config{
		LocalURL:         emb.LocalURL,
		LocalModel:       emb.LocalModel,
		LocalTimeout:     emb.LocalTimeout,
		LocalRateLimit:   emb.LocalRateLimit,
		OpenAIAPIKey:     emb.OpenAIAPIKey,
		OpenAIModel:      emb.OpenAIModel,
		OpenAIDimensions: emb.OpenAIDimensions,
		OpenAIRateLimit:  emb.OpenAIRateLimit,
		CohereAPIKey:     emb.CohereAPIKey,
		CohereModel:      emb.CohereModel,
		CohereRateLimit:  emb.CohereRateLimit,
		GoogleAPIKey:     emb.GoogleAPIKey,
		GoogleModel:      emb.GoogleModel,
		GoogleRateLimit:  emb.GoogleRateLimit,
		ProviderOrder:    emb.ProviderOrder,
		CircuitBreakerConfig: circuit.Config{
			Threshold:  emb.CircuitThreshold,
			ResetAfter: emb.CircuitResetAfter,
		},
		TargetDimensions: emb.TargetDimensions,
	}, &logger), nil
}

func (a *App) newAnalyzer() analysis.Analyzer {
	logger := a.logger.With().Str(logFieldComponent, "analyzer").Logger()

	return analysis.New(analysis.HTTPConfig{
		BaseURL:   a.cfg.Analyzer.URL,
		Timeout:   a.cfg.Analyzer.Timeout,
		RateLimit: a.cfg.Analyzer.RateLimit,
		Circuit:   circuit.DefaultConfig(),
	}, &logger)
}
