// Package batch orchestrates statement-pair scoring: it encodes every unique
// statement once, fans pairs out over a bounded worker pool (or runs them one by one),
// and releases batch memory afterwards. Every exported operation is total: failures
// become placeholder results, never errors or panics.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
	"github.com/haimeda/statement-scorer/internal/core/domain"
	"github.com/haimeda/statement-scorer/internal/core/embeddings"
	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
	"github.com/haimeda/statement-scorer/internal/process/keywords"
	"github.com/haimeda/statement-scorer/internal/process/resources"
	"github.com/haimeda/statement-scorer/internal/process/scoring"
	"github.com/haimeda/statement-scorer/internal/process/similarity"
)

// HealthOK is the health probe answer.
const HealthOK = "ok"

type batchIDKey struct{}

// WithBatchID attaches a caller-chosen batch ID to ctx. CompareBatch logs under it
// instead of generating one.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, id)
}

func batchID(ctx context.Context) string {
	if id, ok := ctx.Value(batchIDKey{}).(string); ok && id != "" {
		return id
	}

	return uuid.NewString()
}

// Options tunes an Engine.
type Options struct {
	BatchSize         int
	DispatchMode      string
	KeywordMode       string
	ReclaimEvery      int
	ProgressEvery     int
	SequentialLogEach int
}

// Engine scores statement pairs.
type Engine struct {
	handle    *embeddings.Handle
	analyzer  analysis.Analyzer
	vocab     *similarity.Vocabulary
	monitor   *resources.Monitor
	reclaimer *resources.Reclaimer
	opts      Options
	logger    *zerolog.Logger
}

// NewEngine builds an Engine. analyzer and vocab may be nil; monitor defaults to a
// probe-less monitor.
func NewEngine(handle *embeddings.Handle, analyzer analysis.Analyzer, vocab *similarity.Vocabulary, monitor *resources.Monitor, opts Options, logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if monitor == nil {
		monitor = resources.NewMonitor(nil, resources.MonitorConfig{}, logger)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	if opts.DispatchMode == "" {
		opts.DispatchMode = DispatchAuto
	}

	if opts.KeywordMode == "" {
		opts.KeywordMode = keywords.ModeExact
	}

	return &Engine{
		handle:    handle,
		analyzer:  analyzer,
		vocab:     vocab,
		monitor:   monitor,
		reclaimer: resources.NewReclaimer(handle, monitor, logger),
		opts:      opts,
		logger:    logger,
	}
}

// Compare scores a single pair.
func (e *Engine) Compare(ctx context.Context, s1, s2 string) domain.ComparisonResult {
	return e.CompareBatch(ctx, []domain.Pair{domain.NewPair(s1, s2)})[0]
}

// CompareAll scores every (input, output) combination, inputs varying slowest.
func (e *Engine) CompareAll(ctx context.Context, inputs, outputs []string) []domain.ComparisonResult {
	return e.CompareBatch(ctx, domain.CrossPairs(inputs, outputs))
}

// CompareBatch scores pairs and returns exactly one result per pair, in input order.
func (e *Engine) CompareBatch(ctx context.Context, pairs []domain.Pair) (results []domain.ComparisonResult) {
	results = make([]domain.ComparisonResult, len(pairs))
	if len(pairs) == 0 {
		return results
	}

	logger := e.logger.With().Str(logKeyBatchID, batchID(ctx)).Logger()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := panicError("compare batch", r)
			logger.Error().Err(err).Int(logKeyPairs, len(pairs)).Msg("batch panicked, returning placeholders")

			for i, p := range pairs {
				results[i] = domain.Placeholder(p, string(scorerrors.KindPanic), err)
			}
		}
	}()

	cache, err := BuildCache(ctx, e.handle, pairs, e.opts.BatchSize)
	if err != nil {
		logger.Error().Err(err).Int(logKeyPairs, len(pairs)).Msg("encoding failed, returning placeholders")

		kind := string(scorerrors.KindOf(err))
		for i, p := range pairs {
			results[i] = domain.Placeholder(p, kind, err)
		}

		observability.PairsProcessed.WithLabelValues(statusFailed).Add(float64(len(pairs)))
		e.reclaimer.Reclaim(ctx, resources.TriggerBatch)

		return results
	}

	logger.Info().
		Int(logKeyPairs, len(pairs)).
		Int(logKeyUnique, cache.Unique()).
		Int(logKeyCalls, cache.EncoderCalls()).
		Msg("statements encoded")

	memo := newAnalysisMemo(e.analyzer)
	ps := &pairScorer{
		pairs:     pairs,
		cache:     cache,
		extractor: keywords.NewExtractor(memo, &logger),
		computer:  similarity.NewComputer(memo, e.vocab, &logger),
		mode:      e.opts.KeywordMode,
	}

	dispatch := e.dispatch(ctx, pairs, ps.score, results, &logger)

	failed := 0

	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}

	observability.PairsProcessed.WithLabelValues(statusOK).Add(float64(len(pairs) - failed))
	observability.PairsProcessed.WithLabelValues(statusFailed).Add(float64(failed))
	observability.BatchDuration.WithLabelValues(dispatch).Observe(time.Since(started).Seconds())

	logger.Info().
		Str(logKeyDispatch, dispatch).
		Int(logKeyPairs, len(pairs)).
		Int(logKeyFailed, failed).
		Dur(logKeyElapsed, time.Since(started)).
		Msg("batch scored")

	e.reclaimer.Reclaim(ctx, resources.TriggerBatch, cache, memo)

	return results
}

// dispatch runs every pair and reports the dispatch mode used.
func (e *Engine) dispatch(ctx context.Context, pairs []domain.Pair, score pairFunc, results []domain.ComparisonResult, logger *zerolog.Logger) string {
	sequential := func() string {
		runSequential(ctx, pairs, e.opts.ReclaimEvery, e.opts.SequentialLogEach, score, e.reclaimer.FreeMemory, results, logger)
		return DispatchSequential
	}

	if e.opts.DispatchMode == DispatchSequential {
		return sequential()
	}

	workers := e.monitor.DetermineWorkerCount(ctx)
	logger.Debug().Int(logKeyWorkers, workers).Msg("worker pool sized")

	if workers == 1 && e.opts.DispatchMode == DispatchAuto {
		return sequential()
	}

	if err := runParallel(ctx, pairs, workers, e.opts.ProgressEvery, score, results, logger); err != nil {
		logger.Warn().Err(err).Msg("parallel dispatch unavailable, falling back to sequential")
		return sequential()
	}

	return DispatchParallel
}

// Release runs the reclaimer on demand. The encoder stays loaded.
func (e *Engine) Release(ctx context.Context) {
	e.reclaimer.Reclaim(ctx, resources.TriggerManual)
}

// Health answers the liveness probe.
func (e *Engine) Health() string {
	return HealthOK
}

// WorkerCount reports the pool size the next parallel batch would use.
func (e *Engine) WorkerCount(ctx context.Context) int {
	return e.monitor.DetermineWorkerCount(ctx)
}

// VRAMInfo reports accelerator memory.
func (e *Engine) VRAMInfo(ctx context.Context) resources.VRAMInfo {
	return e.monitor.VRAMInfo(ctx)
}

// ModelStatus reports whether the encoder has been loaded.
func (e *Engine) ModelStatus() string {
	return e.handle.Status()
}

// pairScorer holds the per-batch collaborators of one CompareBatch call.
type pairScorer struct {
	pairs     []domain.Pair
	cache     *EmbeddingCache
	extractor *keywords.Extractor
	computer  *similarity.Computer
	mode      string
}

func (p *pairScorer) score(ctx context.Context, i int) (domain.ComparisonResult, error) {
	pair := p.pairs[i]

	e1, err := p.cache.Statement(pair.First.Text)
	if err != nil {
		return domain.ComparisonResult{}, scorerrors.New(scorerrors.KindPair, "lookup", err)
	}

	e2, err := p.cache.Statement(pair.Second.Text)
	if err != nil {
		return domain.ComparisonResult{}, scorerrors.New(scorerrors.KindPair, "lookup", err)
	}

	k1, k2 := p.keywordSets(ctx, pair)

	m := p.computer.Compute(ctx, similarity.Input{Pair: pair, First: e1, Second: e2, Words: p.cache})
	common, overlap := keywords.Overlap(p.mode, k1, k2)
	m.Overlap = overlap

	r := domain.ComparisonResult{
		Statement1:     pair.First.Text,
		Statement2:     pair.Second.Text,
		MetricBundle:   m,
		Keywords1:      k1.Keywords,
		Keywords2:      k2.Keywords,
		CommonKeywords: common,
	}
	scoring.Score(&r)

	return r, nil
}

func (p *pairScorer) keywordSets(ctx context.Context, pair domain.Pair) (domain.KeywordSet, domain.KeywordSet) {
	if p.mode == keywords.ModeSemantic {
		return p.extractor.ExtractSemantic(ctx, pair.First, p.cache),
			p.extractor.ExtractSemantic(ctx, pair.Second, p.cache)
	}

	return domain.KeywordSet{Keywords: p.extractor.Extract(ctx, pair.First)},
		domain.KeywordSet{Keywords: p.extractor.Extract(ctx, pair.Second)}
}
