package similarity

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
	"github.com/haimeda/statement-scorer/internal/core/domain"
	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

// Metric names used in logs and the failure counter.
const (
	MetricTransformer = "transformer"
	MetricLexical     = "lexical"
	MetricEuclidean   = "euclidean"
	MetricManhattan   = "manhattan"
	MetricDomain      = "domain"
)

// Input carries one pair and its cached sentence embeddings.
type Input struct {
	Pair   domain.Pair
	First  []float32
	Second []float32
	Words  WordVectors
}

// Computer produces the similarity signals of a pair. A failing signal is logged,
// counted and reported as 0 so the rest of the bundle survives.
type Computer struct {
	analyzer analysis.Analyzer
	vocab    *Vocabulary
	logger   *zerolog.Logger
}

// NewComputer builds a Computer. A nil analyzer behaves as unavailable.
func NewComputer(a analysis.Analyzer, vocab *Vocabulary, logger *zerolog.Logger) *Computer {
	if a == nil {
		a = analysis.Unavailable{}
	}

	return &Computer{analyzer: a, vocab: vocab, logger: logger}
}

// Compute fills every field of the bundle except Overlap.
func (c *Computer) Compute(ctx context.Context, in Input) domain.MetricBundle {
	var m domain.MetricBundle

	m.Transformer = c.guard(MetricTransformer, func() (int, error) {
		cos, err := CosineSimilarity(in.First, in.Second)
		if err != nil {
			return 0, err
		}

		return RemapCosine(cos), nil
	})

	m.Lexical = c.guard(MetricLexical, func() (int, error) {
		score, err := LexicalScore(in.Pair.First.Text, in.Pair.Second.Text)
		if errors.Is(err, scorerrors.ErrEmptyVocabulary) {
			return 0, nil
		}

		return score, err
	})

	m.Euclidean = c.guard(MetricEuclidean, func() (int, error) {
		d, err := EuclideanDistance(in.First, in.Second)
		if err != nil {
			return 0, err
		}

		return EuclideanScore(d), nil
	})

	m.Manhattan = c.guard(MetricManhattan, func() (int, error) {
		d, err := ManhattanDistance(in.First, in.Second)
		if err != nil {
			return 0, err
		}

		return ManhattanScore(d), nil
	})

	m.Domain = c.guard(MetricDomain, func() (int, error) {
		if in.Words == nil {
			return 0, scorerrors.ErrMissingEmbedding
		}

		w1 := ContentWords(ctx, c.analyzer, in.Pair.First)
		w2 := ContentWords(ctx, c.analyzer, in.Pair.Second)

		return DomainScore(ctx, c.vocab, in.Words, w1, w2)
	})

	return m
}

func (c *Computer) guard(metric string, fn func() (int, error)) int {
	score, err := fn()
	if err == nil {
		return score
	}

	observability.MetricFailures.WithLabelValues(metric).Inc()

	if c.logger != nil {
		c.logger.Debug().Err(err).Str("metric", metric).Msg("similarity signal degraded to zero")
	}

	return 0
}
