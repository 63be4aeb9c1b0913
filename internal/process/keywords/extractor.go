// Package keywords extracts per-statement keyword lists and measures how much two
// lists overlap, either by exact match or by embedding similarity.
package keywords

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
	"github.com/haimeda/statement-scorer/internal/core/domain"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

const (
	maxKeywords     = 10
	maxLemmas       = 15
	maxChunkWords   = 3
	minKeywordRunes = 3
)

// fallbackStopwords are dropped by the frequency extractor.
var fallbackStopwords = map[string]struct{}{
	"und": {}, "mit": {}, "der": {}, "die": {}, "das": {}, "ein": {}, "eine": {},
	"the": {}, "and": {}, "ist": {}, "zu": {}, "von": {}, "für": {}, "des": {},
	"vom": {}, "im": {}, "of": {}, "to": {}, "in": {},
}

// WordVectors resolves embeddings for individual words, in input order.
type WordVectors interface {
	Vectors(ctx context.Context, words []string) ([][]float32, error)
}

// Extractor builds keyword lists from the analyzer, falling back to word frequency.
type Extractor struct {
	analyzer analysis.Analyzer
	logger   *zerolog.Logger
}

// NewExtractor builds an Extractor. A nil analyzer selects the frequency path.
func NewExtractor(a analysis.Analyzer, logger *zerolog.Logger) *Extractor {
	if a == nil {
		a = analysis.Unavailable{}
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Extractor{analyzer: a, logger: logger}
}

// Extract returns up to 10 unique lower-cased keywords of s. It never fails;
// a panic inside extraction yields an empty list.
func (e *Extractor) Extract(ctx context.Context, s domain.Statement) (keywords []string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("keyword extraction panicked")

			keywords = []string{}
		}
	}()

	res, err := e.analyzer.Analyze(ctx, analysis.Truncate(s.Text), s.Language)
	if err != nil {
		e.logger.Debug().Err(err).Msg("analyzer unavailable, using frequency keywords")
		observability.KeywordFallbacks.Inc()

		return FrequencyKeywords(s.Text)
	}

	return fromAnalysis(res)
}

// ExtractSemantic returns the keywords of s together with one vector per keyword.
// When vectors cannot be resolved the set carries keywords only.
func (e *Extractor) ExtractSemantic(ctx context.Context, s domain.Statement, wv WordVectors) domain.KeywordSet {
	set := domain.KeywordSet{Keywords: e.Extract(ctx, s)}
	if len(set.Keywords) == 0 || wv == nil {
		return set
	}

	vectors, err := wv.Vectors(ctx, set.Keywords)
	if err != nil || len(vectors) != len(set.Keywords) {
		e.logger.Debug().Err(err).Msg("keyword vectors unavailable")
		return set
	}

	set.Vectors = make(map[string][]float32, len(vectors))
	for i, kw := range set.Keywords {
		set.Vectors[kw] = vectors[i]
	}

	return set
}

func fromAnalysis(res analysis.Analysis) []string {
	candidates := make([]string, 0, len(res.Entities)+len(res.NounChunks)+maxLemmas)

	for _, ent := range res.Entities {
		candidates = append(candidates, ent.Text)
	}

	for _, chunk := range res.NounChunks {
		if n := len(strings.Fields(chunk)); n >= 1 && n <= maxChunkWords {
			candidates = append(candidates, chunk)
		}
	}

	candidates = append(candidates, contentLemmas(res.Tokens)...)

	return dedupe(candidates, maxKeywords)
}

func contentLemmas(tokens []analysis.Token) []string {
	var lemmas []string

	for _, tok := range tokens {
		switch tok.POS {
		case analysis.POSNoun, analysis.POSVerb, analysis.POSAdj, analysis.POSPropN:
		default:
			continue
		}

		if tok.IsStop || tok.IsPunct || analysis.RuneLen(tok.Text) < minKeywordRunes {
			continue
		}

		lemma := tok.Lemma
		if lemma == "" {
			lemma = tok.Text
		}

		lemmas = append(lemmas, lemma)
	}

	sort.SliceStable(lemmas, func(i, j int) bool {
		return analysis.RuneLen(lemmas[i]) > analysis.RuneLen(lemmas[j])
	})

	if len(lemmas) > maxLemmas {
		lemmas = lemmas[:maxLemmas]
	}

	return lemmas
}

// FrequencyKeywords ranks the non-stopword words of text longer than two runes by
// frequency. Ties keep first-occurrence order.
func FrequencyKeywords(text string) []string {
	counts := make(map[string]int)

	var order []string

	for _, w := range analysis.Words(text) {
		if analysis.RuneLen(w) < minKeywordRunes {
			continue
		}

		if _, stop := fallbackStopwords[w]; stop {
			continue
		}

		if counts[w] == 0 {
			order = append(order, w)
		}

		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}

	if order == nil {
		return []string{}
	}

	return order
}

func dedupe(candidates []string, limit int) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, limit)

	for _, c := range candidates {
		kw := strings.TrimSpace(analysis.Lower(c))
		if kw == "" {
			continue
		}

		if _, ok := seen[kw]; ok {
			continue
		}

		seen[kw] = struct{}{}
		out = append(out, kw)

		if len(out) == limit {
			break
		}
	}

	return out
}
