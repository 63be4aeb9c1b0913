package similarity

import (
	"context"
	"fmt"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
	"github.com/haimeda/statement-scorer/internal/core/domain"
)

const (
	maxDomainWords       = 20
	minContentTokenRunes = 3 // analyzer path keeps tokens longer than 2
	minFallbackRunes     = 4 // tokenizer path keeps words longer than 3

	domainHighCut   = 0.7
	domainHighScale = 333
	domainLowScale  = 70
)

// WordVectors resolves embeddings for individual words, in input order.
type WordVectors interface {
	Vectors(ctx context.Context, words []string) ([][]float32, error)
}

// ContentWords returns up to 20 unique lower-cased content lemmas (nouns, proper
// nouns, verbs) of s. Without an analyzer it keeps plain words longer than three runes.
func ContentWords(ctx context.Context, a analysis.Analyzer, s domain.Statement) []string {
	var words []string

	if res, err := a.Analyze(ctx, analysis.Truncate(s.Text), s.Language); err == nil {
		for _, tok := range res.Tokens {
			switch tok.POS {
			case analysis.POSNoun, analysis.POSPropN, analysis.POSVerb:
			default:
				continue
			}

			if tok.IsStop || analysis.RuneLen(tok.Text) < minContentTokenRunes {
				continue
			}

			lemma := tok.Lemma
			if lemma == "" {
				lemma = tok.Text
			}

			words = append(words, analysis.Lower(lemma))
		}
	} else {
		for _, w := range analysis.Words(s.Text) {
			if analysis.RuneLen(w) >= minFallbackRunes {
				words = append(words, w)
			}
		}
	}

	return uniqueCapped(words, maxDomainWords)
}

// DomainScore compares the length-weighted mean word vectors of two content-word lists.
// Either list being empty scores 0.
func DomainScore(ctx context.Context, vocab *Vocabulary, wv WordVectors, words1, words2 []string) (int, error) {
	if len(words1) == 0 || len(words2) == 0 {
		return 0, nil
	}

	v1, err := domainVector(ctx, wv, words1)
	if err != nil {
		return 0, err
	}

	v2, err := domainVector(ctx, wv, words2)
	if err != nil {
		return 0, err
	}

	sim, err := CosineSimilarity(v1, v2)
	if err != nil {
		return 0, err
	}

	var score float64
	if sim > domainHighCut {
		score = (sim - domainHighCut) * domainHighScale
	} else {
		score = sim * domainLowScale
	}

	if vocab != nil {
		if _, shared := vocab.SharedGenericDomain(words1, words2); shared {
			score *= vocab.Penalty
		}
	}

	return ToPercent(score), nil
}

func domainVector(ctx context.Context, wv WordVectors, words []string) ([]float32, error) {
	vectors, err := wv.Vectors(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("word vectors: %w", err)
	}

	weights := make([]float64, len(words))
	for i, w := range words {
		weights[i] = float64(analysis.RuneLen(w))
	}

	return WeightedAverage(vectors, weights)
}

func uniqueCapped(words []string, limit int) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, min(len(words), limit))

	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}

		seen[w] = struct{}{}
		out = append(out, w)

		if len(out) == limit {
			break
		}
	}

	return out
}
