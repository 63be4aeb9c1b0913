// Package scoring blends the similarity signals of a pair into the reported
// basic, combined and confidence scores and the human-readable label.
package scoring

import (
	"math"

	"github.com/haimeda/statement-scorer/internal/core/domain"
)

// Blend weights.
const (
	basicTransformerWeight = 0.7
	basicLexicalWeight     = 0.3

	combinedTransformerWeight = 0.5
	combinedLexicalWeight     = 0.3
	combinedDomainWeight      = 0.1
	combinedEuclideanWeight   = 0.1

	agreementWeight = 0.7
)

// Basic is round(0.7*transformer + 0.3*lexical).
func Basic(m domain.MetricBundle) int {
	return clip(basicTransformerWeight*float64(m.Transformer) + basicLexicalWeight*float64(m.Lexical))
}

// Combined is the four-term blend of transformer, lexical, domain and Euclidean scores.
func Combined(m domain.MetricBundle) int {
	return clip(combinedTransformerWeight*float64(m.Transformer) +
		combinedLexicalWeight*float64(m.Lexical) +
		combinedDomainWeight*float64(m.Domain) +
		combinedEuclideanWeight*float64(m.Euclidean))
}

// Confidence rewards agreement between the four vector and lexical signals and
// transformer scores far from the midpoint, and penalizes transformer/lexical disagreement.
func Confidence(m domain.MetricBundle) int {
	signals := [...]float64{
		float64(m.Transformer),
		float64(m.Lexical),
		float64(m.Euclidean),
		float64(m.Manhattan),
	}

	agreement := 100 / (1 + variance(signals[:]))
	t := float64(m.Transformer)
	extremity := math.Max(t, 100-t) / 50

	return clip(agreement*agreementWeight*extremity + (100 - math.Abs(t-float64(m.Lexical))))
}

// Score fills the scores and label of r from its metric bundle.
func Score(r *domain.ComparisonResult) {
	r.BasicScore = Basic(r.MetricBundle)
	r.CombinedScore = Combined(r.MetricBundle)
	r.Confidence = Confidence(r.MetricBundle)
	r.Interpretation = Interpret(r.CombinedScore)
}

// variance is the population variance of xs.
func variance(xs []float64) float64 {
	var mean float64
	for _, x := range xs {
		mean += x
	}

	mean /= float64(len(xs))

	var sum float64
	for _, x := range xs {
		sum += (x - mean) * (x - mean)
	}

	return sum / float64(len(xs))
}

func clip(x float64) int {
	return int(math.Max(0, math.Min(100, math.Round(x))))
}
