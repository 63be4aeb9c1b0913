// Package similarity computes the per-pair similarity signals: remapped
// transformer cosine, TF-IDF lexical cosine, distance-derived scores and the
// content-word domain similarity.
package similarity

import (
	"fmt"
	"math"

	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors yield 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", scorerrors.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64

	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return clamp(dot/(math.Sqrt(normA)*math.Sqrt(normB)), -1, 1), nil
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", scorerrors.ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64

	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum), nil
}

// ManhattanDistance returns the L1 distance between a and b.
func ManhattanDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", scorerrors.ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64

	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}

	return sum, nil
}

// WeightedAverage returns sum(w_i * v_i) / sum(w_i). All vectors must share a length.
func WeightedAverage(vectors [][]float32, weights []float64) ([]float32, error) {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil, fmt.Errorf("%w: %d vectors, %d weights", scorerrors.ErrInvalidInput, len(vectors), len(weights))
	}

	dims := len(vectors[0])
	acc := make([]float64, dims)

	var total float64

	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: %d vs %d", scorerrors.ErrDimensionMismatch, len(v), dims)
		}

		for j, x := range v {
			acc[j] += weights[i] * float64(x)
		}

		total += weights[i]
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: zero total weight", scorerrors.ErrInvalidInput)
	}

	out := make([]float32, dims)
	for j := range acc {
		out[j] = float32(acc[j] / total)
	}

	return out, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// ToPercent rounds x and clips it into [0,100].
func ToPercent(x float64) int {
	if math.IsNaN(x) {
		return 0
	}

	return int(clamp(math.Round(x), 0, 100))
}
