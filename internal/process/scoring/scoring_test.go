package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haimeda/statement-scorer/internal/core/domain"
)

func TestScores(t *testing.T) {
	tests := []struct {
		name           string
		m              domain.MetricBundle
		wantBasic      int
		wantCombined   int
		wantConfidence int
	}{
		{
			name:           "identical",
			m:              domain.MetricBundle{Transformer: 100, Lexical: 100, Euclidean: 100, Manhattan: 100, Domain: 100},
			wantBasic:      100,
			wantCombined:   100,
			wantConfidence: 100,
		},
		{
			name:           "all zero is a confident mismatch",
			m:              domain.MetricBundle{},
			wantBasic:      0,
			wantCombined:   0,
			wantConfidence: 100,
		},
		{
			name:           "mixed signals",
			m:              domain.MetricBundle{Transformer: 60, Lexical: 40, Euclidean: 50, Manhattan: 70, Domain: 30},
			wantBasic:      54,
			wantCombined:   50,
			wantConfidence: 81,
		},
		{
			name:           "transformer and lexical disagree",
			m:              domain.MetricBundle{Transformer: 100, Lexical: 0, Euclidean: 100, Manhattan: 100},
			wantBasic:      70,
			wantCombined:   60,
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantBasic, Basic(tt.m))
			assert.Equal(t, tt.wantCombined, Combined(tt.m))
			assert.Equal(t, tt.wantConfidence, Confidence(tt.m))
		})
	}
}

func TestScoreFillsResult(t *testing.T) {
	r := domain.ComparisonResult{MetricBundle: domain.MetricBundle{Transformer: 100, Lexical: 100, Euclidean: 100, Manhattan: 100, Domain: 100}}

	Score(&r)

	assert.Equal(t, 100, r.BasicScore)
	assert.Equal(t, 100, r.CombinedScore)
	assert.Equal(t, 100, r.Confidence)
	assert.Equal(t, LabelNearlyIdentical, r.Interpretation)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, LabelCompletelyDifferent},
		{9, LabelCompletelyDifferent},
		{10, LabelMostlyDifferent},
		{24, LabelMostlyDifferent},
		{25, LabelSomewhatSimilar},
		{49, LabelSomewhatSimilar},
		{50, LabelVerySimilar},
		{74, LabelVerySimilar},
		{75, LabelNearlyIdentical},
		{100, LabelNearlyIdentical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpret(tt.score), "score %d", tt.score)
	}
}
