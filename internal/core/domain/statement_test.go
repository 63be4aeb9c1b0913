package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "german claim", text: "Der Schaden wurde gemeldet.", want: LangGerman},
		{name: "english sentence", text: "The damage to the building was reported by the owner.", want: LangEnglish},
		{name: "short english", text: "The module state", want: LangEnglish},
		{name: "empty defaults to german", text: "", want: LangGerman},
		{name: "no stopwords defaults to german", text: "Computer Zahlen", want: LangGerman},
		{name: "digits only", text: "12345", want: LangGerman},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestCrossPairs(t *testing.T) {
	pairs := CrossPairs([]string{"a", "b"}, []string{"x", "y", "z"})

	require.Len(t, pairs, 6)
	assert.Equal(t, "a", pairs[0].First.Text)
	assert.Equal(t, "x", pairs[0].Second.Text)
	assert.Equal(t, "a", pairs[2].First.Text)
	assert.Equal(t, "z", pairs[2].Second.Text)
	assert.Equal(t, "b", pairs[3].First.Text)
	assert.Equal(t, "x", pairs[3].Second.Text)

	assert.Empty(t, CrossPairs(nil, []string{"x"}))
}

func TestPlaceholder(t *testing.T) {
	pair := NewPair("Es regnet heute.", "Der Computer berechnet Zahlen.")
	r := Placeholder(pair, "encoder", errors.New("encoder offline"))

	assert.True(t, r.Failed())
	assert.Equal(t, "Es regnet heute.", r.Statement1)
	assert.Equal(t, "Der Computer berechnet Zahlen.", r.Statement2)
	assert.Equal(t, InterpretationError, r.Interpretation)
	assert.Equal(t, "encoder", r.ErrorKind)
	assert.Equal(t, "encoder offline", r.Error)
	assert.Zero(t, r.CombinedScore)
	assert.Zero(t, r.Confidence)
	assert.Equal(t, MetricBundle{}, r.MetricBundle)
	assert.NotNil(t, r.CommonKeywords)
}
