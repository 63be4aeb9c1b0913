package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
	"github.com/haimeda/statement-scorer/internal/core/domain"
	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
)

type fakeAnalyzer struct {
	result analysis.Analysis
	err    error
}

func (f fakeAnalyzer) Analyze(context.Context, string, string) (analysis.Analysis, error) {
	return f.result, f.err
}

// fakeWords returns a fixed vector per word and a default for unknown words.
type fakeWords struct {
	vectors map[string][]float32
	err     error
}

func (f fakeWords) Vectors(_ context.Context, words []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float32, len(words))

	for i, w := range words {
		if v, ok := f.vectors[w]; ok {
			out[i] = v
			continue
		}

		out[i] = []float32{1, 0, 0}
	}

	return out, nil
}

func TestRemapCosine(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"negative clamps to zero", -0.5, 0},
		{"zero", 0, 0},
		{"low band", 0.25, 10},
		{"first breakpoint", 0.3, 12},
		{"second band", 0.4, 26},
		{"second breakpoint", 0.5, 40},
		{"third band", 0.6, 55},
		{"third breakpoint", 0.7, 70},
		{"top band", 0.85, 85},
		{"identical", 1, 100},
		{"above one clamps", 1.2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemapCosine(tt.in))
		})
	}
}

func TestRemapCosineMonotonic(t *testing.T) {
	prev := RemapCosine(0)

	for s := 0.01; s <= 1.0; s += 0.01 {
		got := RemapCosine(s)
		assert.GreaterOrEqual(t, got, prev, "cosine %.2f", s)
		prev = got
	}
}

func TestDistanceScores(t *testing.T) {
	assert.Equal(t, 100, EuclideanScore(0))
	assert.Equal(t, 50, EuclideanScore(1))
	assert.Equal(t, 25, EuclideanScore(3))

	assert.Equal(t, 100, ManhattanScore(0))
	assert.Equal(t, 50, ManhattanScore(10))
	assert.Equal(t, 25, ManhattanScore(30))
}

func TestVectorMath(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	cos, err := CosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cos, 1e-9)

	cos, err = CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cos, 1e-9)

	cos, err = CosineSimilarity(a, []float32{0, 0})
	require.NoError(t, err)
	assert.Zero(t, cos)

	d, err := EuclideanDistance([]float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	d, err = ManhattanDistance([]float32{0, 0}, []float32{3, -4})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, d, 1e-9)

	_, err = CosineSimilarity(a, []float32{1})
	require.ErrorIs(t, err, scorerrors.ErrDimensionMismatch)
}

func TestWeightedAverage(t *testing.T) {
	avg, err := WeightedAverage([][]float32{{1, 0}, {0, 1}}, []float64{3, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.75, 0.25}, avg, 1e-6)

	_, err = WeightedAverage(nil, nil)
	require.ErrorIs(t, err, scorerrors.ErrInvalidInput)

	_, err = WeightedAverage([][]float32{{1, 0}}, []float64{0})
	require.ErrorIs(t, err, scorerrors.ErrInvalidInput)
}

func TestLexicalScore(t *testing.T) {
	tests := []struct {
		name string
		t1   string
		t2   string
		want int
	}{
		{"identical", "Der Schaden wurde gemeldet", "Der Schaden wurde gemeldet", 100},
		{"case insensitive", "SCHADEN gemeldet", "schaden GEMELDET", 100},
		{"disjoint", "Wasserschaden im Keller", "Rechnung bezahlt", 0},
		{"one shared term", "schaden gemeldet", "schaden bezahlt", 34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LexicalScore(tt.t1, tt.t2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexicalScoreEmptyVocabulary(t *testing.T) {
	_, err := LexicalScore("", "a b c")
	require.ErrorIs(t, err, scorerrors.ErrEmptyVocabulary)
}

func TestContentWordsFromAnalyzer(t *testing.T) {
	a := fakeAnalyzer{result: analysis.Analysis{Tokens: []analysis.Token{
		{Text: "Schäden", Lemma: "Schaden", POS: analysis.POSNoun},
		{Text: "wurden", Lemma: "werden", POS: "AUX"},
		{Text: "gemeldet", Lemma: "melden", POS: analysis.POSVerb},
		{Text: "im", Lemma: "in", POS: "ADP", IsStop: true},
		{Text: "Haus", Lemma: "Haus", POS: analysis.POSNoun},
		{Text: "Schaden", Lemma: "Schaden", POS: analysis.POSNoun},
		{Text: "AG", Lemma: "AG", POS: analysis.POSPropN},
	}}}

	words := ContentWords(context.Background(), a, domain.NewStatement("ignored"))
	assert.Equal(t, []string{"schaden", "melden", "haus"}, words)
}

func TestContentWordsFallback(t *testing.T) {
	a := fakeAnalyzer{err: scorerrors.ErrAnalyzerUnavailable}

	words := ContentWords(context.Background(), a, domain.NewStatement("Der Schaden wurde gestern gemeldet, der Schaden"))
	assert.Equal(t, []string{"schaden", "wurde", "gestern", "gemeldet"}, words)
}

func TestContentWordsCap(t *testing.T) {
	tokens := make([]analysis.Token, 0, 30)
	for i := range 30 {
		w := "wort" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		tokens = append(tokens, analysis.Token{Text: w, Lemma: w, POS: analysis.POSNoun})
	}

	words := ContentWords(context.Background(), fakeAnalyzer{result: analysis.Analysis{Tokens: tokens}}, domain.NewStatement("x"))
	assert.Len(t, words, maxDomainWords)
}

func TestDomainScore(t *testing.T) {
	vocab, err := DefaultVocabulary()
	require.NoError(t, err)

	wv := fakeWords{vectors: map[string][]float32{
		"wasser":   {1, 0, 0},
		"keller":   {1, 0, 0},
		"rechnung": {0, 1, 0},
		"schaden":  {0, 0, 1},
		"kosten":   {0, 0, 1},
	}}

	ctx := context.Background()

	tests := []struct {
		name   string
		words1 []string
		words2 []string
		want   int
	}{
		{"empty first list", nil, []string{"wasser"}, 0},
		{"empty second list", []string{"wasser"}, nil, 0},
		{"same content", []string{"wasser", "keller"}, []string{"keller"}, 100},
		{"orthogonal content", []string{"wasser"}, []string{"rechnung"}, 0},
		{"generic vocabulary penalised", []string{"schaden", "kosten"}, []string{"kosten", "schaden"}, 70},
		{"single generic term is below threshold", []string{"schaden"}, []string{"schaden"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DomainScore(ctx, vocab, wv, tt.words1, tt.words2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDomainScoreWordVectorError(t *testing.T) {
	boom := errors.New("encoder down")

	_, err := DomainScore(context.Background(), nil, fakeWords{err: boom}, []string{"a"}, []string{"b"})
	require.ErrorIs(t, err, boom)
}

func TestVocabulary(t *testing.T) {
	vocab, err := ParseVocabulary([]byte(`
threshold: 0.4
penalty: 0.5
domains:
  motor: [Fahrzeug, Unfall, Kennzeichen]
  home: [keller, dach]
`))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, vocab.Penalty, 1e-9)

	name, shared := vocab.SharedGenericDomain([]string{"fahrzeug", "unfall"}, []string{"unfall", "kennzeichen", "haus"})
	assert.True(t, shared)
	assert.Equal(t, "motor", name)

	_, shared = vocab.SharedGenericDomain([]string{"fahrzeug"}, []string{"unfall"})
	assert.False(t, shared)

	_, shared = vocab.SharedGenericDomain([]string{"keller"}, []string{"keller", "dach"})
	assert.True(t, shared)

	_, err = ParseVocabulary([]byte("threshold: [broken"))
	require.Error(t, err)
}

func TestLoadVocabularyDefault(t *testing.T) {
	vocab, err := LoadVocabulary("")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, vocab.Threshold, 1e-9)
	assert.InDelta(t, 0.7, vocab.Penalty, 1e-9)
	assert.Contains(t, vocab.Domains, "insurance")

	_, err = LoadVocabulary("/nonexistent/vocabulary.yaml")
	require.Error(t, err)
}

func TestComputerIdenticalPair(t *testing.T) {
	vocab, err := DefaultVocabulary()
	require.NoError(t, err)

	c := NewComputer(nil, vocab, nil)
	s := domain.NewStatement("Der Wasserschaden im Keller wurde gemeldet")
	vec := []float32{0.2, 0.4, 0.1}

	m := c.Compute(context.Background(), Input{
		Pair:   domain.NewPair(s.Text, s.Text),
		First:  vec,
		Second: vec,
		Words:  fakeWords{},
	})

	assert.Equal(t, 100, m.Transformer)
	assert.Equal(t, 100, m.Lexical)
	assert.Equal(t, 100, m.Euclidean)
	assert.Equal(t, 100, m.Manhattan)
	assert.Equal(t, 100, m.Domain)
	assert.Zero(t, m.Overlap)
}

func TestComputerDegradesFailingSignals(t *testing.T) {
	c := NewComputer(nil, nil, nil)
	pair := domain.NewPair("Schaden gemeldet", "Schaden gemeldet")

	m := c.Compute(context.Background(), Input{
		Pair:   pair,
		First:  []float32{1, 0},
		Second: []float32{1, 0, 0},
	})

	assert.Zero(t, m.Transformer)
	assert.Zero(t, m.Euclidean)
	assert.Zero(t, m.Manhattan)
	assert.Zero(t, m.Domain)
	assert.Equal(t, 100, m.Lexical)
}
