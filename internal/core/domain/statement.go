package domain

// Statement is one free-text input to a comparison.
type Statement struct {
	Text     string // Raw statement text as supplied by the host
	Language string // Language tag, "de" unless detected otherwise
}

// NewStatement builds a statement and detects its language.
func NewStatement(text string) Statement {
	return Statement{Text: text, Language: DetectLanguage(text)}
}

// Pair is an ordered pair of statements to compare. Duplicates are allowed within a batch.
type Pair struct {
	First  Statement
	Second Statement
}

// NewPair builds a pair from raw texts.
func NewPair(first, second string) Pair {
	return Pair{First: NewStatement(first), Second: NewStatement(second)}
}

// CrossPairs returns every (input, output) combination, inputs varying slowest.
func CrossPairs(inputs, outputs []string) []Pair {
	pairs := make([]Pair, 0, len(inputs)*len(outputs))

	for _, in := range inputs {
		first := NewStatement(in)

		for _, out := range outputs {
			pairs = append(pairs, Pair{First: first, Second: NewStatement(out)})
		}
	}

	return pairs
}

// KeywordSet is an ordered, de-duplicated, lower-cased keyword list.
// Vectors is populated only by the semantic extractor.
type KeywordSet struct {
	Keywords []string
	Vectors  map[string][]float32
}
