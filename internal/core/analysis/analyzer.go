// Package analysis wraps the external linguistic analyzer (tokenization, lemmas,
// part-of-speech tags, named entities, noun phrases) and the plain tokenizer used
// when the analyzer is unavailable.
package analysis

import (
	"context"

	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
)

// Part-of-speech tags used by the extractors (Universal Dependencies tagset).
const (
	POSNoun   = "NOUN"
	POSVerb   = "VERB"
	POSAdj    = "ADJ"
	POSPropN  = "PROPN"
	POSPunct  = "PUNCT"
	POSNumber = "NUM"
)

// MaxAnalyzeRunes is the prefix of a statement sent to the analyzer.
const MaxAnalyzeRunes = 5000

// Token is one analyzed token.
type Token struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	IsStop  bool   `json:"is_stop"`
	IsPunct bool   `json:"is_punct"`
}

// Entity is a named entity span.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Analysis is the analyzer output for one text.
type Analysis struct {
	Tokens     []Token  `json:"tokens"`
	Entities   []Entity `json:"ents"`
	NounChunks []string `json:"noun_chunks"`
}

// Analyzer produces linguistic annotations for a text in the given language.
type Analyzer interface {
	Analyze(ctx context.Context, text, lang string) (Analysis, error)
}

// Unavailable is the Analyzer used when none is configured. Every call fails with
// ErrAnalyzerUnavailable so callers take their fallback path.
type Unavailable struct{}

// Analyze always returns ErrAnalyzerUnavailable.
func (Unavailable) Analyze(context.Context, string, string) (Analysis, error) {
	return Analysis{}, scorerrors.ErrAnalyzerUnavailable
}

// Truncate returns at most MaxAnalyzeRunes runes of text.
func Truncate(text string) string {
	n := 0
	for i := range text {
		if n == MaxAnalyzeRunes {
			return text[:i]
		}

		n++
	}

	return text
}
