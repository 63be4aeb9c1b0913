package domain

import (
	"strings"
	"unicode"
)

const (
	LangGerman  = "de"
	LangEnglish = "en"

	englishStopwordMin = 2
)

var englishStopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "is": {}, "for": {}, "on": {}, "with": {},
	"as": {}, "by": {}, "from": {}, "at": {}, "that": {}, "this": {}, "be": {}, "are": {}, "was": {},
	"were": {}, "has": {}, "have": {}, "will": {}, "its": {}, "it": {}, "a": {}, "an": {},
}

var germanStopwords = map[string]struct{}{
	"der": {}, "die": {}, "das": {}, "und": {}, "ist": {}, "ein": {}, "eine": {}, "mit": {}, "von": {},
	"für": {}, "des": {}, "dem": {}, "den": {}, "zu": {}, "im": {}, "vom": {}, "nicht": {}, "auf": {},
	"wurde": {}, "wird": {}, "sind": {}, "es": {}, "bei": {}, "auch": {}, "oder": {},
}

// DetectLanguage returns "en" when English function words clearly dominate the text,
// and "de" otherwise, including for empty or undecidable input.
func DetectLanguage(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	if len(words) == 0 {
		return LangGerman
	}

	var english, german int

	for _, w := range words {
		if _, ok := englishStopwords[w]; ok {
			english++
		}

		if _, ok := germanStopwords[w]; ok {
			german++
		}
	}

	// Short texts need fewer hits
	minHits := englishStopwordMin
	if len(words) < 5 {
		minHits = 1
	}

	if english >= minHits && english > german {
		return LangEnglish
	}

	return LangGerman
}
