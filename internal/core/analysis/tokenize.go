package analysis

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// wordPattern matches maximal runs of Unicode word characters, so umlauts and ß stay inside a word.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Lower returns the NFC-normalized lower-case form of s.
// A Caser is not safe for concurrent use, so one is created per call.
func Lower(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// Words splits text into lower-cased word tokens.
func Words(text string) []string {
	return wordPattern.FindAllString(Lower(text), -1)
}

// RuneLen returns the length of s in runes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
