package keywords

import (
	"fmt"
	"math"
	"sort"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
	"github.com/haimeda/statement-scorer/internal/core/domain"
	"github.com/haimeda/statement-scorer/internal/process/similarity"
)

// Overlap modes.
const (
	ModeExact    = "exact"
	ModeSemantic = "semantic"
)

// SemanticThreshold is the cosine a keyword pair must exceed to count as a match.
const SemanticThreshold = 0.85

// semanticStopwords are never matched semantically.
var semanticStopwords = map[string]struct{}{
	"und": {}, "mit": {}, "the": {}, "des": {}, "vom": {}, "ist": {},
}

// Match is one semantically equivalent keyword pair.
type Match struct {
	First      string
	Second     string
	Similarity float64
}

// String renders the match as "k1 ≈ k2 (0.91)".
func (m Match) String() string {
	return fmt.Sprintf("%s ≈ %s (%.2f)", m.First, m.Second, m.Similarity)
}

// Overlap scores two keyword sets in the given mode. Unknown modes match exactly.
func Overlap(mode string, s1, s2 domain.KeywordSet) ([]string, int) {
	if mode == ModeSemantic {
		return SemanticOverlap(s1, s2)
	}

	return ExactOverlap(s1.Keywords, s2.Keywords)
}

// ExactOverlap returns the keywords of k1 that also occur in k2 (case-insensitive,
// k1 order) and their share of the longer list as a 0-100 percentage.
func ExactOverlap(k1, k2 []string) ([]string, int) {
	common := []string{}
	if len(k1) == 0 || len(k2) == 0 {
		return common, 0
	}

	other := make(map[string]struct{}, len(k2))
	for _, kw := range k2 {
		other[analysis.Lower(kw)] = struct{}{}
	}

	for _, kw := range k1 {
		if _, ok := other[analysis.Lower(kw)]; ok {
			common = append(common, kw)
		}
	}

	return common, percentOf(len(common), len(k1), len(k2))
}

// SemanticMatches compares every eligible keyword pair of the two sets and keeps
// those above SemanticThreshold, most similar first. Keywords without a vector are skipped.
func SemanticMatches(s1, s2 domain.KeywordSet) []Match {
	var matches []Match

	for _, k1 := range s1.Keywords {
		v1, ok := s1.Vectors[k1]
		if !ok || !eligible(k1) {
			continue
		}

		for _, k2 := range s2.Keywords {
			v2, ok := s2.Vectors[k2]
			if !ok || !eligible(k2) {
				continue
			}

			sim, err := similarity.CosineSimilarity(v1, v2)
			if err != nil || sim <= SemanticThreshold {
				continue
			}

			matches = append(matches, Match{First: k1, Second: k2, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	return matches
}

// SemanticOverlap renders SemanticMatches and scores the match count against the longer list.
func SemanticOverlap(s1, s2 domain.KeywordSet) ([]string, int) {
	common := []string{}
	if len(s1.Keywords) == 0 || len(s2.Keywords) == 0 {
		return common, 0
	}

	matches := SemanticMatches(s1, s2)
	for _, m := range matches {
		common = append(common, m.String())
	}

	return common, percentOf(len(matches), len(s1.Keywords), len(s2.Keywords))
}

func eligible(kw string) bool {
	if analysis.RuneLen(kw) < minKeywordRunes {
		return false
	}

	_, stop := semanticStopwords[analysis.Lower(kw)]

	return !stop
}

func percentOf(n, len1, len2 int) int {
	denom := max(len1, len2)
	if denom == 0 {
		return 0
	}

	return min(100, int(math.Round(float64(n)/float64(denom)*100)))
}
