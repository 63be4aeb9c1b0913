package similarity

import (
	"math"
	"regexp"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
)

// termPattern keeps tokens of two or more word characters.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// LexicalCosine fits a TF-IDF model on exactly the two texts and returns the cosine
// of their L2-normalized vectors. Raw term counts are weighted by the smoothed
// idf ln((1+n)/(1+df))+1. ErrEmptyVocabulary is returned when neither text has a term.
func LexicalCosine(t1, t2 string) (float64, error) {
	docs := [2]map[string]float64{termCounts(t1), termCounts(t2)}

	if len(docs[0]) == 0 && len(docs[1]) == 0 {
		return 0, scorerrors.ErrEmptyVocabulary
	}

	const n = 2.0

	idf := make(map[string]float64, len(docs[0])+len(docs[1]))

	for _, doc := range docs {
		for term := range doc {
			if _, seen := idf[term]; seen {
				continue
			}

			df := 0.0

			for _, other := range docs {
				if _, ok := other[term]; ok {
					df++
				}
			}

			idf[term] = math.Log((1+n)/(1+df)) + 1
		}
	}

	for _, doc := range docs {
		var norm float64

		for term, tf := range doc {
			w := tf * idf[term]
			doc[term] = w
			norm += w * w
		}

		norm = math.Sqrt(norm)
		for term := range doc {
			doc[term] /= norm
		}
	}

	var dot float64

	for term, w := range docs[0] {
		dot += w * docs[1][term]
	}

	return clamp(dot, 0, 1), nil
}

// LexicalScore is LexicalCosine as a 0-100 score. An empty vocabulary scores 0.
func LexicalScore(t1, t2 string) (int, error) {
	cos, err := LexicalCosine(t1, t2)
	if err != nil {
		return 0, err
	}

	return ToPercent(cos * 100), nil
}

func termCounts(text string) map[string]float64 {
	counts := make(map[string]float64)

	for _, term := range termPattern.FindAllString(analysis.Lower(text), -1) {
		counts[term]++
	}

	return counts
}
