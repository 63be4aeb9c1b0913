package domain

// InterpretationError labels placeholder results.
const InterpretationError = "error"

// MetricBundle holds the per-pair similarity signals, each in [0,100].
type MetricBundle struct {
	Transformer int `json:"transformer_similarity"`
	Lexical     int `json:"tfidf_similarity"`
	Euclidean   int `json:"euclidean_similarity"`
	Manhattan   int `json:"manhattan_similarity"`
	Domain      int `json:"domain_similarity"`
	Overlap     int `json:"overlap_percent"`
}

// ComparisonResult is the scored outcome of one pair.
type ComparisonResult struct {
	Statement1     string `json:"statement1"`
	Statement2     string `json:"statement2"`
	BasicScore     int    `json:"basic_score"`
	CombinedScore  int    `json:"combined_score"`
	Confidence     int    `json:"confidence"`
	Interpretation string `json:"interpretation"`

	MetricBundle

	Keywords1      []string `json:"keywords1"`
	Keywords2      []string `json:"keywords2"`
	CommonKeywords []string `json:"common_keywords"`

	// Set only on placeholder results
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Failed reports whether r is a placeholder.
func (r ComparisonResult) Failed() bool {
	return r.Error != ""
}

// Placeholder is the result reported for a pair that could not be scored.
// It keeps the original statements and zeroes every score.
func Placeholder(pair Pair, kind string, err error) ComparisonResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	return ComparisonResult{
		Statement1:     pair.First.Text,
		Statement2:     pair.Second.Text,
		Interpretation: InterpretationError,
		Keywords1:      []string{},
		Keywords2:      []string{},
		CommonKeywords: []string{},
		Error:          msg,
		ErrorKind:      kind,
	}
}
