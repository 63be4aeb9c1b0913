package scoring

// Interpretation labels, from least to most similar.
const (
	LabelCompletelyDifferent = "completely different"
	LabelMostlyDifferent     = "mostly different"
	LabelSomewhatSimilar     = "somewhat similar"
	LabelVerySimilar         = "very similar"
	LabelNearlyIdentical     = "nearly identical"
)

var bands = []struct {
	below int
	label string
}{
	{10, LabelCompletelyDifferent},
	{25, LabelMostlyDifferent},
	{50, LabelSomewhatSimilar},
	{75, LabelVerySimilar},
}

// Interpret maps a combined score to its label.
func Interpret(combined int) string {
	for _, b := range bands {
		if combined < b.below {
			return b.label
		}
	}

	return LabelNearlyIdentical
}
