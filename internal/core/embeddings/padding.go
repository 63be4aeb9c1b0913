package embeddings

// PadToTargetDimensions pads or truncates a vector to the target dimensions.
// Zero-padding leaves cosine similarity unchanged. Truncation copies so callers
// never share a backing array with the provider response.
func PadToTargetDimensions(vec []float32, target int) []float32 {
	if target <= 0 || len(vec) == target {
		return vec
	}

	out := make([]float32, target)
	copy(out, vec)

	return out
}
