package similarity

// Cosine remap breakpoints. Each band is linear and the bands join continuously:
// 0.3 -> 12, 0.5 -> 40, 0.7 -> 70, 1.0 -> 100.
const (
	bandLow  = 0.3
	bandMid  = 0.5
	bandHigh = 0.7
)

// RemapCosine maps a raw cosine onto 0-100 using the bands above.
// Negative cosines map to 0.
func RemapCosine(s float64) int {
	s = clamp(s, 0, 1)

	var score float64

	switch {
	case s < bandLow:
		score = s * 40
	case s < bandMid:
		score = 12 + (s-bandLow)*140
	case s < bandHigh:
		score = 40 + (s-bandMid)*150
	default:
		score = 70 + (s-bandHigh)*100
	}

	return ToPercent(score)
}

// EuclideanScore maps a Euclidean distance to 100/(1+d).
func EuclideanScore(d float64) int {
	return ToPercent(100 / (1 + d))
}

// ManhattanScore maps a Manhattan distance to 100/(1+0.1*d).
func ManhattanScore(d float64) int {
	return ToPercent(100 / (1 + 0.1*d))
}
