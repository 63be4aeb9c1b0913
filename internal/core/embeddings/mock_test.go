package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}

	return sum
}

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider()

	first, err := p.Embed(context.Background(), []string{testTextClaim, testTextWeather})
	require.NoError(t, err)

	second, err := p.Embed(context.Background(), []string{testTextWeather, testTextClaim})
	require.NoError(t, err)

	assert.Equal(t, first.Vectors[0], second.Vectors[1])
	assert.Equal(t, first.Vectors[1], second.Vectors[0])
	assert.Equal(t, DefaultDimensions, first.Dimensions)
}

func TestMockProvider_UnitLengthAndNearOrthogonal(t *testing.T) {
	p := NewMockProvider()

	res, err := p.Embed(context.Background(), []string{testTextClaim, testTextWeather})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, math.Sqrt(dot(res.Vectors[0], res.Vectors[0])), 1e-3)
	assert.Less(t, math.Abs(dot(res.Vectors[0], res.Vectors[1])), 0.3)
}
