package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine_Symmetric(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 2, 3}, {4, 5, 6}},
		{{0.1, -0.3}, {0.7, 0.2}},
		{{-1, 0, 1, 0}, {0, 1, 0, -1}},
	}
	for _, p := range pairs {
		assert.InDelta(t, Cosine(p[0], p[1]), Cosine(p[1], p[0]), 1e-12)
	}
}

func TestCosine_SelfAndNegation(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	neg := make([]float32, len(a))
	for i, v := range a {
		neg[i] = -v
	}

	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.InDelta(t, -1.0, Cosine(a, neg), 1e-9)
}

func TestCosine_Orthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-12)
}

func TestCosine_DimensionMismatch(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{1, 2, 3}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
	assert.False(t, DimensionsMatch([]float32{1}, []float32{1, 2}))
}

func TestCosine_ZeroVector(t *testing.T) {
	s := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})

	assert.Equal(t, 0.0, s)
	assert.False(t, math.IsNaN(s))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestCosine_Bounded(t *testing.T) {
	a := []float32{1e-20, 1e-20}
	s := Cosine(a, a)
	assert.LessOrEqual(t, s, 1.0)
	assert.GreaterOrEqual(t, s, -1.0)
}
