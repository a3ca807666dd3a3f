package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/falkorgraph/pkg/value"
)

func TestCosine(t *testing.T) {
	sim, err := Cosine(value.Vector{1, 2, 3}, value.Vector{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 0.9746318461970762, sim, 1e-9)

	sim, err = Cosine(value.Vector{1, 0}, value.Vector{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, sim, 1e-12)

	sim, err = Cosine(value.Vector{0, 0}, value.Vector{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestEuclideanAndDot(t *testing.T) {
	d, err := Euclidean(value.Vector{0, 0}, value.Vector{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-12)

	dot, err := Dot(value.Vector{1, 2, 3}, value.Vector{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 32.0, dot, 1e-12)
}

func TestSimilarity(t *testing.T) {
	a, b := value.Vector{0, 0}, value.Vector{3, 4}

	s, err := Similarity("euclidean", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/6.0, s, 1e-12)

	s, err = Similarity("", a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-12)

	s, err = Similarity("COSINE", value.Vector{1, 1}, value.Vector{2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)

	_, err = Similarity("manhattan", a, b)
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestErrors(t *testing.T) {
	_, err := Cosine(value.Vector{1}, value.Vector{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Euclidean(nil, value.Vector{1})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNormalize(t *testing.T) {
	v := value.Vector{3, 4}
	n := Normalize(v)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, []float64(n), 1e-12)
	assert.Equal(t, value.Vector{3, 4}, v, "input is not modified")
	assert.Equal(t, value.Vector{0, 0}, Normalize(value.Vector{0, 0}))
}
