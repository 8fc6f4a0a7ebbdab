package harmonic

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandOrderZeroAndOne(t *testing.T) {
	full, err := Expand(0, []float64{2.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, full)

	full, err = Expand(1, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, full)
}

func TestExpandCurvature(t *testing.T) {
	// comps ordered xx, xy, yy, xz, yz
	full, err := Expand(2, []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Len(t, full, 9)

	get := func(i, j int) float64 { return full[i*3+j] }
	assert.Equal(t, 1.0, get(0, 0))
	assert.Equal(t, 2.0, get(0, 1))
	assert.Equal(t, 3.0, get(1, 1))
	assert.Equal(t, 4.0, get(0, 2))
	assert.Equal(t, 5.0, get(1, 2))
	// symmetry
	assert.Equal(t, get(0, 1), get(1, 0))
	assert.Equal(t, get(0, 2), get(2, 0))
	// trace rule
	assert.Equal(t, -(1.0 + 3.0), get(2, 2))
}

func TestExpandTracelessAllOrders(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for order := 2; order <= MaxOrder; order++ {
		comps := make([]float64, NumComponents(order))
		for i := range comps {
			comps[i] = rng.NormFloat64()
		}
		full, err := Expand(order, comps)
		require.NoError(t, err)
		m, err := MaxAbsTrace(order, full)
		require.NoError(t, err)
		assert.Less(t, m, 1e-12, "order %d", order)
	}
}

func TestExpandSymmetric(t *testing.T) {
	comps := make([]float64, NumComponents(3))
	for i := range comps {
		comps[i] = float64(i + 1)
	}
	full, err := Expand(3, comps)
	require.NoError(t, err)
	get := func(i, j, k int) float64 { return full[(i*3+j)*3+k] }
	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		assert.Equal(t, get(0, 1, 2), get(p[0], p[1], p[2]))
	}
}

func TestTraceErrors(t *testing.T) {
	_, err := Traces(1, []float64{1, 2, 3})
	assert.Error(t, err)
	// order 3 needs 27 entries
	_, err = Traces(3, make([]float64, 9))
	assert.Error(t, err)
	_, err = MaxAbsTrace(2, make([]float64, 8))
	assert.Error(t, err)

	tr, err := Traces(2, []float64{1, 0, 0, 0, 2, 0, 0, 0, -3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, tr)
}

func TestExpandErrors(t *testing.T) {
	_, err := Expand(6, make([]float64, 13))
	assert.True(t, errors.Is(err, ErrUnsupportedOrder))
	_, err = Expand(-1, nil)
	assert.True(t, errors.Is(err, ErrUnsupportedOrder))
	_, err = Expand(2, []float64{1, 2, 3})
	assert.Error(t, err)
}
