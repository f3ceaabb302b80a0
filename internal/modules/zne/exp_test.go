package zne

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expData(xs []float64, a, b, c float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = a + b*math.Exp(-c*x)
	}
	return ys
}

func TestExpFactoryKnownAsymptote(t *testing.T) {
	asymptote := 0.2
	f, err := NewExpFactory([]float64{1, 2, 3, 4}, &asymptote, false)
	require.NoError(t, err)

	require.NoError(t, f.RunClassical(func(rec ScaleRecord) (float64, error) {
		return 0.2 + 0.8*math.Exp(-1.2*rec.ScaleFactor), nil
	}))

	zero, err := f.Reduce()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, zero, 1e-6)

	// Parameter layout is [asymptote, z0, z1]: index 2 holds the decay
	// rate exponent.
	params := f.OptParams()
	require.Len(t, params, 3)
	assert.InDelta(t, 0.2, params[0], 1e-12)
	assert.InDelta(t, -1.2, params[2], 1e-6)
}

func TestExpFactoryKnownAsymptoteAvoidLog(t *testing.T) {
	asymptote := 0.2
	f, err := NewExpFactory([]float64{1, 2, 3, 4}, &asymptote, true)
	require.NoError(t, err)

	require.NoError(t, f.RunClassical(func(rec ScaleRecord) (float64, error) {
		return 0.2 + 0.8*math.Exp(-1.2*rec.ScaleFactor), nil
	}))

	zero, err := f.Reduce()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, zero, 1e-3)

	params := f.OptParams()
	require.Len(t, params, 3)
	assert.InDelta(t, -1.2, params[2], 1e-3)
}

func TestExpFactoryUnknownAsymptote(t *testing.T) {
	f, err := NewExpFactory([]float64{1, 1.5, 2, 2.5, 3, 4}, nil, false)
	require.NoError(t, err)

	require.NoError(t, f.RunClassical(func(rec ScaleRecord) (float64, error) {
		return 0.3 + 0.7*math.Exp(-1.0*rec.ScaleFactor), nil
	}))

	zero, err := f.Reduce()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, zero, 1e-2)
}

func TestExtrapolatePolyExpIncreasingDataFlipsSign(t *testing.T) {
	// Increasing data means the exponential branch approaches the
	// asymptote from below.
	asymptote := 1.0
	xs := []float64{1, 2, 3, 4}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1.0 - 0.9*math.Exp(-0.8*x)
	}

	zero, params, _, err := ExtrapolatePolyExp(xs, ys, 1, &asymptote, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, zero, 1e-6)
	assert.InDelta(t, -0.8, params[2], 1e-6)
}

func TestPolyExpOrderValidation(t *testing.T) {
	asymptote := 0.0

	_, err := NewPolyExpFactory([]float64{1, 2, 3}, 3, &asymptote, false)
	assert.Error(t, err, "known asymptote allows order up to len-1")

	_, err = NewPolyExpFactory([]float64{1, 2, 3}, 2, nil, false)
	assert.Error(t, err, "unknown asymptote allows order up to len-2")

	_, err = NewPolyExpFactory([]float64{1, 2, 3}, 0, &asymptote, false)
	assert.Error(t, err)

	_, err = NewPolyExpFactory([]float64{1, 2, 3}, 2, &asymptote, false)
	assert.NoError(t, err)
}

func TestPolyExpClipsBelowAsymptote(t *testing.T) {
	// A data point below the known asymptote would make the logarithm
	// undefined; the shifted value is clipped instead of failing.
	asymptote := 0.5
	xs := []float64{1, 2, 3}
	ys := []float64{0.9, 0.6, 0.49}

	_, _, _, err := ExtrapolatePolyExp(xs, ys, 1, &asymptote, false)
	assert.NoError(t, err)
}

func TestExpFactoryEqual(t *testing.T) {
	asymptote := 0.5
	a, err := NewExpFactory([]float64{1, 2, 3}, &asymptote, false)
	require.NoError(t, err)
	b, err := NewExpFactory([]float64{1, 2, 3}, &asymptote, false)
	require.NoError(t, err)
	c, err := NewExpFactory([]float64{1, 2, 3}, nil, false)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "fitted versus fixed asymptote is never equal")
}
