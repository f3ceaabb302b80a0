package pec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/qforge/mitigate/internal/circuits"
)

func identityMatrix(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func identityRepresentation(t *testing.T) *OperationRepresentation {
	t.Helper()
	rep, err := NewOperationRepresentation(circuits.FromGate(circuits.I(0)), []BasisPair{
		{Op: NewNoisyOperation(circuits.FromGate(circuits.X(0))), Coeff: 0.5},
		{Op: NewNoisyOperation(circuits.FromGate(circuits.Z(0))), Coeff: -0.5},
	})
	require.NoError(t, err)
	return rep
}

func TestRepresentationNormAndDistribution(t *testing.T) {
	rep, err := NewOperationRepresentation(circuits.FromGate(circuits.H(0)), []BasisPair{
		{Op: NewNoisyOperation(circuits.FromGate(circuits.H(0))), Coeff: 1.2},
		{Op: NewNoisyOperation(circuits.FromGate(circuits.X(0))), Coeff: -0.2},
		{Op: NewNoisyOperation(circuits.FromGate(circuits.Y(0))), Coeff: -0.1},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.5, rep.Norm(), 1e-12)
	dist := rep.Distribution()
	require.Len(t, dist, 3)
	assert.InDelta(t, 0.8, dist[0], 1e-12)
	assert.InDelta(t, 2.0/15.0, dist[1], 1e-12)
	assert.InDelta(t, 1.0/15.0, dist[2], 1e-12)

	total := 0.0
	for _, p := range dist {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestRepresentationFiltersExactZeros(t *testing.T) {
	zeroOp := NewNoisyOperation(circuits.FromGate(circuits.Y(0)))
	rep, err := NewOperationRepresentation(circuits.FromGate(circuits.I(0)), []BasisPair{
		{Op: NewNoisyOperation(circuits.FromGate(circuits.X(0))), Coeff: 1.0},
		{Op: zeroOp, Coeff: 0.0},
	})
	require.NoError(t, err)

	assert.Len(t, rep.Basis(), 1)
	_, err = rep.CoeffOf(zeroOp)
	assert.Error(t, err, "zero-coefficient elements are outside the support")

	// A zero-coefficient element is never drawn, no matter the seed.
	for seed := uint64(1); seed <= 50; seed++ {
		op, _, _, err := rep.Sample(rand.NewSource(seed))
		require.NoError(t, err)
		assert.False(t, op.Equal(zeroOp))
	}
}

func TestRepresentationRejectsEmptySupport(t *testing.T) {
	_, err := NewOperationRepresentation(circuits.FromGate(circuits.I(0)), []BasisPair{
		{Op: NewNoisyOperation(circuits.FromGate(circuits.X(0))), Coeff: 0},
	})
	assert.Error(t, err)
}

func TestCoeffOfAndSignOf(t *testing.T) {
	rep := identityRepresentation(t)

	coeff, err := rep.CoeffOf(NewNoisyOperation(circuits.FromGate(circuits.Z(0))))
	require.NoError(t, err)
	assert.Equal(t, -0.5, coeff)

	sign, err := rep.SignOf(NewNoisyOperation(circuits.FromGate(circuits.X(0))))
	require.NoError(t, err)
	assert.Equal(t, 1, sign)

	_, err = rep.CoeffOf(NewNoisyOperation(circuits.FromGate(circuits.H(0))))
	assert.ErrorIs(t, err, ErrNotInBasis)
}

func TestSampleSignFrequency(t *testing.T) {
	// Both coefficients have magnitude 0.5, so the empirical frequency of
	// negative signs approaches one half.
	rep := identityRepresentation(t)
	src := rand.NewSource(7)

	negatives := 0
	const draws = 1000
	for i := 0; i < draws; i++ {
		_, sign, _, err := rep.Sample(src)
		require.NoError(t, err)
		if sign == -1 {
			negatives++
		}
	}

	frequency := float64(negatives) / draws
	assert.InDelta(t, 0.5, frequency, 0.05)
}

func TestSampleRequiresSource(t *testing.T) {
	rep := identityRepresentation(t)
	_, _, _, err := rep.Sample(nil)
	assert.ErrorIs(t, err, ErrBadRandomState)
}

func TestNoisyOperationAppendComposesChannels(t *testing.T) {
	a := NewNoisyOperationWithChannel(circuits.FromGate(circuits.X(0)), identityMatrix(2))
	b := NewNoisyOperationWithChannel(circuits.FromGate(circuits.Z(0)), identityMatrix(2))

	combined := a.Append(b)
	require.Len(t, combined.Circuit.Gates, 2)
	require.NotNil(t, combined.Channel)
	assert.InDelta(t, 1.0, combined.Channel.At(0, 0), 1e-12)

	// A missing channel on either side drops the annotation.
	c := NewNoisyOperation(circuits.FromGate(circuits.H(0)))
	assert.Nil(t, a.Append(c).Channel)
}

func TestRepresentationEqual(t *testing.T) {
	a := identityRepresentation(t)
	b := identityRepresentation(t)
	assert.True(t, a.Equal(b))

	c, err := NewOperationRepresentation(circuits.FromGate(circuits.I(0)), []BasisPair{
		{Op: NewNoisyOperation(circuits.FromGate(circuits.X(0))), Coeff: 0.6},
		{Op: NewNoisyOperation(circuits.FromGate(circuits.Z(0))), Coeff: -0.4},
	})
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}
