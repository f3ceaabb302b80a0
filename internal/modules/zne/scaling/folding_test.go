package scaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/mitigate/internal/circuits"
)

func TestFoldGlobalIdentityAtScaleOne(t *testing.T) {
	c := circuits.New(circuits.H(0), circuits.CNOT(0, 1)).WithMeasurements(0, 1)

	folded, err := FoldGlobal(c, 1)
	require.NoError(t, err)
	assert.True(t, folded.Equal(c))
}

func TestFoldGlobalOddScaleFactors(t *testing.T) {
	c := circuits.New(circuits.H(0), circuits.CNOT(0, 1))

	folded, err := FoldGlobal(c, 3)
	require.NoError(t, err)
	require.Len(t, folded.Gates, 6)

	// C C† C: the middle block is the inverse in reversed order.
	assert.True(t, folded.Gates[2].Equal(circuits.CNOT(0, 1)))
	assert.True(t, folded.Gates[3].Equal(circuits.H(0)))
	assert.True(t, folded.Gates[4].Equal(circuits.H(0)))
	assert.True(t, folded.Gates[5].Equal(circuits.CNOT(0, 1)))

	folded, err = FoldGlobal(c, 5)
	require.NoError(t, err)
	assert.Len(t, folded.Gates, 10)
}

func TestFoldGlobalPartialFold(t *testing.T) {
	c := circuits.New(circuits.H(0), circuits.T(0), circuits.CNOT(0, 1), circuits.S(1))

	// Scale 1.5 folds the last gate only: round(4 * 0.25) = 1.
	folded, err := FoldGlobal(c, 1.5)
	require.NoError(t, err)
	require.Len(t, folded.Gates, 6)
	assert.Equal(t, "SDG", folded.Gates[4].Name)
	assert.Equal(t, "S", folded.Gates[5].Name)
}

func TestFoldGlobalPreservesMeasurements(t *testing.T) {
	c := circuits.New(circuits.H(0), circuits.RZ(0, 0.3)).WithMeasurements(0)

	folded, err := FoldGlobal(c, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, folded.Measurements)
}

func TestFoldGlobalDoesNotMutateInput(t *testing.T) {
	c := circuits.New(circuits.H(0), circuits.X(0))
	before := c.Copy()

	_, err := FoldGlobal(c, 3.7)
	require.NoError(t, err)
	assert.True(t, c.Equal(before))
}

func TestFoldGlobalErrors(t *testing.T) {
	_, err := FoldGlobal(circuits.New(circuits.H(0)), 0.5)
	assert.Error(t, err, "scale factors below one are rejected")

	_, err = FoldGlobal(circuits.New(circuits.Reset(0)), 3)
	assert.Error(t, err, "non-invertible gates cannot be folded")
}
