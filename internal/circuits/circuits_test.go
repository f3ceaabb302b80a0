package circuits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateEqual(t *testing.T) {
	assert.True(t, X(0).Equal(X(0)))
	assert.False(t, X(0).Equal(X(1)))
	assert.False(t, X(0).Equal(Z(0)))
	assert.True(t, RZ(0, 0.5).Equal(RZ(0, 0.5)))
	assert.False(t, RZ(0, 0.5).Equal(RZ(0, 0.6)))
}

func TestGateInverse(t *testing.T) {
	tests := []struct {
		name string
		gate Gate
		want Gate
	}{
		{"self-inverse X", X(0), X(0)},
		{"self-inverse CNOT", CNOT(0, 1), CNOT(0, 1)},
		{"S to SDG", S(2), Gate{Name: "SDG", Qubits: []int{2}}},
		{"rotation negates angle", RZ(0, 0.7), RZ(0, -0.7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := tt.gate.Inverse()
			require.NoError(t, err)
			assert.True(t, inv.Equal(tt.want))
		})
	}
}

func TestGateInverseUnknown(t *testing.T) {
	_, err := Reset(0).Inverse()
	assert.Error(t, err)
}

func TestCircuitInverseReversesOrder(t *testing.T) {
	c := New(H(0), CNOT(0, 1), RZ(1, 0.3))

	inv, err := c.Inverse()
	require.NoError(t, err)

	want := New(RZ(1, -0.3), CNOT(0, 1), H(0))
	assert.True(t, inv.Equal(want))
}

func TestCircuitAppendDoesNotMutate(t *testing.T) {
	a := New(H(0))
	b := New(X(0))

	combined := a.Append(b)

	assert.Len(t, a.Gates, 1)
	assert.Len(t, combined.Gates, 2)
	assert.True(t, combined.Equal(New(H(0), X(0))))
}

func TestCircuitMeasurementsMergedAndSorted(t *testing.T) {
	a := New(H(0)).WithMeasurements(1, 0)
	b := New(X(1)).WithMeasurements(1, 2)

	combined := a.Append(b)

	assert.Equal(t, []int{0, 1, 2}, combined.Measurements)
}

func TestNumQubits(t *testing.T) {
	assert.Equal(t, 0, Circuit{}.NumQubits())
	assert.Equal(t, 2, New(CNOT(0, 1)).NumQubits())
	assert.Equal(t, 4, New(H(0)).WithMeasurements(3).NumQubits())
}

func TestCircuitString(t *testing.T) {
	c := New(H(0), CNOT(0, 1)).WithMeasurements(0, 1)
	assert.Equal(t, "H(0); CNOT(0,1); M(0,1)", c.String())
}
