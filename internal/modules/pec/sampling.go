package pec

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/qforge/mitigate/internal/circuits"
)

// SampleSequence replaces one ideal operation with a draw from its
// quasi-probability representation. It returns the drawn implementable
// operation, the sign of its coefficient, and the norm of the matched
// representation.
func SampleSequence(ideal circuits.Circuit, reps []*OperationRepresentation, src rand.Source) (NoisyOperation, int, float64, error) {
	rep := findRepresentation(ideal, reps)
	if rep == nil {
		return NoisyOperation{}, 0, 0, fmt.Errorf("pec: representation of ideal operation %s not found", ideal)
	}
	op, sign, _, err := rep.Sample(src)
	if err != nil {
		return NoisyOperation{}, 0, 0, err
	}
	return op, sign, rep.Norm(), nil
}

// SampleCircuit replaces every operation of the ideal circuit with a draw
// from its quasi-probability representation, in program order. Terminal
// measurements are preserved verbatim and never sampled. The returned sign
// and norm are the products over all constituent operations.
func SampleCircuit(ideal circuits.Circuit, reps []*OperationRepresentation, src rand.Source) (circuits.Circuit, int, float64, error) {
	sampled := circuits.New()
	sign := 1
	norm := 1.0

	for _, gate := range ideal.Gates {
		op, opSign, opNorm, err := SampleSequence(circuits.FromGate(gate), reps, src)
		if err != nil {
			return circuits.Circuit{}, 0, 0, err
		}
		sampled = sampled.Append(op.Circuit)
		sign *= opSign
		norm *= opNorm
	}

	return sampled.WithMeasurements(ideal.Measurements...), sign, norm, nil
}

// findRepresentation returns the first representation whose ideal circuit
// matches, nil if none does.
func findRepresentation(ideal circuits.Circuit, reps []*OperationRepresentation) *OperationRepresentation {
	for _, rep := range reps {
		if rep.ideal.Equal(ideal) {
			return rep
		}
	}
	return nil
}
