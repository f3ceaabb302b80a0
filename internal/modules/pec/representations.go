package pec

import (
	"fmt"
	"math"

	"github.com/qforge/mitigate/internal/circuits"
)

// RepresentDepolarizing analytically represents an ideal one- or two-qubit
// operation in a basis of the operation followed by Pauli gates, assuming
// the backend noise is a depolarizing channel of strength epsilon acting
// after the operation. The inverse channel carries quasi-probability
// coefficients
//
//	1 qubit:  {1 + 3η/4,  -η/4 per Pauli},      η = ε/(1-ε)
//	2 qubits: {1 + 15η/16, -η/16 per Pauli pair}
//
// so the norm grows as (1 + ε/2)/(1 - ε) and (1 + 7ε/8)/(1 - ε).
func RepresentDepolarizing(ideal circuits.Circuit, epsilon float64) (*OperationRepresentation, error) {
	if epsilon < 0 || epsilon >= 1 {
		return nil, fmt.Errorf("pec: the depolarizing strength must be in [0, 1), got %v", epsilon)
	}

	qubits := operationQubits(ideal)
	eta := epsilon / (1 - epsilon)

	switch len(qubits) {
	case 1:
		q := qubits[0]
		basis := []BasisPair{
			{Op: NewNoisyOperation(ideal), Coeff: 1 + 3*eta/4},
		}
		for _, pauli := range []circuits.Gate{circuits.X(q), circuits.Y(q), circuits.Z(q)} {
			basis = append(basis, BasisPair{
				Op:    NewNoisyOperation(ideal.AppendGates(pauli)),
				Coeff: -eta / 4,
			})
		}
		return NewOperationRepresentation(ideal, basis)

	case 2:
		q0, q1 := qubits[0], qubits[1]
		basis := []BasisPair{
			{Op: NewNoisyOperation(ideal), Coeff: 1 + 15*eta/16},
		}
		paulis := func(q int) []circuits.Gate {
			return []circuits.Gate{circuits.X(q), circuits.Y(q), circuits.Z(q)}
		}
		for _, p := range paulis(q0) {
			basis = append(basis, BasisPair{
				Op:    NewNoisyOperation(ideal.AppendGates(p)),
				Coeff: -eta / 16,
			})
		}
		for _, p := range paulis(q1) {
			basis = append(basis, BasisPair{
				Op:    NewNoisyOperation(ideal.AppendGates(p)),
				Coeff: -eta / 16,
			})
		}
		for _, p0 := range paulis(q0) {
			for _, p1 := range paulis(q1) {
				basis = append(basis, BasisPair{
					Op:    NewNoisyOperation(ideal.AppendGates(p0, p1)),
					Coeff: -eta / 16,
				})
			}
		}
		return NewOperationRepresentation(ideal, basis)

	default:
		return nil, fmt.Errorf("pec: depolarizing representations support 1- or 2-qubit operations, got %d qubits", len(qubits))
	}
}

// RepresentAmplitudeDamping analytically represents an ideal single-qubit
// operation assuming amplitude-damping noise of strength gamma acting after
// it. The basis is the operation alone, followed by Z, and followed by a
// reset; the norm grows as (1 + γ)/(1 - γ).
func RepresentAmplitudeDamping(ideal circuits.Circuit, gamma float64) (*OperationRepresentation, error) {
	if gamma < 0 || gamma >= 1 {
		return nil, fmt.Errorf("pec: the damping strength must be in [0, 1), got %v", gamma)
	}
	qubits := operationQubits(ideal)
	if len(qubits) != 1 {
		return nil, fmt.Errorf("pec: amplitude-damping representations support single-qubit operations, got %d qubits", len(qubits))
	}
	q := qubits[0]

	sqrtTerm := math.Sqrt(1 - gamma)
	basis := []BasisPair{
		{Op: NewNoisyOperation(ideal), Coeff: (1 + sqrtTerm) / (2 * (1 - gamma))},
		{Op: NewNoisyOperation(ideal.AppendGates(circuits.Z(q))), Coeff: (1 - sqrtTerm) / (2 * (1 - gamma))},
		{Op: NewNoisyOperation(ideal.AppendGates(circuits.Reset(q))), Coeff: -gamma / (1 - gamma)},
	}
	return NewOperationRepresentation(ideal, basis)
}

// RepresentCircuitDepolarizing builds one depolarizing representation per
// distinct operation of the circuit, ready to feed SampleCircuit.
func RepresentCircuitDepolarizing(c circuits.Circuit, epsilon float64) ([]*OperationRepresentation, error) {
	var reps []*OperationRepresentation
	for _, gate := range c.Gates {
		ideal := circuits.FromGate(gate)
		if findRepresentation(ideal, reps) != nil {
			continue
		}
		rep, err := RepresentDepolarizing(ideal, epsilon)
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	return reps, nil
}

// operationQubits returns the distinct qubits touched by the circuit, in
// first-use order.
func operationQubits(c circuits.Circuit) []int {
	seen := make(map[int]bool)
	var qubits []int
	for _, g := range c.Gates {
		for _, q := range g.Qubits {
			if !seen[q] {
				seen[q] = true
				qubits = append(qubits, q)
			}
		}
	}
	return qubits
}
