// Package pec implements probabilistic error cancellation: ideal operations
// are expanded into quasi-probability combinations of noisy implementable
// operations, sampled, executed, and recombined into an unbiased estimate of
// the ideal expectation value.
package pec

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/qforge/mitigate/internal/circuits"
)

// ErrNotInBasis is returned when an operation is looked up in a
// representation that does not contain it.
var ErrNotInBasis = errors.New("pec: operation does not appear in the basis")

// ErrBadRandomState is returned when sampling is attempted without a random
// source.
var ErrBadRandomState = errors.New("pec: a random source is required")

// NoisyOperation is an operation implementable on the noisy backend: a
// short circuit, optionally annotated with the real superoperator matrix of
// the channel it implements.
type NoisyOperation struct {
	Circuit circuits.Circuit
	Channel *mat.Dense
}

// NewNoisyOperation wraps a circuit without channel information.
func NewNoisyOperation(c circuits.Circuit) NoisyOperation {
	return NoisyOperation{Circuit: c.Copy()}
}

// NewNoisyOperationWithChannel wraps a circuit together with the real
// superoperator matrix of the channel it implements on hardware.
func NewNoisyOperationWithChannel(c circuits.Circuit, channel *mat.Dense) NoisyOperation {
	op := NoisyOperation{Circuit: c.Copy()}
	if channel != nil {
		op.Channel = mat.DenseCopyOf(channel)
	}
	return op
}

// Equal reports whether two noisy operations have the same circuit. Channel
// annotations are metadata and do not participate in equality.
func (n NoisyOperation) Equal(o NoisyOperation) bool {
	return n.Circuit.Equal(o.Circuit)
}

// Append composes the operation with another: circuits are concatenated and,
// when both channels are known, the composite channel is their matrix
// product.
func (n NoisyOperation) Append(o NoisyOperation) NoisyOperation {
	out := NoisyOperation{Circuit: n.Circuit.Append(o.Circuit)}
	if n.Channel != nil && o.Channel != nil {
		var product mat.Dense
		product.Mul(o.Channel, n.Channel)
		out.Channel = &product
	}
	return out
}

func (n NoisyOperation) String() string {
	return n.Circuit.String()
}

// BasisPair associates a noisy operation with its quasi-probability
// coefficient.
type BasisPair struct {
	Op    NoisyOperation
	Coeff float64
}

// OperationRepresentation is a quasi-probability decomposition of one ideal
// operation: a finite set of implementable operations with real
// coefficients whose weighted sum reconstructs the ideal channel.
//
// Elements with exactly zero coefficient are dropped at construction so the
// sampling distribution's support contains only contributing operations.
type OperationRepresentation struct {
	ideal        circuits.Circuit
	basis        []BasisPair
	norm         float64
	distribution []float64
}

// NewOperationRepresentation builds a representation of the ideal circuit.
// Zero-coefficient pairs are filtered out; at least one nonzero coefficient
// is required.
func NewOperationRepresentation(ideal circuits.Circuit, basis []BasisPair) (*OperationRepresentation, error) {
	kept := make([]BasisPair, 0, len(basis))
	norm := 0.0
	for _, pair := range basis {
		if pair.Coeff == 0 {
			continue
		}
		kept = append(kept, BasisPair{Op: pair.Op, Coeff: pair.Coeff})
		norm += math.Abs(pair.Coeff)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("pec: a representation requires at least one nonzero coefficient")
	}

	distribution := make([]float64, len(kept))
	for i, pair := range kept {
		distribution[i] = math.Abs(pair.Coeff) / norm
	}

	return &OperationRepresentation{
		ideal:        ideal.Copy(),
		basis:        kept,
		norm:         norm,
		distribution: distribution,
	}, nil
}

// Ideal returns a copy of the represented ideal circuit.
func (r *OperationRepresentation) Ideal() circuits.Circuit {
	return r.ideal.Copy()
}

// Basis returns the nonzero-coefficient basis pairs.
func (r *OperationRepresentation) Basis() []BasisPair {
	return append([]BasisPair(nil), r.basis...)
}

// Norm returns the one-norm of the quasi-probability distribution, the
// sampling-overhead factor of the representation.
func (r *OperationRepresentation) Norm() float64 {
	return r.norm
}

// Distribution returns the sampling probability of each basis element,
// |coefficient| / norm. The probabilities sum to one.
func (r *OperationRepresentation) Distribution() []float64 {
	return append([]float64(nil), r.distribution...)
}

// CoeffOf returns the coefficient of the given noisy operation.
func (r *OperationRepresentation) CoeffOf(op NoisyOperation) (float64, error) {
	for _, pair := range r.basis {
		if pair.Op.Equal(op) {
			return pair.Coeff, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNotInBasis, op)
}

// SignOf returns the sign (+1 or -1) of the coefficient of the given noisy
// operation.
func (r *OperationRepresentation) SignOf(op NoisyOperation) (int, error) {
	coeff, err := r.CoeffOf(op)
	if err != nil {
		return 0, err
	}
	if coeff < 0 {
		return -1, nil
	}
	return 1, nil
}

// Sample draws one basis element according to the representation's
// distribution and returns it with the sign and value of its coefficient.
// The caller-supplied source is advanced by the draw; reusing one source
// across calls yields decorrelated draws, while a freshly seeded source
// replays the same sequence.
func (r *OperationRepresentation) Sample(src rand.Source) (NoisyOperation, int, float64, error) {
	if src == nil {
		return NoisyOperation{}, 0, 0, ErrBadRandomState
	}
	w := sampleuv.NewWeighted(r.distribution, src)
	idx, ok := w.Take()
	if !ok {
		return NoisyOperation{}, 0, 0, fmt.Errorf("pec: sampling from the representation failed")
	}
	pair := r.basis[idx]
	sign := 1
	if pair.Coeff < 0 {
		sign = -1
	}
	return pair.Op, sign, pair.Coeff, nil
}

// Equal reports whether two representations have the same ideal circuit and
// the same basis with the same coefficients, in order.
func (r *OperationRepresentation) Equal(o *OperationRepresentation) bool {
	if !r.ideal.Equal(o.ideal) || len(r.basis) != len(o.basis) {
		return false
	}
	for i := range r.basis {
		if !r.basis[i].Op.Equal(o.basis[i].Op) || r.basis[i].Coeff != o.basis[i].Coeff {
			return false
		}
	}
	return true
}

func (r *OperationRepresentation) String() string {
	return fmt.Sprintf("representation of %s with %d basis elements (norm %.4f)",
		r.ideal, len(r.basis), r.norm)
}
