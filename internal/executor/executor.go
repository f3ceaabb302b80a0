// Package executor defines the boundary between the mitigation engines and
// the backend that evaluates circuits. Whether an executor processes circuits
// one at a time or as a single batched submission is an explicit property of
// its construction, never inferred at runtime.
package executor

import (
	"context"
	"errors"

	"github.com/qforge/mitigate/internal/circuits"
)

// ErrNilExecutor is returned when an unconfigured Executor is used.
var ErrNilExecutor = errors.New("executor: no execution function configured")

// ExecOptions carries per-circuit keyword arguments for the backend.
type ExecOptions struct {
	// Shots is the number of measurement repetitions. Zero means the
	// backend default.
	Shots int
}

// SingleFunc evaluates one circuit and returns its expectation value.
type SingleFunc func(ctx context.Context, c circuits.Circuit, opts ExecOptions) (float64, error)

// BatchFunc evaluates a list of circuits in one submission and returns one
// expectation value per circuit, in order.
type BatchFunc func(ctx context.Context, cs []circuits.Circuit, opts []ExecOptions) ([]float64, error)

// Executor runs circuits on a backend. Construct with NewSingle or
// NewBatched; the zero value is unusable.
type Executor struct {
	single SingleFunc
	batch  BatchFunc
}

// NewSingle wraps a function that evaluates one circuit at a time.
func NewSingle(fn SingleFunc) Executor {
	return Executor{single: fn}
}

// NewBatched wraps a function that evaluates a whole batch in one call.
func NewBatched(fn BatchFunc) Executor {
	return Executor{batch: fn}
}

// IsBatched reports whether the executor accepts whole batches at once.
func (e Executor) IsBatched() bool {
	return e.batch != nil
}

// Run evaluates all circuits. A batched executor receives exactly one
// combined submission; a single executor is called once per circuit in
// order. len(opts) must equal len(cs); a nil opts slice means default
// options for every circuit.
func (e Executor) Run(ctx context.Context, cs []circuits.Circuit, opts []ExecOptions) ([]float64, error) {
	if opts == nil {
		opts = make([]ExecOptions, len(cs))
	}
	if len(opts) != len(cs) {
		return nil, errors.New("executor: circuits and options must have the same length")
	}

	switch {
	case e.batch != nil:
		return e.batch(ctx, cs, opts)
	case e.single != nil:
		results := make([]float64, len(cs))
		for i, c := range cs {
			val, err := e.single(ctx, c, opts[i])
			if err != nil {
				return nil, err
			}
			results[i] = val
		}
		return results, nil
	default:
		return nil, ErrNilExecutor
	}
}
