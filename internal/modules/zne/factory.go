package zne

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/qforge/mitigate/internal/circuits"
	"github.com/qforge/mitigate/internal/executor"
)

// equalityTol is the tolerance used for all numeric state comparisons
// between factories.
const equalityTol = 1e-9

// ScaleRecord pairs a noise scale factor with the optional shot count used
// when measuring the corresponding expectation value. Shots of zero means
// the backend default.
type ScaleRecord struct {
	ScaleFactor float64
	Shots       int
}

// ScaleNoiseFunc produces a noise-scaled copy of a circuit. Implementations
// must be pure: the input circuit is never modified.
type ScaleNoiseFunc func(c circuits.Circuit, scaleFactor float64) circuits.Circuit

// EvalFunc maps a scale record to an expectation value without involving a
// quantum backend, making it the classical analogue of Run.
type EvalFunc func(rec ScaleRecord) (float64, error)

// Factory accumulates (scale factor, expectation value) pairs and
// extrapolates them to the zero-noise limit. Implementations form a closed
// set: Poly, Richardson, Linear, Exp, PolyExp (batched) and AdaExp
// (adaptive). A Factory is mutable state owned by a single driver; it is not
// safe for concurrent use.
type Factory interface {
	// Push appends one data point. Pushing after Reduce without an
	// intervening Reset records a StalePushWarning.
	Push(rec ScaleRecord, expectation float64)

	// Reset clears all accumulated data points, fit parameters, warnings,
	// and the already-reduced flag.
	Reset()

	// Reduce fits the model to all accumulated data, stores the optimal
	// parameters, and returns the model value at scale factor zero.
	Reduce() (float64, error)

	// Run gathers expectation values by noise-scaling and executing the
	// circuit, starting from a clean state.
	Run(ctx context.Context, c circuits.Circuit, exec executor.Executor, scaleNoise ScaleNoiseFunc, numToAverage int) error

	// RunClassical gathers expectation values by calling eval for each
	// scale factor, starting from a clean state.
	RunClassical(eval EvalFunc) error

	// ScaleFactors returns the scale factors of the accumulated points.
	ScaleFactors() []float64

	// ExpectationValues returns the accumulated expectation values.
	ExpectationValues() []float64

	// OptParams returns the fit coefficients of the most recent Reduce.
	OptParams() []float64

	// Warnings returns the non-fatal warnings recorded since the last
	// Reset, in order of occurrence.
	Warnings() []error
}

// stacks is the state shared by every factory variant.
type stacks struct {
	instack        []ScaleRecord
	outstack       []float64
	optParams      []float64
	alreadyReduced bool
	warnings       []error
	log            zerolog.Logger
}

func newStacks(log zerolog.Logger) stacks {
	return stacks{log: log}
}

// Push appends one (scale record, expectation value) pair.
func (s *stacks) Push(rec ScaleRecord, expectation float64) {
	if s.alreadyReduced {
		s.warn(&StalePushWarning{})
	}
	s.instack = append(s.instack, rec)
	s.outstack = append(s.outstack, expectation)
}

// Reset clears all accumulated state.
func (s *stacks) Reset() {
	s.instack = nil
	s.outstack = nil
	s.optParams = nil
	s.alreadyReduced = false
	s.warnings = nil
}

// ScaleFactors returns the scale factors pushed so far, in push order.
func (s *stacks) ScaleFactors() []float64 {
	factors := make([]float64, len(s.instack))
	for i, rec := range s.instack {
		factors[i] = rec.ScaleFactor
	}
	return factors
}

// ExpectationValues returns the expectation values pushed so far.
func (s *stacks) ExpectationValues() []float64 {
	return append([]float64(nil), s.outstack...)
}

// OptParams returns the fit coefficients of the most recent Reduce.
func (s *stacks) OptParams() []float64 {
	return append([]float64(nil), s.optParams...)
}

// Warnings returns the warnings recorded since the last Reset.
func (s *stacks) Warnings() []error {
	return append([]error(nil), s.warnings...)
}

// warn records a non-fatal warning and logs it.
func (s *stacks) warn(err error) {
	s.warnings = append(s.warnings, err)
	s.log.Warn().Msg(err.Error())
}

// checkStackLengths panics if the instack and outstack have diverged, which
// can only happen through a programming error.
func (s *stacks) checkStackLengths() {
	if len(s.instack) != len(s.outstack) {
		panic(fmt.Sprintf("zne: instack length %d does not match outstack length %d",
			len(s.instack), len(s.outstack)))
	}
}

// finishReduce stores the fit output and records any warning it produced.
// Reducing again without new data repeats the same fit, so the warning is
// only recorded once.
func (s *stacks) finishReduce(params []float64, warning *ExtrapolationWarning) {
	s.optParams = params
	if warning != nil && !s.alreadyReduced {
		s.warn(warning)
	}
	s.alreadyReduced = true
}

// equalStacks reports tolerance-based equality of the accumulated data and
// the already-reduced flag.
func (s *stacks) equalStacks(o *stacks) bool {
	if s.alreadyReduced != o.alreadyReduced || len(s.instack) != len(o.instack) {
		return false
	}
	for i := range s.instack {
		if !closeEnough(s.instack[i].ScaleFactor, o.instack[i].ScaleFactor) {
			return false
		}
		if s.instack[i].Shots != o.instack[i].Shots {
			return false
		}
	}
	return allClose(s.outstack, o.outstack)
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= equalityTol
}

func allClose(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !closeEnough(a[i], b[i]) {
			return false
		}
	}
	return true
}

func closeEnoughPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return closeEnough(*a, *b)
}
