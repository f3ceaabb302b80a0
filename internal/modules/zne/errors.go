// Package zne implements zero-noise extrapolation: factories accumulate
// (noise scale factor, expectation value) pairs, fit a model, and evaluate
// it at zero noise.
package zne

import (
	"errors"
	"fmt"
)

const extrapolationErrMsg = "the extrapolation fit failed to converge; " +
	"the problem may be solved by switching to a more stable extrapolation " +
	"model such as LinearFactory"

const extrapolationWarnMsg = "the extrapolation fit may be ill-conditioned; " +
	"likely, more data points are necessary to fit the parameters of the model"

// ErrShotListLength is returned when a shot list does not match the number
// of configured scale factors.
var ErrShotListLength = errors.New("zne: scale factors and shot list must have the same length")

// ExtrapolationError reports a terminal fit failure: the chosen nonlinear
// ansatz could not be fit to the data at all.
type ExtrapolationError struct {
	cause error
}

func (e *ExtrapolationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", extrapolationErrMsg, e.cause)
	}
	return extrapolationErrMsg
}

func (e *ExtrapolationError) Unwrap() error { return e.cause }

// ExtrapolationWarning reports a non-fatal fit degeneracy: the fit succeeded
// but is statistically ill-conditioned. The numeric result is still valid
// and returned alongside the warning.
type ExtrapolationWarning struct {
	Detail string
}

func (w *ExtrapolationWarning) Error() string {
	if w.Detail != "" {
		return fmt.Sprintf("%s (%s)", extrapolationWarnMsg, w.Detail)
	}
	return extrapolationWarnMsg
}

// ConvergenceWarning reports that an adaptive run loop reached its iteration
// cap before convergence. The factory keeps its best-effort state.
type ConvergenceWarning struct {
	MaxIterations int
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf(
		"factory iteration loop stopped before convergence: maximum number of iterations (%d) was reached",
		w.MaxIterations,
	)
}

// StalePushWarning reports that new data was pushed into a factory after its
// result had already been reduced, without an intervening reset.
type StalePushWarning struct{}

func (w *StalePushWarning) Error() string {
	return "new data pushed into a factory whose result was already reduced; " +
		"call Reset if the previous data should be discarded"
}
