package zne

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Ansatz is a model function y = f(x; params) to be fit against data.
type Ansatz func(x float64, params []float64) float64

// fitSuccessStatuses are the optimizer statuses accepted as convergence.
var fitSuccessStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
}

// CurveFit performs a nonlinear least-squares fit of the ansatz to the data.
// The numeric result comes straight from the optimizer; this wrapper only
// changes how failure is surfaced: optimizer non-convergence becomes an
// ExtrapolationError, a fit with no residual degrees of freedom returns an
// ExtrapolationWarning next to the (still valid) parameters.
func CurveFit(ansatz Ansatz, scaleFactors, expValues, initParams []float64) ([]float64, *ExtrapolationWarning, error) {
	if len(scaleFactors) != len(expValues) {
		return nil, nil, fmt.Errorf("zne: scale factors and expectation values must have the same length, got %d and %d",
			len(scaleFactors), len(expValues))
	}
	if len(scaleFactors) == 0 {
		return nil, nil, fmt.Errorf("zne: at least one data point is necessary")
	}
	if len(initParams) == 0 {
		return nil, nil, fmt.Errorf("zne: an initial parameter guess is required")
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			var ss float64
			for i, x := range scaleFactors {
				r := expValues[i] - ansatz(x, p)
				ss += r * r
			}
			if math.IsNaN(ss) || math.IsInf(ss, 0) {
				return math.MaxFloat64
			}
			return ss
		},
	}

	initial := append([]float64(nil), initParams...)

	result, err := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if err != nil || !fitSuccessStatuses[result.Status] {
		// Try with a different method
		result, err = optimize.Minimize(problem, initial, nil, &optimize.BFGS{})
		if err != nil {
			return nil, nil, &ExtrapolationError{cause: err}
		}
		if !fitSuccessStatuses[result.Status] {
			return nil, nil, &ExtrapolationError{cause: fmt.Errorf("optimizer status %v", result.Status)}
		}
	}

	var warning *ExtrapolationWarning
	if len(scaleFactors) <= len(initParams) {
		warning = &ExtrapolationWarning{}
	}

	return append([]float64(nil), result.X...), warning, nil
}

// PolyFit performs a (optionally weighted) polynomial least-squares fit of
// the given degree. Coefficients are ordered from the constant term upward,
// so coeffs[0] is the value of the fitted polynomial at zero.
//
// The system is solved through an SVD of the Vandermonde matrix; when its
// numerical rank is deficient the minimum-norm solution is still returned,
// flagged by an ExtrapolationWarning.
func PolyFit(scaleFactors, expValues []float64, deg int, weights []float64) ([]float64, *ExtrapolationWarning, error) {
	n := len(scaleFactors)
	if len(expValues) != n {
		return nil, nil, fmt.Errorf("zne: scale factors and expectation values must have the same length, got %d and %d",
			n, len(expValues))
	}
	if n == 0 {
		return nil, nil, fmt.Errorf("zne: at least one data point is necessary")
	}
	if deg < 0 {
		return nil, nil, fmt.Errorf("zne: polynomial degree must be non-negative, got %d", deg)
	}
	if weights != nil && len(weights) != n {
		return nil, nil, fmt.Errorf("zne: weights must match the number of data points, got %d and %d",
			len(weights), n)
	}

	cols := deg + 1
	vander := mat.NewDense(n, cols, nil)
	rhs := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		power := 1.0
		for j := 0; j < cols; j++ {
			vander.Set(i, j, w*power)
			power *= scaleFactors[i]
		}
		rhs.Set(i, 0, w*expValues[i])
	}

	var svd mat.SVD
	if ok := svd.Factorize(vander, mat.SVDThin); !ok {
		return nil, nil, fmt.Errorf("zne: SVD factorization of the design matrix failed")
	}

	values := svd.Values(nil)
	rank := numericalRank(values, n, cols)
	if rank == 0 {
		return nil, nil, fmt.Errorf("zne: the design matrix is numerically zero, the fit is unconstrained")
	}

	solution := mat.NewDense(cols, 1, nil)
	svd.SolveTo(solution, rhs, rank)

	coeffs := make([]float64, cols)
	for j := 0; j < cols; j++ {
		coeffs[j] = solution.At(j, 0)
	}

	var warning *ExtrapolationWarning
	if rank < cols {
		warning = &ExtrapolationWarning{}
	}

	return coeffs, warning, nil
}

// numericalRank counts singular values above the conventional least-squares
// cutoff max(m, n) * eps * s_max.
func numericalRank(values []float64, rows, cols int) int {
	if len(values) == 0 {
		return 0
	}
	dim := rows
	if cols > dim {
		dim = cols
	}
	tol := float64(dim) * 2.220446049250313e-16 * values[0]
	rank := 0
	for _, s := range values {
		if s > tol {
			rank++
		}
	}
	return rank
}
