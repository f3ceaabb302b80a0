package zne

import (
	"fmt"
)

// ExtrapolatePoly fits a polynomial of the given order and evaluates it at
// zero. It returns the zero-noise limit, the fit coefficients (constant term
// first), and a warning when the fit is ill-conditioned.
func ExtrapolatePoly(scaleFactors, expValues []float64, order int) (float64, []float64, *ExtrapolationWarning, error) {
	coeffs, warning, err := PolyFit(scaleFactors, expValues, order, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	return coeffs[0], coeffs, warning, nil
}

// ExtrapolateRichardson performs Richardson extrapolation: a polynomial fit
// whose order equals the number of data points minus one, interpolating
// exactly through all points.
func ExtrapolateRichardson(scaleFactors, expValues []float64) (float64, []float64, *ExtrapolationWarning, error) {
	return ExtrapolatePoly(scaleFactors, expValues, len(scaleFactors)-1)
}

// ExtrapolateLinear performs a linear (order-1 polynomial) extrapolation.
func ExtrapolateLinear(scaleFactors, expValues []float64) (float64, []float64, *ExtrapolationWarning, error) {
	return ExtrapolatePoly(scaleFactors, expValues, 1)
}

// PolyFactory extrapolates with a polynomial fit of fixed order. The
// zero-noise estimate is the fitted constant term.
type PolyFactory struct {
	batchedFactory
	order int
}

// NewPolyFactory constructs a polynomial factory. The order cannot exceed
// the number of scale factors minus one.
func NewPolyFactory(scaleFactors []float64, order int, opts ...FactoryOption) (*PolyFactory, error) {
	if order < 0 {
		return nil, fmt.Errorf("zne: the extrapolation order must be non-negative, got %d", order)
	}
	if order > len(scaleFactors)-1 {
		return nil, fmt.Errorf("zne: the extrapolation order cannot exceed len(scale factors) - 1, got order %d with %d scale factors",
			order, len(scaleFactors))
	}
	base, err := newBatchedFactory(scaleFactors, opts)
	if err != nil {
		return nil, err
	}
	return &PolyFactory{batchedFactory: base, order: order}, nil
}

// Order returns the configured polynomial order.
func (f *PolyFactory) Order() int { return f.order }

// Reduce fits the polynomial to all accumulated data and returns its value
// at scale factor zero.
func (f *PolyFactory) Reduce() (float64, error) {
	f.checkStackLengths()
	zeroLimit, params, warning, err := ExtrapolatePoly(f.ScaleFactors(), f.ExpectationValues(), f.order)
	if err != nil {
		return 0, err
	}
	f.finishReduce(params, warning)
	return zeroLimit, nil
}

// Equal reports tolerance-based equality of data, schedule, and order.
func (f *PolyFactory) Equal(other Factory) bool {
	o, ok := other.(*PolyFactory)
	return ok && f.order == o.order && f.equalBatched(&o.batchedFactory)
}

// RichardsonFactory extrapolates with a polynomial of order equal to the
// number of data points minus one, interpolating exactly through all points.
type RichardsonFactory struct {
	batchedFactory
}

// NewRichardsonFactory constructs a Richardson extrapolation factory.
func NewRichardsonFactory(scaleFactors []float64, opts ...FactoryOption) (*RichardsonFactory, error) {
	base, err := newBatchedFactory(scaleFactors, opts)
	if err != nil {
		return nil, err
	}
	return &RichardsonFactory{batchedFactory: base}, nil
}

// Reduce fits the interpolating polynomial and returns its value at zero.
func (f *RichardsonFactory) Reduce() (float64, error) {
	f.checkStackLengths()
	zeroLimit, params, warning, err := ExtrapolateRichardson(f.ScaleFactors(), f.ExpectationValues())
	if err != nil {
		return 0, err
	}
	f.finishReduce(params, warning)
	return zeroLimit, nil
}

// Equal reports tolerance-based equality of data and schedule.
func (f *RichardsonFactory) Equal(other Factory) bool {
	o, ok := other.(*RichardsonFactory)
	return ok && f.equalBatched(&o.batchedFactory)
}

// LinearFactory extrapolates with a straight-line fit.
type LinearFactory struct {
	batchedFactory
}

// NewLinearFactory constructs a linear extrapolation factory.
func NewLinearFactory(scaleFactors []float64, opts ...FactoryOption) (*LinearFactory, error) {
	base, err := newBatchedFactory(scaleFactors, opts)
	if err != nil {
		return nil, err
	}
	return &LinearFactory{batchedFactory: base}, nil
}

// Reduce fits a line to all accumulated data and returns its intercept.
func (f *LinearFactory) Reduce() (float64, error) {
	f.checkStackLengths()
	zeroLimit, params, warning, err := ExtrapolateLinear(f.ScaleFactors(), f.ExpectationValues())
	if err != nil {
		return 0, err
	}
	f.finishReduce(params, warning)
	return zeroLimit, nil
}

// Equal reports tolerance-based equality of data and schedule.
func (f *LinearFactory) Equal(other Factory) bool {
	o, ok := other.(*LinearFactory)
	return ok && f.equalBatched(&o.batchedFactory)
}
