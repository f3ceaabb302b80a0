package zne

import (
	"fmt"
	"math"
)

// polyExpEps is the clipping threshold applied before taking logarithms in
// the linearized exponential fit.
const polyExpEps = 1e-6

// ExtrapolatePolyExp fits the poly-exponential ansatz
//
//	y(x) = a + sign * exp(z1*x + z2*x^2 + ... + zd*x^d)
//
// and evaluates it at zero. When the asymptote a is nil it is fitted as a
// free parameter; otherwise it is held fixed. With a known asymptote and
// avoidLog false, the fit is linearized by taking the logarithm of the
// shifted data and solving a weighted polynomial fit. The returned
// parameters are always laid out as [asymptote, b or z0, z1, z2, ...] so
// that index 2 holds the leading decay-rate exponent.
func ExtrapolatePolyExp(scaleFactors, expValues []float64, order int, asymptote *float64, avoidLog bool) (float64, []float64, *ExtrapolationWarning, error) {
	shift := 0
	if asymptote == nil {
		shift = 1
	}
	if order < 1 {
		return 0, nil, nil, fmt.Errorf("zne: the extrapolation order must be at least 1, got %d", order)
	}
	if order > len(scaleFactors)-(1+shift) {
		return 0, nil, nil, fmt.Errorf("zne: extrapolation order %d is too high for %d scale factors", order, len(scaleFactors))
	}

	// A preliminary linear fit fixes the sign of the exponential branch.
	linParams, _, err := PolyFit(scaleFactors, expValues, 1, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	sign := 1.0
	if linParams[1] > 0 {
		sign = -1.0
	}

	if asymptote == nil {
		ansatz := func(x float64, p []float64) float64 {
			return p[0] + p[1]*math.Exp(x*evalExponent(x, p[2:]))
		}
		initParams := make([]float64, 2+order)
		initParams[1] = sign
		initParams[2] = -1.0
		optParams, warning, err := CurveFit(ansatz, scaleFactors, expValues, initParams)
		if err != nil {
			return 0, nil, nil, err
		}
		return optParams[0] + optParams[1], optParams, warning, nil
	}

	if avoidLog {
		a := *asymptote
		ansatz := func(x float64, p []float64) float64 {
			return a + p[0]*math.Exp(x*evalExponent(x, p[1:]))
		}
		initParams := make([]float64, 1+order)
		initParams[0] = sign
		initParams[1] = -1.0
		optParams, warning, err := CurveFit(ansatz, scaleFactors, expValues, initParams)
		if err != nil {
			return 0, nil, nil, err
		}
		params := append([]float64{a}, optParams...)
		return a + optParams[0], params, warning, nil
	}

	// Linearize: z = log(max(sign*(y - a), eps)) is a polynomial in x.
	// Weights proportional to sqrt of the shifted values compensate for
	// the variance distortion introduced by the logarithm.
	a := *asymptote
	zValues := make([]float64, len(expValues))
	weights := make([]float64, len(expValues))
	for i, y := range expValues {
		shifted := sign * (y - a)
		if shifted < polyExpEps {
			shifted = polyExpEps
		}
		zValues[i] = math.Log(shifted)
		weights[i] = math.Sqrt(shifted)
	}
	zCoeffs, warning, err := PolyFit(scaleFactors, zValues, order, weights)
	if err != nil {
		return 0, nil, nil, err
	}
	params := append([]float64{a}, zCoeffs...)
	return a + sign*math.Exp(zCoeffs[0]), params, warning, nil
}

// ExtrapolateExp fits a simple exponential ansatz y(x) = a + b*exp(-c*x).
func ExtrapolateExp(scaleFactors, expValues []float64, asymptote *float64, avoidLog bool) (float64, []float64, *ExtrapolationWarning, error) {
	return ExtrapolatePolyExp(scaleFactors, expValues, 1, asymptote, avoidLog)
}

// evalExponent evaluates z1 + z2*x + ... + zd*x^(d-1).
func evalExponent(x float64, z []float64) float64 {
	result := 0.0
	power := 1.0
	for _, zi := range z {
		result += zi * power
		power *= x
	}
	return result
}

// PolyExpFactory extrapolates with an exponential ansatz whose exponent is a
// polynomial in the scale factor. An optimal choice when the noise has a
// known asymptotic expectation value.
type PolyExpFactory struct {
	batchedFactory
	order     int
	asymptote *float64
	avoidLog  bool
}

// NewPolyExpFactory constructs a poly-exponential factory. With an unknown
// asymptote the order cannot exceed len(scaleFactors)-2, otherwise
// len(scaleFactors)-1.
func NewPolyExpFactory(scaleFactors []float64, order int, asymptote *float64, avoidLog bool, opts ...FactoryOption) (*PolyExpFactory, error) {
	shift := 0
	if asymptote == nil {
		shift = 1
	}
	if order < 1 {
		return nil, fmt.Errorf("zne: the extrapolation order must be at least 1, got %d", order)
	}
	if order > len(scaleFactors)-(1+shift) {
		return nil, fmt.Errorf("zne: extrapolation order %d is too high for %d scale factors", order, len(scaleFactors))
	}
	base, err := newBatchedFactory(scaleFactors, opts)
	if err != nil {
		return nil, err
	}
	return &PolyExpFactory{
		batchedFactory: base,
		order:          order,
		asymptote:      copyFloatPtr(asymptote),
		avoidLog:       avoidLog,
	}, nil
}

// Order returns the polynomial order of the exponent.
func (f *PolyExpFactory) Order() int { return f.order }

// Asymptote returns a copy of the configured asymptote, nil if it is fitted.
func (f *PolyExpFactory) Asymptote() *float64 { return copyFloatPtr(f.asymptote) }

// Reduce fits the poly-exponential model and returns its value at zero.
func (f *PolyExpFactory) Reduce() (float64, error) {
	f.checkStackLengths()
	zeroLimit, params, warning, err := ExtrapolatePolyExp(
		f.ScaleFactors(), f.ExpectationValues(), f.order, f.asymptote, f.avoidLog)
	if err != nil {
		return 0, err
	}
	f.finishReduce(params, warning)
	return zeroLimit, nil
}

// Equal reports tolerance-based equality of data, schedule, and model
// configuration.
func (f *PolyExpFactory) Equal(other Factory) bool {
	o, ok := other.(*PolyExpFactory)
	return ok &&
		f.order == o.order &&
		f.avoidLog == o.avoidLog &&
		closeEnoughPtr(f.asymptote, o.asymptote) &&
		f.equalBatched(&o.batchedFactory)
}

// ExpFactory extrapolates with the exponential ansatz y(x) = a + b*exp(-c*x),
// a poly-exponential of order one.
type ExpFactory struct {
	PolyExpFactory
}

// NewExpFactory constructs an exponential extrapolation factory.
func NewExpFactory(scaleFactors []float64, asymptote *float64, avoidLog bool, opts ...FactoryOption) (*ExpFactory, error) {
	inner, err := NewPolyExpFactory(scaleFactors, 1, asymptote, avoidLog, opts...)
	if err != nil {
		return nil, err
	}
	return &ExpFactory{PolyExpFactory: *inner}, nil
}

// Equal reports tolerance-based equality of data, schedule, and model
// configuration.
func (f *ExpFactory) Equal(other Factory) bool {
	o, ok := other.(*ExpFactory)
	return ok &&
		f.avoidLog == o.avoidLog &&
		closeEnoughPtr(f.asymptote, o.asymptote) &&
		f.equalBatched(&o.batchedFactory)
}

func copyFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
