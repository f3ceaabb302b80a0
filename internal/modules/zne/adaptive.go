package zne

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/qforge/mitigate/internal/circuits"
	"github.com/qforge/mitigate/internal/executor"
)

const (
	// shiftFactor tunes how far past the fitted decay length the next
	// adaptive scale factor is placed.
	shiftFactor = 1.27846

	// adaEps guards the division by the fitted exponent.
	adaEps = 1e-9

	defaultAdaScaleFactor    = 2.0
	defaultAdaMaxScaleFactor = 6.0
	defaultAdaMaxIterations  = 100
)

// AdaExpConfig configures an adaptive exponential factory. The zero value
// of ScaleFactor, MaxScaleFactor, and MaxIterations selects the defaults
// 2.0, 6.0, and 100.
type AdaExpConfig struct {
	// Steps is the number of data points to collect before convergence.
	// At least 3, or 4 when the asymptote is unknown.
	Steps int

	// ScaleFactor is the second scale factor of the schedule; the first
	// is always 1. Must be strictly greater than 1.
	ScaleFactor float64

	// Asymptote fixes the infinite-noise limit of the ansatz; nil means
	// it is fitted as a free parameter.
	Asymptote *float64

	// AvoidLog disables the logarithm-linearized fit with a known
	// asymptote and uses the direct nonlinear fit instead.
	AvoidLog bool

	// MaxScaleFactor caps the adaptively chosen scale factors. Must be
	// strictly greater than 1.
	MaxScaleFactor float64

	// MaxIterations bounds the Run/RunClassical data-collection loop.
	MaxIterations int
}

// ReduceHistoryEntry is a snapshot of the factory state at one Reduce call.
type ReduceHistoryEntry struct {
	Records           []ScaleRecord
	ExpectationValues []float64
	OptParams         []float64
	ZeroLimit         float64
}

// AdaExpFactory extrapolates with the exponential ansatz y(x) = a + b*exp(-c*x)
// while choosing each scale factor adaptively from intermediate fits of the
// data collected so far.
type AdaExpFactory struct {
	stacks
	steps          int
	scaleFactor    float64
	asymptote      *float64
	avoidLog       bool
	maxScaleFactor float64
	maxIterations  int
	history        []ReduceHistoryEntry
}

// NewAdaExpFactory constructs an adaptive exponential factory.
func NewAdaExpFactory(cfg AdaExpConfig, opts ...FactoryOption) (*AdaExpFactory, error) {
	if cfg.ScaleFactor == 0 {
		cfg.ScaleFactor = defaultAdaScaleFactor
	}
	if cfg.MaxScaleFactor == 0 {
		cfg.MaxScaleFactor = defaultAdaMaxScaleFactor
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaultAdaMaxIterations
	}

	minSteps := 3
	if cfg.Asymptote == nil {
		minSteps = 4
	}
	if cfg.Steps < minSteps {
		return nil, fmt.Errorf("zne: at least %d steps are necessary%s, got %d",
			minSteps, unknownAsymptoteNote(cfg.Asymptote), cfg.Steps)
	}
	if cfg.ScaleFactor <= 1 {
		return nil, fmt.Errorf("zne: the scale factor must be strictly larger than one, got %v", cfg.ScaleFactor)
	}
	if cfg.MaxScaleFactor <= 1 {
		return nil, fmt.Errorf("zne: the maximum scale factor must be strictly larger than one, got %v", cfg.MaxScaleFactor)
	}
	if cfg.MaxIterations < cfg.Steps {
		return nil, fmt.Errorf("zne: the iteration cap %d is smaller than the requested %d steps",
			cfg.MaxIterations, cfg.Steps)
	}

	options := factoryOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.logSet {
		options.log = zerolog.Nop()
	}
	if options.shotList != nil {
		return nil, fmt.Errorf("zne: a shot list cannot be combined with an adaptive schedule")
	}

	return &AdaExpFactory{
		stacks:         newStacks(options.log.With().Str("component", "zne-factory").Logger()),
		steps:          cfg.Steps,
		scaleFactor:    cfg.ScaleFactor,
		asymptote:      copyFloatPtr(cfg.Asymptote),
		avoidLog:       cfg.AvoidLog,
		maxScaleFactor: cfg.MaxScaleFactor,
		maxIterations:  cfg.MaxIterations,
	}, nil
}

func unknownAsymptoteNote(asymptote *float64) string {
	if asymptote == nil {
		return " when the asymptote is unknown"
	}
	return ""
}

// Next returns the scale record to measure next. The first factors are the
// fixed warm-up schedule; after enough data exists, each factor is placed
// relative to the decay length of an intermediate exponential fit.
func (f *AdaExpFactory) Next() ScaleRecord {
	switch {
	case len(f.instack) == 0:
		return ScaleRecord{ScaleFactor: 1.0}
	case len(f.instack) == 1:
		return ScaleRecord{ScaleFactor: f.scaleFactor}
	case len(f.instack) == 2 && f.asymptote == nil:
		return ScaleRecord{ScaleFactor: 2 * f.scaleFactor}
	}

	// Intermediate fits steer the schedule and are snapshotted in the
	// reduce history, but never surface warnings or mark the factory
	// as reduced.
	zeroLimit, params, _, err := ExtrapolateExp(f.ScaleFactors(), f.ExpectationValues(), f.asymptote, f.avoidLog)
	if err != nil {
		return ScaleRecord{ScaleFactor: f.maxScaleFactor}
	}
	f.history = append(f.history, ReduceHistoryEntry{
		Records:           append([]ScaleRecord(nil), f.instack...),
		ExpectationValues: append([]float64(nil), f.outstack...),
		OptParams:         append([]float64(nil), params...),
		ZeroLimit:         zeroLimit,
	})
	exponent := params[2]
	next := 1.0 + shiftFactor/math.Abs(exponent+adaEps)
	return ScaleRecord{ScaleFactor: math.Min(next, f.maxScaleFactor)}
}

// IsConverged reports whether the configured number of data points has been
// collected.
func (f *AdaExpFactory) IsConverged() bool {
	f.checkStackLengths()
	return len(f.outstack) == f.steps
}

// RunClassical collects data points by calling eval at adaptively chosen
// scale factors until convergence. Hitting the iteration cap first records
// a ConvergenceWarning and keeps the best-effort state.
func (f *AdaExpFactory) RunClassical(eval EvalFunc) error {
	f.Reset()
	for i := 0; i < f.maxIterations; i++ {
		rec := f.Next()
		val, err := eval(rec)
		if err != nil {
			return fmt.Errorf("zne: evaluation at scale factor %v failed: %w", rec.ScaleFactor, err)
		}
		f.Push(rec, val)
		if f.IsConverged() {
			return nil
		}
	}
	f.warn(&ConvergenceWarning{MaxIterations: f.maxIterations})
	return nil
}

// Run collects data points by noise-scaling and executing the circuit at
// adaptively chosen scale factors until convergence. Each step averages
// numToAverage executions.
func (f *AdaExpFactory) Run(
	ctx context.Context,
	c circuits.Circuit,
	exec executor.Executor,
	scaleNoise ScaleNoiseFunc,
	numToAverage int,
) error {
	if numToAverage < 1 {
		return fmt.Errorf("zne: numToAverage must be at least 1, got %d", numToAverage)
	}
	f.Reset()
	for i := 0; i < f.maxIterations; i++ {
		rec := f.Next()
		scaled := scaleNoise(c, rec.ScaleFactor)

		toRun := make([]circuits.Circuit, numToAverage)
		opts := make([]executor.ExecOptions, numToAverage)
		for j := range toRun {
			toRun[j] = scaled
			opts[j] = executor.ExecOptions{Shots: rec.Shots}
		}
		results, err := exec.Run(ctx, toRun, opts)
		if err != nil {
			return fmt.Errorf("zne: circuit execution failed: %w", err)
		}
		if len(results) != numToAverage {
			return fmt.Errorf("zne: executor returned %d values for %d circuits", len(results), numToAverage)
		}

		f.Push(rec, stat.Mean(results, nil))
		if f.IsConverged() {
			return nil
		}
	}
	f.warn(&ConvergenceWarning{MaxIterations: f.maxIterations})
	return nil
}

// Reduce fits the exponential model to all accumulated data, returns its
// value at zero, and appends a snapshot to the reduce history.
func (f *AdaExpFactory) Reduce() (float64, error) {
	f.checkStackLengths()
	zeroLimit, params, warning, err := ExtrapolateExp(
		f.ScaleFactors(), f.ExpectationValues(), f.asymptote, f.avoidLog)
	if err != nil {
		return 0, err
	}
	f.finishReduce(params, warning)
	f.history = append(f.history, ReduceHistoryEntry{
		Records:           append([]ScaleRecord(nil), f.instack...),
		ExpectationValues: append([]float64(nil), f.outstack...),
		OptParams:         append([]float64(nil), params...),
		ZeroLimit:         zeroLimit,
	})
	return zeroLimit, nil
}

// History returns snapshots of every fit since the last Reset: one entry
// per intermediate fit made while choosing scale factors and one per
// explicit Reduce call.
func (f *AdaExpFactory) History() []ReduceHistoryEntry {
	return append([]ReduceHistoryEntry(nil), f.history...)
}

// Reset clears all accumulated state including the reduce history.
func (f *AdaExpFactory) Reset() {
	f.stacks.Reset()
	f.history = nil
}

// Equal reports tolerance-based equality of data and model configuration.
func (f *AdaExpFactory) Equal(other Factory) bool {
	o, ok := other.(*AdaExpFactory)
	return ok &&
		f.steps == o.steps &&
		closeEnough(f.scaleFactor, o.scaleFactor) &&
		closeEnoughPtr(f.asymptote, o.asymptote) &&
		f.avoidLog == o.avoidLog &&
		closeEnough(f.maxScaleFactor, o.maxScaleFactor) &&
		f.maxIterations == o.maxIterations &&
		f.equalStacks(&o.stacks)
}
