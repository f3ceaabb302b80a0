package zne

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/qforge/mitigate/internal/circuits"
	"github.com/qforge/mitigate/internal/executor"
)

// FactoryOption customizes a factory at construction time.
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	shotList []int
	log      zerolog.Logger
	logSet   bool
}

// WithShotList configures one shot count per scale factor, threaded to the
// executor as a keyword argument. Its length must match the scale factors.
func WithShotList(shotList []int) FactoryOption {
	return func(o *factoryOptions) {
		o.shotList = shotList
	}
}

// WithLogger sets the logger used for recorded warnings.
func WithLogger(log zerolog.Logger) FactoryOption {
	return func(o *factoryOptions) {
		o.log = log
		o.logSet = true
	}
}

// batchedFactory holds the pre-determined scale factor schedule and drives
// the non-adaptive execution strategy shared by Poly, Richardson, Linear,
// Exp, and PolyExp factories.
type batchedFactory struct {
	stacks
	scaleFactors []float64
	shotList     []int
}

func newBatchedFactory(scaleFactors []float64, opts []FactoryOption) (batchedFactory, error) {
	if len(scaleFactors) < 2 {
		return batchedFactory{}, fmt.Errorf("zne: at least 2 scale factors are necessary, got %d", len(scaleFactors))
	}
	for _, s := range scaleFactors {
		if s <= 0 {
			return batchedFactory{}, fmt.Errorf("zne: scale factors must be positive, got %v", s)
		}
	}

	options := factoryOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.logSet {
		options.log = zerolog.Nop()
	}

	if options.shotList != nil {
		if len(options.shotList) != len(scaleFactors) {
			return batchedFactory{}, fmt.Errorf("%w: len(scale factors) is %d and len(shot list) is %d",
				ErrShotListLength, len(scaleFactors), len(options.shotList))
		}
		for _, shots := range options.shotList {
			if shots <= 0 {
				return batchedFactory{}, fmt.Errorf("zne: shot list entries must be positive integers, got %d", shots)
			}
		}
	}

	return batchedFactory{
		stacks:       newStacks(options.log.With().Str("component", "zne-factory").Logger()),
		scaleFactors: append([]float64(nil), scaleFactors...),
		shotList:     append([]int(nil), options.shotList...),
	}, nil
}

// records returns the configured schedule as scale records.
func (b *batchedFactory) records() []ScaleRecord {
	recs := make([]ScaleRecord, len(b.scaleFactors))
	for i, scale := range b.scaleFactors {
		recs[i] = ScaleRecord{ScaleFactor: scale}
		if b.shotList != nil {
			recs[i].Shots = b.shotList[i]
		}
	}
	return recs
}

// RunClassical evaluates eval once per configured scale factor, in order,
// starting from a clean state.
func (b *batchedFactory) RunClassical(eval EvalFunc) error {
	b.Reset()
	for _, rec := range b.records() {
		val, err := eval(rec)
		if err != nil {
			return fmt.Errorf("zne: evaluation at scale factor %v failed: %w", rec.ScaleFactor, err)
		}
		b.Push(rec, val)
	}
	return nil
}

// Run generates numToAverage noise-scaled copies of the circuit per scale
// factor, executes them (as one combined submission when the executor is
// batched), and stores the per-scale-factor averages. The repeated copies
// for one scale factor are contiguous in the submission order.
func (b *batchedFactory) Run(
	ctx context.Context,
	c circuits.Circuit,
	exec executor.Executor,
	scaleNoise ScaleNoiseFunc,
	numToAverage int,
) error {
	if numToAverage < 1 {
		return fmt.Errorf("zne: numToAverage must be at least 1, got %d", numToAverage)
	}
	b.Reset()

	recs := b.records()
	toRun := make([]circuits.Circuit, 0, len(recs)*numToAverage)
	opts := make([]executor.ExecOptions, 0, len(recs)*numToAverage)
	for _, rec := range recs {
		for i := 0; i < numToAverage; i++ {
			toRun = append(toRun, scaleNoise(c, rec.ScaleFactor))
			opts = append(opts, executor.ExecOptions{Shots: rec.Shots})
		}
	}

	results, err := exec.Run(ctx, toRun, opts)
	if err != nil {
		return fmt.Errorf("zne: circuit execution failed: %w", err)
	}
	if len(results) != len(toRun) {
		return fmt.Errorf("zne: executor returned %d values for %d circuits", len(results), len(toRun))
	}

	for i, rec := range recs {
		group := results[i*numToAverage : (i+1)*numToAverage]
		b.Push(rec, stat.Mean(group, nil))
	}
	return nil
}

// equalBatched extends stack equality with the configured schedule.
func (b *batchedFactory) equalBatched(o *batchedFactory) bool {
	if !allClose(b.scaleFactors, o.scaleFactors) {
		return false
	}
	if len(b.shotList) != len(o.shotList) {
		return false
	}
	for i := range b.shotList {
		if b.shotList[i] != o.shotList[i] {
			return false
		}
	}
	return b.equalStacks(&o.stacks)
}
