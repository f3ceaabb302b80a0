package zne

import (
	"context"
	"fmt"

	"github.com/qforge/mitigate/internal/circuits"
	"github.com/qforge/mitigate/internal/executor"
	"github.com/qforge/mitigate/internal/modules/zne/scaling"
)

// Options configures ExecuteWithZNE. Zero-valued fields select the
// defaults: Richardson extrapolation over scale factors 1, 2, 3; global
// unitary folding; one execution per scale factor.
type Options struct {
	Factory      Factory
	ScaleNoise   ScaleNoiseFunc
	NumToAverage int
}

// ExecuteWithZNE runs the circuit at several noise levels and extrapolates
// the measured expectation values to the zero-noise limit.
func ExecuteWithZNE(ctx context.Context, c circuits.Circuit, exec executor.Executor, opts Options) (float64, error) {
	factory := opts.Factory
	if factory == nil {
		var err error
		factory, err = NewRichardsonFactory([]float64{1, 2, 3})
		if err != nil {
			return 0, err
		}
	}
	scaleNoise := opts.ScaleNoise
	if scaleNoise == nil {
		if _, err := c.Inverse(); err != nil {
			return 0, fmt.Errorf("zne: default folding cannot scale this circuit: %w", err)
		}
		scaleNoise = func(c circuits.Circuit, scaleFactor float64) circuits.Circuit {
			folded, err := scaling.FoldGlobal(c, scaleFactor)
			if err != nil {
				// Invertibility was checked above and factories only
				// request scale factors >= 1.
				panic(fmt.Sprintf("zne: default noise scaling failed: %v", err))
			}
			return folded
		}
	}
	numToAverage := opts.NumToAverage
	if numToAverage == 0 {
		numToAverage = 1
	}

	if err := factory.Run(ctx, c, exec, scaleNoise, numToAverage); err != nil {
		return 0, err
	}
	return factory.Reduce()
}
