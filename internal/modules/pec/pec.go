package pec

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/qforge/mitigate/internal/circuits"
	"github.com/qforge/mitigate/internal/executor"
	"github.com/qforge/mitigate/internal/modules/history"
)

// defaultPrecision is the target estimator precision used when neither a
// sample count nor a precision is configured.
const defaultPrecision = 0.03

// largeSampleThreshold is the sample count above which a LargeSampleWarning
// is recorded.
const largeSampleThreshold = 100_000

// LargeSampleWarning reports that the deduced number of samples is large
// enough that execution may take a very long time. It is advisory only.
type LargeSampleWarning struct {
	NumSamples int
}

func (w *LargeSampleWarning) Error() string {
	return fmt.Sprintf(
		"the number of PEC samples (%d) is very large; the evaluation may take a long time, "+
			"consider reducing the precision or the representation norm", w.NumSamples)
}

// HistoryStore persists completed mitigation runs. It is satisfied by
// *history.Repository.
type HistoryStore interface {
	Save(rec history.Record) (string, error)
}

// Options configures ExecuteWithPEC. The zero value samples until the
// estimator standard error is expected to reach the default precision,
// with a time-seeded random source.
type Options struct {
	// NumSamples fixes the number of sampled circuits. Zero derives the
	// count from Precision as (norm/precision)^2.
	NumSamples int

	// Precision is the target estimator precision, in (0, 1]. Zero means
	// the default 0.03. Ignored when NumSamples is set.
	Precision float64

	// Seed seeds the random source for reproducible runs. Ignored when
	// Source is set; zero with a nil Source means a time-based seed.
	Seed uint64

	// Source supplies the randomness for sampling directly.
	Source rand.Source

	// History, when non-nil, receives a record of the completed run
	// keyed by the result's RunID.
	History HistoryStore
}

// Result is the outcome of a PEC run.
type Result struct {
	// RunID uniquely identifies this run.
	RunID string

	// Estimate is the unbiased estimate of the ideal expectation value.
	Estimate float64

	// StdError is the standard error of the estimate, scaling as
	// norm/sqrt(NumSamples) for a bounded observable.
	StdError float64

	// Norm is the total sampling overhead, the product of the per
	// operation representation norms.
	Norm float64

	// NumSamples is the number of circuits actually sampled and executed.
	NumSamples int

	// UnbiasedEstimates holds norm*sign*value per sample.
	UnbiasedEstimates []float64

	// Warnings holds non-fatal advisories recorded during the run.
	Warnings []error
}

// ExecuteWithPEC estimates the ideal expectation value of the circuit by
// sampling implementable circuits from the quasi-probability
// representations, executing them, and averaging the sign- and
// norm-corrected results.
func ExecuteWithPEC(
	ctx context.Context,
	c circuits.Circuit,
	exec executor.Executor,
	reps []*OperationRepresentation,
	opts Options,
) (Result, error) {
	norm, err := circuitNorm(c, reps)
	if err != nil {
		return Result{}, err
	}

	numSamples := opts.NumSamples
	if numSamples == 0 {
		precision := opts.Precision
		if precision == 0 {
			precision = defaultPrecision
		}
		if precision <= 0 || precision > 1 {
			return Result{}, fmt.Errorf("pec: precision must be in (0, 1], got %v", opts.Precision)
		}
		numSamples = int((norm / precision) * (norm / precision))
	}
	if numSamples < 1 {
		return Result{}, fmt.Errorf("pec: the number of samples must be at least 1, got %d", numSamples)
	}

	var warnings []error
	if numSamples > largeSampleThreshold {
		warnings = append(warnings, &LargeSampleWarning{NumSamples: numSamples})
	}

	src := opts.Source
	if src == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		src = rand.NewSource(seed)
	}

	sampled := make([]circuits.Circuit, numSamples)
	signs := make([]int, numSamples)
	norms := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		circuit, sign, sampleNorm, err := SampleCircuit(c, reps, src)
		if err != nil {
			return Result{}, err
		}
		sampled[i] = circuit
		signs[i] = sign
		norms[i] = sampleNorm
	}

	values, err := exec.Run(ctx, sampled, nil)
	if err != nil {
		return Result{}, fmt.Errorf("pec: circuit execution failed: %w", err)
	}
	if len(values) != numSamples {
		return Result{}, fmt.Errorf("pec: executor returned %d values for %d circuits", len(values), numSamples)
	}

	unbiased := make([]float64, numSamples)
	for i, val := range values {
		unbiased[i] = norms[i] * float64(signs[i]) * val
	}

	stdErr := 0.0
	if numSamples > 1 {
		stdErr = stat.StdDev(unbiased, nil) / math.Sqrt(float64(numSamples))
	}

	result := Result{
		RunID:             uuid.New().String(),
		Estimate:          stat.Mean(unbiased, nil),
		StdError:          stdErr,
		Norm:              norm,
		NumSamples:        numSamples,
		UnbiasedEstimates: unbiased,
		Warnings:          warnings,
	}

	if opts.History != nil {
		_, err := opts.History.Save(history.Record{
			ID:         result.RunID,
			Technique:  "pec",
			Circuit:    c.String(),
			Method:     "quasiprobability",
			Estimate:   result.Estimate,
			StdError:   result.StdError,
			NumSamples: result.NumSamples,
		})
		if err != nil {
			// A lost record must not discard a completed estimate.
			result.Warnings = append(result.Warnings,
				fmt.Errorf("pec: failed to store the run in history: %w", err))
		}
	}

	return result, nil
}

// circuitNorm is the product of the representation norms over the circuit's
// operations, the total sampling overhead.
func circuitNorm(c circuits.Circuit, reps []*OperationRepresentation) (float64, error) {
	norm := 1.0
	for _, gate := range c.Gates {
		rep := findRepresentation(circuits.FromGate(gate), reps)
		if rep == nil {
			return 0, fmt.Errorf("pec: representation of ideal operation %s not found", circuits.FromGate(gate))
		}
		norm *= rep.Norm()
	}
	return norm, nil
}
