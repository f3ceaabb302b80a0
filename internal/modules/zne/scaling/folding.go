// Package scaling provides noise-scaling transformations that stretch a
// circuit so it accumulates more of the backend's native noise. All
// transformations are pure: the input circuit is never modified.
package scaling

import (
	"fmt"
	"math"

	"github.com/qforge/mitigate/internal/circuits"
)

// FoldGlobal applies global unitary folding: the whole circuit is mapped to
// C (C† C)^n followed by a partial right-fold of its last gates, so the gate
// count grows by approximately scaleFactor while the ideal unitary is
// unchanged. Terminal measurements are preserved verbatim. The scale factor
// must be at least one.
func FoldGlobal(c circuits.Circuit, scaleFactor float64) (circuits.Circuit, error) {
	if scaleFactor < 1 {
		return circuits.Circuit{}, fmt.Errorf("scaling: the scale factor must be at least 1, got %v", scaleFactor)
	}

	base := circuits.New(c.Gates...)
	folded := base.Copy()

	numFolds := int((scaleFactor - 1) / 2)
	inverse, err := base.Inverse()
	if err != nil {
		return circuits.Circuit{}, fmt.Errorf("scaling: circuit cannot be folded: %w", err)
	}
	for i := 0; i < numFolds; i++ {
		folded = folded.Append(inverse).Append(base)
	}

	// Partial fold of the last gates approximates the fractional part.
	fraction := (scaleFactor - 1 - 2*float64(numFolds)) / 2
	numToFold := int(math.Round(fraction * float64(len(base.Gates))))
	if numToFold > 0 {
		tail := circuits.New(base.Gates[len(base.Gates)-numToFold:]...)
		tailInverse, err := tail.Inverse()
		if err != nil {
			return circuits.Circuit{}, fmt.Errorf("scaling: circuit cannot be folded: %w", err)
		}
		folded = folded.Append(tailInverse).Append(tail)
	}

	return folded.WithMeasurements(c.Measurements...), nil
}
