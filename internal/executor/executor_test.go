package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/mitigate/internal/circuits"
)

func TestSingleExecutorCalledOncePerCircuit(t *testing.T) {
	calls := 0
	exec := NewSingle(func(_ context.Context, _ circuits.Circuit, _ ExecOptions) (float64, error) {
		calls++
		return float64(calls), nil
	})

	assert.False(t, exec.IsBatched())

	cs := []circuits.Circuit{circuits.New(circuits.X(0)), circuits.New(circuits.Z(0))}
	results, err := exec.Run(context.Background(), cs, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, []float64{1, 2}, results)
}

func TestBatchedExecutorSingleSubmission(t *testing.T) {
	submissions := 0
	exec := NewBatched(func(_ context.Context, cs []circuits.Circuit, opts []ExecOptions) ([]float64, error) {
		submissions++
		out := make([]float64, len(cs))
		for i := range out {
			out[i] = float64(opts[i].Shots)
		}
		return out, nil
	})

	assert.True(t, exec.IsBatched())

	cs := []circuits.Circuit{circuits.New(circuits.X(0)), circuits.New(circuits.Z(0))}
	opts := []ExecOptions{{Shots: 100}, {Shots: 200}}
	results, err := exec.Run(context.Background(), cs, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, submissions)
	assert.Equal(t, []float64{100, 200}, results)
}

func TestRunLengthMismatch(t *testing.T) {
	exec := NewSingle(func(_ context.Context, _ circuits.Circuit, _ ExecOptions) (float64, error) {
		return 0, nil
	})

	_, err := exec.Run(context.Background(), []circuits.Circuit{circuits.New(circuits.X(0))}, []ExecOptions{{}, {}})
	assert.Error(t, err)
}

func TestZeroValueExecutor(t *testing.T) {
	var exec Executor
	_, err := exec.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNilExecutor)
}
