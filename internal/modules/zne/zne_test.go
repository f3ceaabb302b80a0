package zne

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/mitigate/internal/circuits"
	"github.com/qforge/mitigate/internal/executor"
)

func TestExecuteWithZNEDefaults(t *testing.T) {
	// Noise grows linearly with the folded gate count, so Richardson
	// extrapolation over the default schedule recovers the ideal value.
	exec := executor.NewSingle(func(ctx context.Context, c circuits.Circuit, opts executor.ExecOptions) (float64, error) {
		return 1.0 - 0.05*float64(len(c.Gates)), nil
	})

	c := circuits.New(circuits.H(0), circuits.CNOT(0, 1))
	zero, err := ExecuteWithZNE(context.Background(), c, exec, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, zero, 1e-6)
}

func TestExecuteWithZNECustomFactory(t *testing.T) {
	exec := executor.NewSingle(func(ctx context.Context, c circuits.Circuit, opts executor.ExecOptions) (float64, error) {
		return 1.0 - 0.1*float64(len(c.Gates)), nil
	})

	factory, err := NewLinearFactory([]float64{1, 3})
	require.NoError(t, err)

	c := circuits.New(circuits.X(0), circuits.X(0))
	zero, err := ExecuteWithZNE(context.Background(), c, exec, Options{Factory: factory})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, zero, 1e-8)
}

func TestExecuteWithZNENilExecutor(t *testing.T) {
	var exec executor.Executor
	_, err := ExecuteWithZNE(context.Background(), circuits.New(circuits.H(0)), exec, Options{})
	assert.ErrorIs(t, err, executor.ErrNilExecutor)
}
