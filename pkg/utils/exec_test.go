package utils

import (
	"context"
	"testing"

	"github.com/omnipm/omnipm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandCapturesOutput(t *testing.T) {
	res, err := RunCommand(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRunCommandNonZeroExitIsNotAnError(t *testing.T) {
	res, err := RunCommand(context.Background(), "sh", "-c", "echo partial; exit 3")
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "partial\n", res.Stdout)
}

func TestRunCommandSpawnFailure(t *testing.T) {
	_, err := RunCommand(context.Background(), "/nonexistent/definitely-not-a-tool")
	require.Error(t, err)
	assert.Equal(t, types.CommandError, types.KindOf(err))
}

func TestCommandOutputMapsExitStatus(t *testing.T) {
	out, err := CommandOutput(context.Background(), "sh", "-c", "echo ok")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = CommandOutput(context.Background(), "sh", "-c", "echo broken >&2; exit 1")
	require.Error(t, err)
	assert.Equal(t, types.UnknownError, types.KindOf(err))
	assert.Contains(t, err.Error(), "broken")
}

func TestCommandAvailable(t *testing.T) {
	assert.True(t, CommandAvailable("sh"))
	assert.False(t, CommandAvailable("definitely-not-a-tool-omnipm"))
}
