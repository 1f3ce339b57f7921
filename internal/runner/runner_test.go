package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	var r ExecRunner

	result, err := r.Run(context.Background(), 0, "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Output, "hello")
	assert.Equal(t, "echo hello", result.Command)
	assert.False(t, result.TimedOut)
}

func TestRun_ExitCodePropagated(t *testing.T) {
	var r ExecRunner

	result, err := r.Run(context.Background(), 0, "sh", "-c", "echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Output, "oops")

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.Result.ExitCode)
	assert.Contains(t, cmdErr.Error(), "oops")
}

func TestRun_Timeout(t *testing.T) {
	var r ExecRunner

	result, err := r.Run(context.Background(), 50*time.Millisecond, "sleep", "5")
	require.Error(t, err)
	assert.True(t, result.TimedOut)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.True(t, cmdErr.Result.TimedOut)
	assert.Contains(t, cmdErr.Error(), "timed out")
}

func TestRun_WorkingDirectory(t *testing.T) {
	r := ExecRunner{Dir: t.TempDir()}

	result, err := r.Run(context.Background(), 0, "pwd")
	require.NoError(t, err)
	assert.Contains(t, result.Output, r.Dir)
}
