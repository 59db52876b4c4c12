package xcmd

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	r := &ExecRunner{}

	result, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExecRunner_ExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	r := &ExecRunner{}

	result, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestResult_StderrTail(t *testing.T) {
	r := Result{Stderr: "abcdefghij"}
	assert.Equal(t, "fghij", r.StderrTail(5))
	assert.Equal(t, "abcdefghij", r.StderrTail(100))
}
