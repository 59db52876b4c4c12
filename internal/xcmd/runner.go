// Package xcmd abstracts external process execution so stages that shell
// out (ffmpeg, ffprobe, tesseract) stay testable without the binaries.
package xcmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result is one process execution response.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner abstracts process execution for testability.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// StderrTail returns the last n bytes of stderr for error reporting.
func (r Result) StderrTail(n int) string {
	s := r.Stderr
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
