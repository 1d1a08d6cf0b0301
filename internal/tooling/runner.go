package tooling

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Result holds the outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunOpts holds optional parameters for command execution.
type RunOpts struct {
	Dir    string    // working directory (optional)
	Stdin  io.Reader // defaults to no input
	Stdout io.Writer // streams output instead of capturing it
	Stderr io.Writer // streams errors instead of capturing them
}

// Runner runs external commands. A non-zero exit is reported through
// Result.ExitCode; the error return is reserved for failures to execute at
// all (binary missing, context cancelled, I/O).
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts RunOpts) (Result, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command, capturing whichever streams have no writer.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // command comes from project tooling config

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}

	cmd.Stderr = &stderr
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	}

	cmd.Stdin = opts.Stdin
	cmd.Dir = opts.Dir

	err := cmd.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return result, err
	}

	return result, nil
}
