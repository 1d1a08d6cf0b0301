package tooling

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pyqck/internal/project"
)

func newTestAdapters(t *testing.T, opts ...Option) (*Adapters, *fakeRunner) {
	t.Helper()

	cfg := project.Default(t.TempDir())
	runner := &fakeRunner{results: map[string]Result{}}

	all := append([]Option{WithRunner(runner), WithLookPath(lookPathOnly("uv"))}, opts...)

	return New(cfg, all...), runner
}

// ---------------------------------------------------------------------------
// Spec / Command
// ---------------------------------------------------------------------------

func TestSpec_ReturnsExecutableAndHint(t *testing.T) {
	a, _ := newTestAdapters(t)

	spec, err := a.Spec(Linting)
	require.NoError(t, err)

	assert.Equal(t, "ruff", spec.Executable)
	assert.Equal(t, "Install `ruff` and retry, or set `[tooling].linting` to a valid executable.", spec.Hint)
}

func TestSpec_UnknownKey(t *testing.T) {
	a, _ := newTestAdapters(t)

	_, err := a.Spec(ToolKey("docs"))
	require.Error(t, err)
	assert.ErrorIs(t, err, &ToolError{Kind: UnknownTool})
}

func TestCommand(t *testing.T) {
	a, _ := newTestAdapters(t)

	tests := []struct {
		key  ToolKey
		args []string
		want []string
	}{
		{Packaging, []string{"sync"}, []string{"uv", "sync"}},
		{Linting, []string{"check", "."}, []string{"uv", "run", "ruff", "check", "."}},
		{Formatting, []string{"format"}, []string{"uv", "run", "ruff", "format"}},
		{Testing, nil, []string{"uv", "run", "pytest"}},
		{Typing, nil, []string{"uv", "run", "pyright"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got, err := a.Command(tt.key, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerArgs_Uvicorn(t *testing.T) {
	a, _ := newTestAdapters(t)
	a.cfg.Run.App = "billing.main:app"

	cmd, err := a.ServerCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"uv", "run", "uvicorn", "billing.main:app", "--host", "127.0.0.1", "--port", "8000"}, cmd)
}

func TestServerArgs_Flask(t *testing.T) {
	a, _ := newTestAdapters(t)
	a.cfg.Tooling.Running = "flask"
	a.cfg.Run.App = "orders.main:app"
	a.cfg.Run.Port = 5000

	assert.Equal(t,
		[]string{"--app", "orders.main:app", "run", "--host", "127.0.0.1", "--port", "5000", "--debug"},
		a.ServerArgs(),
	)
}

// ---------------------------------------------------------------------------
// EnsureAvailable
// ---------------------------------------------------------------------------

func TestEnsureAvailable_ChecksPackagingForAllKeys(t *testing.T) {
	var looked []string

	a, _ := newTestAdapters(t, WithLookPath(func(name string) (string, error) {
		looked = append(looked, name)
		return "/bin/" + name, nil
	}))

	for _, k := range Keys() {
		require.NoError(t, a.EnsureAvailable(k))
	}

	for _, name := range looked {
		assert.Equal(t, "uv", name)
	}
}

func TestEnsureAvailable_MissingPackaging(t *testing.T) {
	a, _ := newTestAdapters(t, WithLookPath(lookPathOnly()))

	err := a.EnsureAvailable(Testing)
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, NotAvailable, toolErr.Kind)
	assert.Equal(t, "Configured runner for `testing` not found: `uv`.", toolErr.Message)
	assert.Contains(t, toolErr.Hint, "[tooling].packaging")
}

func TestEnsureAvailable_MissingPackagingToolItself(t *testing.T) {
	a, _ := newTestAdapters(t, WithLookPath(lookPathOnly()))

	err := a.EnsureAvailable(Packaging)
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, NotAvailable, toolErr.Kind)
	assert.Equal(t, "Configured tool for `packaging` not found: `uv`.", toolErr.Message)
	assert.NotContains(t, toolErr.Message, "runner")
}

func TestEnsureAll_StopsAtFirstFailure(t *testing.T) {
	a, _ := newTestAdapters(t, WithLookPath(lookPathOnly()))

	err := a.EnsureAll(Running, Linting)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "`running`")
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_CapturesOutputInProjectRoot(t *testing.T) {
	a, runner := newTestAdapters(t)
	runner.results["uv run pytest -q"] = Result{Stdout: "1 passed", ExitCode: 0}

	res, err := a.Run(context.Background(), Testing, []string{"-q"}, RunOptions{})
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.Equal(t, "1 passed", res.Stdout)
	assert.Equal(t, []string{"uv", "run", "pytest", "-q"}, res.Command)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, a.cfg.RootDir, runner.calls[0].Opts.Dir)
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	a, runner := newTestAdapters(t)
	runner.results["uv run ruff check ."] = Result{ExitCode: 1, Stdout: "E501"}

	res, err := a.Run(context.Background(), Linting, []string{"check", "."}, RunOptions{})
	require.NoError(t, err)

	assert.False(t, res.OK())
	assert.Equal(t, 1, res.ExitCode)
}

func TestRun_StreamsToWriters(t *testing.T) {
	a, runner := newTestAdapters(t)
	runner.results["uv sync"] = Result{Stdout: "Resolved 3 packages"}

	var out bytes.Buffer

	_, err := a.Run(context.Background(), Packaging, []string{"sync"}, RunOptions{Stdout: &out, Dir: "/elsewhere"})
	require.NoError(t, err)

	assert.Equal(t, "Resolved 3 packages", out.String())
	assert.Equal(t, "/elsewhere", runner.calls[0].Opts.Dir)
}

func TestRun_UnavailableToolDoesNotExecute(t *testing.T) {
	a, runner := newTestAdapters(t, WithLookPath(lookPathOnly()))

	_, err := a.Run(context.Background(), Typing, nil, RunOptions{})
	assert.ErrorIs(t, err, &ToolError{Kind: NotAvailable})
	assert.Empty(t, runner.calls)
}

func TestRun_ExecFailureBecomesToolError(t *testing.T) {
	a, runner := newTestAdapters(t)
	runner.err = exec.ErrNotFound

	_, err := a.Run(context.Background(), Testing, nil, RunOptions{})
	assert.ErrorIs(t, err, &ToolError{Kind: NotAvailable})
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
