package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pyqck/internal/devloop"
	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/ui"
)

type stubProcess struct{}

func (stubProcess) Exited() bool            { return false }
func (stubProcess) Terminate() error        { return nil }
func (stubProcess) Kill() error             { return nil }
func (stubProcess) Wait(time.Duration) bool { return true }

type stubStarter struct {
	mu     sync.Mutex
	starts [][]string
}

func (s *stubStarter) Start(_ context.Context, argv []string, _ string) (devloop.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starts = append(s.starts, argv)

	return stubProcess{}, nil
}

// batchWatcher delivers its batches and returns.
type batchWatcher struct {
	batches [][]string
	err     error
}

func (w *batchWatcher) Run(ctx context.Context, out chan<- []string) error {
	for _, b := range w.batches {
		select {
		case out <- b:
		case <-ctx.Done():
			return nil
		}
	}

	return w.err
}

func watcherOf(w devloop.Watcher) Option {
	return WithWatcherFactory(func(*project.Config, *ui.Reporter, *slog.Logger) devloop.Watcher {
		return w
	})
}

func TestCheck_AllPass(t *testing.T) {
	runner, opts := fakeTools(true)

	stdout, stderr, code := executeWithCode(opts, "-C", t.TempDir(), "check")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, []string{"uv run ruff check .", "uv run pyright", "uv run pytest"}, runner.calls)
	assert.Contains(t, stdout, "OK lint")
	assert.Contains(t, stdout, "OK test")
	assert.Contains(t, stdout, "OK All checks passed")
}

func TestCheck_FailureStopsPipeline(t *testing.T) {
	runner, opts := fakeTools(true)
	runner.exit["pyright"] = 1

	stdout, stderr, code := executeWithCode(opts, "-C", t.TempDir(), "check")

	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"uv run ruff check .", "uv run pyright"}, runner.calls)
	assert.Contains(t, stderr, "FAILED [type] exit code 1")
	assert.NotContains(t, stdout, "All checks passed")
}

func TestCheck_ContinuesWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "pyquick.toml", "[checks]\nstop_on_first_failure = false\n")

	runner, opts := fakeTools(true)
	runner.exit["ruff"] = 1

	_, _, code := executeWithCode(opts, "-C", dir, "check")

	assert.Equal(t, 1, code)
	assert.Len(t, runner.calls, 3)
}

func TestDevOnce_SameAsCheck(t *testing.T) {
	runner, opts := fakeTools(true)
	starter := &stubStarter{}
	opts = append(opts, WithProcessStarter(starter))

	_, stderr, code := executeWithCode(opts, "-C", t.TempDir(), "dev", "--once")
	require.Equal(t, 0, code, stderr)

	assert.Len(t, runner.calls, 3)
	assert.Empty(t, starter.starts, "--once never starts the server")
}

func TestCheck_MissingTool(t *testing.T) {
	runner, opts := fakeTools(false)

	_, stderr, code := executeWithCode(opts, "-C", t.TempDir(), "check")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERROR [tooling] Configured runner for `linting` not found: `uv`.")
	assert.Empty(t, runner.calls)
}

func TestDev_RestartsAndChecksChangedFiles(t *testing.T) {
	dir := t.TempDir()
	runner, opts := fakeTools(true)
	starter := &stubStarter{}

	writeProjectFile(t, dir, "src/myapi/main.py", "app = None\n")

	changed := filepath.Join(dir, "src", "myapi", "main.py")
	opts = append(opts,
		WithProcessStarter(starter),
		watcherOf(&batchWatcher{batches: [][]string{{changed}}}),
	)

	stdout, stderr, code := executeWithCode(opts, "-C", dir, "dev")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "Watching src, tests (debounce=200ms, checks=incremental)")
	assert.Contains(t, stdout, "Change detected (1 file(s))")
	assert.Contains(t, stdout, "Stopping dev loop")

	server := []string{"uv", "run", "uvicorn", "myapi.main:app", "--host", "127.0.0.1", "--port", "8000"}
	assert.Equal(t, [][]string{server, server}, starter.starts)

	assert.Equal(t, []string{"uv run ruff check src/myapi/main.py", "uv run pyright", "uv run pytest"}, runner.calls)
}

func TestDev_DeletedModuleChecksWholeProject(t *testing.T) {
	dir := t.TempDir()
	runner, opts := fakeTools(true)

	opts = append(opts,
		WithProcessStarter(&stubStarter{}),
		watcherOf(&batchWatcher{batches: [][]string{{filepath.Join(dir, "src", "myapi", "old_module.py")}}}),
	)

	_, stderr, code := executeWithCode(opts, "-C", dir, "dev")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, []string{"uv run ruff check .", "uv run pyright", "uv run pytest"}, runner.calls)
}

func TestDev_LibHasNoServer(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "pyquick.toml", "[project]\nname = \"mylib\"\nprofile = \"lib\"\n")

	_, opts := fakeTools(true)
	starter := &stubStarter{}
	opts = append(opts,
		WithProcessStarter(starter),
		watcherOf(&batchWatcher{batches: [][]string{{filepath.Join(dir, "tests", "test_mylib.py")}}}),
	)

	_, stderr, code := executeWithCode(opts, "-C", dir, "dev")
	require.Equal(t, 0, code, stderr)

	assert.Empty(t, starter.starts)
}

func TestDev_NothingToWatch(t *testing.T) {
	_, opts := fakeTools(true)
	opts = append(opts,
		WithProcessStarter(&stubStarter{}),
		watcherOf(&batchWatcher{err: devloop.ErrNothingToWatch}),
	)

	_, stderr, code := executeWithCode(opts, "-C", t.TempDir(), "dev")

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "ERROR [config] None of the `[dev].watch` paths exist.")
}
