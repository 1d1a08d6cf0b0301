package devloop

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/tooling"
	"github.com/hupe1980/pyqck/internal/ui"
)

// fakeRunner answers tool invocations by executable name ("ruff", "pytest").
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	exit  map[string]int
	err   map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{exit: map[string]int{}, err: map[string]error{}}
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, _ tooling.RunOpts) (tooling.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	argv := append([]string{name}, args...)
	f.calls = append(f.calls, argv)

	tool := name
	if len(args) >= 2 && args[0] == "run" {
		tool = args[1]
	}

	if err := f.err[tool]; err != nil {
		return tooling.Result{}, err
	}

	return tooling.Result{ExitCode: f.exit[tool], Stdout: tool + " output"}, nil
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c, " ")
	}

	return out
}

// fakeProcess is a server that exits on terminate unless stubborn.
type fakeProcess struct {
	mu         sync.Mutex
	exited     bool
	stubborn   bool
	terminated int
	killed     int
	waits      []time.Duration
}

func (p *fakeProcess) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.exited
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.terminated++
	if !p.stubborn {
		p.exited = true
	}

	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.killed++
	p.exited = true

	return nil
}

func (p *fakeProcess) Wait(timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.waits = append(p.waits, timeout)

	return p.exited
}

type fakeStarter struct {
	mu    sync.Mutex
	argv  [][]string
	procs []*fakeProcess
	err   error
}

func (s *fakeStarter) Start(_ context.Context, argv []string, _ string) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	p := &fakeProcess{}
	s.argv = append(s.argv, argv)
	s.procs = append(s.procs, p)

	return p, nil
}

func (s *fakeStarter) started() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.procs)
}

// fakeWatcher emits the given batches and then either returns (close) or
// blocks until cancelled.
type fakeWatcher struct {
	batches [][]string
	block   bool
	err     error
}

func (w *fakeWatcher) Run(ctx context.Context, out chan<- []string) error {
	for _, b := range w.batches {
		select {
		case out <- b:
		case <-ctx.Done():
			return nil
		}
	}

	if w.err != nil {
		return w.err
	}

	if w.block {
		<-ctx.Done()
	}

	return nil
}

type harness struct {
	cfg      *project.Config
	runner   *fakeRunner
	starter  *fakeStarter
	out, err *bytes.Buffer
	adapters *tooling.Adapters
	reporter *ui.Reporter
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := project.Default(t.TempDir())
	runner := newFakeRunner()

	var out, errOut bytes.Buffer

	return &harness{
		cfg:     cfg,
		runner:  runner,
		starter: &fakeStarter{},
		out:     &out,
		err:     &errOut,
		adapters: tooling.New(cfg,
			tooling.WithRunner(runner),
			tooling.WithLookPath(func(name string) (string, error) { return "/bin/" + name, nil }),
		),
		reporter: ui.NewReporter(&out, &errOut, ui.WithNoColor(true)),
	}
}

func (h *harness) orchestrator(w Watcher) *Orchestrator {
	return New(Options{
		Adapters:  h.adapters,
		Watcher:   w,
		Starter:   h.starter,
		Reporter:  h.reporter,
		StopGrace: 10 * time.Millisecond,
	})
}
