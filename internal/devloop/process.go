package devloop

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Process is a running dev server.
type Process interface {
	// Exited reports whether the process has already terminated.
	Exited() bool
	// Terminate asks the process to shut down gracefully.
	Terminate() error
	// Kill stops the process immediately.
	Kill() error
	// Wait blocks until the process exits or timeout elapses and reports
	// whether it exited.
	Wait(timeout time.Duration) bool
}

// ProcessStarter launches dev server processes.
type ProcessStarter interface {
	Start(ctx context.Context, argv []string, dir string) (Process, error)
}

// ExecStarter starts processes with os/exec, streaming their output.
type ExecStarter struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Start launches argv in dir. The process is not tied to ctx; callers stop
// it explicitly so they can escalate from terminate to kill.
func (s ExecStarter) Start(_ context.Context, argv []string, dir string) (Process, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty server command")
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // command comes from project tooling config
	cmd.Dir = dir
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}

	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (p *execProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *execProcess) Terminate() error {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Platforms without SIGTERM delivery fall back to interrupt.
		return p.cmd.Process.Signal(os.Interrupt)
	}

	return nil
}

func (p *execProcess) Kill() error {
	var err error

	p.once.Do(func() {
		err = p.cmd.Process.Kill()
	})

	return err
}

func (p *execProcess) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

// StopProcess shuts p down: terminate, wait up to grace, then kill and wait
// up to grace again. Already exited processes are left alone.
func StopProcess(p Process, grace time.Duration) {
	if p == nil || p.Exited() {
		return
	}

	if err := p.Terminate(); err == nil && p.Wait(grace) {
		return
	}

	_ = p.Kill()
	p.Wait(grace)
}
