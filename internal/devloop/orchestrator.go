package devloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pyqck/internal/logging"
	"github.com/hupe1980/pyqck/internal/tooling"
	"github.com/hupe1980/pyqck/internal/ui"
)

// DefaultStopGrace is how long the server gets after terminate and again
// after kill.
const DefaultStopGrace = 3 * time.Second

// Options configures an Orchestrator.
type Options struct {
	Adapters *tooling.Adapters
	Watcher  Watcher
	Starter  ProcessStarter
	Reporter *ui.Reporter
	Logger   *slog.Logger

	// StopGrace overrides DefaultStopGrace.
	StopGrace time.Duration

	// HandleSignals stops the loop on SIGINT/SIGTERM.
	HandleSignals bool
}

// Orchestrator drives the watch → restart → check loop.
type Orchestrator struct {
	adapters *tooling.Adapters
	watcher  Watcher
	starter  ProcessStarter
	reporter *ui.Reporter
	logger   *slog.Logger
	checker  *Checker
	grace    time.Duration
	signals  bool

	server Process
}

// New creates an Orchestrator. Adapters is required; Reporter and Logger
// default to discarding output.
func New(opts Options) *Orchestrator {
	if opts.Reporter == nil {
		opts.Reporter = ui.Discard()
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}

	return &Orchestrator{
		adapters: opts.Adapters,
		watcher:  opts.Watcher,
		starter:  opts.Starter,
		reporter: opts.Reporter,
		logger:   opts.Logger,
		checker:  NewChecker(opts.Adapters, opts.Reporter, opts.Logger),
		grace:    opts.StopGrace,
		signals:  opts.HandleSignals,
	}
}

// RunOnce runs the checks pipeline against the whole project without a
// server or watcher.
func (o *Orchestrator) RunOnce(ctx context.Context) Report {
	return o.checker.Run(ctx, FullTargets())
}

// Run starts the server and processes change batches until the watcher
// stops, ctx is cancelled or a termination signal arrives. The server is
// always stopped before Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.watcher == nil {
		return errors.New("devloop: no watcher configured")
	}

	if o.signals {
		var stop context.CancelFunc

		ctx, stop = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	cfg := o.adapters.Config()

	o.reporter.Info("Watching %s (debounce=%dms, checks=%s)",
		strings.Join(cfg.Dev.Watch, ", "), cfg.Dev.DebounceMS, cfg.Dev.ChecksMode)

	o.startServer(ctx)
	defer o.stopServer()

	batches := make(chan []string)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		return o.watcher.Run(gctx, batches)
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case batch, ok := <-batches:
				if !ok {
					return nil
				}

				o.iterate(gctx, batch)
			}
		}
	})

	err := g.Wait()

	o.reporter.Info("Stopping dev loop")

	if err != nil {
		return fmt.Errorf("watching files: %w", err)
	}

	return nil
}

// iterate handles one batch of raw changed paths.
func (o *Orchestrator) iterate(ctx context.Context, batch []string) {
	cfg := o.adapters.Config()

	changed := FilterRelevantPaths(cfg.RootDir, batch)
	if len(changed) == 0 {
		return
	}

	logger := o.logger.With(slog.String("run", uuid.NewString()))
	logger.Debug("change batch", slog.Any("paths", changed))

	o.reporter.Info("Change detected (%d file(s))", len(changed))

	if cfg.Dev.Reload {
		o.stopServer()
		o.startServer(ctx)
	}

	targets := FullTargets()
	if gone := missingPaths(cfg.RootDir, changed); len(gone) > 0 {
		logger.Debug("changed paths removed, checking whole project", slog.Any("paths", gone))
	} else {
		targets = SelectTargets(cfg.Dev.ChecksMode, cfg.Dev.FallbackThreshold, changed)
	}

	report := o.checker.Run(ctx, targets)

	logger.Debug("checks finished", slog.Bool("ok", report.OK()), slog.Int("steps", len(report.Steps)))
}

// startServer launches the dev server for projects that have one. A start
// failure is reported and retried on the next change.
func (o *Orchestrator) startServer(ctx context.Context) {
	cfg := o.adapters.Config()
	if !cfg.IsAPI() || o.starter == nil {
		return
	}

	argv, err := o.adapters.ServerCommand()
	if err != nil {
		o.reportErr(err)
		return
	}

	proc, err := o.starter.Start(ctx, argv, cfg.RootDir)
	if err != nil {
		o.reportErr(err)
		return
	}

	o.logger.Debug("server started", logging.Command(argv))
	o.server = proc
}

func (o *Orchestrator) stopServer() {
	if o.server == nil {
		return
	}

	StopProcess(o.server, o.grace)
	o.server = nil
}

func (o *Orchestrator) reportErr(err error) {
	var toolErr *tooling.ToolError
	if errors.As(err, &toolErr) {
		o.reporter.Error("tooling", toolErr.Message, toolErr.Hint)
		return
	}

	o.reporter.Error("tooling", err.Error(), "Check the `[tooling].running` executable and `[run]` settings.")
}
