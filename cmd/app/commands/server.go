package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/gatekeeper/internal/app"
)

// Runnable is a long-running component with graceful shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// NamedRunnable labels a Runnable in logs and errors.
type NamedRunnable struct {
	Name     string
	Runnable Runnable
}

// RunServers starts every runnable and blocks until ctx is cancelled or one of them
// fails. Either way all of them are shut down within shutdownTimeout.
func RunServers(
	ctx context.Context,
	logger *slog.Logger,
	shutdownTimeout time.Duration,
	runnables ...NamedRunnable,
) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, r := range runnables {
		g.Go(func() error {
			if err := r.Runnable.Start(gctx); err != nil {
				return fmt.Errorf("%s error: %w", r.Name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Any("cause", context.Cause(gctx)))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, r := range runnables {
			if err := r.Runnable.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("%s shutdown: %w", r.Name, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// worker adapts a blocking Start(ctx) loop to Runnable. Shutdown cancels the loop
// and waits for it to return.
type worker struct {
	run      func(ctx context.Context) error
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewWorker wraps a loop that runs until its context is cancelled.
func NewWorker(run func(ctx context.Context) error) Runnable {
	return &worker{
		run:  run,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (w *worker) Start(ctx context.Context) error {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *worker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunServer serves the API, plus the metrics listener when enabled, until SIGINT
// or SIGTERM.
func RunServer(ctx context.Context, container *app.Container, version string) error {
	cfg := container.Config()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	gin.SetMode(cfg.GetGinMode())

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	runnables := []NamedRunnable{{Name: "api server", Runnable: server}}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		runnables = append(runnables, NamedRunnable{Name: "metrics server", Runnable: metricsServer})
	}

	return RunServers(ctx, logger, cfg.ServerShutdownTimeout, runnables...)
}

// RunWorker runs the outbox processor until SIGINT or SIGTERM.
func RunWorker(ctx context.Context, container *app.Container, version string) error {
	cfg := container.Config()
	logger := container.Logger()
	logger.Info("starting outbox worker",
		slog.String("version", version),
		slog.Duration("interval", cfg.OutboxInterval),
		slog.Int("batch_size", cfg.OutboxBatchSize),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	outbox, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox: %w", err)
	}

	return RunServers(ctx, logger, cfg.ServerShutdownTimeout,
		NamedRunnable{Name: "outbox worker", Runnable: NewWorker(outbox.Start)},
	)
}
