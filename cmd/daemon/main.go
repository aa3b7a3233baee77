package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/sbcast/internal/config"
	"github.com/genricoloni/sbcast/internal/display"
	"github.com/genricoloni/sbcast/internal/domain"
	"github.com/genricoloni/sbcast/internal/engine"
	"github.com/genricoloni/sbcast/internal/fetcher"
	"github.com/genricoloni/sbcast/internal/monitor"
	"github.com/genricoloni/sbcast/internal/reconciler"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AppOptions is the complete dependency graph of the daemon
var AppOptions = fx.Options(
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		newLogger,
		fx.Annotate(config.NewAppConfig, fx.As(new(domain.Config))),
		fx.Annotate(display.NewLink, fx.As(new(domain.DisplayLink))),
		fx.Annotate(engine.NewSynchronizer, fx.As(fx.Self()), fx.As(new(domain.Display))),
		fx.Annotate(fetcher.NewTitleFetcher, fx.As(new(domain.TitleResolver))),
		fx.Annotate(monitor.NewMprisMonitor, fx.As(new(domain.Monitor))),
		reconciler.NewRegistry,
	),

	fx.Invoke(registerHooks),
)

func main() {
	app := fx.New(AppOptions)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		panic(err)
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
	os.Exit(exitCode)
}

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// registerHooks sets up application lifecycle hooks
func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	logger *zap.Logger,
	mon domain.Monitor,
	registry *reconciler.Registry,
	sync *engine.Synchronizer,
) {
	// The monitor blocks until stopped, so it runs outside the start context
	monCtx, monCancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("sbcast daemon started")

			go func() {
				err := mon.Start(monCtx)
				if err == nil || errors.Is(err, context.Canceled) {
					return
				}
				logger.Error("Media monitor failed", zap.Error(err))
				if err := shutdowner.Shutdown(fx.ExitCode(1)); err != nil {
					logger.Error("Failed to request shutdown", zap.Error(err))
				}
			}()

			return registry.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			defer monCancel()
			return multierr.Combine(
				registry.Stop(ctx),
				mon.Stop(ctx),
				sync.Stop(ctx),
			)
		},
	})
}
