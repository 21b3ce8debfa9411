package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongo "placement-portal/internal/clients/mongo" // mongo client singleton
	"placement-portal/internal/config"
	"placement-portal/internal/logger"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Create bootstrap logger for early errors
	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logg.Info(fmt.Sprintf(format, args...))
	})); err != nil {
		logg.Warn("automaxprocs", "err", err)
	}

	if cfg.PyroscopeAddress != "" {
		profiler, err := startProfiler(cfg, logg)
		if err != nil {
			logg.Warn("profiler disabled", "err", err)
		} else {
			defer func() { _ = profiler.Stop() }()
		}
	}

	_, db, err := mongo.Init(ctx, cfg, logg)
	if err != nil {
		logg.Error("mongo init", "err", err)
		os.Exit(1)
	}
	logg.Info("connected to mongo", "db", db.Name())

	app, err := setupRouter(ctx, cfg, os.Stderr)
	if err != nil {
		logg.Error("router setup", "err", err)
		os.Exit(1)
	}

	logg.Info("starting placement portal", "port", cfg.AppPort, "mail_driver", cfg.MailDriver)
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return mongo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}

func startProfiler(cfg config.Config, logg *slog.Logger) (*pyroscope.Profiler, error) {
	logg.Info("starting profiler", "server", cfg.PyroscopeAddress)
	return pyroscope.Start(pyroscope.Config{
		ApplicationName: "placement-portal",
		ServerAddress:   cfg.PyroscopeAddress,
		Tags:            map[string]string{"mail_driver": cfg.MailDriver},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
}
