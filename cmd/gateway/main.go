package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/config"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/executor"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/httpclient"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/observability"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/router"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/server"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/service"
	"github.com/mohammed-shakir/ogc-gateway/internal/diagnostics"
	"github.com/mohammed-shakir/ogc-gateway/internal/logger"
	h3mapper "github.com/mohammed-shakir/ogc-gateway/internal/mapper/h3"
	"github.com/mohammed-shakir/ogc-gateway/internal/metrics"
	"github.com/mohammed-shakir/ogc-gateway/internal/queryevents"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "gateway",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("config rejected", "err", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, appLog); err != nil {
		appLog.Error("gateway exited with error", "err", err)
		return 1
	}
	appLog.Info("gateway stopped")
	return 0
}

func serve(ctx context.Context, cfg config.Config, appLog *slog.Logger) error {
	observability.ExposeBuildInfo(Version)

	reg, err := config.LoadRegistry(cfg.ServicesFile)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	exec := executor.New(appLog, httpclient.NewOutbound(cfg.UpstreamTimeout))
	svc, err := service.New(exec, service.WithLogger(appLog))
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}

	var events queryevents.Sink = queryevents.Nop{}
	if cfg.Events.Enabled {
		pub, err := queryevents.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, cfg.Events.QueueSize, appLog)
		if err != nil {
			return fmt.Errorf("init query events: %w", err)
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("query events close", "err", err)
			}
		}()
		events = pub
	}

	handlers := router.New(router.Deps{
		Logger:   appLog,
		Service:  svc,
		Registry: reg,
		Failures: diagnostics.NewRecorder(cfg.FailureHistory),
		Events:   events,
		Mapper:   h3mapper.New(),
		H3Res:    cfg.H3Res,
	})

	appLog.Info("starting gateway",
		"addr", cfg.Addr,
		"metrics_addr", cfg.MetricsAddr,
		"version", Version,
		"services", len(reg.Entries()),
		"events", cfg.Events.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, cfg, appLog, server.NewHandler(appLog, Version, handlers))
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return server.Serve(gctx, metrics.NewServer(metrics.Config{Addr: cfg.MetricsAddr}), appLog)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
