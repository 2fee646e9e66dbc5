package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"padron/internal/audit"
	"padron/internal/identity/handler"
	"padron/internal/identity/metrics"
	"padron/internal/identity/registry"
	"padron/internal/identity/service"
	"padron/internal/platform/config"
	"padron/internal/platform/httpserver"
	"padron/internal/platform/logger"
	"padron/internal/platform/tracing"
	httptransport "padron/internal/transport/http"
	"padron/pkg/platform/middleware/httpmetrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	identityMetrics := metrics.New(reg)

	tracer, err := tracing.New(context.Background(), cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("build tracer provider: %w", err)
	}
	tracer.Install()

	client, err := registry.NewClient(registry.Config{
		BaseURL:    cfg.Registry.URL,
		Token:      cfg.Registry.Token,
		QueryParam: cfg.Registry.QueryParam,
	},
		registry.WithMetrics(identityMetrics),
		registry.WithTracerProvider(tracer.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("build registry client: %w", err)
	}

	sinks := []audit.Sink{audit.NewLogSink(log.With("component", "audit"))}
	var kafkaSink *audit.KafkaSink
	if len(cfg.Audit.Brokers) > 0 {
		kafkaSink, err = audit.NewKafkaSink(cfg.Audit.Brokers, cfg.Audit.Topic, log)
		if err != nil {
			return fmt.Errorf("build audit sink: %w", err)
		}
		sinks = append(sinks, kafkaSink)
	}

	svc := service.New(client,
		service.WithMetrics(identityMetrics),
		service.WithAuditPublisher(audit.NewPublisher(sinks)),
		service.WithLogger(log),
	)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:      log,
		Gatherer:    reg,
		HTTPMetrics: httpmetrics.New(reg),
		Routes:      []httptransport.RouteRegistrar{handler.New(svc, log)},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting padron",
			"addr", cfg.Server.Addr,
			"registry", cfg.Registry.URL,
			"registry_token_configured", cfg.Registry.Token != "",
			"kafka_audit", kafkaSink != nil,
			"tracing", tracer.Enabled(),
		)
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})

	err = g.Wait()
	// Flush audit records only after in-flight requests have drained.
	if kafkaSink != nil {
		if closeErr := kafkaSink.Close(); closeErr != nil {
			log.Error("failed to flush audit sink", "error", closeErr)
		}
	}
	if shutdownErr := tracer.Shutdown(context.Background()); shutdownErr != nil {
		log.Error("failed to flush traces", "error", shutdownErr)
	}
	logShutdown(log, err)
	return err
}

func logShutdown(log *slog.Logger, err error) {
	if err != nil {
		log.Error("padron stopped", "error", err)
		return
	}
	log.Info("padron stopped")
}
