// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package planner provides the AgriQ planning HTTP service.
//
// The service loads the national dataset, keeps it hot-reloaded from disk,
// and serves crop analysis, market forecasts and annealed allocation plans
// over a Gin router:
//
//	cfg, err := planner.LoadConfig("planner.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := planner.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Ghayda-Saify/agriq-hackathon/services/dataset"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/middleware"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/observability"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/routes"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

// Service defines the contract for the planner service.
//
// Thread Safety: Implementations must be safe for concurrent use. Run()
// blocks and should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers must
	// not modify the routes.
	Router() *gin.Engine
}

// service implements Service for production use.
//
// Thread-safe after construction; all fields are read-only once New returns.
type service struct {
	config        Config
	router        *gin.Engine
	store         *dataset.Store
	engine        *engine.Engine
	watcher       *dataset.Watcher
	watchCancel   context.CancelFunc
	tracerCleanup func(context.Context)
}

// New creates a planner Service with the given configuration.
//
// Initialization order: defaults, tracing, metrics, dataset load, watcher,
// router. A missing or broken dataset is not fatal — the service starts
// degraded and the watcher picks the data up when it appears.
//
// Inputs:
//   - cfg: Service configuration. Zero values use defaults.
//
// Outputs:
//   - Service: Ready-to-run planner service.
//   - error: Non-nil if tracing or the filesystem watcher cannot be set up.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	if s.config.EnableMetrics && observability.DefaultMetrics == nil {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}

	s.store = dataset.NewStore(s.config.DataDir)
	if err := s.store.Load(); err != nil {
		slog.Warn("Dataset load failed, optimize endpoints degraded until data appears",
			"dir", s.config.DataDir,
			"error", err)
	} else {
		soilSkipped, marketSkipped := s.store.Skipped()
		slog.Info("Dataset loaded",
			"dir", s.config.DataDir,
			"districts", len(s.store.Summaries()),
			"soil_rows_skipped", soilSkipped,
			"market_rows_skipped", marketSkipped)
	}

	s.engine = engine.New(s.store, s.config.Annealing)

	if s.config.WatchData {
		if err := s.initWatcher(); err != nil {
			s.cleanup()
			return nil, fmt.Errorf("failed to initialize dataset watcher: %w", err)
		}
	}

	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until it stops. Cleanup is automatic
// on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting planner server",
		"port", s.config.Port,
		"data_dir", s.config.DataDir,
		"dataset_ready", s.engine.Ready())

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.GinMode == "" {
		cfg.GinMode = def.GinMode
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.OptimizeRPS == 0 {
		cfg.OptimizeRPS = def.OptimizeRPS
	}
	if cfg.OptimizeBurst == 0 {
		cfg.OptimizeBurst = def.OptimizeBurst
	}
	if cfg.OptimizeTimeout == 0 {
		cfg.OptimizeTimeout = def.OptimizeTimeout
	}
	if cfg.Annealing == (quantum.Config{}) {
		cfg.Annealing = def.Annealing
	}
	return cfg
}

// initTracer initializes OpenTelemetry tracing: OTLP over gRPC when a
// collector endpoint is configured, a stdout exporter otherwise.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	var exporter sdktrace.SpanExporter
	if s.config.OTelEndpoint != "" {
		conn, err := grpc.NewClient(s.config.OTelEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
	} else {
		var err error
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("planner-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := exporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initWatcher starts the debounced hot-reload watcher on the data directory.
func (s *service) initWatcher() error {
	w, err := dataset.NewWatcher(s.config.DataDir, s.reloadDataset, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		cancel()
		return err
	}

	s.watcher = w
	s.watchCancel = cancel
	slog.Info("Watching data directory for changes", "dir", s.config.DataDir)
	return nil
}

// reloadDataset is the watcher callback. A failed reload keeps the previous
// dataset serving.
func (s *service) reloadDataset(paths []string) {
	if err := s.store.Load(); err != nil {
		slog.Error("Dataset reload failed, keeping previous data",
			"changed", paths,
			"error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordReload(false)
		}
		return
	}

	slog.Info("Dataset reloaded",
		"changed", paths,
		"districts", len(s.store.Summaries()))
	if m := observability.DefaultMetrics; m != nil {
		m.RecordReload(true)
	}
}

// initRouter sets up the Gin HTTP router with middleware and all routes.
func (s *service) initRouter() {
	gin.SetMode(s.config.GinMode)

	s.router = gin.New()
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS(s.config.AllowedOrigins...))
	s.router.Use(otelgin.Middleware("planner-service"))

	routes.SetupRoutes(s.router, s.engine, routes.Options{
		OptimizeRPS:     s.config.OptimizeRPS,
		OptimizeBurst:   s.config.OptimizeBurst,
		OptimizeTimeout: s.config.OptimizeTimeout.Std(),
		EnableMetrics:   s.config.EnableMetrics,
	})
}

// cleanup releases the watcher and tracer. Called when Run exits or on
// initialization failure.
func (s *service) cleanup() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.watchCancel != nil {
		s.watchCancel()
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
