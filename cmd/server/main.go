// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/timelines/internal/api"
	"github.com/tomtom215/timelines/internal/config"
	"github.com/tomtom215/timelines/internal/eventprocessor"
	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/metrics"
	"github.com/tomtom215/timelines/internal/store"
	"github.com/tomtom215/timelines/internal/supervisor"
	"github.com/tomtom215/timelines/internal/supervisor/services"
	"github.com/tomtom215/timelines/internal/timeline"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	// serviceShutdownTimeout bounds each ingest service's wait for the
	// services it must outlive, and the HTTP server's graceful shutdown.
	serviceShutdownTimeout = 10 * time.Second

	// treeShutdownTimeout must exceed serviceShutdownTimeout so ordered
	// shutdowns finish before suture gives up on a service.
	treeShutdownTimeout = 30 * time.Second
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("source", cfg.Source).
		Str("backend", cfg.Store.Backend).
		Strs("topics", cfg.MQTT.Topics).
		Msg("Starting Timelines")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === INGEST COMPONENTS ===

	brokerSrv, err := initBroker(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to start embedded broker")
	}

	sink, err := initStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize store")
	}
	logging.Info().
		Str("backend", cfg.Store.Backend).
		Bool("breaker", cfg.Store.Breaker.Enabled).
		Msg("Store initialized")

	states := timeline.NewStateTracker()
	aliases := timeline.NewAliasRegistry()
	msgRouter := timeline.NewMessageRouter(states, aliases, sink,
		timeline.WithConventions(conventions(cfg)),
		timeline.WithMeasurement(cfg.Store.Measurement),
	)

	router, err := eventprocessor.NewRouter(&eventprocessor.RouterConfig{
		CloseTimeout:      cfg.Pipeline.CloseTimeout,
		ThrottlePerSecond: cfg.Pipeline.ThrottlePerSecond,
	}, logging.NewWatermillLogger(logging.WithComponent("pipeline")))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create pipeline router")
	}

	handler, err := eventprocessor.NewObservationHandler(msgRouter, states, aliases)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create observation handler")
	}
	router.AddConsumerHandler("observations", handler.Handle)

	source, err := newSource(cfg, router.Publisher(), eventprocessor.ObservationsTopic)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create source")
	}

	// === HEALTH ===

	checker := eventprocessor.NewHealthChecker(eventprocessor.DefaultHealthConfig())
	checker.RegisterComponent("pipeline", router)
	checker.RegisterComponent("observations", handler)

	storeHealth, err := eventprocessor.NewStoreHealth(sink, cfg.Store.Backend)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create store health check")
	}
	checker.RegisterComponent("store", storeHealth)

	sourceHealth, err := eventprocessor.NewSourceHealth(source)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create source health check")
	}
	checker.RegisterComponent("source", sourceHealth)

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: treeShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// The source stops first; the pipeline and the broker wait for it.
	sourceSvc := services.NewSourceService(source)
	tree.AddIngestService(services.NewPipelineService(router, serviceShutdownTimeout, sourceSvc))
	if brokerSrv != nil {
		tree.AddIngestService(services.NewBrokerService(brokerSrv, serviceShutdownTimeout, sourceSvc))
	}

	if cfg.Server.Enabled {
		chiRouter := api.NewRouter(api.NewHandler(checker, version), api.RouterConfig{
			RateLimit: cfg.Server.RateLimit,
		})
		server := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           chiRouter.SetupChi(),
			ReadHeaderTimeout: cfg.Server.Timeout,
			ReadTimeout:       cfg.Server.Timeout,
			WriteTimeout:      cfg.Server.Timeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, serviceShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	// === START ===

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The pipeline must be consuming before the source delivers retained
	// messages, or the first publishes would block on a missing subscriber.
	select {
	case <-router.Running():
	case err := <-errCh:
		if ctx.Err() != nil {
			logging.Info().Msg("Shutdown requested during startup")
			closeStore(sink, cfg.Store.DrainTimeout)
			return
		}
		logging.Fatal().Err(err).Msg("Supervisor tree stopped during startup")
	}

	switch err := source.Connect(ctx); {
	case err == nil:
		tree.AddIngestService(sourceSvc)
		logging.Info().Str("source", source.Name()).Msg("Source connected")
	case ctx.Err() != nil:
		sourceSvc.Release()
		logging.Info().Msg("Shutdown requested before source connected")
	default:
		logging.Fatal().Err(err).Str("source", source.Name()).Msg("Failed to connect source")
	}

	// === SHUTDOWN ===

	exitCode := 0
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		if ctx.Err() == nil {
			logging.Error().Err(err).Msg("Supervisor tree terminated")
			exitCode = 1
		} else {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	closeStore(sink, cfg.Store.DrainTimeout)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	logging.Info().Msg("Timelines stopped gracefully")
}

// closeStore waits up to timeout for in-flight writes, then closes the backend.
func closeStore(sink *store.AsyncStore, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sink.Close(ctx); err != nil {
		logging.Warn().Err(err).Int64("in_flight", sink.InFlight()).Msg("Store closed before all writes finished")
		return
	}
	logging.Info().Msg("Store drained")
}
