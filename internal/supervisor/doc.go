// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package supervisor provides process supervision for Timelines using suture v4.

# Overview

Services are organized into two layers for failure isolation:

	RootSupervisor ("timelines")
	├── IngestSupervisor ("ingest-layer")
	│   ├── BrokerService (if EMBEDDED_BROKER_ENABLED)
	│   ├── PipelineService
	│   └── SourceService (mqtt or nats, added once connected)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if HTTP_ENABLED)

The HTTP server keeps serving /metrics and readiness while ingest services
restart, and an HTTP failure never touches ingest.

# Key Features

Automatic Restart:
  - Crashed services are restarted with backoff
  - Configurable failure thresholds and decay rates

Graceful Shutdown:
  - Context cancellation triggers shutdown
  - ShutdownTimeout bounds each service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Supervisor events go through sutureslog to an slog.Logger backed by
    the zerolog logger (logging.NewSlogLogger)

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIngestService(services.NewPipelineService(router, 10*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

See package services for the wrappers.
*/
package supervisor
