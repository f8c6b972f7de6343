// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package services provides suture.Service wrappers for Timelines components.

Each wrapper translates a component lifecycle (ListenAndServe, Run/Close,
Connect/Close, Shutdown) into suture's context-aware Serve and identifies
itself through fmt.Stringer.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown

Pipeline (PipelineService):
  - Runs the eventprocessor.Router
  - Closes the router only after the source has stopped
  - Terminates the tree if the router exits on its own

Source (SourceService):
  - Holds the MQTT or NATS source connection
  - Reconnects after a supervisor restart

Embedded Broker (BrokerService):
  - Watches the in-process nats-server
  - Shuts it down after the source has disconnected

# Shutdown Ordering

Suture stops siblings concurrently. Services that must outlive another
declare it as a dependent and wait on its Stopper channel, bounded by their
shutdown timeout:

	source stops -> pipeline closes router
	source stops -> broker shuts down
*/
package services
