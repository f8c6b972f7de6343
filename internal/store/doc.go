// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

/*
Package store persists observation points.

A Writer is a synchronous backend. Two are provided:

  - InfluxWriter: InfluxDB 1.x over the HTTP write API
  - DuckDBWriter: an embedded DuckDB file with one observations table

BreakerWriter decorates either one with a gobreaker circuit breaker, and
AsyncStore turns the result into the fire-and-forget sink used by the router:

	influx, err := store.NewInfluxWriter(store.InfluxConfig{Host: "localhost", Database: "influx_db"})
	guarded, err := store.NewBreakerWriter(influx, store.DefaultBreakerConfig("influxdb"))
	async, err := store.NewAsyncStore(guarded, store.NewFailureLogger("influxdb"))

	async.Submit(points) // returns immediately
	defer async.Close(ctx)

Failed writes are never retried. They are handed to the FailureFunc, which
by default logs them as warnings together with the lost points.
*/
package store
