// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/goccy/go-json"

	"github.com/tomtom215/timelines/internal/logging"
	"github.com/tomtom215/timelines/internal/metrics"
)

const duckdbBackend = "duckdb"

const createObservationsTable = `
CREATE TABLE IF NOT EXISTS observations (
	time        TIMESTAMP NOT NULL,
	measurement VARCHAR   NOT NULL,
	tags        VARCHAR   NOT NULL,
	fields      VARCHAR   NOT NULL
)`

const insertObservation = `INSERT INTO observations (time, measurement, tags, fields) VALUES (?, ?, ?, ?)`

// DuckDBWriter archives points into an embedded DuckDB file. Tags and fields
// are stored as JSON text so any point shape fits one table:
//
//	SELECT time, json_extract_string(tags, '$.alias'), fields
//	FROM observations WHERE json_extract_string(tags, '$.topic') = 'sweet-home/x';
type DuckDBWriter struct {
	db *sql.DB
}

// NewDuckDBWriter opens (or creates) the database at path and ensures the
// observations table exists. Use ":memory:" for a throwaway database.
func NewDuckDBWriter(ctx context.Context, path string) (*DuckDBWriter, error) {
	// Extensions are never needed; disabling autoload avoids network access.
	dsn := path + "?autoinstall_known_extensions=false&autoload_known_extensions=false"

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createObservationsTable); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to create observations table: %w", err)
	}

	return &DuckDBWriter{db: db}, nil
}

// WritePoints inserts points in a single transaction.
func (w *DuckDBWriter) WritePoints(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	start := time.Now()
	err := w.insert(ctx, points)
	metrics.RecordStoreWrite(duckdbBackend, len(points), time.Since(start), err)
	return err
}

func (w *DuckDBWriter) insert(ctx context.Context, points []Point) (err error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Debug().Err(rbErr).Msg("DuckDB rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertObservation)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, p := range points {
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		fields, err := json.Marshal(p.Fields)
		if err != nil {
			return fmt.Errorf("encode fields: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, p.Time.UTC(), p.Measurement, string(tags), string(fields)); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (w *DuckDBWriter) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// Close closes the database.
func (w *DuckDBWriter) Close() error {
	return w.db.Close()
}

type closer interface {
	Close() error
}

func closeQuietly(c closer) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("close failed")
	}
}
