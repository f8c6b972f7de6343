// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package services

import (
	"sync"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// Stopper is implemented by services other services can wait on during
// shutdown. Stopped is closed once the service has released its resources
// for the last time.
type Stopper interface {
	Stopped() <-chan struct{}
}

// stopSignal is a once-closable channel backing Stopper.
type stopSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newStopSignal() *stopSignal {
	return &stopSignal{ch: make(chan struct{})}
}

func (s *stopSignal) close() {
	s.once.Do(func() { close(s.ch) })
}

// awaitStopped blocks until every dependent has stopped or timeout passes.
// Returns false on timeout.
func awaitStopped(timeout time.Duration, dependents []Stopper) bool {
	if len(dependents) == 0 {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, dep := range dependents {
		select {
		case <-dep.Stopped():
		case <-timer.C:
			return false
		}
	}
	return true
}
