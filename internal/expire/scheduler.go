// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expire

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zyhnesmr/dictkv/pkg/log"
)

// Scheduler periodically drives Manager.ActiveExpire in the background.
// Its ticker goroutine never touches a database directly: each cycle is
// handed to submit, so the host can route it onto whatever goroutine
// owns the databases (see command.Dispatcher.SubmitFunc).
type Scheduler struct {
	mgr       *Manager
	databases []ActiveExpireDB
	submit    func(func())

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	config Config
}

// Config holds scheduler configuration.
type Config struct {
	// Interval is how often an active expiration cycle runs.
	Interval time.Duration

	// Effort is the ScanExpire budget passed to each database per cycle.
	Effort int
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 100 * time.Millisecond,
		Effort:   20,
	}
}

// NewScheduler creates a new expire scheduler over the given databases.
// submit runs fn on whichever goroutine owns the databases, blocking
// until fn returns; pass a trivial `func(fn func()) { fn() }` if no such
// ownership discipline applies.
func NewScheduler(mgr *Manager, databases []ActiveExpireDB, submit func(func())) *Scheduler {
	return &Scheduler{
		mgr:       mgr,
		databases: databases,
		submit:    submit,
		config:    DefaultConfig(),
	}
}

// SetConfig sets the scheduler configuration.
func (s *Scheduler) SetConfig(config Config) {
	s.config = config
}

// Start starts the scheduler's background ticker goroutine.
func (s *Scheduler) Start() {
	if s.running.Load() {
		log.Warn("Expire scheduler already running")
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running.Store(true)

	log.Info("Starting expire scheduler")

	s.wg.Add(1)
	go s.loop()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	if !s.running.Load() {
		return
	}

	log.Info("Stopping expire scheduler")

	s.cancel()
	s.wg.Wait()

	s.running.Store(false)
	s.mgr.Stop()

	log.Info("Expire scheduler stopped")
}

// Running returns whether the scheduler is running.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.submit(func() {
				s.mgr.ActiveExpire(s.databases, s.config.Effort)
			})
		}
	}
}

// Stats returns scheduler statistics.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Running: s.Running(),
		Manager: s.mgr.Stats(),
	}
}

// SchedulerStats holds scheduler statistics.
type SchedulerStats struct {
	Running bool
	Manager ExpireStats
}
