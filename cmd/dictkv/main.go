// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zyhnesmr/dictkv/internal/command"
	"github.com/zyhnesmr/dictkv/internal/command/commands"
	"github.com/zyhnesmr/dictkv/internal/config"
	"github.com/zyhnesmr/dictkv/internal/database"
	"github.com/zyhnesmr/dictkv/internal/datastruct/dict"
	"github.com/zyhnesmr/dictkv/internal/eviction"
	"github.com/zyhnesmr/dictkv/internal/expire"
	"github.com/zyhnesmr/dictkv/internal/net"
	scriptpkg "github.com/zyhnesmr/dictkv/internal/script"
	"github.com/zyhnesmr/dictkv/pkg/hashfn"
	"github.com/zyhnesmr/dictkv/pkg/log"
)

var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg := config.Instance()
	cfg.ParseFlags()
	log.SetLevelString(cfg.LogLevel)

	log.Info("dictkv %s starting...", Version)
	log.Info("PID: %d", os.Getpid())
	log.Info("Listening on %s", cfg.GetAddr())

	if seed, ok := cfg.HashSeed(); ok {
		dict.SetHashSeed(hashfn.Seed(seed))
		log.Info("Using configured dict hash seed")
	}
	dict.SetResizeEnabled(cfg.DictResizeEnabled)
	dict.SetForceResizeRatio(uint64(cfg.DictForceResizeRatio))

	evictionPolicy, err := eviction.PolicyFromString(cfg.MaxMemoryPolicy)
	if err != nil {
		log.Warn("Invalid eviction policy '%s', using noeviction: %v", cfg.MaxMemoryPolicy, err)
		evictionPolicy = eviction.PolicyNoEviction
	}

	var dbSelector *database.DBSelector
	if cfg.MaxMemory > 0 && evictionPolicy != eviction.PolicyNoEviction {
		dbSelector = database.NewDBSelectorWithEviction(cfg.Databases, evictionPolicy, cfg.MaxMemory)
		log.Info("Eviction: policy=%s maxmemory=%d", evictionPolicy.String(), cfg.MaxMemory)
	} else {
		dbSelector = database.NewDBSelector(cfg.Databases)
		if cfg.MaxMemory > 0 {
			log.Info("Max memory limit: %d bytes (noeviction)", cfg.MaxMemory)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := command.NewDispatcher(dbSelector)
	registerCommands(dispatcher)

	// Dispatcher.Run is the single owner of every database.DB reachable
	// from dbSelector; everything else, including the background tasks
	// started below, submits work to it instead of touching a DB directly.
	go dispatcher.Run(ctx)

	databases := make([]expire.ActiveExpireDB, dbSelector.Count())
	for i := 0; i < dbSelector.Count(); i++ {
		db, err := dbSelector.GetDB(i)
		if err != nil {
			log.Error("Failed to get DB %d: %v", i, err)
			continue
		}
		databases[i] = db
	}

	expireMgr := expire.NewManager()
	submitToOwner := func(fn func()) { _ = dispatcher.SubmitFunc(ctx, fn) }
	expireScheduler := expire.NewScheduler(expireMgr, databases, submitToOwner)
	expireScheduler.Start()
	log.Info("Expire scheduler started")

	evictionMgr := dbSelector.GetEvictionManager()
	if evictionMgr.IsEnabled() {
		go runEvictionChecker(ctx, dispatcher, dbSelector)
		log.Info("Eviction checker started")
	}

	srv := net.NewServer(cfg.Bind, cfg.Port, dispatcher)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("Received shutdown signal")
	case err := <-errChan:
		log.Error("Server error: %v", err)
	}

	cancel()
	expireScheduler.Stop()
	srv.Stop()
	log.Info("dictkv shutdown complete")
}

// runEvictionChecker periodically checks and performs eviction. Like
// expiration, the eviction pass itself runs on the dispatcher's owner
// loop via SubmitFunc.
func runEvictionChecker(ctx context.Context, disp *command.Dispatcher, dbSelector *database.DBSelector) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dbSelector.ShouldEvict() {
				_ = disp.SubmitFunc(ctx, func() {
					evicted, err := dbSelector.ProcessEviction(0)
					if err != nil {
						log.Error("Eviction failed: %v", err)
					} else if evicted > 0 {
						log.Debug("Evicted %d keys", evicted)
					}
				})
			}
		}
	}
}

func registerCommands(disp *command.Dispatcher) {
	scriptManager := scriptpkg.NewScriptManager()
	commands.SetScriptManager(scriptManager)

	commands.RegisterServerCommands(disp)
	commands.RegisterKeyCommands(disp)
	commands.RegisterStringCommands(disp)
	commands.RegisterHashCommands(disp)
	commands.RegisterListCommands(disp)
	commands.RegisterSetCommands(disp)
	commands.RegisterScriptCommands(disp)

	log.Info("Registered %d commands", len(disp.Commands()))
}
