// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log is dictkv's host-side logger: a package-level, level-filtered
// writer to stdout. The dict/list core never logs — spec §6 limits its
// environment interaction to the monotonic clock RehashMilliseconds reads —
// so every call site lives in the host (cmd/dictkv, internal/net,
// internal/expire) reporting on connections, scheduler lifecycle, and
// eviction/expiration sweeps.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Level represents the log level.
type Level int

const (
	LevelDebug Level = iota
	LevelNotice
	LevelWarning
	LevelError
)

var (
	level  Level = LevelNotice
	output *log.Logger
	mu     sync.RWMutex
	pid    int
)

func init() {
	output = log.New(os.Stdout, "", 0)
	pid = os.Getpid()
}

// SetLevelString sets the log level from a config string (dictkv.conf's
// log-level directive), defaulting to notice for any value it doesn't
// recognize.
func SetLevelString(s string) {
	mu.Lock()
	defer mu.Unlock()

	switch s {
	case "debug":
		level = LevelDebug
	case "notice":
		level = LevelNotice
	case "warning":
		level = LevelWarning
	case "error":
		level = LevelError
	default:
		level = LevelNotice
	}
}

// Debug logs a debug message: rehash/scan-cycle tracing and other detail
// only worth keeping during development.
func Debug(format string, args ...interface{}) {
	mu.RLock()
	l := level
	mu.RUnlock()

	if l <= LevelDebug {
		logMsg("DEBUG", format, args...)
	}
}

// Info logs a notice-level message: startup, shutdown, and scheduler
// lifecycle events.
func Info(format string, args ...interface{}) {
	mu.RLock()
	l := level
	mu.RUnlock()

	if l <= LevelNotice {
		logMsg("NOTICE", format, args...)
	}
}

// Warning logs a warning message.
func Warning(format string, args ...interface{}) {
	mu.RLock()
	l := level
	mu.RUnlock()

	if l <= LevelWarning {
		logMsg("WARNING", format, args...)
	}
}

// Warn is an alias for Warning.
func Warn(format string, args ...interface{}) {
	Warning(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	mu.RLock()
	l := level
	mu.RUnlock()

	if l <= LevelError {
		logMsg("ERROR", format, args...)
	}
}

func logMsg(levelStr, format string, args ...interface{}) {
	now := time.Now()
	timestamp := now.Format("2006-01-02 15:04:05.000")

	msg := fmt.Sprintf(format, args...)
	output.Printf("%s [%d] %s %s\n", timestamp, pid, levelStr, msg)
}
