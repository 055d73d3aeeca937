// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/zyhnesmr/dictkv/internal/database"
	"github.com/zyhnesmr/dictkv/internal/net"
	"github.com/zyhnesmr/dictkv/internal/protocol/resp"
)

// dispatchJob is one unit of work submitted to the dispatcher's owner
// loop: either a RESP command (conn/cmdName/args set) or an arbitrary
// maintenance closure (fn set), used by background tasks like active
// expiration and eviction that must not touch database.DB concurrently
// with command execution.
type dispatchJob struct {
	conn    *net.Conn
	cmdName string
	args    []string
	reply   chan []byte

	fn   func()
	done chan struct{}
}

// Dispatcher routes commands to their handlers. Per spec §5's
// single-owner concurrency model (SPEC_FULL.md §13), every database.DB
// reachable from d.db — and therefore every dict.Dict/list.List inside
// it — is touched only from the single loop() goroutine Run starts.
// Per-connection goroutines never call command handlers directly; they
// submit a dispatchJob and block on its reply channel.
type Dispatcher struct {
	commands map[string]*Command
	db       *database.DBSelector
	jobs     chan *dispatchJob
}

// NewDispatcher creates a new command dispatcher. Register all commands
// before calling Run.
func NewDispatcher(db *database.DBSelector) *Dispatcher {
	return &Dispatcher{
		commands: make(map[string]*Command),
		db:       db,
		jobs:     make(chan *dispatchJob, 256),
	}
}

// Register registers a new command. Call only before Run; the commands
// map is read-only once the owner loop starts.
func (d *Dispatcher) Register(cmd *Command) {
	d.commands[strings.ToLower(cmd.Name)] = cmd
}

// Get returns a command by name.
func (d *Dispatcher) Get(name string) (*Command, bool) {
	cmd, ok := d.commands[strings.ToLower(name)]
	return cmd, ok
}

// Run starts the dispatcher's owner loop, which serially executes every
// submitted job until ctx is cancelled. Run must be started exactly once,
// after all commands are registered.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			if job.fn != nil {
				job.fn()
				close(job.done)
				continue
			}
			job.reply <- d.execute(job.conn, job.cmdName, job.args)
		}
	}
}

// SubmitFunc runs fn on the owner loop, blocking until it completes or ctx
// is cancelled. Background maintenance (active expiration, eviction)
// uses this instead of calling database.DB methods from its own
// goroutine, preserving the single-owner discipline.
func (d *Dispatcher) SubmitFunc(ctx context.Context, fn func()) error {
	job := &dispatchJob{fn: fn, done: make(chan struct{})}

	select {
	case d.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-job.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch submits a command for execution by the owner loop and blocks
// until the reply is ready or ctx is cancelled. Safe to call concurrently
// from any number of per-connection goroutines.
func (d *Dispatcher) Dispatch(ctx context.Context, conn *net.Conn, cmdName string, args []string) ([]byte, error) {
	job := &dispatchJob{conn: conn, cmdName: cmdName, args: args, reply: make(chan []byte, 1)}

	select {
	case d.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case reply := <-job.reply:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute runs a single command. Called only from the owner loop.
func (d *Dispatcher) execute(conn *net.Conn, cmdName string, args []string) []byte {
	cmd, ok := d.Get(cmdName)
	if !ok {
		return resp.BuildErrorString(fmt.Sprintf("ERR unknown command '%s'", cmdName))
	}

	if err := cmd.CheckArity(len(args)); err != nil {
		return resp.BuildErrorString(err.Error())
	}

	db, err := d.db.GetDB(conn.GetDB())
	if err != nil {
		return resp.BuildErrorString("ERR invalid DB index")
	}

	cmdCtx := &Context{
		DB:      db,
		Conn:    conn,
		CmdName: cmd.Name,
		Args:    args,
	}

	reply, err := cmd.Handler(cmdCtx)
	if err != nil {
		return resp.BuildErrorString(err.Error())
	}

	return reply.Marshal()
}

// ProcessCommand implements net.CommandProcessor, letting the dispatcher
// serve as the host's single command entry point.
func (d *Dispatcher) ProcessCommand(ctx context.Context, conn *net.Conn, cmdName string, args []string) ([]byte, error) {
	return d.Dispatch(ctx, conn, cmdName, args)
}

// Commands returns all registered commands.
func (d *Dispatcher) Commands() map[string]*Command {
	result := make(map[string]*Command, len(d.commands))
	for k, v := range d.commands {
		result[k] = v
	}
	return result
}

// GetDB returns the database selector.
func (d *Dispatcher) GetDB() *database.DBSelector {
	return d.db
}
