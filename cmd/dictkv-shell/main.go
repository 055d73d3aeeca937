// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dictkv-shell is an interactive REPL over a single in-process
// dict.Dict/list.List pair, independent of the RESP/network stack. It
// lets a developer drive and observe the rehash and scan machinery
// directly instead of through a client connection.
package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kr/pretty"

	"github.com/zyhnesmr/dictkv/internal/datastruct/dict"
	"github.com/zyhnesmr/dictkv/internal/datastruct/list"
	"github.com/zyhnesmr/dictkv/pkg/hashfn"
)

func keyType() *dict.TypeDescriptor {
	return &dict.TypeDescriptor{
		Hash:   func(key any) uint64 { return hashfn.Sum64([]byte(key.(string)), dict.HashSeed()) },
		CmpKey: func(priv any, a, b any) bool { return a.(string) == b.(string) },
	}
}

type shell struct {
	d    *dict.Dict
	l    *list.List
	rl   *readline.Instance
	quit bool
}

func newShell() (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dictkv> ",
		HistoryFile:     "/tmp/dictkv-shell.history",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	return &shell{
		d:  dict.New(keyType(), nil),
		l:  list.New(),
		rl: rl,
	}, nil
}

func (s *shell) Close() {
	s.rl.Close()
}

func main() {
	sh, err := newShell()
	if err != nil {
		fmt.Println("failed to start shell:", err)
		return
	}
	defer sh.Close()

	fmt.Println("dictkv-shell — in-process dict.Dict + list.List driver")
	fmt.Println("type 'help' for commands, 'quit' to exit")

	for !sh.quit {
		line, err := sh.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Println("error:", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		sh.dispatch(fields[0], fields[1:])
	}
}

func (s *shell) dispatch(cmd string, args []string) {
	switch strings.ToLower(cmd) {
	case "help":
		s.help()
	case "set":
		s.cmdSet(args)
	case "get":
		s.cmdGet(args)
	case "del":
		s.cmdDel(args)
	case "exists":
		s.cmdExists(args)
	case "rehashstep":
		s.cmdRehashStep(args)
	case "rehashms":
		s.cmdRehashMilliseconds(args)
	case "scan":
		s.cmdScan(args)
	case "lpush":
		s.cmdLPush(args)
	case "rpush":
		s.cmdRPush(args)
	case "lrange":
		s.cmdLRange()
	case "dump":
		s.cmdDump()
	case "quit", "exit":
		s.quit = true
	default:
		fmt.Printf("unknown command %q — type 'help'\n", cmd)
	}
}

func (s *shell) help() {
	fmt.Println(`commands:
  set <key> <value>     add or replace a dict entry
  get <key>             look up a dict entry
  del <key>             remove a dict entry
  exists <key>          test membership
  rehashstep [n]        run up to n (default 1) incremental rehash steps
  rehashms <ms>         drive rehashing for roughly <ms> milliseconds
  scan <cursor>         one dict.Dict.Scan step, prints next cursor + keys visited
  lpush <value>         prepend to the list
  rpush <value>         append to the list
  lrange                print the whole list front to back
  dump                  pretty-print the dict's internal table layout
  quit                  exit`)
}

func (s *shell) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: set <key> <value>")
		return
	}
	s.d.Replace(args[0], args[1])
	fmt.Println("OK")
}

func (s *shell) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <key>")
		return
	}
	v, ok := s.d.Find(args[0])
	if !ok {
		fmt.Println("(nil)")
		return
	}
	fmt.Println(v)
}

func (s *shell) cmdDel(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: del <key>")
		return
	}
	fmt.Println(boolToInt(s.d.Delete(args[0])))
}

func (s *shell) cmdExists(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: exists <key>")
		return
	}
	fmt.Println(boolToInt(s.d.Exists(args[0])))
}

func (s *shell) cmdRehashStep(args []string) {
	n := 1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Println("usage: rehashstep [n]")
			return
		}
		n = v
	}
	more := s.d.RehashStep(n)
	fmt.Printf("rehashing=%v moreWorkRemaining=%v\n", s.d.IsRehashing(), more)
}

func (s *shell) cmdRehashMilliseconds(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: rehashms <ms>")
		return
	}
	ms, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("usage: rehashms <ms>")
		return
	}
	s.d.RehashMilliseconds(ms)
	fmt.Printf("rehashing=%v\n", s.d.IsRehashing())
}

func (s *shell) cmdScan(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: scan <cursor>")
		return
	}
	cursor, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Println("cursor must be a non-negative integer")
		return
	}
	var visited []string
	next := s.d.Scan(cursor, nil, func(priv any, e *dict.Entry) {
		visited = append(visited, fmt.Sprintf("%v=%v", e.Key(), e.Value()))
	})
	fmt.Printf("next cursor: %d\n", next)
	for _, entry := range visited {
		fmt.Println(" ", entry)
	}
}

func (s *shell) cmdLPush(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: lpush <value>")
		return
	}
	s.l.Prepend(args[0])
	fmt.Println("OK")
}

func (s *shell) cmdRPush(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: rpush <value>")
		return
	}
	s.l.Append(args[0])
	fmt.Println("OK")
}

func (s *shell) cmdLRange() {
	it := s.l.NewIterator(list.HeadToTail)
	for n := it.Next(); n != nil; n = it.Next() {
		fmt.Println(" ", n.Value)
	}
}

func (s *shell) cmdDump() {
	pretty.Println(s.d.Dump())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
