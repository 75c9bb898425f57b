// Copyright 2025 RepCRec Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package script reads command scripts and renders the engine's output.
// It is thin glue over the coordinator; all semantics live below it.
package script

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/repcrec/repcrec/kverr"
)

// CmdKind names a script command.
type CmdKind int

const (
	// CmdBegin starts a read-write transaction.
	CmdBegin CmdKind = iota
	// CmdBeginRO starts a read-only transaction.
	CmdBeginRO
	// CmdRead queues a read.
	CmdRead
	// CmdWrite queues a write.
	CmdWrite
	// CmdEnd commits or aborts a transaction.
	CmdEnd
	// CmdFail takes a site down.
	CmdFail
	// CmdRecover brings a site up.
	CmdRecover
	// CmdDump prints all site states.
	CmdDump
	// CmdQuit terminates the run.
	CmdQuit
)

// Command is one parsed script line.
type Command struct {
	Kind  CmdKind
	Txn   string
	Var   int
	Value int64
	Site  int
}

// ParseLine parses a single script line. ok is false for blank lines and
// comments. Unknown commands and malformed argument lists return
// kverr.ErrUnknownCommand; a variable argument not of the form xN returns
// kverr.ErrNoSuchVariable. Either error terminates the run.
func ParseLine(line string) (cmd Command, ok bool, err error) {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false, nil
	}
	if line == "quit" || strings.HasPrefix(line, "===") {
		return Command{Kind: CmdQuit}, true, nil
	}

	open := strings.Index(line, "(")
	if open < 0 || !strings.HasSuffix(line, ")") {
		return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
	}
	name := strings.TrimSpace(line[:open])
	args := splitArgs(line[open+1 : len(line)-1])

	switch name {
	case "begin", "beginRO":
		if len(args) != 1 || args[0] == "" {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		kind := CmdBegin
		if name == "beginRO" {
			kind = CmdBeginRO
		}
		return Command{Kind: kind, Txn: args[0]}, true, nil
	case "R":
		if len(args) != 2 {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		vid, verr := parseVar(args[1])
		if verr != nil {
			return Command{}, false, errors.Wrap(verr, line)
		}
		return Command{Kind: CmdRead, Txn: args[0], Var: vid}, true, nil
	case "W":
		if len(args) != 3 {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		vid, verr := parseVar(args[1])
		if verr != nil {
			return Command{}, false, errors.Wrap(verr, line)
		}
		val, verr2 := strconv.ParseInt(args[2], 10, 64)
		if verr2 != nil {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		return Command{Kind: CmdWrite, Txn: args[0], Var: vid, Value: val}, true, nil
	case "end":
		if len(args) != 1 || args[0] == "" {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		return Command{Kind: CmdEnd, Txn: args[0]}, true, nil
	case "fail", "recover":
		if len(args) != 1 {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		site, serr := strconv.Atoi(args[0])
		if serr != nil {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		kind := CmdFail
		if name == "recover" {
			kind = CmdRecover
		}
		return Command{Kind: kind, Site: site}, true, nil
	case "dump":
		if len(args) != 1 || args[0] != "" {
			return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
		}
		return Command{Kind: CmdDump}, true, nil
	default:
		return Command{}, false, errors.Wrap(kverr.ErrUnknownCommand, line)
	}
}

// splitArgs splits an argument list on commas, trimming the whitespace the
// script format allows inside parentheses.
func splitArgs(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseVar(s string) (int, error) {
	if !strings.HasPrefix(s, "x") {
		return 0, kverr.ErrNoSuchVariable
	}
	vid, err := strconv.Atoi(s[1:])
	if err != nil || vid < 1 {
		return 0, kverr.ErrNoSuchVariable
	}
	return vid, nil
}
