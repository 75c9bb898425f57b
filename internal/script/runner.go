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

package script

import (
	"bufio"
	"io"

	"go.uber.org/zap"

	"github.com/repcrec/repcrec/internal/logutil"
	"github.com/repcrec/repcrec/txnkv/transaction"
)

// Run feeds a command script to a fresh coordinator, writing the protocol
// output to w. Parse errors terminate the run; per-operation diagnostics
// (an unknown transaction id, a duplicate begin) are logged and skipped.
func Run(in io.Reader, w io.Writer) error {
	coord := transaction.NewCoordinator(NewReporter(w))
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		cmd, ok, err := ParseLine(sc.Text())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if cmd.Kind == CmdQuit {
			return nil
		}
		if err := dispatch(coord, cmd); err != nil {
			logutil.BgLogger().Warn("operation ignored",
				zap.String("line", sc.Text()), zap.Error(err))
		}
	}
	return sc.Err()
}

func dispatch(coord *transaction.Coordinator, cmd Command) error {
	switch cmd.Kind {
	case CmdBegin:
		return coord.Begin(cmd.Txn)
	case CmdBeginRO:
		return coord.BeginRO(cmd.Txn)
	case CmdRead:
		return coord.Read(cmd.Txn, cmd.Var)
	case CmdWrite:
		return coord.Write(cmd.Txn, cmd.Var, cmd.Value)
	case CmdEnd:
		return coord.End(cmd.Txn)
	case CmdFail:
		return coord.Fail(cmd.Site)
	case CmdRecover:
		return coord.Recover(cmd.Site)
	default:
		coord.Dump()
		return nil
	}
}
