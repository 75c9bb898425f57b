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

// Package transaction implements the global coordinator: the transaction
// registry, the pending operation queue, dispatch across sites, and
// commit/abort orchestration.
package transaction

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/repcrec/repcrec/storage"
)

// Kind distinguishes read-write transactions from read-only ones.
type Kind int

const (
	// ReadWrite transactions take locks and stage writes.
	ReadWrite Kind = iota
	// ReadOnly transactions read the snapshot at their start timestamp.
	ReadOnly
)

// AbortReason states why a transaction was aborted.
type AbortReason int

const (
	// AbortDeadlock marks a deadlock victim.
	AbortDeadlock AbortReason = iota
	// AbortSiteFailure marks a transaction that touched a site which
	// later failed.
	AbortSiteFailure
)

// String implements fmt.Stringer.
func (r AbortReason) String() string {
	if r == AbortSiteFailure {
		return "site failure"
	}
	return "deadlock"
}

// Transaction is one registered transaction.
type Transaction struct {
	ID      string
	StartTS uint64
	Kind    Kind

	// willAbort is set when a visited site fails; realized at End.
	willAbort bool
	// visited holds the sites this transaction has read from or written
	// to, for failure-driven aborts.
	visited mapset.Set[int]
}

func newTransaction(id string, startTS uint64, kind Kind) *Transaction {
	return &Transaction{
		ID:      id,
		StartTS: startTS,
		Kind:    kind,
		visited: mapset.NewThreadUnsafeSet[int](),
	}
}

type opKind int

const (
	opRead opKind = iota
	opWrite
)

// operation is one queued read or write.
type operation struct {
	kind  opKind
	txn   string
	vid   int
	value int64

	// waitReported suppresses repeated waiting diagnostics for an
	// operation that stays blocked across drain passes.
	waitReported bool
}

// Events receives the externally visible outcomes of coordinator commands.
// The script reporter renders them; tests capture them.
type Events interface {
	TxnBegan(id string, readOnly bool)
	TxnRead(id, varName string, value int64)
	TxnWaiting(id, varName string)
	TxnCommitted(id string)
	TxnAborted(id string, reason AbortReason)
	SiteFailed(site int)
	SiteRecovered(site int)
	DumpSite(site int, up bool, entries []storage.DumpEntry)
}

// NopEvents discards every event.
type NopEvents struct{}

// TxnBegan implements the Events interface.
func (NopEvents) TxnBegan(string, bool) {}

// TxnRead implements the Events interface.
func (NopEvents) TxnRead(string, string, int64) {}

// TxnWaiting implements the Events interface.
func (NopEvents) TxnWaiting(string, string) {}

// TxnCommitted implements the Events interface.
func (NopEvents) TxnCommitted(string) {}

// TxnAborted implements the Events interface.
func (NopEvents) TxnAborted(string, AbortReason) {}

// SiteFailed implements the Events interface.
func (NopEvents) SiteFailed(int) {}

// SiteRecovered implements the Events interface.
func (NopEvents) SiteRecovered(int) {}

// DumpSite implements the Events interface.
func (NopEvents) DumpSite(int, bool, []storage.DumpEntry) {}
