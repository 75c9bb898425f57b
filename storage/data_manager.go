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

// Package storage implements the per-site data manager: the multiversion
// store, lock tables, failure and recovery state, and the site-local
// wait-for graph.
package storage

import (
	"github.com/dgryski/go-farm"
	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/repcrec/repcrec/config"
	"github.com/repcrec/repcrec/internal/deadlock"
	"github.com/repcrec/repcrec/internal/logutil"
	"github.com/repcrec/repcrec/metrics"
	"github.com/repcrec/repcrec/txnkv/txnlock"
)

// ReadOutcome classifies the result of a read-write read attempt.
type ReadOutcome int

const (
	// ReadValue means the read was served.
	ReadValue ReadOutcome = iota
	// ReadBlocked means the transaction was enqueued behind a lock.
	ReadBlocked
	// ReadNotPresent means this copy cannot serve the read (site does not
	// host the variable, or the copy is dark after recovery).
	ReadNotPresent
)

// ReadResult is the outcome of a read-write read at one site.
type ReadResult struct {
	Outcome ReadOutcome
	Value   int64
}

// DumpEntry is one variable's newest committed value, for dump output.
type DumpEntry struct {
	VarID int
	Value int64
}

// DataManager owns every variable copy and lock table at one site.
type DataManager struct {
	siteID int
	up     bool

	vars  *btree.BTreeG[*Variable]
	locks map[int]*txnlock.LockManager

	failHistory    []uint64
	recoverHistory []uint64
}

// NewDataManager returns an up site populated with its share of the
// variables at their initial values.
func NewDataManager(siteID int) *DataManager {
	dm := &DataManager{
		siteID: siteID,
		up:     true,
		vars:   btree.NewG(8, func(a, b *Variable) bool { return a.ID < b.ID }),
		locks:  make(map[int]*txnlock.LockManager),
	}
	for vid := 1; vid <= config.NumVariables; vid++ {
		if config.HostedAt(vid, siteID) {
			dm.vars.ReplaceOrInsert(newVariable(vid))
			dm.locks[vid] = txnlock.NewLockManager()
		}
	}
	return dm
}

// SiteID returns the owning site's id.
func (dm *DataManager) SiteID() int {
	return dm.siteID
}

// IsUp reports whether the site is currently up.
func (dm *DataManager) IsUp() bool {
	return dm.up
}

func (dm *DataManager) variable(vid int) (*Variable, bool) {
	return dm.vars.Get(&Variable{ID: vid})
}

// SnapshotRead serves a read-only transaction against the snapshot at ts.
// A replicated copy misses when the version found would span a failure of
// this site: any recorded failure f with version.CommitTS < f <= ts.
func (dm *DataManager) SnapshotRead(vid int, ts uint64) (int64, bool) {
	v, ok := dm.variable(vid)
	if !ok || !v.readable {
		metrics.SnapshotMissCounter.Inc()
		return 0, false
	}
	ver, ok := v.versionAt(ts)
	if !ok {
		metrics.SnapshotMissCounter.Inc()
		return 0, false
	}
	if config.IsReplicated(vid) {
		for _, f := range dm.failHistory {
			if ver.CommitTS < f && f <= ts {
				metrics.SnapshotMissCounter.Inc()
				return 0, false
			}
		}
	}
	return ver.Value, true
}

// Read attempts a read-write read of vid for txn. A transaction already
// holding the exclusive lock sees its own staged value.
func (dm *DataManager) Read(txn string, vid int) ReadResult {
	v, ok := dm.variable(vid)
	if !ok || !v.readable {
		return ReadResult{Outcome: ReadNotPresent}
	}
	lm := dm.locks[vid]
	ownsWrite := lm.WriteHeldBy(txn)
	if !lm.TryRead(txn) {
		return ReadResult{Outcome: ReadBlocked}
	}
	if ownsWrite && v.temp != nil && v.temp.txn == txn {
		return ReadResult{Outcome: ReadValue, Value: v.temp.value}
	}
	return ReadResult{Outcome: ReadValue, Value: v.Latest().Value}
}

// ProbeWrite attempts to take the exclusive lock on vid for txn without
// staging a value. The coordinator stages only once every up host grants.
func (dm *DataManager) ProbeWrite(txn string, vid int) bool {
	if _, ok := dm.variable(vid); !ok {
		return false
	}
	return dm.locks[vid].TryWrite(txn)
}

// ApplyWrite stages value for txn. The exclusive lock on vid must already
// be held by txn via ProbeWrite.
func (dm *DataManager) ApplyWrite(txn string, vid int, value int64) {
	v, ok := dm.variable(vid)
	if !ok {
		return
	}
	v.temp = &tempWrite{value: value, txn: txn}
}

// Commit installs every value staged by txn at commitTS, releases the
// transaction's locks and queue entries, and hands freed locks onward.
func (dm *DataManager) Commit(txn string, commitTS uint64) {
	dm.vars.Ascend(func(v *Variable) bool {
		if v.temp != nil && v.temp.txn == txn {
			v.install(v.temp.value, commitTS)
			v.temp = nil
			logutil.BgLogger().Debug("version installed",
				zap.Int("site", dm.siteID),
				zap.Int("var", v.ID),
				zap.Uint64("commitTS", commitTS))
		}
		return true
	})
	dm.releaseAll(txn)
}

// Abort discards txn's staged writes and releases its locks and queue
// entries.
func (dm *DataManager) Abort(txn string) {
	dm.vars.Ascend(func(v *Variable) bool {
		if v.temp != nil && v.temp.txn == txn {
			v.temp = nil
		}
		return true
	})
	dm.releaseAll(txn)
}

func (dm *DataManager) releaseAll(txn string) {
	for _, lm := range dm.locks {
		lm.ReleaseBy(txn)
		lm.DequeueNext()
	}
}

// Fail takes the site down at ts: the whole lock table is cleared and all
// staged writes are discarded. Committed versions survive.
func (dm *DataManager) Fail(ts uint64) {
	dm.up = false
	dm.failHistory = append(dm.failHistory, ts)
	for _, lm := range dm.locks {
		lm.Clear()
	}
	dm.vars.Ascend(func(v *Variable) bool {
		v.temp = nil
		return true
	})
	logutil.BgLogger().Info("site failed",
		zap.Int("site", dm.siteID), zap.Uint64("ts", ts))
}

// Recover brings the site back up at ts. Replicated copies stay dark until
// their next committed write; the sole copy of a non-replicated variable
// remains readable.
func (dm *DataManager) Recover(ts uint64) {
	dm.up = true
	dm.recoverHistory = append(dm.recoverHistory, ts)
	dm.vars.Ascend(func(v *Variable) bool {
		if config.IsReplicated(v.ID) {
			v.readable = false
		}
		return true
	})
	logutil.BgLogger().Info("site recovered",
		zap.Int("site", dm.siteID), zap.Uint64("ts", ts))
}

// LocalWaitGraph builds this site's wait-for edges: every queued waiter
// waits for each incompatible holder, and for each incompatible waiter
// queued ahead of it.
func (dm *DataManager) LocalWaitGraph() *deadlock.WaitGraph {
	g := deadlock.NewWaitGraph()
	dm.vars.Ascend(func(v *Variable) bool {
		lm := dm.locks[v.ID]
		hash := farm.Fingerprint64([]byte(config.VarName(v.ID)))
		waiters := lm.Waiters()
		mode, holders, held := lm.Holders()
		for _, w := range waiters {
			if held && (w.Mode == txnlock.LockWrite || mode == txnlock.LockWrite) {
				for _, h := range holders {
					g.AddEdge(w.Txn, h, hash)
				}
			}
		}
		for i := 0; i < len(waiters); i++ {
			for j := i + 1; j < len(waiters); j++ {
				if waiters[i].Mode == txnlock.LockWrite || waiters[j].Mode == txnlock.LockWrite {
					g.AddEdge(waiters[j].Txn, waiters[i].Txn, hash)
				}
			}
		}
		return true
	})
	return g
}

// DumpEntries returns the newest committed value of every variable at this
// site, in variable order.
func (dm *DataManager) DumpEntries() []DumpEntry {
	out := make([]DumpEntry, 0, dm.vars.Len())
	dm.vars.Ascend(func(v *Variable) bool {
		out = append(out, DumpEntry{VarID: v.ID, Value: v.Latest().Value})
		return true
	})
	return out
}
