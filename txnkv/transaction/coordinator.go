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

package transaction

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/repcrec/repcrec/config"
	"github.com/repcrec/repcrec/internal/deadlock"
	"github.com/repcrec/repcrec/internal/locate"
	"github.com/repcrec/repcrec/internal/logutil"
	"github.com/repcrec/repcrec/kverr"
	"github.com/repcrec/repcrec/metrics"
	"github.com/repcrec/repcrec/oracle"
	"github.com/repcrec/repcrec/storage"
)

// Coordinator routes transaction operations across the ten sites. Every
// accepted command advances the logical clock by one tick; before each
// command a deadlock pass runs, and after it the pending queue is drained
// until a full pass makes no progress.
type Coordinator struct {
	execID  uuid.UUID
	clock   oracle.Oracle
	sites   map[int]*storage.DataManager
	txns    map[string]*Transaction
	pending []*operation
	events  Events
}

// NewCoordinator returns a coordinator over a fresh cluster of up sites.
func NewCoordinator(events Events) *Coordinator {
	if events == nil {
		events = NopEvents{}
	}
	c := &Coordinator{
		execID: uuid.New(),
		clock:  oracle.NewLogicalOracle(),
		sites:  make(map[int]*storage.DataManager, config.NumSites),
		txns:   make(map[string]*Transaction),
		events: events,
	}
	for id := 1; id <= config.NumSites; id++ {
		c.sites[id] = storage.NewDataManager(id)
	}
	logutil.BgLogger().Info("coordinator started",
		zap.String("execID", c.execID.String()))
	return c
}

// Begin registers a read-write transaction.
func (c *Coordinator) Begin(id string) error {
	return c.begin(id, ReadWrite)
}

// BeginRO registers a read-only transaction; its snapshot is fixed at the
// start timestamp.
func (c *Coordinator) BeginRO(id string) error {
	return c.begin(id, ReadOnly)
}

func (c *Coordinator) begin(id string, kind Kind) error {
	c.resolveDeadlocks()
	if _, dup := c.txns[id]; dup {
		return errors.Wrap(kverr.ErrDuplicateTransaction, id)
	}
	ts := c.clock.Tick()
	c.txns[id] = newTransaction(id, ts, kind)
	c.events.TxnBegan(id, kind == ReadOnly)
	logutil.BgLogger().Debug("transaction began",
		zap.String("txn", id), zap.Uint64("startTS", ts),
		zap.Bool("readOnly", kind == ReadOnly))
	c.drain()
	return nil
}

// Read queues a read of xvid for txn.
func (c *Coordinator) Read(txn string, vid int) error {
	return c.submit(&operation{kind: opRead, txn: txn, vid: vid})
}

// Write queues a write of value to xvid for txn.
func (c *Coordinator) Write(txn string, vid int, value int64) error {
	return c.submit(&operation{kind: opWrite, txn: txn, vid: vid, value: value})
}

func (c *Coordinator) submit(op *operation) error {
	c.resolveDeadlocks()
	if !config.IsValidVariable(op.vid) {
		return errors.Wrap(kverr.ErrNoSuchVariable, config.VarName(op.vid))
	}
	if _, ok := c.txns[op.txn]; !ok {
		return errors.Wrap(kverr.ErrNoSuchTransaction, op.txn)
	}
	c.clock.Tick()
	c.pending = append(c.pending, op)
	c.drain()
	return nil
}

// End finishes txn: commit, or abort when a visited site failed since the
// transaction touched it.
func (c *Coordinator) End(txn string) error {
	c.resolveDeadlocks()
	t, ok := c.txns[txn]
	if !ok {
		return errors.Wrap(kverr.ErrNoSuchTransaction, txn)
	}
	ts := c.clock.Tick()
	if t.willAbort {
		c.abort(t, AbortSiteFailure)
	} else {
		c.commit(t, ts)
	}
	c.drain()
	return nil
}

// Fail takes a site down. Read-write transactions that visited it are
// marked for abort, realized at their End.
func (c *Coordinator) Fail(site int) error {
	c.resolveDeadlocks()
	dm, ok := c.sites[site]
	if !ok {
		return errors.Wrapf(kverr.ErrNoSuchSite, "site %d", site)
	}
	if !dm.IsUp() {
		logutil.BgLogger().Warn("fail on a down site ignored", zap.Int("site", site))
		return nil
	}
	ts := c.clock.Tick()
	dm.Fail(ts)
	for _, t := range c.txns {
		if t.Kind == ReadWrite && t.visited.Contains(site) {
			t.willAbort = true
			logutil.BgLogger().Info("transaction doomed by site failure",
				zap.String("txn", t.ID), zap.Int("site", site))
		}
	}
	c.events.SiteFailed(site)
	c.drain()
	return nil
}

// Recover brings a site back up. Replicated copies there stay unreadable
// until their next committed write.
func (c *Coordinator) Recover(site int) error {
	c.resolveDeadlocks()
	dm, ok := c.sites[site]
	if !ok {
		return errors.Wrapf(kverr.ErrNoSuchSite, "site %d", site)
	}
	if dm.IsUp() {
		logutil.BgLogger().Warn("recover on an up site ignored", zap.Int("site", site))
		return nil
	}
	ts := c.clock.Tick()
	dm.Recover(ts)
	c.events.SiteRecovered(site)
	c.drain()
	return nil
}

// Dump reports every site's status and newest committed values.
func (c *Coordinator) Dump() {
	c.resolveDeadlocks()
	c.clock.Tick()
	for id := 1; id <= config.NumSites; id++ {
		dm := c.sites[id]
		c.events.DumpSite(id, dm.IsUp(), dm.DumpEntries())
	}
	c.drain()
}

func (c *Coordinator) commit(t *Transaction, commitTS uint64) {
	for id := 1; id <= config.NumSites; id++ {
		c.sites[id].Commit(t.ID, commitTS)
	}
	delete(c.txns, t.ID)
	metrics.TxnCommitCounter.Inc()
	c.events.TxnCommitted(t.ID)
	logutil.BgLogger().Info("transaction committed",
		zap.String("txn", t.ID), zap.Uint64("commitTS", commitTS))
}

func (c *Coordinator) abort(t *Transaction, reason AbortReason) {
	for id := 1; id <= config.NumSites; id++ {
		c.sites[id].Abort(t.ID)
	}
	delete(c.txns, t.ID)
	if reason == AbortDeadlock {
		metrics.TxnAbortCounter.WithLabelValues(metrics.LblDeadlock).Inc()
	} else {
		metrics.TxnAbortCounter.WithLabelValues(metrics.LblSiteFailure).Inc()
	}
	c.events.TxnAborted(t.ID, reason)
	logutil.BgLogger().Info("transaction aborted",
		zap.String("txn", t.ID), zap.Stringer("reason", reason))
}

// resolveDeadlocks unions the per-site wait-for graphs of the up sites and
// aborts youngest victims until no cycle remains.
func (c *Coordinator) resolveDeadlocks() {
	for {
		g := deadlock.NewWaitGraph()
		for id := 1; id <= config.NumSites; id++ {
			if dm := c.sites[id]; dm.IsUp() {
				g.Merge(dm.LocalWaitGraph())
			}
		}
		if g.Empty() {
			return
		}
		startTS := make(map[string]uint64, len(c.txns))
		for id, t := range c.txns {
			startTS[id] = t.StartTS
		}
		victim, found := deadlock.Detect(g, startTS)
		if !found {
			return
		}
		metrics.DeadlockCounter.Inc()
		c.abort(c.txns[victim.Txn], AbortDeadlock)
		c.drain()
	}
}

// drain retries the pending queue in submission order until a full pass
// makes no progress. Executed and orphaned operations leave the queue;
// blocked ones keep their position.
func (c *Coordinator) drain() {
	for {
		progressed := false
		kept := make([]*operation, 0, len(c.pending))
		for _, op := range c.pending {
			if c.attempt(op) {
				progressed = true
			} else {
				kept = append(kept, op)
			}
		}
		c.pending = kept
		if !progressed {
			break
		}
	}
	metrics.PendingOpsGauge.Set(float64(len(c.pending)))
}

// attempt executes one pending operation. It returns true when the
// operation is done with the queue: served, applied, or orphaned.
func (c *Coordinator) attempt(op *operation) bool {
	t, ok := c.txns[op.txn]
	if !ok {
		logutil.BgLogger().Debug("dropping operation of finished transaction",
			zap.String("txn", op.txn), zap.Int("var", op.vid))
		return true
	}
	switch {
	case op.kind == opRead && t.Kind == ReadOnly:
		return c.attemptSnapshotRead(op, t)
	case op.kind == opRead:
		return c.attemptRead(op, t)
	default:
		return c.attemptWrite(op, t)
	}
}

func (c *Coordinator) attemptSnapshotRead(op *operation, t *Transaction) bool {
	hosts := locate.UpHosts(op.vid, c.siteUp)
	for _, id := range hosts {
		if val, hit := c.sites[id].SnapshotRead(op.vid, t.StartTS); hit {
			c.events.TxnRead(t.ID, config.VarName(op.vid), val)
			return true
		}
	}
	// Every up host missed, or none is up: blocked pending recovery.
	c.reportWait(op)
	return false
}

func (c *Coordinator) attemptRead(op *operation, t *Transaction) bool {
	hosts := locate.UpHosts(op.vid, c.siteUp)
	for _, id := range hosts {
		res := c.sites[id].Read(t.ID, op.vid)
		if res.Outcome == storage.ReadValue {
			t.visited.Add(id)
			c.events.TxnRead(t.ID, config.VarName(op.vid), res.Value)
			return true
		}
	}
	c.reportWait(op)
	return false
}

// attemptWrite applies the available-copies rule: the write proceeds only
// when every currently up host grants the exclusive lock, and then stages
// the value at all of them. Locks granted by a partial probe stay held;
// the retry completes once the blockers drain.
func (c *Coordinator) attemptWrite(op *operation, t *Transaction) bool {
	hosts := locate.UpHosts(op.vid, c.siteUp)
	if len(hosts) == 0 {
		c.reportWait(op)
		return false
	}
	granted := true
	for _, id := range hosts {
		if !c.sites[id].ProbeWrite(t.ID, op.vid) {
			granted = false
		}
	}
	if !granted {
		c.reportWait(op)
		return false
	}
	for _, id := range hosts {
		c.sites[id].ApplyWrite(t.ID, op.vid, op.value)
		t.visited.Add(id)
	}
	logutil.BgLogger().Debug("write staged",
		zap.String("txn", t.ID), zap.Int("var", op.vid),
		zap.Int64("value", op.value), zap.Int("sites", len(hosts)))
	return true
}

func (c *Coordinator) reportWait(op *operation) {
	if op.waitReported {
		return
	}
	op.waitReported = true
	c.events.TxnWaiting(op.txn, config.VarName(op.vid))
}

func (c *Coordinator) siteUp(id int) bool {
	return c.sites[id].IsUp()
}
