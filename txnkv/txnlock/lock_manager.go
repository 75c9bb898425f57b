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

package txnlock

import "sort"

// LockManager guards a single variable at a single site. The queue is
// strict FIFO; the only departures from arrival order are re-entrant
// grants to current holders and the merging of leading read waiters when
// an exclusive lock releases.
type LockManager struct {
	current *lock
	queue   []Waiter
}

// NewLockManager returns an unlocked manager with an empty queue.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// TryRead attempts to take a shared lock for txn. On refusal txn is
// enqueued and false is returned.
func (lm *LockManager) TryRead(txn string) bool {
	switch {
	case lm.current == nil:
		lm.current = newReadLock(txn)
		return true
	case lm.current.mode == LockRead:
		if lm.current.heldBy(txn) {
			return true
		}
		if !lm.hasQueuedWrite() {
			lm.current.holders.Add(txn)
			return true
		}
		lm.enqueue(Waiter{Txn: txn, Mode: LockRead})
		return false
	default: // write lock installed
		if lm.current.heldBy(txn) {
			return true
		}
		lm.enqueue(Waiter{Txn: txn, Mode: LockRead})
		return false
	}
}

// TryWrite attempts to take an exclusive lock for txn. A shared lock held
// by txn alone is promoted in place when no other transaction has a write
// queued. On refusal txn is enqueued and false is returned.
func (lm *LockManager) TryWrite(txn string) bool {
	switch {
	case lm.current == nil:
		lm.current = newWriteLock(txn)
		return true
	case lm.current.mode == LockRead:
		if lm.current.soleHolder(txn) && !lm.hasQueuedWriteOther(txn) {
			lm.current = newWriteLock(txn)
			return true
		}
		lm.enqueue(Waiter{Txn: txn, Mode: LockWrite})
		return false
	default:
		if lm.current.heldBy(txn) {
			return true
		}
		lm.enqueue(Waiter{Txn: txn, Mode: LockWrite})
		return false
	}
}

// ReleaseBy drops every hold and queued request txn has on this variable.
// The caller decides when to hand the lock to the next waiter via
// DequeueNext.
func (lm *LockManager) ReleaseBy(txn string) {
	if lm.current != nil && lm.current.heldBy(txn) {
		lm.current.holders.Remove(txn)
		if lm.current.holders.Cardinality() == 0 {
			lm.current = nil
		}
	}
	kept := lm.queue[:0]
	for _, w := range lm.queue {
		if w.Txn != txn {
			kept = append(kept, w)
		}
	}
	lm.queue = kept
}

// Clear wipes the lock and the queue. Used when the owning site fails.
func (lm *LockManager) Clear() {
	lm.current = nil
	lm.queue = nil
}

// DequeueNext hands the lock to queued waiters after a release. Leading
// read waiters are granted together; a write waiter at the head promotes
// in place when its transaction is the sole remaining read holder.
func (lm *LockManager) DequeueNext() {
	for lm.current == nil && len(lm.queue) > 0 {
		head := lm.pop()
		if head.Mode == LockWrite {
			lm.current = newWriteLock(head.Txn)
			return
		}
		lm.current = newReadLock(head.Txn)
		for len(lm.queue) > 0 && lm.queue[0].Mode == LockRead {
			lm.current.holders.Add(lm.pop().Txn)
		}
	}
	if lm.current != nil && lm.current.mode == LockRead && len(lm.queue) > 0 {
		head := lm.queue[0]
		if head.Mode == LockWrite && lm.current.soleHolder(head.Txn) {
			lm.pop()
			lm.current = newWriteLock(head.Txn)
		}
	}
}

// Holders returns the transactions currently holding the lock, sorted for
// deterministic iteration, together with the held mode. ok is false when
// the variable is unlocked.
func (lm *LockManager) Holders() (mode LockMode, txns []string, ok bool) {
	if lm.current == nil {
		return 0, nil, false
	}
	txns = lm.current.holders.ToSlice()
	sort.Strings(txns)
	return lm.current.mode, txns, true
}

// Waiters returns the queued requests in FIFO order.
func (lm *LockManager) Waiters() []Waiter {
	out := make([]Waiter, len(lm.queue))
	copy(out, lm.queue)
	return out
}

// WriteHeldBy reports whether txn currently holds this lock exclusively.
func (lm *LockManager) WriteHeldBy(txn string) bool {
	return lm.current != nil && lm.current.mode == LockWrite && lm.current.heldBy(txn)
}

func (lm *LockManager) pop() Waiter {
	w := lm.queue[0]
	lm.queue = lm.queue[1:]
	return w
}

func (lm *LockManager) hasQueuedWrite() bool {
	for _, w := range lm.queue {
		if w.Mode == LockWrite {
			return true
		}
	}
	return false
}

func (lm *LockManager) hasQueuedWriteOther(txn string) bool {
	for _, w := range lm.queue {
		if w.Mode == LockWrite && w.Txn != txn {
			return true
		}
	}
	return false
}

// enqueue appends a request unless a duplicate already waits: an entry of
// the same transaction and mode, or a queued write of the same transaction
// when the incoming request is a read.
func (lm *LockManager) enqueue(w Waiter) {
	for _, q := range lm.queue {
		if q.Txn != w.Txn {
			continue
		}
		if q.Mode == w.Mode || (q.Mode == LockWrite && w.Mode == LockRead) {
			return
		}
	}
	lm.queue = append(lm.queue, w)
}
