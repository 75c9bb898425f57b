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

// Package txnlock implements the per-variable lock table: shared/exclusive
// locks with a FIFO waiter queue and in-place promotion.
package txnlock

import mapset "github.com/deckarep/golang-set/v2"

// LockMode is the access mode of a held or requested lock.
type LockMode int

const (
	// LockRead is a shared lock, compatible with other reads.
	LockRead LockMode = iota
	// LockWrite is an exclusive lock.
	LockWrite
)

// String implements fmt.Stringer.
func (m LockMode) String() string {
	if m == LockWrite {
		return "write"
	}
	return "read"
}

// lock is the currently installed lock on one variable. A read lock keeps
// its holders in a set; a write lock has exactly one holder.
type lock struct {
	mode    LockMode
	holders mapset.Set[string]
}

func newReadLock(txn string) *lock {
	return &lock{mode: LockRead, holders: mapset.NewThreadUnsafeSet(txn)}
}

func newWriteLock(txn string) *lock {
	return &lock{mode: LockWrite, holders: mapset.NewThreadUnsafeSet(txn)}
}

func (l *lock) heldBy(txn string) bool {
	return l.holders.Contains(txn)
}

// soleHolder reports whether txn is the only holder.
func (l *lock) soleHolder(txn string) bool {
	return l.holders.Cardinality() == 1 && l.holders.Contains(txn)
}

// Waiter is one queued lock request.
type Waiter struct {
	Txn  string
	Mode LockMode
}
