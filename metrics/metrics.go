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

// Package metrics holds the prometheus collectors the coordinator updates.
// The simulator exposes no HTTP endpoint; the registry exists so embedding
// code and tests can read the counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values for TxnAbortCounter.
const (
	LblDeadlock    = "deadlock"
	LblSiteFailure = "site_failure"
)

var (
	// TxnCommitCounter counts committed transactions.
	TxnCommitCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repcrec",
			Subsystem: "txn",
			Name:      "commit_total",
			Help:      "Counter of committed transactions.",
		})

	// TxnAbortCounter counts aborted transactions by reason.
	TxnAbortCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcrec",
			Subsystem: "txn",
			Name:      "abort_total",
			Help:      "Counter of aborted transactions.",
		}, []string{"reason"})

	// DeadlockCounter counts deadlock cycles resolved by victim abort.
	DeadlockCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repcrec",
			Subsystem: "detector",
			Name:      "deadlock_total",
			Help:      "Counter of deadlocks detected and broken.",
		})

	// PendingOpsGauge tracks the length of the coordinator's pending queue.
	PendingOpsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "repcrec",
			Subsystem: "txn",
			Name:      "pending_ops",
			Help:      "Gauge of operations waiting on locks or recovery.",
		})

	// SnapshotMissCounter counts snapshot reads rejected by the
	// replica-failure interval rule or an unreadable copy.
	SnapshotMissCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repcrec",
			Subsystem: "storage",
			Name:      "snapshot_miss_total",
			Help:      "Counter of snapshot read misses.",
		})
)

func init() {
	prometheus.MustRegister(TxnCommitCounter)
	prometheus.MustRegister(TxnAbortCounter)
	prometheus.MustRegister(DeadlockCounter)
	prometheus.MustRegister(PendingOpsGauge)
	prometheus.MustRegister(SnapshotMissCounter)
}
