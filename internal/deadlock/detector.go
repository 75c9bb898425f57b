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

// Package deadlock builds the global wait-for graph from per-site graphs
// and resolves cycles by aborting the youngest participant.
package deadlock

import (
	"sort"

	"go.uber.org/zap"

	"github.com/repcrec/repcrec/internal/logutil"
)

// WaitGraph is a directed graph over transaction ids. An edge A -> B means
// A waits for a lock B holds or has queued ahead. Each edge carries the
// fingerprint of the contended variable for diagnostics.
type WaitGraph struct {
	edges map[string]map[string]uint64
}

// NewWaitGraph returns an empty graph.
func NewWaitGraph() *WaitGraph {
	return &WaitGraph{edges: make(map[string]map[string]uint64)}
}

// AddEdge records that from waits for to. Self edges are dropped.
func (g *WaitGraph) AddEdge(from, to string, keyHash uint64) {
	if from == to {
		return
	}
	m, ok := g.edges[from]
	if !ok {
		m = make(map[string]uint64)
		g.edges[from] = m
	}
	m[to] = keyHash
}

// Merge folds other into g. Used to union per-site graphs.
func (g *WaitGraph) Merge(other *WaitGraph) {
	for from, tos := range other.edges {
		for to, h := range tos {
			g.AddEdge(from, to, h)
		}
	}
}

// Empty reports whether the graph has no edges.
func (g *WaitGraph) Empty() bool {
	return len(g.edges) == 0
}

func (g *WaitGraph) successors(from string) []string {
	out := make([]string, 0, len(g.edges[from]))
	for to := range g.edges[from] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// Victim describes the transaction chosen to break a deadlock.
type Victim struct {
	Txn string
	// KeyHash fingerprints one variable on the cycle, for the log line.
	KeyHash uint64
}

// Detect searches g for cycles and, if any exist, picks the victim: the
// transaction with the largest start timestamp among all cycle members,
// ties broken by transaction id. startTS maps live transactions to their
// start timestamps; nodes without an entry are ignored.
func Detect(g *WaitGraph, startTS map[string]uint64) (Victim, bool) {
	inCycle := make(map[string]struct{})
	nodes := make([]string, 0, len(g.edges))
	for n := range g.edges {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if g.reaches(n, n, make(map[string]struct{})) {
			inCycle[n] = struct{}{}
		}
	}
	if len(inCycle) == 0 {
		return Victim{}, false
	}

	var victim string
	var victimTS uint64
	for txn := range inCycle {
		ts, ok := startTS[txn]
		if !ok {
			continue
		}
		if victim == "" || ts > victimTS || (ts == victimTS && txn > victim) {
			victim, victimTS = txn, ts
		}
	}
	if victim == "" {
		return Victim{}, false
	}

	var hash uint64
	for _, h := range g.edges[victim] {
		hash = h
		break
	}
	logutil.BgLogger().Info("deadlock detected",
		zap.String("victim", victim),
		zap.Uint64("startTS", victimTS),
		zap.Uint64("keyHash", hash),
		zap.Int("cycleMembers", len(inCycle)))
	return Victim{Txn: victim, KeyHash: hash}, true
}

// reaches reports whether target is reachable from cur following edges,
// visiting each node at most once.
func (g *WaitGraph) reaches(cur, target string, seen map[string]struct{}) bool {
	for _, next := range g.successors(cur) {
		if next == target {
			return true
		}
		if _, dup := seen[next]; dup {
			continue
		}
		seen[next] = struct{}{}
		if g.reaches(next, target, seen) {
			return true
		}
	}
	return false
}
