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

package deadlock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoCycle(t *testing.T) {
	g := NewWaitGraph()
	g.AddEdge("T1", "T2", 1)
	g.AddEdge("T2", "T3", 2)
	_, found := Detect(g, map[string]uint64{"T1": 1, "T2": 2, "T3": 3})
	require.False(t, found)
}

func TestTwoCycleYoungestVictim(t *testing.T) {
	g := NewWaitGraph()
	g.AddEdge("T1", "T2", 7)
	g.AddEdge("T2", "T1", 7)
	v, found := Detect(g, map[string]uint64{"T1": 1, "T2": 2})
	require.True(t, found)
	require.Equal(t, "T2", v.Txn)
	require.Equal(t, uint64(7), v.KeyHash)
}

func TestThreeCycle(t *testing.T) {
	g := NewWaitGraph()
	g.AddEdge("T1", "T2", 1)
	g.AddEdge("T2", "T3", 2)
	g.AddEdge("T3", "T1", 3)
	v, found := Detect(g, map[string]uint64{"T1": 5, "T2": 4, "T3": 3})
	require.True(t, found)
	require.Equal(t, "T1", v.Txn)
}

func TestVictimOutsideDisjointChain(t *testing.T) {
	g := NewWaitGraph()
	g.AddEdge("T1", "T2", 1)
	g.AddEdge("T2", "T1", 1)
	// A chain hanging off the cycle must not be victimized even when
	// its transactions are younger.
	g.AddEdge("T9", "T1", 2)
	v, found := Detect(g, map[string]uint64{"T1": 1, "T2": 2, "T9": 9})
	require.True(t, found)
	require.Equal(t, "T2", v.Txn)
}

func TestSelfEdgeDropped(t *testing.T) {
	g := NewWaitGraph()
	g.AddEdge("T1", "T1", 1)
	require.True(t, g.Empty())
}

func TestTieBrokenByTxnID(t *testing.T) {
	g := NewWaitGraph()
	g.AddEdge("Ta", "Tb", 1)
	g.AddEdge("Tb", "Ta", 1)
	v, found := Detect(g, map[string]uint64{"Ta": 4, "Tb": 4})
	require.True(t, found)
	require.Equal(t, "Tb", v.Txn)
}

func TestMergeUnionsSiteGraphs(t *testing.T) {
	// Each half of the cycle is visible at a different site only.
	site1 := NewWaitGraph()
	site1.AddEdge("T1", "T2", 11)
	site2 := NewWaitGraph()
	site2.AddEdge("T2", "T1", 12)

	g := NewWaitGraph()
	g.Merge(site1)
	g.Merge(site2)
	v, found := Detect(g, map[string]uint64{"T1": 1, "T2": 2})
	require.True(t, found)
	require.Equal(t, "T2", v.Txn)
}
