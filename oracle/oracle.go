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

// Package oracle supplies the logical timestamps the coordinator stamps on
// transaction starts, commits, site failures and recoveries. Time advances
// by exactly one tick per accepted command; there is no physical clock.
package oracle

import "go.uber.org/atomic"

// Oracle hands out monotonically increasing logical timestamps.
type Oracle interface {
	// Tick advances the clock and returns the new timestamp.
	Tick() uint64
	// Now returns the current timestamp without advancing it.
	Now() uint64
}

// LogicalOracle is the single-process Oracle used by the simulator.
type LogicalOracle struct {
	ts atomic.Uint64
}

// NewLogicalOracle returns an oracle starting at timestamp zero.
func NewLogicalOracle() *LogicalOracle {
	return &LogicalOracle{}
}

// Tick implements the Oracle interface.
func (o *LogicalOracle) Tick() uint64 {
	return o.ts.Add(1)
}

// Now implements the Oracle interface.
func (o *LogicalOracle) Now() uint64 {
	return o.ts.Load()
}
