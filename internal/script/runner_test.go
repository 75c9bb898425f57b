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
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/repcrec/repcrec/kverr"
)

func runScript(t *testing.T, lines ...string) []string {
	t.Helper()
	var out bytes.Buffer
	err := Run(strings.NewReader(strings.Join(lines, "\n")), &out)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestRunBasicCommit(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"W(T1,x1,101)",
		"end(T1)",
		"dump()",
	)
	require.Contains(t, lines, "T1 begins")
	require.Contains(t, lines, "T1 commits")
	require.Contains(t, lines,
		"site 2 - running x1 : 101 x2 : 20 x4 : 40 x6 : 60 x8 : 80 x10 : 100"+
			" x11 : 110 x12 : 120 x14 : 140 x16 : 160 x18 : 180 x20 : 200")
	// Site 1 hosts no odd variables and keeps its initial values.
	require.Contains(t, lines,
		"site 1 - running x2 : 20 x4 : 40 x6 : 60 x8 : 80 x10 : 100"+
			" x12 : 120 x14 : 140 x16 : 160 x18 : 180 x20 : 200")
}

func TestRunAvailableCopies(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"fail(2)",
		"W(T1,x2,22)",
		"end(T1)",
		"recover(2)",
		"dump()",
	)
	require.Contains(t, lines, "site 2 fails")
	require.Contains(t, lines, "T1 commits")
	require.Contains(t, lines, "site 2 recovers")
	for _, l := range lines {
		if !strings.Contains(l, " - ") {
			continue
		}
		if strings.HasPrefix(l, "site 2 ") {
			require.Contains(t, l, "x2 : 20")
		} else {
			require.Contains(t, l, "x2 : 22")
		}
	}
}

func TestRunSiteFailureAbort(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"W(T1,x2,22)",
		"fail(2)",
		"end(T1)",
	)
	require.Contains(t, lines, "T1 aborts (site failure)")
}

func TestRunSnapshotIsolation(t *testing.T) {
	lines := runScript(t,
		"beginRO(T1)",
		"fail(2)",
		"recover(2)",
		"begin(T2)",
		"W(T2,x2,99)",
		"end(T2)",
		"R(T1,x2)",
		"end(T1)",
	)
	require.Contains(t, lines, "T1 begins (read-only)")
	require.Contains(t, lines, "T1 reads x2: 20")
	require.Contains(t, lines, "T1 commits")
}

func TestRunDeadlock(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"begin(T2)",
		"W(T1,x1,1)",
		"W(T2,x2,2)",
		"W(T1,x2,10)",
		"W(T2,x1,20)",
		"end(T1)",
		"dump()",
	)
	require.Contains(t, lines, "T1 waits for x2")
	require.Contains(t, lines, "T2 aborts (deadlock)")
	require.Contains(t, lines, "T1 commits")
	for _, l := range lines {
		if strings.HasPrefix(l, "site 2 - ") {
			require.Contains(t, l, "x1 : 1")
			require.Contains(t, l, "x2 : 10")
		}
	}
}

func TestRunPromotion(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"R(T1,x4)",
		"W(T1,x4,44)",
		"end(T1)",
		"dump()",
	)
	require.Contains(t, lines, "T1 reads x4: 40")
	require.Contains(t, lines, "T1 commits")
	for _, l := range lines {
		if strings.Contains(l, " - ") {
			require.Contains(t, l, "x4 : 44")
		}
	}
}

func TestRunUnknownCommandTerminates(t *testing.T) {
	var out bytes.Buffer
	err := Run(strings.NewReader("begin(T1)\nexplode(T1)\n"), &out)
	require.True(t, errors.Is(err, kverr.ErrUnknownCommand))
}

func TestRunUnknownTransactionIsDiagnostic(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"R(T9,x2)",
		"R(T1,x2)",
		"end(T1)",
	)
	require.Contains(t, lines, "T1 reads x2: 20")
	require.Contains(t, lines, "T1 commits")
}

func TestRunQuitStopsProcessing(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"quit",
		"begin(T2)",
	)
	require.Contains(t, lines, "T1 begins")
	require.NotContains(t, lines, "T2 begins")
}

func TestRunBlockedReadUnblocksOnEnd(t *testing.T) {
	lines := runScript(t,
		"begin(T1)",
		"begin(T2)",
		"W(T1,x6,66)",
		"R(T2,x6)",
		"end(T1)",
		"end(T2)",
	)
	require.Contains(t, lines, "T2 waits for x6")
	require.Contains(t, lines, "T2 reads x6: 66")
	require.Contains(t, lines, "T2 commits")
}
