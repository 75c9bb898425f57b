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

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplicationRule(t *testing.T) {
	replicas := 0
	for vid := 1; vid <= NumVariables; vid++ {
		hosts := HostSites(vid)
		if IsReplicated(vid) {
			require.Len(t, hosts, NumSites, "even variables live everywhere")
		} else {
			require.Equal(t, []int{vid%10 + 1}, hosts)
		}
		replicas += len(hosts)
	}
	// 10 even variables x 10 sites + 10 odd variables x 1 site.
	require.Equal(t, 110, replicas)
}

func TestHostedAt(t *testing.T) {
	require.True(t, HostedAt(2, 7))
	require.True(t, HostedAt(3, 4))
	require.False(t, HostedAt(3, 5))
	require.True(t, HostedAt(9, 10))
}

func TestInitialValueAndName(t *testing.T) {
	require.Equal(t, int64(10), InitialValue(1))
	require.Equal(t, int64(200), InitialValue(20))
	require.Equal(t, "x7", VarName(7))
}

func TestValidation(t *testing.T) {
	require.True(t, IsValidSite(1))
	require.True(t, IsValidSite(10))
	require.False(t, IsValidSite(0))
	require.False(t, IsValidSite(11))
	require.True(t, IsValidVariable(20))
	require.False(t, IsValidVariable(21))
}
