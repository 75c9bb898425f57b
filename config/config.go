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

// Package config fixes the cluster topology: ten sites, twenty variables,
// even-indexed variables replicated everywhere, odd-indexed variables
// hosted at a single site.
package config

import "fmt"

const (
	// NumSites is the number of failure domains in the cluster.
	NumSites = 10
	// NumVariables is the number of distinct variables x1..x20.
	NumVariables = 20
)

// IsValidSite reports whether id names a site in the cluster.
func IsValidSite(id int) bool {
	return id >= 1 && id <= NumSites
}

// IsValidVariable reports whether vid names a variable in the cluster.
func IsValidVariable(vid int) bool {
	return vid >= 1 && vid <= NumVariables
}

// IsReplicated reports whether xvid has a replica at every site.
func IsReplicated(vid int) bool {
	return vid%2 == 0
}

// HomeSite returns the sole host of a non-replicated variable.
func HomeSite(vid int) int {
	return vid%10 + 1
}

// HostSites returns the ids of every site hosting xvid, in ascending order.
func HostSites(vid int) []int {
	if !IsReplicated(vid) {
		return []int{HomeSite(vid)}
	}
	hosts := make([]int, 0, NumSites)
	for id := 1; id <= NumSites; id++ {
		hosts = append(hosts, id)
	}
	return hosts
}

// HostedAt reports whether site id holds a copy of xvid.
func HostedAt(vid, id int) bool {
	return IsReplicated(vid) || HomeSite(vid) == id
}

// InitialValue returns the committed value every copy of xvid carries at
// timestamp zero.
func InitialValue(vid int) int64 {
	return int64(10 * vid)
}

// VarName renders a variable id in the script notation, e.g. "x4".
func VarName(vid int) string {
	return fmt.Sprintf("x%d", vid)
}
