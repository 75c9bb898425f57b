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

// Package locate resolves which sites hold a copy of a variable. Placement
// is static (the topology never changes); availability is not, so callers
// supply the current liveness view.
package locate

import "github.com/repcrec/repcrec/config"

// Hosts returns every site hosting vid, in ascending site order.
func Hosts(vid int) []int {
	return config.HostSites(vid)
}

// UpHosts returns the hosts of vid that are currently up, in ascending
// site order. up is the caller's liveness view, indexed by site id.
func UpHosts(vid int, up func(site int) bool) []int {
	hosts := Hosts(vid)
	out := hosts[:0:0]
	for _, id := range hosts {
		if up(id) {
			out = append(out, id)
		}
	}
	return out
}
