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

package storage

import "github.com/repcrec/repcrec/config"

// Version is one committed value of a variable.
type Version struct {
	Value    int64
	CommitTS uint64
}

// tempWrite is an uncommitted value staged by a write-locked transaction.
type tempWrite struct {
	value int64
	txn   string
}

// Variable is one copy of xID at one site. versions is ordered newest
// first; the oldest entry is always the initial value at timestamp zero.
type Variable struct {
	ID int
	// readable gates read-write reads of a replicated copy between site
	// recovery and the next committed write.
	readable bool
	versions []Version
	temp     *tempWrite
}

func newVariable(vid int) *Variable {
	return &Variable{
		ID:       vid,
		readable: true,
		versions: []Version{{Value: config.InitialValue(vid), CommitTS: 0}},
	}
}

// Latest returns the newest committed version.
func (v *Variable) Latest() Version {
	return v.versions[0]
}

// versionAt returns the newest version with CommitTS <= ts.
func (v *Variable) versionAt(ts uint64) (Version, bool) {
	for _, ver := range v.versions {
		if ver.CommitTS <= ts {
			return ver, true
		}
	}
	return Version{}, false
}

// install prepends a newly committed version and lifts the readable gate.
func (v *Variable) install(value int64, commitTS uint64) {
	v.versions = append([]Version{{Value: value, CommitTS: commitTS}}, v.versions...)
	v.readable = true
}
