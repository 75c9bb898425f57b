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

// Package kverr holds the error taxonomy shared by the engine. Blocked
// reads and writes are control signals, not errors, and never appear here.
package kverr

import "github.com/pkg/errors"

var (
	// ErrNoSuchTransaction means an operation referenced an unknown
	// transaction id. The operation is dropped with a diagnostic.
	ErrNoSuchTransaction = errors.New("no such transaction")

	// ErrDuplicateTransaction means begin was issued twice for one id.
	ErrDuplicateTransaction = errors.New("transaction already exists")

	// ErrUnknownCommand terminates the run at parse time.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoSuchSite means a fail/recover command named a site outside 1..10.
	ErrNoSuchSite = errors.New("no such site")

	// ErrNoSuchVariable means a read or write named a variable outside x1..x20.
	ErrNoSuchVariable = errors.New("no such variable")
)
