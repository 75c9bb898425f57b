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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/repcrec/repcrec/storage"
	"github.com/repcrec/repcrec/txnkv/transaction"
)

// Reporter renders coordinator events as the human-readable protocol
// output. Commit and abort lines are coloured on a terminal; anywhere else
// the output is plain so scripted runs stay byte-stable.
type Reporter struct {
	w       io.Writer
	commitf func(format string, a ...interface{}) string
	abortf  func(format string, a ...interface{}) string
}

// NewReporter returns a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	r := &Reporter{w: w, commitf: fmt.Sprintf, abortf: fmt.Sprintf}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		r.commitf = color.New(color.FgGreen).SprintfFunc()
		r.abortf = color.New(color.FgRed).SprintfFunc()
	}
	return r
}

var _ transaction.Events = (*Reporter)(nil)

// TxnBegan implements the transaction.Events interface.
func (r *Reporter) TxnBegan(id string, readOnly bool) {
	if readOnly {
		fmt.Fprintf(r.w, "%s begins (read-only)\n", id)
		return
	}
	fmt.Fprintf(r.w, "%s begins\n", id)
}

// TxnRead implements the transaction.Events interface.
func (r *Reporter) TxnRead(id, varName string, value int64) {
	fmt.Fprintf(r.w, "%s reads %s: %d\n", id, varName, value)
}

// TxnWaiting implements the transaction.Events interface.
func (r *Reporter) TxnWaiting(id, varName string) {
	fmt.Fprintf(r.w, "%s waits for %s\n", id, varName)
}

// TxnCommitted implements the transaction.Events interface.
func (r *Reporter) TxnCommitted(id string) {
	fmt.Fprintln(r.w, r.commitf("%s commits", id))
}

// TxnAborted implements the transaction.Events interface.
func (r *Reporter) TxnAborted(id string, reason transaction.AbortReason) {
	fmt.Fprintln(r.w, r.abortf("%s aborts (%s)", id, reason))
}

// SiteFailed implements the transaction.Events interface.
func (r *Reporter) SiteFailed(site int) {
	fmt.Fprintf(r.w, "site %d fails\n", site)
}

// SiteRecovered implements the transaction.Events interface.
func (r *Reporter) SiteRecovered(site int) {
	fmt.Fprintf(r.w, "site %d recovers\n", site)
}

// DumpSite implements the transaction.Events interface.
func (r *Reporter) DumpSite(site int, up bool, entries []storage.DumpEntry) {
	status := "running"
	if !up {
		status = "failed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "site %d - %s", site, status)
	for _, e := range entries {
		fmt.Fprintf(&b, " x%d : %d", e.VarID, e.Value)
	}
	fmt.Fprintln(r.w, b.String())
}
