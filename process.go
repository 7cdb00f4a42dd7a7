package folio

import (
	"context"
	"fmt"
	"sort"
)

// Report collects the outcome of a replay: warnings indexed by entry
// position, and the first fatal error if one stopped the run.
type Report struct {
	// Messages holds the warnings each entry produced, keyed by its
	// zero-based position in the ledger.
	Messages map[int]Warnings
	// FatalIndex is the position of the entry that stopped the replay,
	// or -1 when every entry was applied.
	FatalIndex int
	// Err is the fatal error, wrapped with its entry position.
	Err error
}

func newReport() *Report {
	return &Report{Messages: make(map[int]Warnings), FatalIndex: -1}
}

// Partial reports whether the replay stopped before the end of the ledger.
func (r *Report) Partial() bool { return r.FatalIndex >= 0 }

// Clean reports whether the replay applied every entry without a single
// warning.
func (r *Report) Clean() bool { return !r.Partial() && len(r.Messages) == 0 }

// WarningCount returns the total number of warnings across all entries.
func (r *Report) WarningCount() int {
	n := 0
	for _, w := range r.Messages {
		n += len(w)
	}
	return n
}

// Indexes returns the entry positions that carry warnings, in order.
func (r *Report) Indexes() []int {
	idx := make([]int, 0, len(r.Messages))
	for i := range r.Messages {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func (r *Report) warn(i int, w Warnings) {
	if len(w) > 0 {
		r.Messages[i] = append(r.Messages[i], w...)
	}
}

func (r *Report) fatal(i int, err error) {
	r.FatalIndex = i
	r.Err = fmt.Errorf("entry %d: %w", i, err)
}

// Replay builds a portfolio by applying the ledger entries in document order.
//
// Each entry goes through the same pipeline: field validation, the
// chronological gate, then the action itself. Warnings accumulate in the
// report without stopping the run; the first fatal error stops it, and the
// returned portfolio reflects only the entries applied before it.
func Replay(entries []Entry) (*Portfolio, *Report) {
	p := NewPortfolio()
	report := newReport()
	for i, e := range entries {
		pe, err := parseEntry(e)
		if err != nil {
			report.fatal(i, err)
			break
		}
		act, err := buildAction(pe)
		if err != nil {
			report.fatal(i, err)
			break
		}
		if err := p.advance(act.when()); err != nil {
			report.fatal(i, err)
			break
		}
		warns, err := act.apply(p)
		report.warn(i, warns)
		if err != nil {
			report.fatal(i, err)
			break
		}
	}
	return p, report
}

// ReplayAndFinalize replays the ledger and, when no entry was fatal,
// finalizes every holding against src. A partial replay is never finalized:
// its balances are not trustworthy enough to price.
func ReplayAndFinalize(ctx context.Context, entries []Entry, src PriceSource) (*Portfolio, *Report) {
	p, report := Replay(entries)
	if report.Partial() {
		return p, report
	}
	if err := p.Finalize(ctx, src); err != nil {
		report.Err = err
	}
	return p, report
}
