package folio

import (
	"context"
	"fmt"
	"iter"
)

// Portfolio is the root aggregate of a ledger replay: platforms by name plus
// the watermark enforcing non-decreasing chronological order across the whole
// ledger.
type Portfolio struct {
	platforms map[string]*Platform
	watermark Date
	finalized bool
}

// NewPortfolio creates an empty portfolio, ready for a replay.
func NewPortfolio() *Portfolio {
	return &Portfolio{platforms: make(map[string]*Platform)}
}

// Platform returns the named platform, or nil if unknown.
func (p *Portfolio) Platform(name string) *Platform { return p.platforms[name] }

// Watermark returns the most recent entry date seen so far.
func (p *Portfolio) Watermark() Date { return p.watermark }

// advance enforces the chronological gate: an entry date must not precede the
// watermark. On success the watermark moves forward.
func (p *Portfolio) advance(on Date) error {
	if !p.watermark.IsZero() && on.Before(p.watermark) {
		return fmt.Errorf("date %s is before the previous entry date %s", on, p.watermark)
	}
	p.watermark = on
	return nil
}

// addPlatform creates a platform; duplicates are an error.
func (p *Portfolio) addPlatform(name string) (*Platform, error) {
	if _, ok := p.platforms[name]; ok {
		return nil, fmt.Errorf("platform %q already exists", name)
	}
	pl := NewPlatform(name)
	p.platforms[name] = pl
	return pl, nil
}

// platform resolves a platform that an entry refers to; unknown is an error.
func (p *Portfolio) platform(name string) (*Platform, error) {
	pl, ok := p.platforms[name]
	if !ok {
		return nil, fmt.Errorf("platform %q does not exist", name)
	}
	return pl, nil
}

// Platforms iterates over platforms in stable name order.
func (p *Portfolio) Platforms() iter.Seq[*Platform] {
	return func(yield func(*Platform) bool) {
		for _, name := range sortedKeys(p.platforms) {
			if !yield(p.platforms[name]) {
				return
			}
		}
	}
}

// Holdings iterates over every holding of every platform.
func (p *Portfolio) Holdings() iter.Seq2[*Platform, Holding] {
	return func(yield func(*Platform, Holding) bool) {
		for pl := range p.Platforms() {
			for h := range pl.Holdings() {
				if !yield(pl, h) {
					return
				}
			}
		}
	}
}

// Finalize transitions every holding from accumulating to finalized: each
// holding re-validates its history, resolves its latest price from src, and
// computes its XIRR. Finalize must run exactly once, after a clean replay.
//
// src may be nil: holdings then value themselves at their last
// transaction-derived price.
func (p *Portfolio) Finalize(ctx context.Context, src PriceSource) error {
	if p.finalized {
		return fmt.Errorf("portfolio already finalized")
	}
	for pl, h := range p.Holdings() {
		if err := h.finalize(ctx, src); err != nil {
			return fmt.Errorf("finalize %s: %w", pl.Name(), err)
		}
	}
	p.finalized = true
	return nil
}

// Finalized reports whether Finalize has completed.
func (p *Portfolio) Finalized() bool { return p.finalized }
