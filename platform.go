package folio

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Platform is a named container of holdings, one map per holding kind.
//
// Invariants: an asset code is unique across all kinds within the platform,
// and a friendly name is unique across its non-cash holdings. Platforms are
// never removed.
type Platform struct {
	name  string
	cash  map[string]*CashHolding
	stock map[string]*StockHolding
	bond  map[string]*BondHolding
	fund  map[string]*IndexFundHolding
}

// NewPlatform creates an empty platform.
func NewPlatform(name string) *Platform {
	return &Platform{
		name:  name,
		cash:  make(map[string]*CashHolding),
		stock: make(map[string]*StockHolding),
		bond:  make(map[string]*BondHolding),
		fund:  make(map[string]*IndexFundHolding),
	}
}

func (p *Platform) Name() string { return p.name }

// Cash returns the cash holding for a currency, or nil if unknown.
func (p *Platform) Cash(currency string) *CashHolding { return p.cash[currency] }

// Stock returns the stock holding for a code, or nil if unknown.
func (p *Platform) Stock(code string) *StockHolding { return p.stock[code] }

// Bond returns the bond holding for a code, or nil if unknown.
func (p *Platform) Bond(code string) *BondHolding { return p.bond[code] }

// IndexFund returns the index-fund holding for a code, or nil if unknown.
func (p *Platform) IndexFund(code string) *IndexFundHolding { return p.fund[code] }

// hasCode reports whether a key is already used by any kind, the cash
// currency keys included.
func (p *Platform) hasCode(code string) bool {
	if _, ok := p.cash[code]; ok {
		return true
	}
	if _, ok := p.stock[code]; ok {
		return true
	}
	if _, ok := p.bond[code]; ok {
		return true
	}
	_, ok := p.fund[code]
	return ok
}

// asset resolves the shared core of a non-cash holding, or nil if unknown.
func (p *Platform) asset(kind AssetType, code string) *assetCore {
	switch kind {
	case AssetStock:
		if h, ok := p.stock[code]; ok {
			return &h.assetCore
		}
	case AssetBond:
		if h, ok := p.bond[code]; ok {
			return &h.assetCore
		}
	case AssetIndexFund:
		if h, ok := p.fund[code]; ok {
			return &h.assetCore
		}
	}
	return nil
}

// hasName reports whether a friendly name is already used by a non-cash holding.
func (p *Platform) hasName(name string) bool {
	for h := range p.assets() {
		if h.Name() == name {
			return true
		}
	}
	return false
}

// addCash registers a new cash holding, keyed by currency.
func (p *Platform) addCash(currency string) (*CashHolding, error) {
	if p.hasCode(currency) {
		return nil, fmt.Errorf("cash holding %q already exists on platform %q", currency, p.name)
	}
	h := NewCashHolding(p.name, currency)
	p.cash[currency] = h
	return h, nil
}

// addAsset registers a new non-cash holding, keyed by asset code, enforcing
// code uniqueness across all kinds and friendly-name uniqueness.
func (p *Platform) addAsset(kind AssetType, code, name, currency string) (Holding, error) {
	if p.hasCode(code) {
		return nil, fmt.Errorf("asset code %q already exists on platform %q", code, p.name)
	}
	if p.hasName(name) {
		return nil, fmt.Errorf("asset name %q already exists on platform %q", name, p.name)
	}
	switch kind {
	case AssetStock:
		h := NewStockHolding(p.name, code, name, currency)
		p.stock[code] = h
		return h, nil
	case AssetBond:
		h := NewBondHolding(p.name, code, name, currency)
		p.bond[code] = h
		return h, nil
	case AssetIndexFund:
		h := NewIndexFundHolding(p.name, code, name, currency)
		p.fund[code] = h
		return h, nil
	default:
		return nil, fmt.Errorf("cannot create holding of type %q", kind)
	}
}

// assets iterates over all non-cash holdings in stable code order.
func (p *Platform) assets() iter.Seq[Holding] {
	return func(yield func(Holding) bool) {
		for _, code := range sortedKeys(p.stock) {
			if !yield(p.stock[code]) {
				return
			}
		}
		for _, code := range sortedKeys(p.bond) {
			if !yield(p.bond[code]) {
				return
			}
		}
		for _, code := range sortedKeys(p.fund) {
			if !yield(p.fund[code]) {
				return
			}
		}
	}
}

// Holdings iterates over every holding of the platform, cash first, then
// assets, in stable key order.
func (p *Platform) Holdings() iter.Seq[Holding] {
	return func(yield func(Holding) bool) {
		for _, currency := range sortedKeys(p.cash) {
			if !yield(p.cash[currency]) {
				return
			}
		}
		for h := range p.assets() {
			if !yield(h) {
				return
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}
