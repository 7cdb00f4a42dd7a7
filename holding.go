package folio

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AssetType discriminates the kinds of holdings a platform can carry.
type AssetType string

const (
	AssetCash      AssetType = "Cash"
	AssetStock     AssetType = "Stock"
	AssetBond      AssetType = "Bond"
	AssetIndexFund AssetType = "IndexFund"
)

// ParseAssetType parses a ledger assetType field.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(s) {
	case AssetCash, AssetStock, AssetBond, AssetIndexFund:
		return AssetType(s), nil
	default:
		return "", fmt.Errorf("unknown asset type %q", s)
	}
}

// Holding is one asset position (cash balance or share count) on one platform.
//
// A holding accumulates change records while the ledger is replayed and is
// finalized exactly once afterwards: finalize validates the history, resolves
// the latest price, and computes the XIRR.
type Holding interface {
	AssetType() AssetType
	Key() string  // currency for cash, asset code otherwise
	Name() string // friendly name; the currency itself for cash
	Balance() decimal.Decimal
	History() []ChangeRecord
	// XIRR returns the annualized return as a display string, or the solver's
	// failure text. Empty until the holding is finalized.
	XIRR() string
	finalize(ctx context.Context, src PriceSource) error
}

// errFinalized guards the one-shot accumulating->finalized transition.
var errFinalized = errors.New("holding already finalized")

// holdingBase carries the mechanics shared by all holdings.
type holdingBase struct {
	platform    string
	key         string
	name        string
	balance     decimal.Decimal
	history     []ChangeRecord
	lastPrice   decimal.Decimal // unit value from the most recent trade or fetch
	lastPriceOn Date
	finalized   bool
	xirr        string
	xirrValue   float64
	xirrOK      bool
}

func (b *holdingBase) Key() string              { return b.key }
func (b *holdingBase) Name() string             { return b.name }
func (b *holdingBase) Platform() string         { return b.platform }
func (b *holdingBase) Balance() decimal.Decimal { return b.balance }
func (b *holdingBase) History() []ChangeRecord  { return b.history }
func (b *holdingBase) XIRR() string             { return b.xirr }

// AnnualizedReturn returns the computed XIRR as an annual rate.
// ok is false before finalize or when the solver failed.
func (b *holdingBase) AnnualizedReturn() (rate float64, ok bool) {
	return b.xirrValue, b.xirrOK
}

// LatestValue returns the most recent known unit value and its date.
func (b *holdingBase) LatestValue() (decimal.Decimal, Date) {
	return b.lastPrice, b.lastPriceOn
}

// apply advances the balance by a signed delta and appends the change record.
// Zero deltas are rejected unless the operation is explicitly zero-effect.
// Going negative is a warning, not a failure.
func (b *holdingBase) apply(on Date, value, cash decimal.Decimal, kind ChangeKind, zeroEffect bool) (Warnings, error) {
	if b.finalized {
		return nil, errFinalized
	}
	if value.IsZero() && !zeroEffect {
		return nil, fmt.Errorf("%s produces a zero change on %s", kind, b.key)
	}
	if n := len(b.history); n > 0 && on.Before(b.history[n-1].Date) {
		return nil, fmt.Errorf("internal: %s on %s predates last record on %s", kind, on, b.history[n-1].Date)
	}

	b.balance = b.balance.Add(value)
	b.history = append(b.history, ChangeRecord{Date: on, ValueChange: value, CashChange: cash, Kind: kind})

	var warns Warnings
	if b.balance.IsNegative() {
		warns.Addf("%s balance is negative (%s)", b.key, b.balance)
	}
	return warns, nil
}

// recordPrice remembers the unit value observed in a trade.
func (b *holdingBase) recordPrice(on Date, price decimal.Decimal) {
	b.lastPrice = price
	b.lastPriceOn = on
}

// validateHistory re-checks the invariants that every update maintains.
// A violation here is an internal bug, not bad ledger input.
func (b *holdingBase) validateHistory() error {
	if err := validateChronology(b.history); err != nil {
		return err
	}
	return validateHistorySum(b.history, b.balance)
}

// solveXIRR runs the solver on the holding's flow schedule and freezes the
// display string.
func (b *holdingBase) solveXIRR(flows []CashFlow) {
	rate, err := NewXIRRSolver().DailyRate(flows)
	if err != nil {
		b.xirr = fmt.Sprintf("xirr unavailable: %v", err)
		return
	}
	b.xirrValue = AnnualizeDaily(rate)
	b.xirrOK = true
	b.xirr = Percent(100 * b.xirrValue).String()
}

// --- Cash ---

// CashHolding tracks a cash balance in one currency on one platform.
type CashHolding struct {
	holdingBase
	interestCash decimal.Decimal
}

// NewCashHolding creates an empty cash holding. Cash uses its currency as name.
func NewCashHolding(platform, currency string) *CashHolding {
	return &CashHolding{holdingBase: holdingBase{platform: platform, key: currency, name: currency}}
}

func (h *CashHolding) AssetType() AssetType { return AssetCash }

// Currency returns the holding's currency code.
func (h *CashHolding) Currency() string { return h.key }

// InterestEarned returns the cumulative interest credited to this account.
func (h *CashHolding) InterestEarned() decimal.Decimal { return h.interestCash }

// credit increases the balance by a positive amount.
func (h *CashHolding) credit(on Date, amount decimal.Decimal, kind ChangeKind) (Warnings, error) {
	if kind == KindInterest {
		h.interestCash = h.interestCash.Add(amount)
	}
	return h.apply(on, amount, decimal.Zero, kind, false)
}

// debit decreases the balance by a positive amount. Overdrafts warn.
func (h *CashHolding) debit(on Date, amount decimal.Decimal, kind ChangeKind) (Warnings, error) {
	return h.apply(on, amount.Neg(), decimal.Zero, kind, false)
}

// finalize computes the account's XIRR. Every movement except interest is an
// external flow; interest is the account's own growth.
func (h *CashHolding) finalize(_ context.Context, _ PriceSource) error {
	if h.finalized {
		return errFinalized
	}
	if err := h.validateHistory(); err != nil {
		return fmt.Errorf("cash %s/%s: %w", h.platform, h.key, err)
	}

	var flows []CashFlow
	for _, r := range h.history {
		if r.Kind == KindInterest {
			continue
		}
		// A deposit is money the owner put in: a negative flow from the
		// owner's point of view.
		flows = append(flows, CashFlow{On: r.Date, Amount: r.ValueChange.Neg()})
	}
	if n := len(h.history); n > 0 {
		flows = append(flows, CashFlow{On: h.history[n-1].Date, Amount: h.balance})
	}
	h.solveXIRR(flows)
	h.finalized = true
	return nil
}

// --- Assets ---

// assetCore carries the share-count and cash-breakdown mechanics shared by
// stock, bond, and index-fund holdings.
//
// The breakdown reconciles exactly at all times:
// totalCash == -buyCash + sellCash + incomeCash + otherCash.
type assetCore struct {
	holdingBase
	currency   string
	buyCash    decimal.Decimal // cumulative cash spent on buys (positive)
	sellCash   decimal.Decimal // cumulative proceeds from sells (positive)
	incomeCash decimal.Decimal // dividends or coupon interest (positive)
	otherCash  decimal.Decimal // fees and corporate actions (signed)
	totalCash  decimal.Decimal // signed running sum of every cash change
}

func newAssetCore(platform, code, name, currency string) assetCore {
	return assetCore{holdingBase: holdingBase{platform: platform, key: code, name: name}, currency: currency}
}

// Currency returns the currency the asset trades and settles in.
func (a *assetCore) Currency() string { return a.currency }

// CashBreakdown is the cumulative cash-flow breakdown of an asset holding.
type CashBreakdown struct {
	Buy, Sell, Income, Other decimal.Decimal
	Total                    decimal.Decimal
}

func (a *assetCore) CashBreakdown() CashBreakdown {
	return CashBreakdown{Buy: a.buyCash, Sell: a.sellCash, Income: a.incomeCash, Other: a.otherCash, Total: a.totalCash}
}

// record applies a share delta with its cash counterpart and maintains the
// per-category sums. cash is signed: negative when money leaves the owner.
func (a *assetCore) record(on Date, shares, cash decimal.Decimal, kind ChangeKind, zeroEffect bool) (Warnings, error) {
	warns, err := a.apply(on, shares, cash, kind, zeroEffect)
	if err != nil {
		return warns, err
	}
	switch kind {
	case KindBuy:
		a.buyCash = a.buyCash.Sub(cash) // cash is negative on a buy
	case KindSell:
		a.sellCash = a.sellCash.Add(cash)
	case KindDividend, KindInterest:
		a.incomeCash = a.incomeCash.Add(cash)
	case KindFee, KindIncome:
		a.otherCash = a.otherCash.Add(cash)
	}
	a.totalCash = a.totalCash.Add(cash)
	return warns, nil
}

// reconcile checks the cash-category identity. A mismatch is an internal bug.
func (a *assetCore) reconcile() error {
	want := a.buyCash.Neg().Add(a.sellCash).Add(a.incomeCash).Add(a.otherCash)
	if !a.totalCash.Equal(want) {
		return fmt.Errorf("cash breakdown %s does not reconcile to total %s", want, a.totalCash)
	}
	return nil
}

// finalize validates the history, resolves the latest price (falling back to
// the last transaction price when the source has none), and computes the XIRR
// with a synthetic closing inflow at current market value.
func (a *assetCore) finalize(ctx context.Context, src PriceSource) error {
	if a.finalized {
		return errFinalized
	}
	if err := a.validateHistory(); err != nil {
		return fmt.Errorf("%s/%s: %w", a.platform, a.key, err)
	}
	if err := a.reconcile(); err != nil {
		return fmt.Errorf("%s/%s: %w", a.platform, a.key, err)
	}

	if src != nil {
		if q, err := src.Latest(ctx, a.key); err == nil && q.Price.IsPositive() {
			a.recordPrice(q.On, q.Price)
		}
	}

	var flows []CashFlow
	for _, r := range a.history {
		if r.CashChange.IsZero() {
			continue
		}
		flows = append(flows, CashFlow{On: r.Date, Amount: r.CashChange})
	}
	if n := len(a.history); n > 0 {
		on := a.history[n-1].Date
		if !a.lastPriceOn.IsZero() && a.lastPriceOn.After(on) {
			on = a.lastPriceOn
		}
		flows = append(flows, CashFlow{On: on, Amount: a.balance.Mul(a.lastPrice)})
	}
	a.solveXIRR(flows)
	a.finalized = true
	return nil
}

// StockHolding tracks a stock position.
type StockHolding struct{ assetCore }

// NewStockHolding creates an empty stock holding.
func NewStockHolding(platform, code, name, currency string) *StockHolding {
	return &StockHolding{assetCore: newAssetCore(platform, code, name, currency)}
}

func (h *StockHolding) AssetType() AssetType { return AssetStock }

// BondHolding tracks a bond position. Coupon payments land in the income
// category of the breakdown.
type BondHolding struct{ assetCore }

// NewBondHolding creates an empty bond holding.
func NewBondHolding(platform, code, name, currency string) *BondHolding {
	return &BondHolding{assetCore: newAssetCore(platform, code, name, currency)}
}

func (h *BondHolding) AssetType() AssetType { return AssetBond }

// IndexFundHolding tracks an accumulating index-fund position.
type IndexFundHolding struct{ assetCore }

// NewIndexFundHolding creates an empty index-fund holding.
func NewIndexFundHolding(platform, code, name, currency string) *IndexFundHolding {
	return &IndexFundHolding{assetCore: newAssetCore(platform, code, name, currency)}
}

func (h *IndexFundHolding) AssetType() AssetType { return AssetIndexFund }
