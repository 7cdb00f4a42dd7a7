package folio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ledgerAction is a parsed entry ready to mutate a portfolio. apply returns
// the warnings to attach to the entry plus the fatal error, if any. A fatal
// error leaves the portfolio untouched by this entry wherever practical.
type ledgerAction interface {
	when() Date
	apply(p *Portfolio) (Warnings, error)
}

// buildAction maps a validated entry onto its typed action.
func buildAction(pe *parsedEntry) (ledgerAction, error) {
	if fee, ok := pe.amounts["feeValue"]; ok && fee.IsNegative() && pe.action != ActPublicToPrivate {
		return nil, fmt.Errorf("feeValue must not be negative, got %s", fee)
	}
	switch pe.action {
	case ActNewPlatform:
		return &newPlatformAction{on: pe.date, platform: pe.name("platform")}, nil
	case ActNewAsset:
		return &newAssetAction{
			on: pe.date, platform: pe.name("platform"), asset: pe.asset,
			code: pe.name("assetCode"), friendly: pe.name("friendlyName"),
			currency: pe.name("currency"),
		}, nil
	case ActDeposit:
		return &depositAction{
			on: pe.date, platform: pe.name("platform"),
			currency: pe.name("currency"), amount: pe.amount("totalValue"),
		}, nil
	case ActCheck:
		a := &checkAction{on: pe.date, platform: pe.name("platform"), asset: pe.asset}
		if pe.asset == AssetCash {
			a.key, a.stated = pe.name("currency"), pe.amount("totalValue")
		} else {
			a.key, a.stated = pe.name("assetCode"), pe.amount("totalShares")
		}
		return a, nil
	case ActBuy, ActSell:
		return &tradeAction{
			on: pe.date, platform: pe.name("platform"), asset: pe.asset,
			code: pe.name("assetCode"), sell: pe.action == ActSell,
			shares: pe.amount("totalShares"), unit: pe.amount("unitValue"),
			total: pe.amount("totalValue"), fee: pe.fee(),
		}, nil
	case ActDividend, ActInterest:
		a := &incomeAction{
			on: pe.date, platform: pe.name("platform"), asset: pe.asset,
			gross: pe.amount("grossValue"), net: pe.amount("netValue"), tax: pe.amount("taxValue"),
			kind: KindDividend,
		}
		if pe.action == ActInterest {
			a.kind = KindInterest
		}
		if pe.asset == AssetCash {
			a.key = pe.name("currency")
		} else {
			a.key = pe.name("assetCode")
		}
		return a, nil
	case ActConversion:
		return &conversionAction{
			on: pe.date, platform: pe.name("platform"),
			fromCur: pe.name("fromCurrency"), toCur: pe.name("toCurrency"),
			fromValue: pe.amount("fromValue"), toValue: pe.amount("toValue"),
			coefficient: pe.amount("fromToCoefficient"), fee: pe.fee(),
		}, nil
	case ActTransfer:
		return &transferAction{
			on: pe.date, from: pe.name("fromPlatform"), to: pe.name("toPlatform"),
			currency: pe.name("currency"), amount: pe.amount("totalValue"), fee: pe.fee(),
		}, nil
	case ActPublicToPrivate:
		return &delistAction{
			on: pe.date, platform: pe.name("platform"), code: pe.name("assetCode"),
			fee: pe.amount("feeValue"),
		}, nil
	case ActUnspecificIncome:
		return &windfallAction{
			on: pe.date, platform: pe.name("platform"), code: pe.name("assetCode"),
			amount: pe.amount("totalValue"),
		}, nil
	case ActSplit:
		return &splitAction{
			on: pe.date, platform: pe.name("platform"), asset: pe.asset,
			code: pe.name("assetCode"), from: pe.amount("fromTotalShares"),
			to: pe.amount("toTotalShares"), coefficient: pe.amount("fromToCoefficient"),
		}, nil
	default:
		return nil, fmt.Errorf("action %q is not implemented", pe.action)
	}
}

// --- structure actions ---

type newPlatformAction struct {
	on       Date
	platform string
}

func (a *newPlatformAction) when() Date { return a.on }

func (a *newPlatformAction) apply(p *Portfolio) (Warnings, error) {
	_, err := p.addPlatform(a.platform)
	return nil, err
}

type newAssetAction struct {
	on       Date
	platform string
	asset    AssetType
	code     string
	friendly string
	currency string
}

func (a *newAssetAction) when() Date { return a.on }

func (a *newAssetAction) apply(p *Portfolio) (Warnings, error) {
	pl, err := p.platform(a.platform)
	if err != nil {
		return nil, err
	}
	if a.asset == AssetCash {
		_, err = pl.addCash(a.currency)
		return nil, err
	}
	_, err = pl.addAsset(a.asset, a.code, a.friendly, a.currency)
	return nil, err
}

// --- cash actions ---

type depositAction struct {
	on       Date
	platform string
	currency string
	amount   decimal.Decimal
}

func (a *depositAction) when() Date { return a.on }

func (a *depositAction) apply(p *Portfolio) (Warnings, error) {
	if !a.amount.IsPositive() {
		return nil, fmt.Errorf("totalValue must be positive, got %s", a.amount)
	}
	cash, err := cashOn(p, a.platform, a.currency)
	if err != nil {
		return nil, err
	}
	return cash.credit(a.on, a.amount, KindDeposit)
}

type conversionAction struct {
	on             Date
	platform       string
	fromCur, toCur string
	fromValue      decimal.Decimal
	toValue        decimal.Decimal
	coefficient    decimal.Decimal
	fee            decimal.Decimal
}

func (a *conversionAction) when() Date { return a.on }

func (a *conversionAction) apply(p *Portfolio) (Warnings, error) {
	if a.fromCur == a.toCur {
		return nil, fmt.Errorf("fromCurrency and toCurrency are both %q", a.fromCur)
	}
	for field, v := range map[string]decimal.Decimal{
		"fromValue": a.fromValue, "toValue": a.toValue, "fromToCoefficient": a.coefficient,
	} {
		if !v.IsPositive() {
			return nil, fmt.Errorf("%s must be positive, got %s", field, v)
		}
	}
	from, err := cashOn(p, a.platform, a.fromCur)
	if err != nil {
		return nil, err
	}
	to, err := cashOn(p, a.platform, a.toCur)
	if err != nil {
		return nil, err
	}

	var warns Warnings
	// The stated toValue may round the product either way: banks truncate as
	// often as they round.
	product := a.fromValue.Mul(a.coefficient)
	if !a.toValue.Equal(product.Round(2)) && !a.toValue.Equal(product.RoundDown(2)) {
		warns.Addf("toValue %s differs from fromValue x coefficient = %s", a.toValue, product.Round(2))
	}

	w, err := from.debit(a.on, a.fromValue.Add(a.fee), KindConvertOut)
	warns.Merge(w)
	if err != nil {
		return warns, err
	}
	w, err = to.credit(a.on, a.toValue, KindConvertIn)
	warns.Merge(w)
	return warns, err
}

type transferAction struct {
	on       Date
	from, to string
	currency string
	amount   decimal.Decimal
	fee      decimal.Decimal
}

func (a *transferAction) when() Date { return a.on }

func (a *transferAction) apply(p *Portfolio) (Warnings, error) {
	if !a.amount.IsPositive() {
		return nil, fmt.Errorf("totalValue must be positive, got %s", a.amount)
	}
	if a.from == a.to {
		return nil, fmt.Errorf("fromPlatform and toPlatform are both %q", a.from)
	}
	src, err := cashOn(p, a.from, a.currency)
	if err != nil {
		return nil, err
	}
	dst, err := cashOn(p, a.to, a.currency)
	if err != nil {
		return nil, err
	}

	warns, err := src.debit(a.on, a.amount.Add(a.fee), KindTransferOut)
	if err != nil {
		return warns, err
	}
	w, err := dst.credit(a.on, a.amount, KindTransferIn)
	warns.Merge(w)
	return warns, err
}

// --- position actions ---

type checkAction struct {
	on       Date
	platform string
	asset    AssetType
	key      string
	stated   decimal.Decimal
}

func (a *checkAction) when() Date { return a.on }

// apply never mutates state: a check is an assertion against an external
// statement, and a mismatch is a warning carrying both values.
func (a *checkAction) apply(p *Portfolio) (Warnings, error) {
	pl, err := p.platform(a.platform)
	if err != nil {
		return nil, err
	}
	var actual decimal.Decimal
	switch a.asset {
	case AssetCash:
		cash := pl.Cash(a.key)
		if cash == nil {
			return nil, fmt.Errorf("cash holding %q does not exist on platform %q", a.key, a.platform)
		}
		actual = cash.Balance()
	default:
		core := pl.asset(a.asset, a.key)
		if core == nil {
			return nil, fmt.Errorf("%s %q does not exist on platform %q", a.asset, a.key, a.platform)
		}
		actual = core.Balance()
	}

	var warns Warnings
	if !actual.Equal(a.stated) {
		warns.Addf("check on %s failed: stated %s, actual %s", a.key, a.stated, actual)
	}
	return warns, nil
}

type tradeAction struct {
	on       Date
	platform string
	asset    AssetType
	code     string
	sell     bool
	shares   decimal.Decimal
	unit     decimal.Decimal
	total    decimal.Decimal
	fee      decimal.Decimal
}

func (a *tradeAction) when() Date { return a.on }

func (a *tradeAction) apply(p *Portfolio) (Warnings, error) {
	if !a.shares.IsPositive() {
		return nil, fmt.Errorf("totalShares must be positive, got %s", a.shares)
	}
	pl, err := p.platform(a.platform)
	if err != nil {
		return nil, err
	}
	core := pl.asset(a.asset, a.code)
	if core == nil {
		return nil, fmt.Errorf("%s %q does not exist on platform %q", a.asset, a.code, a.platform)
	}
	cash := pl.Cash(core.Currency())
	if cash == nil {
		return nil, fmt.Errorf("no %s cash holding on platform %q to settle the trade", core.Currency(), a.platform)
	}

	var stated Warnings
	if !a.unit.IsPositive() {
		stated.Addf("unitValue %s is not positive", a.unit)
	}
	if product := a.unit.Mul(a.shares).Round(2); !a.total.Equal(product) {
		stated.Addf("totalValue %s differs from unitValue x totalShares = %s", a.total, product)
	}
	warns := stated.Prefixed(a.code)

	settled := a.total.Add(a.fee)
	if a.sell {
		w, err := core.record(a.on, a.shares.Neg(), settled, KindSell, false)
		warns.Merge(w)
		if err != nil {
			return warns, err
		}
		w, err = cash.credit(a.on, settled, KindSell)
		warns.Merge(w)
		if err != nil {
			return warns, err
		}
	} else {
		w, err := core.record(a.on, a.shares, settled.Neg(), KindBuy, false)
		warns.Merge(w)
		if err != nil {
			return warns, err
		}
		w, err = cash.debit(a.on, settled, KindBuy)
		warns.Merge(w)
		if err != nil {
			return warns, err
		}
	}
	if a.unit.IsPositive() {
		core.recordPrice(a.on, a.unit)
	}
	return warns, nil
}

type incomeAction struct {
	on       Date
	platform string
	asset    AssetType
	key      string
	kind     ChangeKind
	gross    decimal.Decimal
	net      decimal.Decimal
	tax      decimal.Decimal
}

func (a *incomeAction) when() Date { return a.on }

func (a *incomeAction) apply(p *Portfolio) (Warnings, error) {
	switch {
	case !a.gross.IsPositive():
		return nil, fmt.Errorf("grossValue must be positive, got %s", a.gross)
	case !a.net.IsPositive():
		return nil, fmt.Errorf("netValue must be positive, got %s", a.net)
	case a.tax.IsNegative():
		return nil, fmt.Errorf("taxValue must not be negative, got %s", a.tax)
	case !a.net.Add(a.tax).Equal(a.gross):
		return nil, fmt.Errorf("netValue %s + taxValue %s does not equal grossValue %s", a.net, a.tax, a.gross)
	}
	pl, err := p.platform(a.platform)
	if err != nil {
		return nil, err
	}

	if a.asset == AssetCash {
		cash := pl.Cash(a.key)
		if cash == nil {
			return nil, fmt.Errorf("cash holding %q does not exist on platform %q", a.key, a.platform)
		}
		return cash.credit(a.on, a.net, KindInterest)
	}

	core := pl.asset(a.asset, a.key)
	if core == nil {
		return nil, fmt.Errorf("%s %q does not exist on platform %q", a.asset, a.key, a.platform)
	}
	cash := pl.Cash(core.Currency())
	if cash == nil {
		return nil, fmt.Errorf("no %s cash holding on platform %q to receive the payment", core.Currency(), a.platform)
	}

	// The payment is recorded on the asset as a zero-share event so the
	// holding's own return reflects it, and credited to cash where it lands.
	warns, err := core.record(a.on, decimal.Zero, a.net, a.kind, true)
	if err != nil {
		return warns, err
	}
	w, err := cash.credit(a.on, a.net, a.kind)
	warns.Merge(w)
	return warns, err
}

// delistAction takes a listed stock private: the position survives, valued
// at its last trade price, and the custodian charges a handling fee.
type delistAction struct {
	on       Date
	platform string
	code     string
	fee      decimal.Decimal
}

func (a *delistAction) when() Date { return a.on }

func (a *delistAction) apply(p *Portfolio) (Warnings, error) {
	if a.fee.IsNegative() {
		return nil, fmt.Errorf("feeValue must not be negative, got %s", a.fee)
	}
	pl, err := p.platform(a.platform)
	if err != nil {
		return nil, err
	}
	core := pl.asset(AssetStock, a.code)
	if core == nil {
		return nil, fmt.Errorf("Stock %q does not exist on platform %q", a.code, a.platform)
	}

	warns, err := core.record(a.on, decimal.Zero, a.fee.Neg(), KindFee, true)
	if err != nil {
		return warns, err
	}
	if a.fee.IsPositive() {
		cash := pl.Cash(core.Currency())
		if cash == nil {
			return warns, fmt.Errorf("no %s cash holding on platform %q to pay the fee", core.Currency(), a.platform)
		}
		w, err := cash.debit(a.on, a.fee, KindFee)
		warns.Merge(w)
		if err != nil {
			return warns, err
		}
	}
	return warns, nil
}

// windfallAction books an accounting credit tied to an asset that is neither
// a trade nor a regular income payment, a spin-off settlement for instance.
type windfallAction struct {
	on       Date
	platform string
	code     string
	amount   decimal.Decimal
}

func (a *windfallAction) when() Date { return a.on }

func (a *windfallAction) apply(p *Portfolio) (Warnings, error) {
	if !a.amount.IsPositive() {
		return nil, fmt.Errorf("totalValue must be positive, got %s", a.amount)
	}
	pl, err := p.platform(a.platform)
	if err != nil {
		return nil, err
	}
	core := pl.asset(AssetStock, a.code)
	if core == nil {
		return nil, fmt.Errorf("Stock %q does not exist on platform %q", a.code, a.platform)
	}
	cash := pl.Cash(core.Currency())
	if cash == nil {
		return nil, fmt.Errorf("no %s cash holding on platform %q to receive the credit", core.Currency(), a.platform)
	}

	warns, err := core.record(a.on, decimal.Zero, a.amount, KindIncome, true)
	if err != nil {
		return warns, err
	}
	w, err := cash.credit(a.on, a.amount, KindIncome)
	warns.Merge(w)
	return warns, err
}

type splitAction struct {
	on          Date
	platform    string
	asset       AssetType
	code        string
	from, to    decimal.Decimal
	coefficient decimal.Decimal
}

func (a *splitAction) when() Date { return a.on }

func (a *splitAction) apply(p *Portfolio) (Warnings, error) {
	if !a.coefficient.IsPositive() {
		return nil, fmt.Errorf("fromToCoefficient must be positive, got %s", a.coefficient)
	}
	if !a.to.IsPositive() {
		return nil, fmt.Errorf("toTotalShares must be positive, got %s", a.to)
	}
	pl, err := p.platform(a.platform)
	if err != nil {
		return nil, err
	}
	core := pl.asset(a.asset, a.code)
	if core == nil {
		return nil, fmt.Errorf("%s %q does not exist on platform %q", a.asset, a.code, a.platform)
	}
	if !core.Balance().Equal(a.from) {
		return nil, fmt.Errorf("fromTotalShares %s does not match the current position %s", a.from, core.Balance())
	}

	var warns Warnings
	if product := a.from.Mul(a.coefficient); !a.to.Equal(product.Round(2)) && !a.to.Equal(product) {
		warns.Addf("toTotalShares %s differs from fromTotalShares x coefficient = %s", a.to, product)
	}
	w, err := core.record(a.on, a.to.Sub(a.from), decimal.Zero, KindSplit, false)
	warns.Merge(w)
	return warns, err
}

// cashOn resolves a cash holding that must already exist.
func cashOn(p *Portfolio, platform, currency string) (*CashHolding, error) {
	pl, err := p.platform(platform)
	if err != nil {
		return nil, err
	}
	cash := pl.Cash(currency)
	if cash == nil {
		return nil, fmt.Errorf("cash holding %q does not exist on platform %q", currency, platform)
	}
	return cash, nil
}
