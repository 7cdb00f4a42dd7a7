// Package renderer turns replayed portfolios and their reports into markdown,
// ready for a terminal renderer or a plain pager.
package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/tbuchner/folio"
)

// valued is the part of a holding that knows its latest unit price.
type valued interface {
	LatestValue() (decimal.Decimal, folio.Date)
}

// priced is the part of a holding that settles in a currency.
type priced interface {
	Currency() string
}

// Summary renders one table per platform: every holding with its position,
// market value, and annualized return.
func Summary(p *folio.Portfolio) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio Summary")
	if !p.Watermark().IsZero() {
		doc.PlainText(fmt.Sprintf("Ledger replayed through %s.", p.Watermark()))
	}

	for pl := range p.Platforms() {
		doc.H2(pl.Name())
		table := md.TableSet{Header: []string{"Type", "Key", "Name", "Position", "Value", "Return"}}
		for h := range pl.Holdings() {
			table.Rows = append(table.Rows, []string{
				string(h.AssetType()), h.Key(), h.Name(),
				folio.Q(h.Balance()).String(), holdingValue(h), holdingReturn(h),
			})
		}
		doc.Table(table)
	}
	return doc.String()
}

// holdingValue formats the holding's current worth in its settlement currency.
// Cash is its own value; assets are position times latest price when one is
// known.
func holdingValue(h folio.Holding) string {
	if h.AssetType() == folio.AssetCash {
		return folio.M(h.Balance(), h.Key()).String()
	}
	v, ok := h.(valued)
	if !ok {
		return "-"
	}
	price, on := v.LatestValue()
	if on.IsZero() {
		return "-"
	}
	if p, ok := h.(priced); ok {
		worth := folio.M(price, p.Currency()).Mul(folio.Q(h.Balance()))
		return fmt.Sprintf("%s (as of %s)", worth, on)
	}
	return fmt.Sprintf("%s (as of %s)", h.Balance().Mul(price), on)
}

// holdingReturn prefers the signed percent form of the annualized return,
// falling back to the solver's failure text.
func holdingReturn(h folio.Holding) string {
	type annualized interface {
		AnnualizedReturn() (float64, bool)
	}
	if a, ok := h.(annualized); ok {
		if rate, ok := a.AnnualizedReturn(); ok {
			return folio.Percent(100 * rate).SignedString()
		}
	}
	return orDash(h.XIRR())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
