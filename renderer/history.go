package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/tbuchner/folio"
)

// History renders the full change history of one holding as a markdown table,
// newest record last.
func History(platform string, h folio.Holding) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s / %s", platform, h.Key()))
	if h.Name() != h.Key() {
		doc.PlainText(h.Name())
	}

	unit := "Amount"
	if h.AssetType() != folio.AssetCash {
		unit = "Shares"
	}
	table := md.TableSet{Header: []string{"Date", "Event", unit, "Cash", "Running"}}
	var running decimal.Decimal
	for _, r := range h.History() {
		running = running.Add(r.ValueChange)
		table.Rows = append(table.Rows, []string{
			r.Date.String(), string(r.Kind),
			signed(r.ValueChange), signed(r.CashChange), running.String(),
		})
	}
	doc.Table(table)

	if x := h.XIRR(); x != "" {
		doc.PlainText(fmt.Sprintf("Annualized return: %s", x))
	}
	return doc.String()
}

func signed(d interface{ String() string }) string {
	s := d.String()
	if s == "0" {
		return "-"
	}
	if s[0] != '-' {
		return "+" + s
	}
	return s
}
