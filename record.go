package folio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ChangeKind identifies what caused a holding's change record.
type ChangeKind string

const (
	KindDeposit     ChangeKind = "deposit"
	KindBuy         ChangeKind = "buy"
	KindSell        ChangeKind = "sell"
	KindDividend    ChangeKind = "dividend"
	KindInterest    ChangeKind = "interest"
	KindConvertIn   ChangeKind = "convert-in"
	KindConvertOut  ChangeKind = "convert-out"
	KindTransferIn  ChangeKind = "transfer-in"
	KindTransferOut ChangeKind = "transfer-out"
	KindFee         ChangeKind = "fee"
	KindIncome      ChangeKind = "income"
	KindSplit       ChangeKind = "split"
)

// ChangeRecord is one immutable history entry of a holding.
//
// For asset holdings ValueChange is the signed share delta and CashChange the
// signed cash moved by the operation. For cash holdings ValueChange is the
// signed cash delta and CashChange is unused.
type ChangeRecord struct {
	Date        Date
	ValueChange decimal.Decimal
	CashChange  decimal.Decimal
	Kind        ChangeKind
}

// validateChronology checks that records are in non-decreasing date order.
func validateChronology(recs []ChangeRecord) error {
	for i := 1; i < len(recs); i++ {
		if recs[i].Date.Before(recs[i-1].Date) {
			return fmt.Errorf("history out of order: record %d on %s before record %d on %s",
				i, recs[i].Date, i-1, recs[i-1].Date)
		}
	}
	return nil
}

// sumValueChanges returns the running sum of all value changes.
func sumValueChanges(recs []ChangeRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range recs {
		sum = sum.Add(r.ValueChange)
	}
	return sum
}

// validateHistorySum checks that the record sum equals the expected balance.
// A mismatch indicates an internal bookkeeping bug, never bad user input.
func validateHistorySum(recs []ChangeRecord, balance decimal.Decimal) error {
	if sum := sumValueChanges(recs); !sum.Equal(balance) {
		return fmt.Errorf("history sum %s does not match balance %s", sum, balance)
	}
	return nil
}
