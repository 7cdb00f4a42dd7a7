package folio

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCashCreditDebit(t *testing.T) {
	h := NewCashHolding("Bank", "EUR")
	if _, err := h.credit(MustParseDate("2023.01.01"), d("100"), KindDeposit); err != nil {
		t.Fatal(err)
	}
	warns, err := h.debit(MustParseDate("2023.01.02"), d("150"), KindTransferOut)
	if err != nil {
		t.Fatal(err)
	}
	if len(warns) != 1 || !strings.Contains(warns[0], "negative") {
		t.Errorf("warnings = %v, want an overdraft warning", warns)
	}
	if !h.Balance().Equal(d("-50")) {
		t.Errorf("balance = %s, want -50", h.Balance())
	}
	if len(h.History()) != 2 {
		t.Errorf("history length = %d, want 2", len(h.History()))
	}
}

func TestApplyRejectsZeroChange(t *testing.T) {
	h := NewCashHolding("Bank", "EUR")
	if _, err := h.credit(MustParseDate("2023.01.01"), d("0"), KindDeposit); err == nil {
		t.Error("zero credit accepted, want error")
	}
}

func TestApplyRejectsAfterFinalize(t *testing.T) {
	h := NewCashHolding("Bank", "EUR")
	if _, err := h.credit(MustParseDate("2023.01.01"), d("100"), KindDeposit); err != nil {
		t.Fatal(err)
	}
	if err := h.finalize(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := h.credit(MustParseDate("2023.01.02"), d("1"), KindDeposit); err != errFinalized {
		t.Errorf("credit after finalize: %v, want errFinalized", err)
	}
	if err := h.finalize(context.Background(), nil); err != errFinalized {
		t.Errorf("second finalize: %v, want errFinalized", err)
	}
}

func TestAssetCashBreakdownReconciles(t *testing.T) {
	h := NewStockHolding("Broker", "ACME", "Acme Corp", "USD")
	on := MustParseDate("2023.01.01")
	steps := []struct {
		shares, cash string
		kind         ChangeKind
		zeroEffect   bool
	}{
		{"10", "-1000", KindBuy, false},
		{"-5", "600", KindSell, false},
		{"0", "100", KindDividend, true},
		{"0", "-25", KindFee, true},
		{"0", "75", KindIncome, true},
	}
	for i, s := range steps {
		if _, err := h.record(on.Add(i), d(s.shares), d(s.cash), s.kind, s.zeroEffect); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	bd := h.CashBreakdown()
	if !bd.Buy.Equal(d("1000")) || !bd.Sell.Equal(d("600")) || !bd.Income.Equal(d("100")) || !bd.Other.Equal(d("50")) {
		t.Errorf("breakdown = %+v", bd)
	}
	if !bd.Total.Equal(d("-250")) {
		t.Errorf("total = %s, want -250", bd.Total)
	}
	if err := h.reconcile(); err != nil {
		t.Errorf("reconcile() failed: %v", err)
	}
}

func TestAssetFinalizeFallsBackToLastTradePrice(t *testing.T) {
	h := NewStockHolding("Broker", "ACME", "Acme Corp", "USD")
	on := MustParseDate("2023.01.01")
	if _, err := h.record(on, d("10"), d("-1000"), KindBuy, false); err != nil {
		t.Fatal(err)
	}
	h.recordPrice(on, d("100"))
	if _, err := h.record(on.Add(365), d("-2"), d("260"), KindSell, false); err != nil {
		t.Fatal(err)
	}
	h.recordPrice(on.Add(365), d("130"))

	// No source: the last trade price values the remaining 8 shares.
	if err := h.finalize(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	// Flows: -1000 at day 0, 260+8x130=1300 at day 365: a 30% year.
	rate, ok := h.AnnualizedReturn()
	if !ok {
		t.Fatalf("no return computed: %s", h.XIRR())
	}
	if rate < 0.2999 || rate > 0.3001 {
		t.Errorf("annualized = %v, want 0.30", rate)
	}
}

func TestAssetFinalizeWithoutBothFlowSides(t *testing.T) {
	h := NewStockHolding("Broker", "ACME", "Acme Corp", "USD")
	on := MustParseDate("2023.01.01")
	if _, err := h.record(on, d("10"), d("-1000"), KindBuy, false); err != nil {
		t.Fatal(err)
	}
	// No price was ever observed: the closing flow is zero and gets dropped,
	// leaving a one-sided schedule.
	if err := h.finalize(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.AnnualizedReturn(); ok {
		t.Error("a return was computed from a one-sided schedule")
	}
	if !strings.Contains(h.XIRR(), "xirr unavailable") {
		t.Errorf("XIRR() = %q, want an unavailability notice", h.XIRR())
	}
}

func TestPlatformKeyUniqueness(t *testing.T) {
	pl := NewPlatform("Broker")
	if _, err := pl.addCash("USD"); err != nil {
		t.Fatal(err)
	}
	if _, err := pl.addAsset(AssetStock, "ACME", "Acme Corp", "USD"); err != nil {
		t.Fatal(err)
	}

	if _, err := pl.addCash("USD"); err == nil {
		t.Error("duplicate cash currency accepted")
	}
	if _, err := pl.addAsset(AssetBond, "ACME", "Acme Bond", "USD"); err == nil {
		t.Error("duplicate code across kinds accepted")
	}
	if _, err := pl.addAsset(AssetBond, "USD", "Dollar Bond", "USD"); err == nil {
		t.Error("code colliding with a cash currency accepted")
	}
	if _, err := pl.addAsset(AssetIndexFund, "FUND1", "Acme Corp", "USD"); err == nil {
		t.Error("duplicate friendly name accepted")
	}
	if _, err := pl.addAsset(AssetIndexFund, "FUND1", "World Fund", "USD"); err != nil {
		t.Errorf("distinct fund rejected: %v", err)
	}
}

func TestPlatformHoldingsOrder(t *testing.T) {
	pl := NewPlatform("Broker")
	pl.addCash("USD")
	pl.addCash("EUR")
	pl.addAsset(AssetStock, "ZZZ", "Zeta", "USD")
	pl.addAsset(AssetStock, "AAA", "Alpha", "USD")

	var keys []string
	for h := range pl.Holdings() {
		keys = append(keys, h.Key())
	}
	want := []string{"EUR", "USD", "AAA", "ZZZ"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}
