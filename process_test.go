package folio

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// staticPrices is a fixed price source for finalize tests.
type staticPrices map[string]Quote

func (s staticPrices) Latest(_ context.Context, code string) (Quote, error) {
	q, ok := s[code]
	if !ok {
		return Quote{}, context.Canceled
	}
	return q, nil
}

// brokerLedger opens the standard test ledger: one platform with a USD cash
// account and one stock.
func brokerLedger() []Entry {
	return []Entry{
		{"date": "2023.01.01", "action": "NewPlatform", "platform": "Broker"},
		{"date": "2023.01.01", "action": "NewAsset", "platform": "Broker", "assetType": "Cash", "currency": "USD"},
		{"date": "2023.01.01", "action": "NewAsset", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "friendlyName": "Acme Corp", "currency": "USD"},
		{"date": "2023.01.01", "action": "Deposit", "platform": "Broker", "currency": "USD", "totalValue": "5000.00"},
	}
}

func requireClean(t *testing.T, report *Report) {
	t.Helper()
	if report.Err != nil {
		t.Fatalf("replay failed: %v", report.Err)
	}
	if !report.Clean() {
		t.Fatalf("replay not clean: %+v", report.Messages)
	}
}

func balance(t *testing.T, p *Portfolio, platform, key string) decimal.Decimal {
	t.Helper()
	pl := p.Platform(platform)
	if pl == nil {
		t.Fatalf("platform %q does not exist", platform)
	}
	for h := range pl.Holdings() {
		if h.Key() == key {
			return h.Balance()
		}
	}
	t.Fatalf("holding %q does not exist on %q", key, platform)
	return decimal.Decimal{}
}

func TestReplayDepositAndCheck(t *testing.T) {
	entries := []Entry{
		{"date": "2024.01.01", "action": "NewPlatform", "platform": "B"},
		{"date": "2024.01.01", "action": "NewAsset", "platform": "B", "assetType": "Cash", "currency": "USD"},
		{"date": "2024.01.02", "action": "Deposit", "platform": "B", "currency": "USD", "totalValue": "100.00"},
		{"date": "2024.01.03", "action": "Check", "platform": "B", "assetType": "Cash", "currency": "USD", "totalValue": "100.00"},
	}
	p, report := Replay(entries)
	requireClean(t, report)
	if got := balance(t, p, "B", "USD"); !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("balance = %s, want 100", got)
	}
	if got, want := p.Watermark(), MustParseDate("2024.01.03"); got != want {
		t.Errorf("watermark = %s, want %s", got, want)
	}
}

func TestReplayCheckMismatchWarnsWithBothValues(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.02", "action": "Check", "platform": "Broker", "assetType": "Cash", "currency": "USD", "totalValue": "4000.00"},
	)
	_, report := Replay(entries)
	if report.Partial() {
		t.Fatalf("replay stopped: %v", report.Err)
	}
	warns := report.Messages[len(entries)-1]
	if len(warns) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warns)
	}
	for _, fragment := range []string{"4000", "5000"} {
		if !strings.Contains(warns[0], fragment) {
			t.Errorf("warning %q misses %q", warns[0], fragment)
		}
	}
}

func TestReplayStopsAtFirstFatal(t *testing.T) {
	entries := []Entry{
		{"date": "2023.01.02", "action": "NewPlatform", "platform": "A"},
		{"date": "2023.01.01", "action": "NewPlatform", "platform": "B"}, // date went backwards
		{"date": "2023.01.03", "action": "NewPlatform", "platform": "C"},
	}
	p, report := Replay(entries)
	if !report.Partial() || report.FatalIndex != 1 {
		t.Fatalf("FatalIndex = %d (err %v), want 1", report.FatalIndex, report.Err)
	}
	if !strings.Contains(report.Err.Error(), "entry 1") {
		t.Errorf("error %q misses the entry position", report.Err)
	}
	// The portfolio reflects only what was applied before the stop.
	if p.Platform("A") == nil {
		t.Error("platform A should exist")
	}
	if p.Platform("B") != nil || p.Platform("C") != nil {
		t.Error("platforms after the fatal entry should not exist")
	}
}

func TestReplayFatalCases(t *testing.T) {
	testCases := []struct {
		name    string
		extra   Entry
		wantErr string
	}{
		{
			"unknown field",
			Entry{"date": "2023.01.02", "action": "NewPlatform", "platform": "X", "color": "red"},
			"unrecognized field",
		},
		{
			"duplicate platform",
			Entry{"date": "2023.01.02", "action": "NewPlatform", "platform": "Broker"},
			"already exists",
		},
		{
			"duplicate asset code",
			Entry{"date": "2023.01.02", "action": "NewAsset", "platform": "Broker", "assetType": "Bond", "assetCode": "ACME", "friendlyName": "Acme Bond", "currency": "USD"},
			"already exists",
		},
		{
			"duplicate friendly name",
			Entry{"date": "2023.01.02", "action": "NewAsset", "platform": "Broker", "assetType": "IndexFund", "assetCode": "FUND1", "friendlyName": "Acme Corp", "currency": "USD"},
			"already exists",
		},
		{
			"unknown platform",
			Entry{"date": "2023.01.02", "action": "Deposit", "platform": "Nowhere", "currency": "USD", "totalValue": "1.00"},
			"does not exist",
		},
		{
			"unknown asset",
			Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "NOPE", "totalShares": "1", "unitValue": "1.00", "totalValue": "1.00"},
			"does not exist",
		},
		{
			"negative deposit",
			Entry{"date": "2023.01.02", "action": "Deposit", "platform": "Broker", "currency": "USD", "totalValue": "-5.00"},
			"must be positive",
		},
		{
			"negative share count",
			Entry{"date": "2023.01.02", "action": "Sell", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "-1", "unitValue": "1.00", "totalValue": "1.00"},
			"must be positive",
		},
		{
			"negative fee",
			Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "1", "unitValue": "1.00", "totalValue": "1.00", "feeValue": "-1.00"},
			"must not be negative",
		},
		{
			"income identity broken",
			Entry{"date": "2023.01.02", "action": "Dividend", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "grossValue": "10.00", "netValue": "8.00", "taxValue": "1.00"},
			"does not equal",
		},
		{
			"split from mismatch",
			Entry{"date": "2023.01.02", "action": "Split", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "fromTotalShares": "99", "toTotalShares": "198", "fromToCoefficient": "2"},
			"does not match",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries := append(brokerLedger(), tc.extra)
			_, report := Replay(entries)
			if !report.Partial() {
				t.Fatal("replay completed, want a fatal entry")
			}
			if report.FatalIndex != len(entries)-1 {
				t.Fatalf("FatalIndex = %d, want %d (%v)", report.FatalIndex, len(entries)-1, report.Err)
			}
			if !strings.Contains(report.Err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", report.Err, tc.wantErr)
			}
		})
	}
}

func TestReplayTradeBookkeeping(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "10", "unitValue": "50.00", "totalValue": "500.00", "feeValue": "5.00"},
		Entry{"date": "2023.01.03", "action": "Sell", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "4", "unitValue": "60.00", "totalValue": "240.00"},
	)
	p, report := Replay(entries)
	requireClean(t, report)

	if got := balance(t, p, "Broker", "ACME"); !got.Equal(decimal.RequireFromString("6")) {
		t.Errorf("position = %s, want 6", got)
	}
	// 5000 - (500+5) + 240
	if got := balance(t, p, "Broker", "USD"); !got.Equal(decimal.RequireFromString("4735")) {
		t.Errorf("cash = %s, want 4735", got)
	}

	stock := p.Platform("Broker").Stock("ACME")
	bd := stock.CashBreakdown()
	if !bd.Buy.Equal(decimal.RequireFromString("505")) || !bd.Sell.Equal(decimal.RequireFromString("240")) {
		t.Errorf("breakdown = %+v", bd)
	}
	if !bd.Total.Equal(bd.Buy.Neg().Add(bd.Sell).Add(bd.Income).Add(bd.Other)) {
		t.Errorf("breakdown does not reconcile: %+v", bd)
	}
	price, on := stock.LatestValue()
	if !price.Equal(decimal.RequireFromString("60")) || on != MustParseDate("2023.01.03") {
		t.Errorf("latest price = %s on %s", price, on)
	}
}

func TestReplayToleranceWarnings(t *testing.T) {
	testCases := []struct {
		name  string
		extra Entry
		want  string
	}{
		{
			"stated total off",
			Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "10", "unitValue": "50.00", "totalValue": "501.00"},
			"differs from unitValue",
		},
		{
			"unit value not positive",
			Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "10", "unitValue": "0", "totalValue": "0.01"},
			"not positive",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries := append(brokerLedger(), tc.extra)
			_, report := Replay(entries)
			if report.Partial() {
				t.Fatalf("replay stopped: %v", report.Err)
			}
			warns := report.Messages[len(entries)-1]
			found := false
			for _, w := range warns {
				if strings.Contains(w, tc.want) {
					found = true
					// Tolerance warnings name the holding they concern.
					if !strings.HasPrefix(w, "ACME: ") {
						t.Errorf("warning %q is not scoped to the holding", w)
					}
				}
			}
			if !found {
				t.Errorf("warnings %v miss %q", warns, tc.want)
			}
		})
	}
}

func TestReplayOverdraftWarns(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "200", "unitValue": "50.00", "totalValue": "10000.00"},
	)
	p, report := Replay(entries)
	if report.Partial() {
		t.Fatalf("replay stopped: %v", report.Err)
	}
	warns := report.Messages[len(entries)-1]
	if len(warns) == 0 || !strings.Contains(warns[0], "negative") {
		t.Errorf("warnings = %v, want a negative balance warning", warns)
	}
	if got := balance(t, p, "Broker", "USD"); !got.IsNegative() {
		t.Errorf("cash = %s, want negative", got)
	}
}

func TestReplayConversionAndTransfer(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.02", "action": "NewAsset", "platform": "Broker", "assetType": "Cash", "currency": "EUR"},
		Entry{"date": "2023.01.03", "action": "CurrencyConversion", "platform": "Broker", "fromCurrency": "USD", "toCurrency": "EUR", "fromValue": "100.00", "toValue": "91.74", "fromToCoefficient": "0.9174", "feeValue": "1.00"},
		Entry{"date": "2023.01.04", "action": "NewPlatform", "platform": "Bank"},
		Entry{"date": "2023.01.04", "action": "NewAsset", "platform": "Bank", "assetType": "Cash", "currency": "USD"},
		Entry{"date": "2023.01.05", "action": "Transfer", "fromPlatform": "Broker", "toPlatform": "Bank", "currency": "USD", "totalValue": "500.00", "feeValue": "2.00"},
	)
	p, report := Replay(entries)
	requireClean(t, report)

	// 5000 - 101 - 502
	if got := balance(t, p, "Broker", "USD"); !got.Equal(decimal.RequireFromString("4397")) {
		t.Errorf("Broker USD = %s, want 4397", got)
	}
	if got := balance(t, p, "Broker", "EUR"); !got.Equal(decimal.RequireFromString("91.74")) {
		t.Errorf("Broker EUR = %s, want 91.74", got)
	}
	if got := balance(t, p, "Bank", "USD"); !got.Equal(decimal.RequireFromString("500")) {
		t.Errorf("Bank USD = %s, want 500", got)
	}
}

func TestReplayConversionRoundingWarns(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.02", "action": "NewAsset", "platform": "Broker", "assetType": "Cash", "currency": "EUR"},
		// 100 x 0.9174 = 91.74: stating 91.00 is off in either rounding mode.
		Entry{"date": "2023.01.03", "action": "CurrencyConversion", "platform": "Broker", "fromCurrency": "USD", "toCurrency": "EUR", "fromValue": "100.00", "toValue": "91.00", "fromToCoefficient": "0.9174"},
	)
	_, report := Replay(entries)
	if report.Partial() {
		t.Fatalf("replay stopped: %v", report.Err)
	}
	if report.WarningCount() == 0 {
		t.Error("no warning for a mismatched conversion")
	}
}

func TestReplaySplit(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "10", "unitValue": "50.00", "totalValue": "500.00"},
		Entry{"date": "2023.01.03", "action": "Split", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "fromTotalShares": "10", "toTotalShares": "20", "fromToCoefficient": "2"},
	)
	p, report := Replay(entries)
	requireClean(t, report)
	if got := balance(t, p, "Broker", "ACME"); !got.Equal(decimal.RequireFromString("20")) {
		t.Errorf("position = %s, want 20", got)
	}
	// A split moves no cash.
	if got := balance(t, p, "Broker", "USD"); !got.Equal(decimal.RequireFromString("4500")) {
		t.Errorf("cash = %s, want 4500", got)
	}
}

func TestReplayAndFinalizeComputesReturns(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.01", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "10", "unitValue": "99.50", "totalValue": "995.00", "feeValue": "5.00"},
		Entry{"date": "2023.02.01", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "5", "unitValue": "100.00", "totalValue": "500.00"},
		Entry{"date": "2023.03.01", "action": "Sell", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "6", "unitValue": "220.00", "totalValue": "1320.00"},
		Entry{"date": "2023.04.01", "action": "Dividend", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "grossValue": "100.00", "netValue": "100.00", "taxValue": "0.00"},
		Entry{"date": "2023.05.01", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "12", "unitValue": "183.3333", "totalValue": "2200.00"},
	)
	src := staticPrices{"ACME": {Price: decimal.RequireFromString("126.25"), On: MustParseDate("2023.06.01")}}

	p, report := ReplayAndFinalize(context.Background(), entries, src)
	requireClean(t, report)
	if !p.Finalized() {
		t.Fatal("portfolio not finalized")
	}

	stock := p.Platform("Broker").Stock("ACME")
	if got := stock.Balance(); !got.Equal(decimal.RequireFromString("21")) {
		t.Fatalf("position = %s, want 21", got)
	}
	// Flows: -1000, -500, +1320, +100, -2200, then 21 x 126.25 = +2651.25.
	rate, ok := stock.AnnualizedReturn()
	if !ok {
		t.Fatalf("no return computed: %s", stock.XIRR())
	}
	if want := 1.1592664235; math.Abs(rate-want) > 1e-6 {
		t.Errorf("annualized = %v, want %v", rate, want)
	}
	if got, want := stock.XIRR(), "115.93%"; got != want {
		t.Errorf("XIRR() = %q, want %q", got, want)
	}

	// Finalize is one-shot.
	if err := p.Finalize(context.Background(), src); err == nil {
		t.Error("second Finalize succeeded, want error")
	}
}

func TestReplayAndFinalizeSkipsAfterFatal(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2022.12.31", "action": "NewPlatform", "platform": "Late"}, // out of order
	)
	p, report := ReplayAndFinalize(context.Background(), entries, nil)
	if !report.Partial() {
		t.Fatal("replay completed, want a fatal entry")
	}
	if p.Finalized() {
		t.Error("a partial replay must not be finalized")
	}
}

func TestCashInterestReturn(t *testing.T) {
	entries := []Entry{
		{"date": "2023.01.01", "action": "NewPlatform", "platform": "Bank"},
		{"date": "2023.01.01", "action": "NewAsset", "platform": "Bank", "assetType": "Cash", "currency": "EUR"},
		{"date": "2023.01.01", "action": "Deposit", "platform": "Bank", "currency": "EUR", "totalValue": "1000.00"},
		{"date": "2024.01.01", "action": "Interest", "platform": "Bank", "assetType": "Cash", "currency": "EUR", "grossValue": "100.00", "netValue": "100.00", "taxValue": "0.00"},
	}
	p, report := ReplayAndFinalize(context.Background(), entries, nil)
	requireClean(t, report)

	cash := p.Platform("Bank").Cash("EUR")
	if !cash.InterestEarned().Equal(decimal.RequireFromString("100")) {
		t.Errorf("interest earned = %s, want 100", cash.InterestEarned())
	}
	// Interest is the account's own growth: 1000 in, 1100 out a year later.
	rate, ok := cash.AnnualizedReturn()
	if !ok {
		t.Fatalf("no return computed: %s", cash.XIRR())
	}
	if math.Abs(rate-0.10) > 1e-6 {
		t.Errorf("annualized = %v, want 0.10", rate)
	}
	if got, want := cash.XIRR(), "10.00%"; got != want {
		t.Errorf("XIRR() = %q, want %q", got, want)
	}
}

func TestReplayDelistAndWindfall(t *testing.T) {
	entries := append(brokerLedger(),
		Entry{"date": "2023.01.02", "action": "Buy", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalShares": "10", "unitValue": "50.00", "totalValue": "500.00"},
		Entry{"date": "2023.02.01", "action": "PublicToPrivateShareConversion", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "feeValue": "25.00"},
		Entry{"date": "2023.03.01", "action": "UnspecificAccountingIncomeAction", "platform": "Broker", "assetType": "Stock", "assetCode": "ACME", "totalValue": "75.00"},
	)
	p, report := Replay(entries)
	requireClean(t, report)

	// Position untouched, cash -500 -25 +75.
	if got := balance(t, p, "Broker", "ACME"); !got.Equal(decimal.RequireFromString("10")) {
		t.Errorf("position = %s, want 10", got)
	}
	if got := balance(t, p, "Broker", "USD"); !got.Equal(decimal.RequireFromString("4550")) {
		t.Errorf("cash = %s, want 4550", got)
	}
	bd := p.Platform("Broker").Stock("ACME").CashBreakdown()
	if !bd.Other.Equal(decimal.RequireFromString("50")) { // -25 + 75
		t.Errorf("other cash = %s, want 50", bd.Other)
	}
}
