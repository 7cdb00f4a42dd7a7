package cmd

import (
	"context"
	"flag"
	"testing"

	"github.com/google/subcommands"
)

func runReplay(t *testing.T, ledger string, args ...string) subcommands.ExitStatus {
	t.Helper()
	useLedger(t, createTempLedger(t, ledger))

	cmd := &replayCmd{}
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd.Execute(context.Background(), f)
}

func TestReplayCleanLedger(t *testing.T) {
	ledger := `[
		{"date": "2023.01.01", "action": "NewPlatform", "platform": "B"},
		{"date": "2023.01.01", "action": "NewAsset", "platform": "B", "assetType": "Cash", "currency": "USD"},
		{"date": "2023.01.02", "action": "Deposit", "platform": "B", "currency": "USD", "totalValue": "1000.00"}
	]`
	if status := runReplay(t, ledger, "-q"); status != subcommands.ExitSuccess {
		t.Errorf("Execute() = %v, want ExitSuccess", status)
	}
}

func TestReplayStoppedLedger(t *testing.T) {
	// The deposit names a platform that was never created.
	ledger := `[
		{"date": "2023.01.01", "action": "NewPlatform", "platform": "B"},
		{"date": "2023.01.02", "action": "Deposit", "platform": "X", "currency": "USD", "totalValue": "1000.00"}
	]`
	if status := runReplay(t, ledger); status != subcommands.ExitFailure {
		t.Errorf("Execute() = %v, want ExitFailure", status)
	}
}
