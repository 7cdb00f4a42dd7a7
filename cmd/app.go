// Package cmd implements the CLI application to replay a portfolio ledger.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/tbuchner/folio"
	"github.com/tbuchner/folio/quote"
)

// Register the subcommands.
// A main package calls Register(), then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&replayCmd{}, "ledger")
	c.Register(&fmtCmd{}, "ledger")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")

	c.Register(&fetchCmd{}, "quotes")

	c.Register(&topicCmd{}, "help")
	c.Register(&assistCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var ledgerFile = flag.String("l", "ledger.json", "Path to the ledger file (JSON array of entries)")

// DecodeEntries reads the app ledger file.
func DecodeEntries() ([]folio.Entry, error) {
	f, err := os.Open(*ledgerFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger %q: %w", *ledgerFile, err)
	}
	defer f.Close()
	return folio.DecodeLedger(f)
}

// PriceSource builds the configured quote client, TTL cache included.
// It returns nil when no endpoint is configured: holdings then keep their
// last transaction price.
func PriceSource() folio.PriceSource {
	cfg, err := quote.Load()
	if err != nil {
		log.Printf("warning, quote configuration ignored: %v", err)
		return nil
	}
	if cfg.URL == "" {
		return nil
	}
	return quote.NewCache(quote.NewClient(cfg), cfg.TTL)
}

// Replay decodes the app ledger, replays it, and finalizes against the
// configured price source.
func Replay(ctx context.Context) (*folio.Portfolio, *folio.Report, error) {
	entries, err := DecodeEntries()
	if err != nil {
		return nil, nil, err
	}
	p, report := folio.ReplayAndFinalize(ctx, entries, PriceSource())
	return p, report, nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the renderer cannot run.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
