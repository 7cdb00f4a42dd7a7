package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tbuchner/folio"
	"github.com/tbuchner/folio/renderer"
)

type historyCmd struct {
	platform string
	key      string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the change history of one holding" }
func (*historyCmd) Usage() string {
	return `history -p <platform> -k <key>

  Displays every change of one holding: the key is the currency for cash, the
  asset code otherwise.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.platform, "p", "", "platform the holding lives on")
	f.StringVar(&c.key, "k", "", "currency or asset code of the holding")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.platform == "" || c.key == "" {
		fmt.Fprintln(os.Stderr, "both -p and -k must be provided")
		return subcommands.ExitUsageError
	}

	p, report, err := Replay(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if report.Partial() {
		fmt.Fprintf(os.Stderr, "Replay stopped early: %v\nRun 'replay' for the full report.\n", report.Err)
		return subcommands.ExitFailure
	}

	pl := p.Platform(c.platform)
	if pl == nil {
		fmt.Fprintf(os.Stderr, "Platform %q does not exist\n", c.platform)
		return subcommands.ExitFailure
	}
	var found folio.Holding
	for h := range pl.Holdings() {
		if h.Key() == c.key {
			found = h
			break
		}
	}
	if found == nil {
		fmt.Fprintf(os.Stderr, "No holding %q on platform %q\n", c.key, c.platform)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.History(c.platform, found))
	return subcommands.ExitSuccess
}
