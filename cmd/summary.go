package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tbuchner/folio/renderer"
)

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display all holdings with value and return" }
func (*summaryCmd) Usage() string {
	return `summary

  Replays the ledger and displays every holding: position, market value, and
  annualized return.
`
}

func (*summaryCmd) SetFlags(_ *flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, report, err := Replay(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if report.Partial() {
		fmt.Fprintf(os.Stderr, "Replay stopped early: %v\nRun 'replay' for the full report.\n", report.Err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Summary(p))
	return subcommands.ExitSuccess
}
