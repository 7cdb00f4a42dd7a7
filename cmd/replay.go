package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tbuchner/folio/renderer"
)

type replayCmd struct {
	quiet bool
}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "replay the ledger and report problems" }
func (*replayCmd) Usage() string {
	return `replay [-q]

  Replays the ledger entry by entry and prints the report: every warning with
  the entry it belongs to, and the fatal error if the replay stopped early.
`
}

func (c *replayCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "q", false, "print nothing on a clean replay")
}

func (c *replayCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, report, err := Replay(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.quiet && report.Clean() {
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.Report(report))
	if report.Partial() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
