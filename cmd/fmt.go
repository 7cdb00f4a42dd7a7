package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tbuchner/folio"
)

type fmtCmd struct {
	write bool
}

func (*fmtCmd) Name() string     { return "fmt" }
func (*fmtCmd) Synopsis() string { return "rewrite the ledger in canonical form" }
func (*fmtCmd) Usage() string {
	return `fmt [-w]

  Prints the ledger with one entry per line and fields in canonical order.
  With -w the ledger file is rewritten in place.
`
}

func (c *fmtCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.write, "w", false, "write the result back to the ledger file")
}

func (c *fmtCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := DecodeEntries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	var buf bytes.Buffer
	if err := folio.EncodeLedger(&buf, entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	if !c.write {
		fmt.Print(buf.String())
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(*ledgerFile, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
