package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tbuchner/folio/quote"
)

type fetchCmd struct{}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch the latest quote for asset codes" }
func (*fetchCmd) Usage() string {
	return `fetch <code> [<code>...]

  Fetches the latest price of each asset code from the configured quote
  endpoint. See 'topic quotes' for the configuration.
`
}

func (*fetchCmd) SetFlags(_ *flag.FlagSet) {}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one asset code is required")
		return subcommands.ExitUsageError
	}
	cfg := quote.MustLoad()
	if cfg.URL == "" {
		fmt.Fprintln(os.Stderr, "No quote endpoint configured, set QUOTE_API_URL")
		return subcommands.ExitFailure
	}
	client := quote.NewClient(cfg)

	status := subcommands.ExitSuccess
	for _, code := range f.Args() {
		q, err := client.Latest(ctx, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%s\t%s\t%s\n", code, q.Price, q.On)
	}
	return status
}
