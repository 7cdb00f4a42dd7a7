// Command flo replays a portfolio ledger: it validates the entries, rebuilds
// every holding, and reports balances, warnings, and annualized returns.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/tbuchner/folio/cmd"
)

func main() {
	// Shell completion runs first: when invoked by the shell it prints the
	// candidates and exits.
	completion := &complete.Command{
		Flags: map[string]complete.Predictor{
			"l": predict.Files("*.json"),
		},
		Sub: map[string]*complete.Command{
			"replay":  {Flags: map[string]complete.Predictor{"q": predict.Nothing}},
			"summary": {},
			"history": {Flags: map[string]complete.Predictor{"p": predict.Something, "k": predict.Something}},
			"fetch":   {Args: predict.Something},
			"fmt":     {Flags: map[string]complete.Predictor{"w": predict.Nothing}},
			"topic":   {Args: predict.Set{"ledger", "actions", "xirr", "quotes", "readme", "*"}},
			"assist":  {Args: predict.Something},
		},
	}
	completion.Complete("flo")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(subcommands.HelpCommand(), "help")
	commander.Register(subcommands.FlagsCommand(), "help")
	commander.Register(subcommands.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
