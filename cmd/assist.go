package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	"github.com/tbuchner/folio/assist"
	"github.com/tbuchner/folio/renderer"
)

type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "explain the replay report with Gemini" }
func (*assistCmd) Usage() string {
	return `assist [question...]

  Replays the ledger and asks Gemini to explain the report: what each warning
  means and how to fix the ledger. Requires Gemini credentials in the
  environment.
`
}

func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	question := strings.Join(f.Args(), " ")

	p, report, err := Replay(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	auditor, err := assist.NewAuditor(ctx, client)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error starting the auditor:", err)
		return subcommands.ExitFailure
	}

	answer, err := auditor.Explain(ctx, renderer.Summary(p), renderer.Report(report), question)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Auditor failed:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(answer)
	return subcommands.ExitSuccess
}
