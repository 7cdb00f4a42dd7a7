package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/tbuchner/folio"
)

// Report renders the outcome of a replay: the fatal error if the run stopped,
// then every warning with the entry it belongs to.
func Report(r *folio.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Replay Report")
	switch {
	case r.Partial():
		doc.PlainText(fmt.Sprintf("Replay stopped: %v. Entries after position %d were not applied.", r.Err, r.FatalIndex))
	case r.Err != nil:
		doc.PlainText(fmt.Sprintf("Replay completed but finalize failed: %v.", r.Err))
	case r.Clean():
		doc.PlainText("All entries applied. No warnings.")
	default:
		doc.PlainText(fmt.Sprintf("All entries applied with %d warning(s).", r.WarningCount()))
	}

	if len(r.Messages) > 0 {
		table := md.TableSet{Header: []string{"Entry", "Warning"}}
		for _, i := range r.Indexes() {
			for _, w := range r.Messages[i] {
				table.Rows = append(table.Rows, []string{strconv.Itoa(i), w})
			}
		}
		doc.Table(table)
	}
	return doc.String()
}
