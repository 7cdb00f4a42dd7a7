package quote

import (
	"context"
	"fmt"

	"github.com/tbuchner/folio"
)

// Static is a fixed in-memory price source, for tests and offline runs.
type Static map[string]folio.Quote

// Latest returns the stored quote, or an error for codes it does not carry.
func (s Static) Latest(_ context.Context, code string) (folio.Quote, error) {
	q, ok := s[code]
	if !ok {
		return folio.Quote{}, fmt.Errorf("no quote for %q", code)
	}
	return q, nil
}
