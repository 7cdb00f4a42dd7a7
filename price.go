package folio

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is the most recent known price of an asset and when it was observed.
type Quote struct {
	Price decimal.Decimal
	On    Date
}

// PriceSource supplies the best known current price for an asset code.
//
// A source returning an error means "no price available"; holdings then fall
// back to their last transaction-derived price. There is no retry policy at
// this layer.
type PriceSource interface {
	Latest(ctx context.Context, code string) (Quote, error)
}
