// Package folio replays a chronological ledger of portfolio transactions
// into a consistent portfolio state and computes per-holding annualized
// returns (XIRR).
//
// A ledger is an ordered list of flat entries (see Entry). Replay validates
// each entry, mutates the Portfolio, and records non-fatal warnings per
// entry. The first fatal error stops the replay; the portfolio then reflects
// only the prefix of entries successfully applied.
//
// After a clean replay, Finalize fetches the latest prices from a
// PriceSource and computes each holding's XIRR from its cash-flow history.
package folio
