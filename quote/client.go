package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/tbuchner/folio"
)

// Client fetches quotes over HTTP. It implements folio.PriceSource.
type Client struct {
	cfg    *Config
	client *resty.Client
}

// NewClient builds a client from the endpoint configuration.
func NewClient(cfg *Config) *Client {
	client := resty.New().
		SetDebug(cfg.Debug).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Client{cfg: cfg, client: client}
}

// Latest GETs the configured endpoint for one asset code and extracts the
// price, and the quote date when the provider reports one. A missing date
// falls back to today.
func (c *Client) Latest(ctx context.Context, code string) (folio.Quote, error) {
	addr := strings.ReplaceAll(c.cfg.URL, "{code}", url.QueryEscape(code))
	resp, err := c.client.R().SetContext(ctx).Get(addr)
	if err != nil {
		return folio.Quote{}, fmt.Errorf("cannot fetch quote for %q: %w", code, err)
	}
	if resp.StatusCode() != 200 {
		return folio.Quote{}, fmt.Errorf("cannot fetch quote for %q: %s", code, resp.Status())
	}

	var jobj any
	if err := json.Unmarshal(resp.Body(), &jobj); err != nil {
		return folio.Quote{}, fmt.Errorf("quote for %q is not json: %w", code, err)
	}

	price, err := extractNumber(jobj, c.cfg.PricePath)
	if err != nil {
		return folio.Quote{}, fmt.Errorf("quote for %q: %w", code, err)
	}

	on := folio.Today()
	if c.cfg.DatePath != "" {
		if d, err := extractDate(jobj, c.cfg.DatePath); err == nil {
			on = d
		}
	}
	return folio.Quote{Price: price, On: on}, nil
}

// first unwraps jsonpath results: the library sometimes answers with a
// one-element list instead of the value itself.
func first(jval any) any {
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		return jlist[0]
	}
	return jval
}

func extractNumber(jobj any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("path %q: %w", path, err)
	}
	switch v := first(jval).(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		// Some providers quote prices as strings, comma separator included.
		d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("path %q: invalid price %q: %w", path, v, err)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("path %q: not a number: %v", path, jval)
	}
}

func extractDate(jobj any, path string) (folio.Date, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return folio.Date{}, fmt.Errorf("path %q: %w", path, err)
	}
	s, ok := first(jval).(string)
	if !ok {
		return folio.Date{}, fmt.Errorf("path %q: not a date string: %v", path, jval)
	}
	// Providers mostly write ISO dates; the ledger's own format is accepted
	// as well.
	if d, err := folio.ParseDate(s); err == nil {
		return d, nil
	}
	return folio.ParseDate(strings.ReplaceAll(s, "-", "."))
}
