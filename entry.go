package folio

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Action identifies what a ledger entry does.
type Action string

const (
	ActCheck            Action = "Check"
	ActNewPlatform      Action = "NewPlatform"
	ActNewAsset         Action = "NewAsset"
	ActBuy              Action = "Buy"
	ActDeposit          Action = "Deposit"
	ActDividend         Action = "Dividend"
	ActConversion       Action = "CurrencyConversion"
	ActPublicToPrivate  Action = "PublicToPrivateShareConversion"
	ActSplit            Action = "Split"
	ActTransfer         Action = "Transfer"
	ActUnspecificIncome Action = "UnspecificAccountingIncomeAction"
	ActSell             Action = "Sell"
	ActInterest         Action = "Interest"
)

// Entry is one raw ledger entry: a flat field bag as supplied by the ledger
// document. It is never mutated; the parser consumes it field by field.
type Entry map[string]string

// entryFields is the canonical order of every recognized field name. Any
// field outside this set is a fatal error: it prevents silent typos.
var entryFields = []string{
	"date", "action", "platform", "fromPlatform", "toPlatform",
	"assetType", "assetCode", "currency", "fromCurrency", "toCurrency",
	"totalShares", "fromTotalShares", "toTotalShares",
	"unitValue", "totalValue", "feeValue",
	"grossValue", "netValue", "taxValue",
	"fromValue", "toValue", "fromToCoefficient",
	"friendlyName", "notes",
}

var recognizedFields = func() map[string]bool {
	m := make(map[string]bool, len(entryFields))
	for _, f := range entryFields {
		m[f] = true
	}
	return m
}()

// --- field format validators ---

const maxFieldLen = 50

var (
	platformRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]*$`)
	currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)
	codeRe     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	nameRe     = regexp.MustCompile(`^[\pL0-9][\pL0-9 .,&()_-]*$`)
	amountRe   = regexp.MustCompile(`^-?[0-9]+([.,][0-9]+)?$`)
)

func validName(field, value string, re *regexp.Regexp) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%s must not be empty", field)
	}
	if len(value) > maxFieldLen {
		return "", fmt.Errorf("%s %q exceeds %d characters", field, value, maxFieldLen)
	}
	if !re.MatchString(value) {
		return "", fmt.Errorf("%s %q contains invalid characters", field, value)
	}
	return value, nil
}

// ParseAmount parses a ledger decimal field. Both "," and "." are accepted as
// the decimal separator; at most maxPlaces decimal digits are allowed.
func ParseAmount(field, value string, maxPlaces int) (decimal.Decimal, error) {
	if !amountRe.MatchString(value) {
		return decimal.Decimal{}, fmt.Errorf("%s %q is not a valid amount", field, value)
	}
	normalized := strings.ReplaceAll(value, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s %q is not a valid amount: %w", field, value, err)
	}
	if int(-d.Exponent()) > maxPlaces {
		return decimal.Decimal{}, fmt.Errorf("%s %q has more than %d decimal places", field, value, maxPlaces)
	}
	return d, nil
}

// maxPlaces per amount field: cash values are cent-precise, share counts and
// coefficients allow fine fractions, unit prices sit in between.
var amountPlaces = map[string]int{
	"totalShares":       8,
	"fromTotalShares":   8,
	"toTotalShares":     8,
	"unitValue":         4,
	"totalValue":        2,
	"feeValue":          2,
	"grossValue":        2,
	"netValue":          2,
	"taxValue":          2,
	"fromValue":         2,
	"toValue":           2,
	"fromToCoefficient": 8,
}

// --- per-(action, assetType) field sets ---

type fieldSpec struct {
	required []string
	optional []string
}

// specKey selects the exact field set. Asset is empty for actions that do not
// discriminate on assetType.
type specKey struct {
	action Action
	asset  AssetType
}

var fieldSpecs = map[specKey]fieldSpec{
	{ActNewPlatform, ""}: {required: []string{"date", "action", "platform"}},

	{ActNewAsset, AssetCash}:      {required: []string{"date", "action", "platform", "assetType", "currency"}},
	{ActNewAsset, AssetStock}:     {required: []string{"date", "action", "platform", "assetType", "assetCode", "friendlyName", "currency"}},
	{ActNewAsset, AssetBond}:      {required: []string{"date", "action", "platform", "assetType", "assetCode", "friendlyName", "currency"}},
	{ActNewAsset, AssetIndexFund}: {required: []string{"date", "action", "platform", "assetType", "assetCode", "friendlyName", "currency"}},

	{ActDeposit, ""}: {required: []string{"date", "action", "platform", "currency", "totalValue"}},

	{ActCheck, AssetCash}:      {required: []string{"date", "action", "platform", "assetType", "currency", "totalValue"}},
	{ActCheck, AssetStock}:     {required: []string{"date", "action", "platform", "assetType", "assetCode", "totalShares"}},
	{ActCheck, AssetBond}:      {required: []string{"date", "action", "platform", "assetType", "assetCode", "totalShares"}},
	{ActCheck, AssetIndexFund}: {required: []string{"date", "action", "platform", "assetType", "assetCode", "totalShares"}},

	{ActBuy, AssetStock}:     tradeSpec,
	{ActBuy, AssetBond}:      tradeSpec,
	{ActBuy, AssetIndexFund}: tradeSpec,

	{ActSell, AssetStock}:     tradeSpec,
	{ActSell, AssetBond}:      tradeSpec,
	{ActSell, AssetIndexFund}: tradeSpec,

	{ActDividend, AssetStock}: {required: []string{"date", "action", "platform", "assetType", "assetCode", "grossValue", "netValue", "taxValue"}},

	{ActInterest, AssetCash}: {required: []string{"date", "action", "platform", "assetType", "currency", "grossValue", "netValue", "taxValue"}},
	{ActInterest, AssetBond}: {required: []string{"date", "action", "platform", "assetType", "assetCode", "grossValue", "netValue", "taxValue"}},

	{ActConversion, ""}: {
		required: []string{"date", "action", "platform", "fromCurrency", "toCurrency", "fromValue", "toValue", "fromToCoefficient"},
		optional: []string{"feeValue"},
	},

	{ActTransfer, ""}: {
		required: []string{"date", "action", "fromPlatform", "toPlatform", "currency", "totalValue"},
		optional: []string{"feeValue"},
	},

	{ActPublicToPrivate, AssetStock}:  {required: []string{"date", "action", "platform", "assetType", "assetCode", "feeValue"}},
	{ActUnspecificIncome, AssetStock}: {required: []string{"date", "action", "platform", "assetType", "assetCode", "totalValue"}},

	{ActSplit, AssetStock}:     splitSpec,
	{ActSplit, AssetBond}:      splitSpec,
	{ActSplit, AssetIndexFund}: splitSpec,
}

var tradeSpec = fieldSpec{
	required: []string{"date", "action", "platform", "assetType", "assetCode", "totalShares", "unitValue", "totalValue"},
	optional: []string{"feeValue"},
}

var splitSpec = fieldSpec{
	required: []string{"date", "action", "platform", "assetType", "assetCode", "fromTotalShares", "toTotalShares", "fromToCoefficient"},
}

// knownActions indexes every action that carries at least one field set.
var knownActions = func() map[Action]bool {
	m := make(map[Action]bool, len(fieldSpecs))
	for k := range fieldSpecs {
		m[k.action] = true
	}
	return m
}()

// usesAssetType reports whether the action's field set is selected by assetType.
func usesAssetType(a Action) bool {
	_, plain := fieldSpecs[specKey{a, ""}]
	return !plain
}

// parsedEntry holds the validated, typed fields of one ledger entry, ready
// for dispatch.
type parsedEntry struct {
	date    Date
	action  Action
	asset   AssetType
	names   map[string]string          // platform, currency, code, name fields
	amounts map[string]decimal.Decimal // all decimal fields
	notes   string
}

func (pe *parsedEntry) amount(field string) decimal.Decimal { return pe.amounts[field] }
func (pe *parsedEntry) name(field string) string            { return pe.names[field] }

// fee returns the feeValue if present, zero otherwise.
func (pe *parsedEntry) fee() decimal.Decimal {
	return pe.amounts["feeValue"]
}

// parseEntry validates the raw entry field by field and returns its typed
// form, or the fatal error that disqualifies it.
//
// Validation is staged: field admission first (any unrecognized field name is
// fatal), then action/assetType resolution, then the per-(action, assetType)
// required/extra field check, then per-field format validation.
func parseEntry(e Entry) (*parsedEntry, error) {
	// Step 1: field admission.
	for field := range e {
		if !recognizedFields[field] {
			return nil, fmt.Errorf("unrecognized field %q", field)
		}
	}

	rawAction, ok := e["action"]
	if !ok {
		return nil, fmt.Errorf("missing required field %q", "action")
	}
	action := Action(rawAction)
	if !knownActions[action] {
		return nil, fmt.Errorf("action %q is not implemented", action)
	}

	// Step 2: resolve the exact field set for this (action, assetType) pair.
	key := specKey{action: action}
	var asset AssetType
	if usesAssetType(action) {
		rawAsset, ok := e["assetType"]
		if !ok {
			return nil, fmt.Errorf("action %q requires field %q", action, "assetType")
		}
		parsed, err := ParseAssetType(rawAsset)
		if err != nil {
			return nil, err
		}
		asset = parsed
		key.asset = asset
	}
	spec, ok := fieldSpecs[key]
	if !ok {
		if key.asset != "" {
			return nil, fmt.Errorf("action %q is not implemented for asset type %q", action, key.asset)
		}
		return nil, fmt.Errorf("action %q is not implemented", action)
	}

	// Step 3: required, optional, and extra fields.
	allowed := map[string]bool{"notes": true}
	for _, f := range spec.required {
		allowed[f] = true
		if _, ok := e[f]; !ok {
			return nil, fmt.Errorf("action %q is missing required field %q", action, f)
		}
	}
	for _, f := range spec.optional {
		allowed[f] = true
	}
	for f := range e {
		if !allowed[f] {
			return nil, fmt.Errorf("field %q is not allowed for action %q", f, action)
		}
	}

	// Step 4: per-field format validation.
	pe := &parsedEntry{
		action:  action,
		asset:   asset,
		names:   make(map[string]string),
		amounts: make(map[string]decimal.Decimal),
		notes:   e["notes"],
	}
	for field, value := range e {
		var err error
		switch field {
		case "action", "assetType", "notes":
			// already handled
		case "date":
			pe.date, err = ParseDate(value)
		case "platform", "fromPlatform", "toPlatform":
			pe.names[field], err = validName(field, value, platformRe)
		case "currency", "fromCurrency", "toCurrency":
			pe.names[field], err = validName(field, value, currencyRe)
		case "assetCode":
			pe.names[field], err = validName(field, value, codeRe)
		case "friendlyName":
			pe.names[field], err = validName(field, value, nameRe)
		default:
			pe.amounts[field], err = ParseAmount(field, value, amountPlaces[field])
		}
		if err != nil {
			return nil, err
		}
	}
	return pe, nil
}
