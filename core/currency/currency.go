// Package currency converts canonical USD amounts into the visitor's local
// currency and renders them for display.
//
// Amounts are always held in USD and converted on demand, so switching the
// active currency is a pure recomputation.
package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rentaiagent/internal/logging"
)

// Currency describes a display currency and its rate relative to USD.
type Currency struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
}

// USD is the fallback currency.
var USD = Currency{Code: "USD", Symbol: "$", Name: "US Dollar", Rate: decimal.NewFromInt(1)}

var grouping = message.NewPrinter(language.English)

// Convert returns amountUSD expressed in c.
func (c Currency) Convert(amountUSD decimal.Decimal) decimal.Decimal {
	return amountUSD.Mul(c.Rate)
}

// Format converts amountUSD and renders it with the currency symbol.
// JPY is rounded to whole yen with thousands grouping; every other currency
// shows exactly two decimals, including INR amounts below one rupee.
func (c Currency) Format(amountUSD decimal.Decimal) string {
	local := c.Convert(amountUSD)
	if c.Code == "JPY" {
		return c.Symbol + grouping.Sprintf("%d", local.Round(0).IntPart())
	}
	return c.Symbol + local.StringFixed(2)
}

// Label renders "CODE (Name)".
func (c Currency) Label() string {
	return fmt.Sprintf("%s (%s)", c.Code, c.Name)
}

// Equal reports whether c and o describe the same currency at the same rate.
func (c Currency) Equal(o Currency) bool {
	return c.Code == o.Code && c.Symbol == o.Symbol && c.Name == o.Name && c.Rate.Equal(o.Rate)
}

// Table maps ISO country codes to currencies.
type Table struct {
	byCountry map[string]Currency
	logger    *zap.Logger
}

// NewTable builds a table from entries keyed by country code. A nil logger
// uses the global logger.
func NewTable(entries map[string]Currency, logger *zap.Logger) *Table {
	t := &Table{
		byCountry: make(map[string]Currency, len(entries)),
		logger:    logging.Named(logger, "currency"),
	}
	for country, cur := range entries {
		t.byCountry[normalizeCountry(country)] = cur
	}
	return t
}

// DefaultEntries returns the built-in country table.
func DefaultEntries() map[string]Currency {
	eur := Currency{Code: "EUR", Symbol: "€", Name: "Euro", Rate: decimal.RequireFromString("0.92")}
	return map[string]Currency{
		"US": USD,
		"CA": {Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", Rate: decimal.RequireFromString("1.35")},
		"GB": {Code: "GBP", Symbol: "£", Name: "British Pound", Rate: decimal.RequireFromString("0.79")},
		"AU": {Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Rate: decimal.RequireFromString("1.52")},
		"DE": eur,
		"FR": eur,
		"IN": {Code: "INR", Symbol: "₹", Name: "Indian Rupee", Rate: decimal.RequireFromString("83.0")},
		"JP": {Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Rate: decimal.RequireFromString("150.0")},
	}
}

// DefaultTable returns a table over DefaultEntries.
func DefaultTable() *Table {
	return NewTable(DefaultEntries(), nil)
}

// Lookup returns the currency for country without falling back.
func (t *Table) Lookup(country string) (Currency, bool) {
	cur, ok := t.byCountry[normalizeCountry(country)]
	return cur, ok
}

// Resolve returns the currency for country. An empty country resolves to
// USD silently; an unrecognised one resolves to USD with a warning.
func (t *Table) Resolve(country string) Currency {
	code := normalizeCountry(country)
	if code == "" {
		return USD
	}
	cur, ok := t.byCountry[code]
	if !ok {
		t.logger.Warn("currency not found for country code, defaulting to USD", zap.String("country", code))
		return USD
	}
	return cur
}

// Countries returns the supported country codes in order.
func (t *Table) Countries() []string {
	out := make([]string, 0, len(t.byCountry))
	for c := range t.byCountry {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

var defaultTable = DefaultTable()

// Resolve resolves country against the built-in table.
func Resolve(country string) Currency {
	return defaultTable.Resolve(country)
}

func normalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}
