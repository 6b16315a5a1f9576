// Package currency converts and formats receipt amounts for display.
//
// Stored amounts always stay in the receipt's native currency. A Converter only
// carries the chosen display currency and the rate used to render amounts in it.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// ErrRateUnavailable is returned when the rate provider cannot supply a
	// usable rate. The previous display currency and rate are kept.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrInvalidCode is returned for blank currency codes.
	ErrInvalidCode = errors.New("invalid currency code")
)

// DefaultCode is used when a receipt does not report a currency.
const DefaultCode = "USD"

// displayOptions are offered in this order, followed by the receipt's
// native currency when it is not one of them.
var displayOptions = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY"}

// symbols maps the bare symbols parsers sometimes report to ISO codes.
var symbols = map[string]string{
	"$":   "USD",
	"US$": "USD",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"C$":  "CAD",
	"A$":  "AUD",
	"₹":   "INR",
	"₩":   "KRW",
}

// RateProvider looks up the rate that converts one unit of from into to.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Normalize upper-cases a currency code and maps known symbols to ISO codes.
// An empty code becomes DefaultCode.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultCode
	}
	if iso, ok := symbols[code]; ok {
		return iso
	}
	return strings.ToUpper(code)
}

// Options returns the display currencies offered for a receipt.
func Options(native string) []string {
	native = Normalize(native)
	out := append([]string{}, displayOptions...)
	for _, c := range out {
		if c == native {
			return out
		}
	}
	return append(out, native)
}

// Converter holds the display currency and rate for one session.
// It is not safe for concurrent use; the owning session serializes access.
type Converter struct {
	provider RateProvider
	native   string
	display  string
	rate     float64
	printer  *message.Printer
}

// NewConverter creates a converter for the given native currency.
func NewConverter(provider RateProvider, native string) *Converter {
	c := &Converter{
		provider: provider,
		printer:  message.NewPrinter(language.English),
	}
	c.Reset(native)
	return c
}

// Reset points the converter at a new receipt: display equals native and the
// rate returns to 1.
func (c *Converter) Reset(native string) {
	c.native = Normalize(native)
	c.display = c.native
	c.rate = 1
}

// Clone returns an independent copy sharing the same provider.
func (c *Converter) Clone() *Converter {
	out := *c
	return &out
}

// Native returns the normalized native currency.
func (c *Converter) Native() string { return c.native }

// Display returns the current display currency.
func (c *Converter) Display() string { return c.display }

// Rate returns the current native-to-display rate.
func (c *Converter) Rate() float64 { return c.rate }

// SetDisplayCurrency switches the display currency.
// Choosing the native currency sets the rate to exactly 1 without consulting
// the provider. On provider failure the previous currency and rate are kept and
// ErrRateUnavailable is returned.
func (c *Converter) SetDisplayCurrency(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrInvalidCode
	}
	code = Normalize(code)
	if code == c.native {
		c.display = code
		c.rate = 1
		return nil
	}
	if c.provider == nil {
		return fmt.Errorf("%w: no rate provider configured", ErrRateUnavailable)
	}

	rate, err := c.provider.Rate(ctx, c.native, code)
	if err != nil {
		return fmt.Errorf("%w: %s to %s: %v", ErrRateUnavailable, c.native, code, err)
	}
	if !(rate > 0) {
		return fmt.Errorf("%w: %s to %s: non-positive rate %v", ErrRateUnavailable, c.native, code, rate)
	}

	c.display = code
	c.rate = rate
	return nil
}

// Convert returns amount expressed in the display currency.
func (c *Converter) Convert(amount float64) float64 {
	return amount * c.rate
}

// Format renders amount in the display currency, e.g. "$ 12.50" or "¥ 1,350".
func (c *Converter) Format(amount float64) string {
	return FormatAmount(c.printer, c.display, c.Convert(amount))
}

// FormatAmount renders an amount already expressed in code.
// Codes unknown to the ISO 4217 table fall back to "<code> 12.34".
func FormatAmount(p *message.Printer, code string, amount float64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, amount)
	}
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
