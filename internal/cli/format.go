// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NotAvailable is printed in place of undefined values.
const NotAvailable = "n/a"

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f%%", v)
}

// FormatAngle formats an angle in degrees.
func FormatAngle(deg float64) string {
	if math.IsNaN(deg) {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f°", deg)
}

// FormatSlope formats a completion/time slope.
func FormatSlope(v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	return fmt.Sprintf("%.3f", v)
}

// FormatDate formats a date; the zero time means unresolved.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format("2006-01-02")
}

// FormatMoney formats an amount in the given ISO 4217 currency, rounded to
// the currency's minor unit. Unknown currencies fall back to two decimals
// followed by the code.
func FormatMoney(amount decimal.NullDecimal, currency string) string {
	if !amount.Valid {
		return NotAvailable
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.Decimal.StringFixed(2) + " " + currency
	}
	minor := amount.Decimal.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// FormatDelta formats a percentage-point difference with its sign.
func FormatDelta(current, previous float64) string {
	if math.IsNaN(current) || math.IsNaN(previous) {
		return NotAvailable
	}
	delta := current - previous
	if delta >= 0 {
		return fmt.Sprintf("+%.1f pp", delta)
	}
	return fmt.Sprintf("-%.1f pp", -delta)
}
