package dataprocessing

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Value formats understood by FormatValue
const (
	ValueFormatCurrencyBillions = "currency_billions"
	ValueFormatPercent          = "percent"
	ValueFormatNumber           = "number"
)

// FormatValue renders v for display, rounding half away from zero.
//
//	currency_billions, 0 → "$1,235 B"
//	percent, 2           → "12.34%"
//	number, 0            → "745"
func FormatValue(v float64, format string, precision int) string {
	d := decimal.NewFromFloat(v).Round(int32(precision))

	switch format {
	case ValueFormatCurrencyBillions:
		if d.IsNegative() {
			return "-$" + groupThousands(d.Abs(), precision) + " B"
		}
		return "$" + groupThousands(d, precision) + " B"
	case ValueFormatPercent:
		return d.StringFixed(int32(precision)) + "%"
	default:
		if d.IsNegative() {
			return "-" + groupThousands(d.Abs(), precision)
		}
		return groupThousands(d, precision)
	}
}

// FormatDelta renders a signed delta, "+1.50" or "-0.30", with a percent
// sign for percent formats.
func FormatDelta(delta decimal.Decimal, format string, precision int) string {
	s := delta.StringFixed(int32(precision))
	if !delta.IsNegative() {
		s = "+" + s
	}
	if format == ValueFormatPercent {
		s += "%"
	}
	return s
}

// groupThousands formats a non-negative decimal with comma separators
func groupThousands(d decimal.Decimal, precision int) string {
	fixed := d.StringFixed(int32(precision))
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	grouped := humanize.Comma(decimal.RequireFromString(intPart).IntPart())
	if hasFrac {
		return grouped + "." + frac
	}
	return grouped
}
