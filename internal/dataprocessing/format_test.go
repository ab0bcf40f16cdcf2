package dataprocessing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		format    string
		precision int
		want      string
	}{
		{"billions rounded", 1234.5, ValueFormatCurrencyBillions, 0, "$1,235 B"},
		{"billions small", 987, ValueFormatCurrencyBillions, 0, "$987 B"},
		{"billions with cents", 1234567.891, ValueFormatCurrencyBillions, 2, "$1,234,567.89 B"},
		{"negative billions", -1500, ValueFormatCurrencyBillions, 0, "-$1,500 B"},
		{"percent", 12.345, ValueFormatPercent, 2, "12.35%"},
		{"percent pads zeros", 11.5, ValueFormatPercent, 2, "11.50%"},
		{"score", 745.4, ValueFormatNumber, 0, "745"},
		{"number grouped", 12345.678, ValueFormatNumber, 1, "12,345.7"},
		{"negative number", -0.5, ValueFormatNumber, 2, "-0.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.value, tt.format, tt.precision))
		})
	}
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+1.50%", FormatDelta(decimal.RequireFromString("1.5"), ValueFormatPercent, 2))
	assert.Equal(t, "-0.30", FormatDelta(decimal.RequireFromString("-0.3"), ValueFormatNumber, 2))
	assert.Equal(t, "+0", FormatDelta(decimal.Zero, ValueFormatNumber, 0))
}
