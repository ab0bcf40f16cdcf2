package dataprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decoratorReplacer = strings.NewReplacer("$", "", "%", "", ",", "")

// decimalPattern is plain decimal notation. strconv.ParseFloat alone would
// also take hex floats and digit underscores.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// NormalizeValue converts a decorated numeric cell into a float.
//
// Strings may carry a currency prefix, a percent suffix, thousands
// separators and surrounding whitespace. Numeric inputs are returned
// unchanged, so NormalizeValue(NormalizeValue(x)) == NormalizeValue(x).
// Percent values keep their magnitude: "12.34%" is 12.34.
func NormalizeValue(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		return normalizeString(x)
	case nil:
		return 0, &ValueFormatError{Value: ""}
	default:
		return 0, &ValueFormatError{Value: fmt.Sprint(v)}
	}
}

func normalizeString(raw string) (float64, error) {
	s := strings.TrimSpace(decoratorReplacer.Replace(strings.TrimSpace(raw)))
	if s == "" || !decimalPattern.MatchString(s) {
		return 0, &ValueFormatError{Value: raw}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValueFormatError{Value: raw}
	}
	return f, nil
}
