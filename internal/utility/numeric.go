package utility

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	nonNumericChars = regexp.MustCompile(`[^0-9+\-.eE]`)
	leadingFloat    = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// ToNumber converts model output such as "300mg", "1,200 kcal" or 42 into a
// float64. It never fails: anything that cannot be read as a finite number
// becomes 0.
//
// Strings are reduced to digits, signs, dots and exponent markers, and the
// longest leading float of what remains is parsed, so "2 eggs" yields 2 and
// "10-12" yields 10.
func ToNumber(v any) float64 {
	var s string

	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(n)
	case float32:
		return finiteOrZero(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		s = n.String()
	case string:
		s = n
	default:
		s = fmt.Sprint(v)
	}

	cleaned := nonNumericChars.ReplaceAllString(s, "")
	prefix := leadingFloat.FindString(cleaned)
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(f)
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
