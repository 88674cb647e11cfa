package csvimport

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var leadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// ParseCleanNumber never fails: numbers pass through, strings lose currency
// symbols, commas and whitespace before parsing, and anything unparsable is 0.
func ParseCleanNumber(v any) float64 {
	f, _ := ParseNumber(v)
	return f
}

// ParseNumber is ParseCleanNumber with the degraded case made visible: ok is
// false whenever the returned 0 is a fallback rather than a parsed value.
func ParseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case string:
		return parseNumberText(n)
	default:
		return 0, false
	}
}

// parseNumberText reads the longest numeric prefix of the cleaned text, so
// "12 units" is 12 and "abc" is unparsable.
func parseNumberText(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, raw)
	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
