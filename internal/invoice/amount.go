package invoice

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonNumeric = regexp.MustCompile(`[^0-9.-]`)

// ParseAmount converts raw currency text into a non-negative-friendly float
// rounded to 2 decimals. It tolerates dollar signs, thousands separators and
// parenthesized negatives ("(1,234.50)" is -1234.50). Empty or unparseable
// input normalizes to 0; rejecting zero amounts is the flag engine's job.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	// A currency symbol may sit outside the parentheses, as in "$(1,234.50)".
	s = strings.TrimLeft(s, "$€£ \t")
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	s = nonNumeric.ReplaceAllString(s, "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Round(2).Float64()
	return f
}

// Round2 rounds a derived amount to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
