// Package textutil cleans scraped text, parses prices and builds stable ids.
package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var idNamespace = uuid.MustParse("6f1c8a2e-4b1d-5c3e-9a7f-2d8e0b4c6a10")

// Clean collapses all whitespace runs into single spaces and trims
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// NormalizeName lowercases, strips punctuation and collapses whitespace so
// "Strike Package!" and "strike   package" share a key
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return Clean(b.String())
}

// ID builds a deterministic identifier from its parts
func ID(prefix string, parts ...string) string {
	sum := uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "\x1f")))
	return prefix + "_" + strings.ReplaceAll(sum.String(), "-", "")[:12]
}

// FloatPtr returns a pointer to v
func FloatPtr(v float64) *float64 {
	return &v
}

// Price is one monetary amount found in text
type Price struct {
	Value    float64
	Currency string
	Raw      string
	Index    int // byte offset in the source text
}

var priceRe = regexp.MustCompile(`(?i)(?:\b(USD|AUD|NZD|CAD|GBP|EUR)\s?)?([$£€¥])\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d{1,2}))?|\b(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d{1,2}))?\s?(USD|AUD|NZD|CAD|GBP|EUR)\b`)

var symbolCurrency = map[string]string{
	"£": "GBP",
	"€": "EUR",
	"¥": "JPY",
	"$": "$",
}

// FindPrices returns every currency-marked amount in s, in order.
// Bare numbers are ignored because guest counts and dates look the same.
func FindPrices(s string) []Price {
	var out []Price
	for _, m := range priceRe.FindAllStringSubmatchIndex(s, -1) {
		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return s[m[2*i]:m[2*i+1]]
		}
		var whole, frac, currency string
		if group(3) != "" {
			whole, frac = group(3), group(4)
			currency = strings.ToUpper(group(1))
			if currency == "" {
				currency = symbolCurrency[group(2)]
			}
		} else {
			whole, frac = group(5), group(6)
			currency = strings.ToUpper(group(7))
		}
		num := strings.ReplaceAll(whole, ",", "")
		if frac != "" {
			num += "." + frac
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		out = append(out, Price{Value: v, Currency: currency, Raw: s[m[0]:m[1]], Index: m[0]})
	}
	return out
}

// ParsePrice returns the first currency-marked amount in s
func ParsePrice(s string) (Price, bool) {
	prices := FindPrices(s)
	if len(prices) == 0 {
		if strings.Contains(strings.ToLower(s), "free") {
			return Price{Value: 0, Raw: "free"}, true
		}
		return Price{}, false
	}
	return prices[0], true
}

var intRe = regexp.MustCompile(`\d+`)

// FirstInt returns the first integer in s
func FirstInt(s string) (int, bool) {
	m := intRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ContainsAny reports whether the lowercased s contains any needle
func ContainsAny(s string, needles ...string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
