package textutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "strike package", NormalizeName("Strike Package!"))
	assert.Equal(t, NormalizeName("Strike Package"), NormalizeName("strike   package"))
	assert.Equal(t, "kids party deluxe", NormalizeName("  Kids' Party — Deluxe  "))
	assert.Equal(t, "", NormalizeName("!!!"))
}

func TestCleanAndTruncate(t *testing.T) {
	assert.Equal(t, "Book now", Clean("\n  Book \t now  "))
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
	assert.Equal(t, "short", Truncate("short", 10))
}

func TestID(t *testing.T) {
	a := ID("flow", "site:/book")
	assert.Equal(t, a, ID("flow", "site:/book"))
	assert.NotEqual(t, a, ID("flow", "site:/book-now"))
	assert.NotEqual(t, ID("pkg", "a", "bc"), ID("pkg", "ab", "c"))
	assert.Len(t, a, len("flow_")+12)
}

func TestFindPrices(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []Price
	}{
		{
			name: "symbols with decimals",
			text: "Adults $30.50, kids $15",
			want: []Price{
				{Value: 30.5, Currency: "$", Raw: "$30.50", Index: 7},
				{Value: 15, Currency: "$", Raw: "$15", Index: 20},
			},
		},
		{
			name: "thousands separator",
			text: "From £1,250",
			want: []Price{{Value: 1250, Currency: "GBP", Raw: "£1,250", Index: 5}},
		},
		{
			name: "trailing code",
			text: "45 AUD per person",
			want: []Price{{Value: 45, Currency: "AUD", Raw: "45 AUD", Index: 0}},
		},
		{
			name: "leading code",
			text: "NZD $99",
			want: []Price{{Value: 99, Currency: "NZD", Raw: "NZD $99", Index: 0}},
		},
		{
			name: "bare numbers ignored",
			text: "Groups of 12 to 20 on 3 lanes",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, FindPrices(tc.text)); diff != "" {
				t.Errorf("FindPrices(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	p, ok := ParsePrice("Shoe hire €4.5")
	assert.True(t, ok)
	assert.Equal(t, 4.5, p.Value)
	assert.Equal(t, "EUR", p.Currency)

	p, ok = ParsePrice("Free for under 3s")
	assert.True(t, ok)
	assert.Zero(t, p.Value)

	_, ok = ParsePrice("Call us")
	assert.False(t, ok)
}

func TestFirstIntAndContainsAny(t *testing.T) {
	n, ok := FirstInt("Up to 24 guests")
	assert.True(t, ok)
	assert.Equal(t, 24, n)
	_, ok = FirstInt("none")
	assert.False(t, ok)

	assert.True(t, ContainsAny("Book NOW", "book", "reserve"))
	assert.False(t, ContainsAny("Gallery", "book"))
}
