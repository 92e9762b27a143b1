package scraper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

func TestParsePricing(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want model.PackagePricing
	}{
		{
			name: "day bands before the price",
			text: "Mon–Thu $30pp / Fri–Sun $35pp",
			want: model.PackagePricing{
				Currency: "$",
				DayPricing: []model.DayPrice{
					{Days: []string{"mon", "tue", "wed", "thu"}, Price: 30, PerPerson: true},
					{Days: []string{"fri", "sat", "sun"}, Price: 35, PerPerson: true},
				},
			},
		},
		{
			name: "day bands after the price",
			text: "$20 Mon-Thu, $25 Fri-Sun",
			want: model.PackagePricing{
				Currency: "$",
				DayPricing: []model.DayPrice{
					{Days: []string{"mon", "tue", "wed", "thu"}, Price: 20},
					{Days: []string{"fri", "sat", "sun"}, Price: 25},
				},
			},
		},
		{
			name: "week parts",
			text: "Weeknights from $18 per person\nWeekends: $24 per person",
			want: model.PackagePricing{
				Currency: "$",
				DayPricing: []model.DayPrice{
					{Days: []string{"mon", "tue", "wed", "thu"}, Price: 18, PerPerson: true},
					{Days: []string{"sat", "sun"}, Price: 24, PerPerson: true},
				},
			},
		},
		{
			name: "range wraps past sunday",
			text: "Fri-Mon £50",
			want: model.PackagePricing{
				Currency:   "GBP",
				DayPricing: []model.DayPrice{{Days: []string{"fri", "sat", "sun", "mon"}, Price: 50}},
			},
		},
		{
			name: "base, per person and leftovers",
			text: "Base price $200 for the room; $25 per person; Sat $300; Extra hour $50. Free entry for under 2s",
			want: model.PackagePricing{
				Currency:       "$",
				BasePrice:      textutil.FloatPtr(200),
				PerPersonPrice: textutil.FloatPtr(25),
				DayPricing:     []model.DayPrice{{Days: []string{"sat"}, Price: 300}},
				Notes:          []string{"Extra hour $50"},
			},
		},
		{
			name: "no prices",
			text: "Call us for a quote",
			want: model.PackagePricing{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, ParsePricing(tc.text)); diff != "" {
				t.Errorf("ParsePricing(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestMergePricingKeepsCardValues(t *testing.T) {
	dst := model.PackagePricing{BasePrice: textutil.FloatPtr(100), Currency: "$", Notes: []string{"Deposit $50"}}
	mergePricing(&dst, model.PackagePricing{
		BasePrice:      textutil.FloatPtr(120),
		PerPersonPrice: textutil.FloatPtr(15),
		Currency:       "AUD",
		Notes:          []string{"Deposit $50", "Public holidays $10 surcharge"},
	})
	assert.Equal(t, 100.0, *dst.BasePrice)
	assert.Equal(t, 15.0, *dst.PerPersonPrice)
	assert.Equal(t, "$", dst.Currency)
	assert.Equal(t, []string{"Deposit $50", "Public holidays $10 surcharge"}, dst.Notes)
}

func TestGuestsFromText(t *testing.T) {
	assert.Equal(t, &model.GuestConfiguration{Min: 8, Max: 20}, guestsFromText("Suits 8-20 guests"))
	assert.Equal(t, &model.GuestConfiguration{Min: 10, Max: 30}, guestsFromText("Minimum 10 people, up to 30 players"))
	assert.Equal(t, &model.GuestConfiguration{Max: 12}, guestsFromText("Max. 12 kids per room"))
	assert.Nil(t, guestsFromText("Fun for the whole family"))
}

func TestExpandDays(t *testing.T) {
	assert.Equal(t, []string{"sat", "sun", "mon"}, expandDays("Saturday", "Mon"))
	assert.Equal(t, []string{"wed"}, expandDays("Wed", ""))
	assert.Nil(t, expandDays("x", "mon"))
}
