package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

var (
	// PerPersonSuffix follows a price that is charged per guest
	PerPersonSuffix = regexp.MustCompile(`(?i)^\s*(per\s+(person|guest|head|player|child|adult|jumper|bowler|pax)|pp\b|p\.p\.|/\s*(person|guest|head|pp|pax|player|child)|each|a head|per ticket)`)
	totalLabel      = regexp.MustCompile(`(?i)(^|[\s_-])(total|grand-?total|amount-?due|order-?total)($|[\s_-])`)
	priceHolder     = regexp.MustCompile(`(?i)(price|cost|amount|total|subtotal|fee)`)
)

// Pricing reads base, per-person and total prices from a step
func Pricing(doc *goquery.Document) *model.Pricing {
	var p model.Pricing
	found := false

	dom.Each(doc.Find("[class], [id], [data-price], dt, th, td, strong"), func(s *goquery.Selection) {
		if s.Children().Length() > 3 || !dom.Visible(s) {
			return
		}
		cls, _ := s.Attr("class")
		id, _ := s.Attr("id")
		_, dataPrice := s.Attr("data-price")
		sig := cls + " " + id
		text := dom.Text(s)
		if !dataPrice && !priceHolder.MatchString(sig) && !totalLabel.MatchString(text) {
			return
		}
		if len(text) > 200 {
			return
		}
		prices := textutil.FindPrices(text)
		if len(prices) == 0 {
			return
		}
		found = true
		if p.Currency == "" {
			p.Currency = prices[0].Currency
		}
		if totalLabel.MatchString(sig) || totalLabel.MatchString(text) {
			last := prices[len(prices)-1]
			p.Total = textutil.FloatPtr(last.Value)
			return
		}
		for _, pr := range prices {
			rest := text[pr.Index+len(pr.Raw):]
			if PerPersonSuffix.MatchString(rest) {
				if p.PerPerson == nil {
					p.PerPerson = textutil.FloatPtr(pr.Value)
				}
				continue
			}
			if p.Base == nil {
				p.Base = textutil.FloatPtr(pr.Value)
			}
		}
	})

	if !found {
		body := dom.BodyText(doc)
		prices := textutil.FindPrices(body)
		if len(prices) == 0 {
			return nil
		}
		p.Currency = prices[0].Currency
		for _, pr := range prices {
			rest := body[pr.Index+len(pr.Raw):]
			if PerPersonSuffix.MatchString(rest) && p.PerPerson == nil {
				p.PerPerson = textutil.FloatPtr(pr.Value)
			} else if p.Base == nil {
				p.Base = textutil.FloatPtr(pr.Value)
			}
		}
	}
	return &p
}

// Options aggregates every option extractor for one step
func Options(doc *goquery.Document) model.AvailableOptions {
	return model.AvailableOptions{
		Dates:     Dates(doc),
		Times:     Times(doc),
		Products:  Products(doc),
		Pricing:   Pricing(doc),
		GroupSize: GroupSize(doc),
	}
}
