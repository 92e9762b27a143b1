package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
)

const maxCards = 60

const cardCandidates = `[data-product-id], [data-package-id], [data-product], [data-package], article, li, ` +
	`[class*=package], [class*=product], [class*=card], [class*=ticket], [class*=option], [class*=experience], [class*=item]`

const cardHeadings = `h2, h3, h4, h5, [class*=title], [class*=name], [class*=heading], strong`

var cardClass = regexp.MustCompile(`(?i)(package|product|card|ticket|option|experience|item|tile)`)

// Card is one priced product tile
type Card struct {
	Sel         *goquery.Selection
	Name        string
	Description string
	PriceText   string
	Price       *textutil.Price
	Selector    string // the card's own selector
	Control     string // selector of the select/book control inside, or ""
	DetailLink  string // selector of a "more info" control inside, or ""
}

// Cards finds the innermost elements that carry a heading, a price and a
// control. scope limits the search; nil searches the whole document.
func Cards(doc *goquery.Document, scope *goquery.Selection) []Card {
	if scope == nil {
		scope = doc.Selection
	}
	var matched []*goquery.Selection
	dom.Each(scope.Find(cardCandidates), func(s *goquery.Selection) {
		if !dom.Visible(s) || !looksLikeCard(s) {
			return
		}
		matched = append(matched, s)
	})

	// Keep innermost matches only
	inner := map[*html.Node]bool{}
	for _, s := range matched {
		inner[s.Nodes[0]] = true
	}
	for _, s := range matched {
		for p := s.Nodes[0].Parent; p != nil; p = p.Parent {
			delete(inner, p)
		}
	}

	var out []Card
	for _, s := range matched {
		if !inner[s.Nodes[0]] || len(out) >= maxCards {
			continue
		}
		out = append(out, buildCard(doc, s))
	}
	return out
}

func looksLikeCard(s *goquery.Selection) bool {
	if s.Find(cardHeadings).Length() == 0 {
		return false
	}
	text := dom.Text(s)
	if len(text) > 1500 {
		return false
	}
	if len(textutil.FindPrices(text)) == 0 && !textutil.ContainsAny(text, "free") {
		return false
	}
	tag := dom.Tag(s)
	if tag == "li" || tag == "article" {
		return true
	}
	if _, ok := s.Attr("data-product-id"); ok {
		return true
	}
	if _, ok := s.Attr("data-package-id"); ok {
		return true
	}
	cls, _ := s.Attr("class")
	return cardClass.MatchString(cls) || s.Find("button, a, input[type=radio], [role=button]").Length() > 0
}

func buildCard(doc *goquery.Document, s *goquery.Selection) Card {
	c := Card{Sel: s}
	c.Selector, _ = dom.Selector(doc, s)

	dom.Each(s.Find(cardHeadings), func(h *goquery.Selection) {
		t := textutil.Clean(h.Text())
		if c.Name == "" && t != "" && len(textutil.FindPrices(t)) == 0 {
			c.Name = textutil.Truncate(t, 120)
		}
	})

	dom.Each(s.Find(`[class*=price], [class*=cost], [class*=amount], [data-price]`), func(p *goquery.Selection) {
		if c.PriceText == "" {
			c.PriceText = textutil.Clean(p.Text())
		}
	})
	if c.PriceText == "" {
		for _, p := range textutil.FindPrices(dom.Text(s)) {
			c.PriceText = p.Raw
			break
		}
	}
	if p, ok := textutil.ParsePrice(c.PriceText); ok {
		c.Price = &p
	}

	dom.Each(s.Find("p, [class*=desc], [class*=summary]"), func(p *goquery.Selection) {
		t := textutil.Clean(p.Text())
		if c.Description == "" && t != "" && t != c.Name && t != c.PriceText {
			c.Description = textutil.Truncate(t, 500)
		}
	})

	dom.Each(s.Find("button, a, input[type=radio], input[type=submit], [role=button]"), func(b *goquery.Selection) {
		if !dom.Visible(b) {
			return
		}
		label := dom.Label(b)
		switch {
		case rules.DetailLink.Any(label):
			if c.DetailLink == "" {
				c.DetailLink, _ = dom.Selector(doc, b)
			}
		case rules.PaymentActions.Any(label):
		default:
			if c.Control == "" {
				c.Control, _ = dom.Selector(doc, b)
			}
		}
	})
	return c
}

// Products returns the product options of a chooser step
func Products(doc *goquery.Document) []model.ProductOption {
	var out []model.ProductOption
	seen := map[string]bool{}
	for _, c := range Cards(doc, nil) {
		key := textutil.NormalizeName(c.Name)
		if key == "" || seen[key] || rules.NegativeText.Any(c.Name) {
			continue
		}
		seen[key] = true
		opt := model.ProductOption{Name: c.Name, Selector: c.Control}
		if opt.Selector == "" {
			opt.Selector = c.Selector
		}
		if c.Price != nil {
			opt.Price = textutil.FloatPtr(c.Price.Value)
		}
		out = append(out, opt)
	}
	return out
}
