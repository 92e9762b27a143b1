package scraper

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
)

const (
	maxRestrictions = 10
	maxInclusions   = 30
)

const blockElements = `p, li, tr, dd, dt, h1, h2, h3, h4, h5, [class*=price], [class*=cost]`

const guestNoun = `(?:guests?|people|persons?|players?|kids|children|participants|attendees|pax|jumpers|bowlers)`

var (
	guestRange   = regexp.MustCompile(`(?i)(\d+)\s*(?:-|–|to)\s*(\d+)\s*` + guestNoun)
	guestMin     = regexp.MustCompile(`(?i)(?:min(?:imum)?\.?(?:\s+of)?|at least)\s*(\d+)\s*` + guestNoun)
	guestMax     = regexp.MustCompile(`(?i)(?:max(?:imum)?\.?(?:\s+of)?|up to)\s*(\d+)\s*` + guestNoun)
	duration     = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*(?:(?:-|–|to)\s*\d+(?:\.\d+)?\s*)?(?:hours?|hrs?|minutes?|mins?))\b`)
	includesHead = regexp.MustCompile(`(?i)(includes?|included|inclusions|what you get|what's in)`)
)

// packageFromCard builds a package from its list card
func packageFromCard(c extract.Card, category string) model.BookablePackage {
	text := strings.Join(blocks(c.Sel), "\n")
	if text == "" {
		text = c.PriceText
	}
	pkg := model.BookablePackage{
		ID:          textutil.ID("pkg", category, textutil.NormalizeName(c.Name)),
		Name:        c.Name,
		Category:    category,
		Description: c.Description,
		Pricing:     ParsePricing(text),
		Selector:    c.Selector,
	}
	if pkg.Pricing.BasePrice == nil && pkg.Pricing.PerPersonPrice == nil && len(pkg.Pricing.DayPricing) == 0 && c.Price != nil {
		pkg.Pricing.BasePrice = textutil.FloatPtr(c.Price.Value)
		pkg.Pricing.Currency = c.Price.Currency
	}
	cardText := dom.Text(c.Sel)
	pkg.Guests = guestsFromText(cardText)
	if m := duration.FindStringSubmatch(cardText); m != nil {
		pkg.Duration = textutil.Clean(m[1])
	}
	return pkg
}

// enrich fills a package from its detail view
func enrich(pkg *model.BookablePackage, scope *goquery.Selection) {
	lines := blocks(scope)
	text := dom.Text(scope)

	var longest string
	dom.Each(scope.Find("p, [class*=desc]"), func(p *goquery.Selection) {
		t := textutil.Clean(p.Text())
		if len(t) > len(longest) && len(t) <= 1000 && len(textutil.FindPrices(t)) == 0 {
			longest = t
		}
	})
	if len(longest) > len(pkg.Description) {
		pkg.Description = longest
	}

	mergePricing(&pkg.Pricing, ParsePricing(strings.Join(lines, "\n")))

	sub := goquery.NewDocumentFromNode(scope.Nodes[0])
	guests := guestsFromText(text)
	if gs := extract.GroupSize(sub); gs != nil {
		if guests == nil {
			guests = &model.GuestConfiguration{}
		}
		if guests.Min == 0 {
			guests.Min = gs.Min
		}
		if guests.Max == 0 {
			guests.Max = gs.Max
		}
		guests.Categories = gs.Categories
	}
	if guests != nil {
		pkg.Guests = guests
	}

	pkg.Inclusions = inclusions(scope)
	for _, a := range extract.AddOns(sub) {
		pkg.AddOns = append(pkg.AddOns, model.PackageAddOn{Name: a.Name, Price: a.Price, Category: a.Category})
	}

	seen := map[string]bool{}
	for _, l := range lines {
		if len(pkg.Restrictions) >= maxRestrictions {
			break
		}
		if !rules.Restrictions.Any(l) || seen[l] {
			continue
		}
		seen[l] = true
		pkg.Restrictions = append(pkg.Restrictions, textutil.Truncate(l, 200))
	}

	if m := duration.FindStringSubmatch(text); m != nil && pkg.Duration == "" {
		pkg.Duration = textutil.Clean(m[1])
	}
	pkg.DetailScraped = true
}

// mergePricing keeps what the card showed and adds what only the detail
// view had
func mergePricing(dst *model.PackagePricing, src model.PackagePricing) {
	if dst.BasePrice == nil {
		dst.BasePrice = src.BasePrice
	}
	if dst.PerPersonPrice == nil {
		dst.PerPersonPrice = src.PerPersonPrice
	}
	if dst.Currency == "" {
		dst.Currency = src.Currency
	}
	if len(dst.DayPricing) == 0 {
		dst.DayPricing = src.DayPricing
	}
	for _, n := range src.Notes {
		if !slices.Contains(dst.Notes, n) {
			dst.Notes = append(dst.Notes, n)
		}
	}
}

// blocks returns the text of the innermost block elements under scope, or
// the scope text when it has none
func blocks(scope *goquery.Selection) []string {
	matched := scope.Find(blockElements)
	inner := map[*html.Node]bool{}
	for _, n := range matched.Nodes {
		inner[n] = true
	}
	for _, n := range matched.Nodes {
		for p := n.Parent; p != nil; p = p.Parent {
			delete(inner, p)
		}
	}
	var out []string
	dom.Each(matched, func(s *goquery.Selection) {
		if !inner[s.Nodes[0]] || !dom.Visible(s) {
			return
		}
		if t := textutil.Clean(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	if len(out) == 0 {
		if t := dom.Text(scope); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// guestsFromText reads "8-20 guests", "minimum 10 people" or "up to 30
// players"
func guestsFromText(text string) *model.GuestConfiguration {
	var g model.GuestConfiguration
	if m := guestRange.FindStringSubmatch(text); m != nil {
		g.Min, _ = strconv.Atoi(m[1])
		g.Max, _ = strconv.Atoi(m[2])
	}
	if m := guestMin.FindStringSubmatch(text); m != nil && g.Min == 0 {
		g.Min, _ = strconv.Atoi(m[1])
	}
	if m := guestMax.FindStringSubmatch(text); m != nil && g.Max == 0 {
		g.Max, _ = strconv.Atoi(m[1])
	}
	if g.Min == 0 && g.Max == 0 {
		return nil
	}
	return &g
}

// inclusions reads the list that follows an "includes" heading, falling
// back to lists marked as inclusions
func inclusions(scope *goquery.Selection) []model.PackageInclusion {
	var list *goquery.Selection
	dom.Each(scope.Find("h2, h3, h4, h5, strong, p, dt, [class*=title]"), func(h *goquery.Selection) {
		if list != nil || len(textutil.Clean(h.Text())) > 60 || !includesHead.MatchString(h.Text()) {
			return
		}
		for cur := h; cur.Length() > 0 && list == nil; cur = cur.Parent() {
			if next := cur.NextAllFiltered("ul, ol, dd").First(); next.Length() > 0 {
				list = next
			}
			if !dom.Contains(scope, cur.Parent()) {
				break
			}
		}
	})
	if list == nil {
		if l := scope.Find("[class*=inclu] ul, [class*=inclu] ol, ul[class*=inclu], ol[class*=inclu]").First(); l.Length() > 0 {
			list = l
		}
	}
	if list == nil {
		return nil
	}

	var out []model.PackageInclusion
	dom.Each(list.Find("li"), func(li *goquery.Selection) {
		t := textutil.Clean(li.Text())
		if t == "" || len(out) >= maxInclusions {
			return
		}
		out = append(out, model.PackageInclusion{Text: textutil.Truncate(t, 200), Category: extract.InclusionCategory(t)})
	})
	if len(out) == 0 && dom.Tag(list) == "dd" {
		if t := textutil.Clean(list.Text()); t != "" {
			out = append(out, model.PackageInclusion{Text: t, Category: extract.InclusionCategory(t)})
		}
	}
	return out
}
