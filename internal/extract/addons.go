package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
)

// Fallback category of both taxonomies
const CategoryOther = "other"

var (
	notAnAddOn  = regexp.MustCompile(`(?i)(terms|conditions|agree|privacy|newsletter|marketing|subscribe|remember me|updates|consent|policy)`)
	addOnClass  = regexp.MustCompile(`(?i)(add-?on|extra|upsell|upgrade|enhance)`)
	selectedCls = regexp.MustCompile(`(?i)(^|[\s_-])(selected|active|checked|is-selected)($|[\s_-])`)
)

// AddOnCategory classifies an add-on name/description
func AddOnCategory(text string) string {
	return rules.AddOnCategories.Classify(text, CategoryOther)
}

// InclusionCategory classifies one package inclusion
func InclusionCategory(text string) string {
	return rules.InclusionCategories.Classify(text, CategoryOther)
}

// AddOns returns optional extras offered on a step
func AddOns(doc *goquery.Document) []model.AddOn {
	var out []model.AddOn
	seen := map[string]bool{}
	taken := map[*html.Node]bool{}
	add := func(name, desc, priceText string, preSelected bool) {
		name = textutil.Truncate(textutil.Clean(name), 120)
		key := textutil.NormalizeName(name)
		if key == "" || seen[key] || notAnAddOn.MatchString(name) {
			return
		}
		seen[key] = true
		a := model.AddOn{
			Name:        name,
			Category:    AddOnCategory(name + " " + desc),
			PreSelected: preSelected,
		}
		if p, ok := textutil.ParsePrice(priceText); ok {
			a.Price = textutil.FloatPtr(p.Value)
		}
		out = append(out, a)
	}

	pageIsExtras := rules.AddOnPage.Any(dom.BodyText(doc))
	dom.Each(doc.Find("input[type=checkbox]"), func(in *goquery.Selection) {
		if !dom.Visible(in) {
			return
		}
		label := fieldLabel(doc, in)
		row := in.Closest("li, tr, label, [class*=item], [class*=row], [class*=option]")
		text := label
		if row.Length() > 0 {
			text = dom.Text(row)
			taken[row.Nodes[0]] = true
		}
		hasPrice := len(textutil.FindPrices(text)) > 0
		if !hasPrice && !pageIsExtras && !addOnClass.MatchString(dom.AncestorSignature(in, 4)) {
			return
		}
		name := label
		if name == "" {
			name = text
		}
		name = stripPrices(name)
		_, checked := in.Attr("checked")
		add(name, text, text, checked)
	})

	dom.Each(doc.Find(`[class*=addon], [class*=add-on], [class*=extra], [class*=upsell]`), func(s *goquery.Selection) {
		if taken[s.Nodes[0]] || !dom.Visible(s) || s.Find(`[class*=addon], [class*=add-on], [class*=extra], [class*=upsell]`).Length() > 0 {
			return
		}
		text := dom.Text(s)
		if len(text) > 400 || len(textutil.FindPrices(text)) == 0 {
			return
		}
		name := textutil.Clean(s.Find(cardHeadings).First().Text())
		if name == "" {
			name = stripPrices(text)
		}
		cls, _ := s.Attr("class")
		pressed, _ := s.Attr("aria-pressed")
		add(name, text, text, selectedCls.MatchString(cls) || pressed == "true")
	})
	return out
}

func stripPrices(s string) string {
	for _, p := range textutil.FindPrices(s) {
		s = strings.Replace(s, p.Raw, "", 1)
	}
	s = strings.Trim(textutil.Clean(s), " +-–(),:")
	return s
}
