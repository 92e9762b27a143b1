package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/textutil"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// PageMap is what the crawler reads from one loaded page
type PageMap struct {
	URL      string
	Title    string
	Language string
	Links    []Link
	Skipped  map[string]int // skip reason → count
}

// Link is an internal link that passed the URL policy
type Link struct {
	URL  string
	Text string
}

// mapPage extracts the title, language and allowed internal links of doc
func mapPage(doc *goquery.Document, pageURL string, policy urlutil.Policy) PageMap {
	pm := PageMap{
		URL:     pageURL,
		Title:   dom.Title(doc),
		Skipped: map[string]int{},
	}
	pm.Language = detectLanguage(doc, pm.Title)

	base, err := url.Parse(pageURL)
	if err != nil {
		return pm
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, ok := urlutil.Resolve(base, href); ok {
			base, _ = url.Parse(b)
		}
	}

	seen := map[string]bool{}
	dom.Each(doc.Find("a[href]"), func(a *goquery.Selection) {
		href, _ := a.Attr("href")
		norm, reason, ok := policy.Check(base, href)
		if !ok {
			pm.Skipped[reason]++
			return
		}
		if seen[norm] {
			return
		}
		seen[norm] = true
		pm.Links = append(pm.Links, Link{URL: norm, Text: dom.Label(a)})
	})
	return pm
}

// detectLanguage tags the page with an ISO 639-3 code from its title,
// description and the first hundred words of body text
func detectLanguage(doc *goquery.Document, title string) string {
	description, _ := doc.Find("meta[name='description']").Attr("content")
	words := strings.Fields(dom.BodyText(doc))
	if len(words) > 100 {
		words = words[:100]
	}
	sample := textutil.Clean(title + " " + description + " " + strings.Join(words, " "))
	if sample == "" {
		return ""
	}
	info := whatlanggo.Detect(sample)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6393()
}
