package detector

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// bookingPageThreshold is the score above which a page counts as a
// booking widget or landing page
const bookingPageThreshold = 0.5

// PlatformCustom names widgets served by no known vendor
const PlatformCustom = "custom"

// BookingPageScore rates how much the page itself looks like a booking
// widget
func BookingPageScore(doc *goquery.Document, pageURL string) rules.Score {
	var sc rules.Score
	if extract.HasCalendar(doc) {
		sc.Add("calendar", 0.3)
	}
	if len(extract.Steppers(doc)) > 0 || extract.GroupSize(doc) != nil {
		sc.Add("guest_selector", 0.2)
	}
	if len(extract.Times(doc)) > 0 {
		sc.Add("time_slots", 0.15)
	}
	body := dom.BodyText(doc)
	if len(textutil.FindPrices(body)) > 0 {
		sc.Add("prices", 0.15)
	}
	if p := Platform(doc, pageURL); p != PlatformCustom {
		sc.Add("vendor:"+p, 0.35)
	}
	heading := dom.Title(doc) + " " + textutil.Clean(doc.Find("h1").First().Text())
	if r, ok := rules.BookingText.Best(heading); ok {
		sc.Add("heading:"+r.Name, 0.2)
	}
	sc.AddBest("path", rules.BookingPath, urlutil.PathOf(pageURL))
	return sc
}

// IsBookingPage reports whether the page itself is a booking widget or
// landing page
func IsBookingPage(doc *goquery.Document, pageURL string) bool {
	return BookingPageScore(doc, pageURL).Clamped() >= bookingPageThreshold
}

// HasLargeGroupIndicators reports corporate or large-party wording
func HasLargeGroupIndicators(doc *goquery.Document) bool {
	return rules.LargeGroup.Any(dom.BodyText(doc))
}

// Platform names the booking vendor behind a page from its URL and the
// sources of its iframes, scripts and links, or PlatformCustom
func Platform(doc *goquery.Document, pageURL string) string {
	if r, ok := rules.VendorHosts.First(urlutil.Host(pageURL)); ok {
		return r.Name
	}
	found := ""
	dom.Each(doc.Find("iframe[src], script[src], link[href], form[action]"), func(s *goquery.Selection) {
		if found != "" {
			return
		}
		for _, a := range []string{"src", "href", "action"} {
			if v, ok := s.Attr(a); ok {
				if r, ok := rules.VendorHosts.First(urlutil.Host(v)); ok {
					found = r.Name
					return
				}
			}
		}
	})
	if found != "" {
		return found
	}
	return PlatformCustom
}
