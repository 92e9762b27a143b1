// Package detector scores page elements as booking entry points and
// classifies booking-flow steps.
package detector

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// DefaultMinConfidence is the floor used when Options leaves it unset
const DefaultMinConfidence = 0.3

// interactive lists the elements worth scoring
const interactive = `a[href], button, input[type=submit], input[type=button], [role=button], [role=link], [onclick], ` +
	`[data-booking], [data-book], [data-action], [data-href], [data-product-id], [data-event-id], [data-widget], ` +
	`[class*=book], [id*=book], [class*=reserv], [class*=ticket]`

// Tag and role suitability weights
var tagWeights = map[string]float64{
	"button": 0.1,
	"input":  0.1,
	"a":      0.08,
}

// Options configures a Detector
type Options struct {
	MinConfidence float64
	Logger        *slog.Logger
}

// Detector finds booking triggers on pages
type Detector struct {
	minConfidence float64
	log           *slog.Logger
}

// New creates a Detector
func New(opts Options) *Detector {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Detector{minConfidence: opts.MinConfidence, log: opts.Logger}
}

// Detect snapshots the session's page and returns its triggers
func (d *Detector) Detect(ctx context.Context, s browser.Session, sourceURL string) ([]model.BookingTrigger, error) {
	doc, err := dom.Snapshot(ctx, s)
	if err != nil {
		return nil, err
	}
	return d.DetectDocument(doc, sourceURL), nil
}

type candidate struct {
	sel         *goquery.Selection
	trigger     model.BookingTrigger
	specificity int
}

// DetectDocument scores every interactive element of doc. At most one
// trigger is reported per visual element: nested matches with the same
// label keep the highest confidence, then the most specific selector.
func (d *Detector) DetectDocument(doc *goquery.Document, sourceURL string) []model.BookingTrigger {
	base, _ := url.Parse(sourceURL)
	seen := map[*html.Node]bool{}
	var cands []candidate

	dom.Each(doc.Find(interactive), func(sel *goquery.Selection) {
		if seen[sel.Nodes[0]] {
			return
		}
		seen[sel.Nodes[0]] = true
		if c, ok := d.score(doc, base, sourceURL, sel); ok {
			cands = append(cands, c)
		}
	})
	dom.Each(doc.Find("iframe[src]"), func(sel *goquery.Selection) {
		if c, ok := d.scoreIframe(doc, base, sourceURL, sel); ok {
			cands = append(cands, c)
		}
	})

	kept := resolveOverlaps(cands)
	out := make([]model.BookingTrigger, 0, len(kept))
	for _, c := range kept {
		out = append(out, c.trigger)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func (d *Detector) score(doc *goquery.Document, base *url.URL, sourceURL string, sel *goquery.Selection) (candidate, bool) {
	if !dom.Visible(sel) {
		return candidate{}, false
	}
	tag := dom.Tag(sel)
	text := textutil.Truncate(dom.Label(sel), 100)

	raw, ok := sel.Attr("href")
	if !ok || tag != "a" {
		raw, _ = sel.Attr("data-href")
	}
	if raw != "" && urlutil.IsSocialOrShare(raw) {
		return candidate{}, false
	}
	href, _ := urlutil.Resolve(base, raw)

	if neg, ok := rules.NegativeText.Best(text); ok && neg.Weight >= 1 {
		return candidate{}, false
	}
	if href != "" && (urlutil.IsSocialOrShare(href) || urlutil.IsAuthLink(href)) {
		return candidate{}, false
	}

	var sc rules.Score
	booking := sc.AddBest("text", rules.BookingText, text)

	attrs := attributeSignature(sel)
	attrHit := sc.AddBest("attr", rules.BookingAttributes, attrs)
	booking = booking || attrHit

	if href != "" {
		if sc.AddBest("path", rules.BookingPath, urlutil.PathOf(href)) {
			booking = true
		}
		if sc.AddBest("vendor", rules.VendorHosts, urlutil.Host(href)) {
			booking = true
		}
	}
	if !booking {
		return candidate{}, false
	}

	w := tagWeights[tag]
	if role, _ := sel.Attr("role"); w == 0 && role == "button" {
		w = 0.05
	}
	sc.Add("tag:"+tag, w)
	sc.AddBest("context", rules.WidgetContext, dom.AncestorSignature(sel, 4))
	if neg, ok := rules.NegativeText.Best(text); ok {
		sc.Add("negative:"+neg.Name, -neg.Weight)
	}

	conf := sc.Clamped()
	if conf < d.minConfidence {
		return candidate{}, false
	}

	selector, spec := dom.Selector(doc, sel)
	typ := model.TriggerButton
	switch {
	case href != "" && !urlutil.SameSite(href, sourceURL):
		typ = model.TriggerExternalLink
	case tag == "a":
		typ = model.TriggerLink
	case attrHit && tag != "button" && tag != "input":
		typ = model.TriggerDataAttr
	}

	d.log.Debug("trigger candidate", "url", sourceURL, "text", text, "confidence", conf, "signals", sc.Signals)
	return candidate{
		sel:         sel,
		specificity: spec,
		trigger: model.BookingTrigger{
			ID:             textutil.ID("trg", sourceURL, selector, text),
			Text:           text,
			Selector:       selector,
			TagName:        tag,
			SourceURL:      sourceURL,
			Href:           href,
			Confidence:     conf,
			DataAttributes: dom.DataAttributes(sel),
			TriggerType:    typ,
		},
	}, true
}

func (d *Detector) scoreIframe(doc *goquery.Document, base *url.URL, sourceURL string, sel *goquery.Selection) (candidate, bool) {
	raw, _ := sel.Attr("src")
	src, ok := urlutil.Resolve(base, raw)
	if !ok {
		return candidate{}, false
	}
	var sc rules.Score
	vendor := sc.AddBest("vendor", rules.VendorHosts, urlutil.Host(src))
	path := sc.AddBest("path", rules.BookingPath, urlutil.PathOf(src))
	if !vendor && !path {
		return candidate{}, false
	}
	sc.Add("iframe", 0.2)
	sc.AddBest("context", rules.WidgetContext, dom.AncestorSignature(sel, 4))
	conf := sc.Clamped()
	if conf < d.minConfidence {
		return candidate{}, false
	}

	selector, spec := dom.Selector(doc, sel)
	text := dom.Label(sel)
	if t, ok := sel.Attr("title"); ok && t != "" {
		text = textutil.Clean(t)
	}
	if text == "" {
		text = urlutil.Host(src)
	}
	return candidate{
		sel:         sel,
		specificity: spec,
		trigger: model.BookingTrigger{
			ID:             textutil.ID("trg", sourceURL, selector, src),
			Text:           text,
			Selector:       selector,
			TagName:        "iframe",
			SourceURL:      sourceURL,
			Href:           src,
			Confidence:     conf,
			DataAttributes: dom.DataAttributes(sel),
			TriggerType:    model.TriggerIframe,
		},
	}, true
}

// attributeSignature joins the attributes that describe an element's
// purpose
func attributeSignature(sel *goquery.Selection) string {
	var parts []string
	for _, a := range dom.Attributes(sel) {
		switch {
		case strings.HasPrefix(a.Key, "data-"):
			parts = append(parts, a.Key, a.Val)
		case a.Key == "id", a.Key == "class", a.Key == "name", a.Key == "onclick":
			parts = append(parts, a.Val)
		}
	}
	return strings.Join(parts, " ")
}

// resolveOverlaps drops candidates nested in, or wrapping, another
// candidate with the same label, keeping the better of each pair
func resolveOverlaps(cands []candidate) []candidate {
	dropped := make([]bool, len(cands))
	for i := range cands {
		for j := i + 1; j < len(cands); j++ {
			if dropped[i] || dropped[j] {
				continue
			}
			a, b := cands[i], cands[j]
			if !dom.Contains(a.sel, b.sel) && !dom.Contains(b.sel, a.sel) {
				continue
			}
			if a.trigger.Text != b.trigger.Text && a.trigger.Text != "" && b.trigger.Text != "" {
				continue
			}
			if better(b, a) {
				dropped[i] = true
			} else {
				dropped[j] = true
			}
		}
	}
	var out []candidate
	for i, c := range cands {
		if !dropped[i] {
			out = append(out, c)
		}
	}
	return out
}

func better(a, b candidate) bool {
	if a.trigger.Confidence != b.trigger.Confidence {
		return a.trigger.Confidence > b.trigger.Confidence
	}
	return a.specificity > b.specificity
}
