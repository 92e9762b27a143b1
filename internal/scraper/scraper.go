// Package scraper enumerates the packages a booking widget sells, category
// by category, and enriches them from their detail views.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/detector"
	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/metrics"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// CategoryAll is used when a widget shows its packages without tabs
const CategoryAll = "all"

// Options configures the scraper
type Options struct {
	MaxCategories     int
	MaxPackageDetails int // detail views opened per scrape
	PageTimeout       time.Duration
	ActionTimeout     time.Duration
	IdleTimeout       time.Duration
	InteractionDelay  time.Duration
	Retry             browser.RetryPolicy
	Logger            *slog.Logger
}

// Scraper reads booking widgets through a browser
type Scraper struct {
	opts    Options
	browser browser.Browser
	log     *slog.Logger
}

// New creates a scraper, filling zero options with defaults
func New(b browser.Browser, opts Options) *Scraper {
	if opts.MaxCategories <= 0 {
		opts.MaxCategories = 10
	}
	if opts.MaxPackageDetails < 0 {
		opts.MaxPackageDetails = 0
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = browser.DefaultRetry
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scraper{opts: opts, browser: b, log: opts.Logger}
}

// tab is one category control of a widget
type tab struct {
	Name     string
	Selector string
	URL      string // set when the tab is a link to another page
}

// job is the state of one scrape
type job struct {
	sc      *Scraper
	s       browser.Session
	log     *slog.Logger
	pageURL string
	budget  int // detail views left
	seen    map[string]bool
	out     *model.BookingSystemDiscovery
}

// ScrapeBookingSystem lists every package of the widget at rawURL. Only a
// failure to open a browser session is returned as an error; everything
// else is reported in the discovery's Errors.
func (sc *Scraper) ScrapeBookingSystem(ctx context.Context, rawURL string) (model.BookingSystemDiscovery, error) {
	out := model.BookingSystemDiscovery{
		URL:        rawURL,
		Platform:   detector.PlatformCustom,
		Categories: []string{},
		Packages:   []model.BookablePackage{},
		ScrapedAt:  time.Now().UTC(),
		Errors:     []string{},
	}
	s, err := sc.browser.NewSession(ctx)
	if err != nil {
		return out, fmt.Errorf("open scrape session: %w", err)
	}
	defer s.Close()

	j := &job{
		sc:      sc,
		s:       s,
		log:     sc.log.With("url", rawURL),
		pageURL: rawURL,
		budget:  sc.opts.MaxPackageDetails,
		seen:    map[string]bool{},
		out:     &out,
	}
	j.run(ctx)
	metrics.PackagesScraped.Add(float64(len(out.Packages)))
	j.log.Info("booking system scraped", "platform", out.Platform, "categories", len(out.Categories), "packages", len(out.Packages), "errors", len(out.Errors))
	return out, nil
}

func (j *job) run(ctx context.Context) {
	if err := j.navigate(ctx, j.pageURL); err != nil {
		j.fail("load widget", err)
		return
	}
	doc, err := dom.Snapshot(ctx, j.s)
	if err != nil {
		j.fail("read widget", err)
		return
	}
	if final := j.s.URL(); final != "" {
		j.pageURL = final
	}
	j.out.Platform = detector.Platform(doc, j.pageURL)
	j.out.Venue = venueInfo(doc)

	tabs := categoryTabs(doc, j.pageURL, j.sc.opts.MaxCategories)
	if len(tabs) == 0 {
		j.out.Categories = append(j.out.Categories, CategoryAll)
		j.scrapeCategory(ctx, doc, tab{Name: CategoryAll})
	}
	for _, t := range tabs {
		if ctx.Err() != nil {
			j.fail("scrape", ctx.Err())
			return
		}
		doc, err := j.openTab(ctx, t)
		if err != nil {
			j.fail("open category "+t.Name, err)
			continue
		}
		j.out.Categories = append(j.out.Categories, t.Name)
		j.scrapeCategory(ctx, doc, t)
	}

	if len(j.out.Packages) == 0 && !detector.IsBookingPage(doc, j.pageURL) {
		j.out.Errors = append(j.out.Errors, "page does not look like a booking widget")
	}
}

// scrapeCategory adds the cards of doc under t, then opens their detail
// views while the budget lasts
func (j *job) scrapeCategory(ctx context.Context, doc *goquery.Document, t tab) {
	type detail struct {
		index    int
		selector string
	}
	var details []detail
	for _, c := range extract.Cards(doc, nil) {
		key := textutil.NormalizeName(c.Name)
		if key == "" || rules.NegativeText.Any(c.Name) || j.seen[t.Name+"\x00"+key] {
			continue
		}
		j.seen[t.Name+"\x00"+key] = true
		j.out.Packages = append(j.out.Packages, packageFromCard(c, t.Name))
		if c.DetailLink != "" {
			details = append(details, detail{index: len(j.out.Packages) - 1, selector: c.DetailLink})
		}
	}

	for _, d := range details {
		if j.budget <= 0 || ctx.Err() != nil {
			return
		}
		j.budget--
		pkg := &j.out.Packages[d.index]
		if err := j.openDetail(ctx, pkg, d.selector); err != nil {
			j.fail("details of "+pkg.Name, err)
		}
		if err := j.restore(ctx, t); err != nil {
			j.fail("return to "+t.Name, err)
			return
		}
	}
}

// openDetail clicks a package's detail control and enriches the package
// from the page or dialog it opens
func (j *job) openDetail(ctx context.Context, pkg *model.BookablePackage, selector string) error {
	if selector == "" {
		return nil
	}
	before := j.s.URL()
	if err := j.click(ctx, selector); err != nil {
		return err
	}
	doc, err := dom.Snapshot(ctx, j.s)
	if err != nil {
		return err
	}
	scope := doc.Find("body")
	if j.s.URL() == before {
		scope = dialog(doc)
		if scope == nil {
			return errors.New("detail view did not open")
		}
	}
	enrich(pkg, scope)
	return nil
}

// restore brings the session back to the list of category t
func (j *job) restore(ctx context.Context, t tab) error {
	target := j.pageURL
	if t.URL != "" {
		target = t.URL
	}
	if err := j.navigate(ctx, target); err != nil {
		return err
	}
	if t.Selector != "" && t.URL == "" {
		return j.click(ctx, t.Selector)
	}
	return nil
}

// openTab shows category t and returns the resulting page
func (j *job) openTab(ctx context.Context, t tab) (*goquery.Document, error) {
	if t.URL != "" {
		if err := j.navigate(ctx, t.URL); err != nil {
			return nil, err
		}
	} else {
		if j.s.URL() != j.pageURL {
			if err := j.navigate(ctx, j.pageURL); err != nil {
				return nil, err
			}
		}
		if err := j.click(ctx, t.Selector); err != nil {
			return nil, err
		}
	}
	return dom.Snapshot(ctx, j.s)
}

func (j *job) navigate(ctx context.Context, rawURL string) error {
	out := j.sc.opts.Retry.Do(ctx, func(ctx context.Context) error {
		nav, err := j.s.Navigate(ctx, rawURL, browser.NavigateOptions{Timeout: j.sc.opts.PageTimeout, WaitUntil: "idle"})
		if err != nil {
			return err
		}
		if !nav.OK() {
			return browser.Permanent(fmt.Errorf("http status %d", nav.Status))
		}
		return nil
	})
	metrics.RecordRetries(out.Attempts)
	if !out.OK() {
		return out.Err
	}
	return j.settle(ctx)
}

func (j *job) click(ctx context.Context, selector string) error {
	out := j.sc.opts.Retry.Do(ctx, func(ctx context.Context) error {
		el, err := browser.First(ctx, j.s, selector)
		if err != nil {
			return fmt.Errorf("%s: %w", selector, err)
		}
		if rules.PaymentActions.Any(el.Text()) {
			return browser.Permanent(fmt.Errorf("%s: refusing payment control", selector))
		}
		return el.Click(ctx, browser.ClickOptions{Timeout: j.sc.opts.ActionTimeout})
	})
	metrics.RecordRetries(out.Attempts)
	if !out.OK() {
		return out.Err
	}
	return j.settle(ctx)
}

func (j *job) settle(ctx context.Context) error {
	if _, err := j.s.AdoptNewTab(ctx); err != nil {
		j.log.Debug("new tab check failed", "error", err)
	}
	if err := j.s.WaitForIdle(ctx, j.sc.opts.IdleTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return browser.Sleep(ctx, j.sc.opts.InteractionDelay)
}

func (j *job) fail(what string, err error) {
	j.log.Warn("scrape step failed", "step", what, "error", err)
	j.out.Errors = append(j.out.Errors, fmt.Sprintf("%s: %v", what, err))
}

// categoryTabs finds the category tabs or filters of a widget
func categoryTabs(doc *goquery.Document, pageURL string, limit int) []tab {
	base, _ := url.Parse(pageURL)
	var out []tab
	seen := map[string]bool{}
	dom.Each(doc.Find("[role=tab], button, a, li"), func(el *goquery.Selection) {
		if len(out) >= limit || !dom.Visible(el) {
			return
		}
		label := dom.Label(el)
		key := textutil.NormalizeName(label)
		if key == "" || len(label) > 40 || seen[key] {
			return
		}
		if len(textutil.FindPrices(label)) > 0 || rules.NegativeText.Any(label) || rules.PaymentActions.Any(label) || rules.DetailLink.Any(label) {
			return
		}
		role, _ := el.Attr("role")
		if role != "tab" && !rules.CategoryControl.Any(ownSignature(el)+" "+dom.AncestorSignature(el, 2)) {
			return
		}
		// A tab wrapping another matched control resolves to the inner one
		if dom.Tag(el) == "li" && el.Find("button, a, [role=tab]").Length() > 0 {
			return
		}
		seen[key] = true
		t := tab{Name: label}
		t.Selector, _ = dom.Selector(doc, el)
		if href, ok := el.Attr("href"); ok && base != nil && !strings.HasPrefix(strings.TrimSpace(href), "#") {
			if target, ok := urlutil.Resolve(base, href); ok && urlutil.SameSite(target, pageURL) {
				t.URL = target
			}
		}
		out = append(out, t)
	})
	return out
}

func ownSignature(el *goquery.Selection) string {
	var parts []string
	for _, a := range []string{"id", "class", "role", "aria-controls"} {
		if v, ok := el.Attr(a); ok {
			parts = append(parts, v)
		}
	}
	for k := range dom.DataAttributes(el) {
		parts = append(parts, k)
	}
	return strings.Join(parts, " ")
}

// dialog returns the visible modal or drawer, or nil
func dialog(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	dom.Each(doc.Find(`[role=dialog], dialog[open], [class*=modal], [class*=drawer], [class*=popup], [class*=lightbox]`), func(s *goquery.Selection) {
		if found == nil && dom.Visible(s) && textutil.Clean(s.Text()) != "" {
			found = s
		}
	})
	return found
}

// venueInfo reads the business name and contact details of a page
func venueInfo(doc *goquery.Document) model.VenueInfo {
	var v model.VenueInfo
	if name, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		v.Name = textutil.Clean(name)
	}
	if v.Name == "" {
		title := dom.Title(doc)
		for _, sep := range []string{" | ", " - ", " – ", " :: "} {
			if i := strings.LastIndex(title, sep); i >= 0 {
				title = title[i+len(sep):]
				break
			}
		}
		v.Name = textutil.Clean(title)
	}
	if href, ok := doc.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
		v.Phone = textutil.Clean(strings.TrimPrefix(href, "tel:"))
	}
	if href, ok := doc.Find(`a[href^="mailto:"]`).First().Attr("href"); ok {
		email := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(email, '?'); i >= 0 {
			email = email[:i]
		}
		v.Email = textutil.Clean(email)
	}
	for _, sel := range []string{"address", `[itemprop=address]`, `[class*=address]`} {
		if t := textutil.Clean(doc.Find(sel).First().Text()); t != "" {
			v.Address = textutil.Truncate(t, 200)
			break
		}
	}
	return v
}
