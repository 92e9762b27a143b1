// Package static serves an in-memory website through the browser
// capabilities. Links, data-href controls and form submits navigate; other
// clicks are recorded and succeed without changing the page.
package static

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/urlutil"
)

const notFoundHTML = `<html><head><title>Not Found</title></head><body><h1>Not Found</h1></body></html>`

// Click is one recorded click
type Click struct {
	URL  string
	Text string
	Tag  string
}

// Site is a fixture website shared by every session it opens
type Site struct {
	mu       sync.Mutex
	pages    map[string]string
	status   map[string]int
	failures map[string]int
	clicks   []Click
	visits   []string
	opened   int
	closed   int
}

// NewSite builds a site from absolute URL → HTML pairs
func NewSite(pages map[string]string) *Site {
	s := &Site{
		pages:    map[string]string{},
		status:   map[string]int{},
		failures: map[string]int{},
	}
	for u, h := range pages {
		s.Add(u, h)
	}
	return s
}

// Add registers or replaces a page
func (s *Site) Add(rawURL, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[key(rawURL)] = html
}

// SetStatus makes rawURL answer with code
func (s *Site) SetStatus(rawURL string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[key(rawURL)] = code
}

// FailClicks makes the next n clicks on controls labelled text fail
func (s *Site) FailClicks(text string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[strings.ToLower(text)] = n
}

// Clicks returns every click made in any session
func (s *Site) Clicks() []Click {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Click(nil), s.clicks...)
}

// Visits returns every navigated URL in order
func (s *Site) Visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visits...)
}

// Sessions returns how many sessions were opened and closed
func (s *Site) Sessions() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// NewSession opens an isolated session with no page loaded
func (s *Site) NewSession(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	doc, _ := dom.Parse("<html><body></body></html>")
	return &session{site: s, url: "about:blank", doc: doc}, nil
}

// Close is a no-op
func (s *Site) Close() error {
	return nil
}

func (s *Site) lookup(rawURL string) (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(rawURL)
	s.visits = append(s.visits, k)
	html, ok := s.pages[k]
	code := s.status[k]
	if !ok {
		if code == 0 {
			code = 404
		}
		return notFoundHTML, code
	}
	if code == 0 {
		code = 200
	}
	return html, code
}

func (s *Site) recordClick(c Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := strings.ToLower(c.Text)
	if n := s.failures[k]; n > 0 {
		s.failures[k] = n - 1
		return fmt.Errorf("%w: %q is covered", browser.ErrNotInteractable, c.Text)
	}
	s.clicks = append(s.clicks, c)
	return nil
}

func key(rawURL string) string {
	if n, ok := urlutil.Normalize(rawURL); ok {
		return n
	}
	return rawURL
}

type session struct {
	site       *Site
	url        string
	doc        *goquery.Document
	pendingTab string
	closed     bool
}

func (s *session) Navigate(ctx context.Context, rawURL string, _ browser.NavigateOptions) (browser.NavigateResult, error) {
	if err := ctx.Err(); err != nil {
		return browser.NavigateResult{}, err
	}
	if s.closed {
		return browser.NavigateResult{}, fmt.Errorf("session closed")
	}
	if _, ok := urlutil.Parse(rawURL); !ok {
		return browser.NavigateResult{}, fmt.Errorf("navigate %q: invalid url", rawURL)
	}
	return s.load(rawURL)
}

func (s *session) load(rawURL string) (browser.NavigateResult, error) {
	html, code := s.site.lookup(rawURL)
	doc, err := dom.Parse(html)
	if err != nil {
		return browser.NavigateResult{}, err
	}
	s.doc = doc
	s.url = key(rawURL)
	return browser.NavigateResult{Status: code, FinalURL: s.url}, nil
}

func (s *session) URL() string {
	return s.url
}

func (s *session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.doc.Html()
}

func (s *session) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []browser.Element
	dom.Each(s.doc.Find(selector), func(sel *goquery.Selection) {
		out = append(out, &element{s: s, sel: sel})
	})
	return out, nil
}

func (s *session) WaitForIdle(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (s *session) AdoptNewTab(ctx context.Context) (bool, error) {
	if s.pendingTab == "" {
		return false, ctx.Err()
	}
	target := s.pendingTab
	s.pendingTab = ""
	if _, err := s.load(target); err != nil {
		return false, err
	}
	return true, nil
}

func (s *session) Screenshot(context.Context) ([]byte, error) {
	return nil, browser.ErrUnsupported
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.site.mu.Lock()
	s.site.closed++
	s.site.mu.Unlock()
	return nil
}

type element struct {
	s   *session
	sel *goquery.Selection
}

func (e *element) TagName() string {
	return dom.Tag(e.sel)
}

func (e *element) Attribute(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *element) Text() string {
	return dom.Label(e.sel)
}

func (e *element) Visible() bool {
	return dom.Visible(e.sel)
}

func (e *element) Click(ctx context.Context, _ browser.ClickOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !dom.Enabled(e.sel) {
		return fmt.Errorf("%w: disabled", browser.ErrNotInteractable)
	}
	if err := e.s.site.recordClick(Click{URL: e.s.url, Text: e.Text(), Tag: e.TagName()}); err != nil {
		return err
	}

	base, _ := url.Parse(e.s.url)
	if href, ok := e.sel.Attr("href"); ok && e.TagName() == "a" {
		target, ok := urlutil.Resolve(base, href)
		if !ok {
			return nil
		}
		if t, _ := e.sel.Attr("target"); t == "_blank" {
			e.s.pendingTab = target
			return nil
		}
		_, err := e.s.load(target)
		return err
	}
	if href, ok := e.sel.Attr("data-href"); ok {
		if target, ok := urlutil.Resolve(base, href); ok {
			_, err := e.s.load(target)
			return err
		}
	}
	if e.isSubmit() {
		form := e.sel.Closest("form")
		if action, ok := form.Attr("action"); ok {
			if target, ok := urlutil.Resolve(base, action); ok {
				_, err := e.s.load(target)
				return err
			}
		}
	}
	return nil
}

func (e *element) isSubmit() bool {
	t, _ := e.sel.Attr("type")
	switch e.TagName() {
	case "button":
		return t == "" || strings.EqualFold(t, "submit")
	case "input":
		return strings.EqualFold(t, "submit") || strings.EqualFold(t, "image")
	}
	return false
}

func (e *element) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !dom.Enabled(e.sel) {
		return fmt.Errorf("%w: disabled", browser.ErrNotInteractable)
	}
	if e.TagName() == "textarea" {
		e.sel.SetText(value)
		return nil
	}
	e.sel.SetAttr("value", value)
	return nil
}
