// Package crawler walks a site breadth-first by priority, collecting pages
// and booking triggers.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/detector"
	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/metrics"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// nonBookingPenalty pushes links without booking keywords behind every
// booking link of a nearby depth
const nonBookingPenalty = 10

// Options configures the crawler behavior
type Options struct {
	BaseURL     string
	MaxPages    int
	MaxDepth    int
	PageTimeout time.Duration
	IdleTimeout time.Duration
	CrawlDelay  time.Duration // minimum spacing between page loads
	Retry       browser.RetryPolicy
	Detector    *detector.Detector
	Logger      *slog.Logger
	// OnPage, if set, is called after every visit
	OnPage func(model.CrawlResult)
}

// Crawler holds the state of one crawl run
type Crawler struct {
	opts    Options
	browser browser.Browser
	policy  urlutil.Policy
	limiter *rate.Limiter
	log     *slog.Logger

	queue       frontier
	queued      map[string]bool
	visited     map[string]bool
	redirected  map[string]bool // final URLs of redirects, never enqueued
	results     []model.CrawlResult
	triggers    []model.BookingTrigger
	triggerKeys map[string]bool
}

// New creates a crawler for one run
func New(b browser.Browser, opts Options) (*Crawler, error) {
	base, ok := urlutil.Normalize(opts.BaseURL)
	if !ok {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	opts.BaseURL = base
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.PageTimeout == 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 5 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = browser.DefaultRetry
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Detector == nil {
		opts.Detector = detector.New(detector.Options{Logger: opts.Logger})
	}

	limit := rate.Inf
	if opts.CrawlDelay > 0 {
		limit = rate.Every(opts.CrawlDelay)
	}
	return &Crawler{
		opts:        opts,
		browser:     b,
		policy:      urlutil.Policy{SiteURL: base},
		limiter:     rate.NewLimiter(limit, 1),
		log:         opts.Logger,
		queued:      map[string]bool{},
		visited:     map[string]bool{},
		redirected:  map[string]bool{},
		triggerKeys: map[string]bool{},
	}, nil
}

// Crawl visits pages until the frontier is empty or MaxPages is reached.
// Only a failure to open a browsing session is returned as an error; a
// cancelled ctx ends the crawl early with what was collected.
func (c *Crawler) Crawl(ctx context.Context) (model.CrawlOutput, error) {
	session, err := c.browser.NewSession(ctx)
	if err != nil {
		return model.CrawlOutput{}, fmt.Errorf("open crawl session: %w", err)
	}
	defer session.Close()

	c.enqueue(model.CrawlQueueItem{URL: c.opts.BaseURL, Depth: 0, Priority: 0})
	for c.queue.Len() > 0 && len(c.visited) < c.opts.MaxPages {
		if ctx.Err() != nil {
			break
		}
		item := c.queue.pop()
		delete(c.queued, item.URL)
		if c.visited[item.URL] || c.redirected[item.URL] || item.Depth > c.opts.MaxDepth {
			continue
		}
		// Marked before loading so a failing page is never retried
		c.visited[item.URL] = true

		if err := c.limiter.Wait(ctx); err != nil {
			break
		}
		result := c.visit(ctx, session, item)
		c.results = append(c.results, result)
		if c.opts.OnPage != nil {
			c.opts.OnPage(result)
		}
	}

	c.log.Info("crawl finished", "pages", len(c.results), "triggers", len(c.triggers), "pending", c.queue.Len())
	return model.CrawlOutput{Results: c.results, Triggers: c.triggers}, nil
}

// Visited returns how many URLs were marked visited
func (c *Crawler) Visited() int {
	return len(c.visited)
}

func (c *Crawler) visit(ctx context.Context, s browser.Session, item model.CrawlQueueItem) model.CrawlResult {
	start := time.Now()
	defer func() { metrics.PageDuration.Observe(time.Since(start).Seconds()) }()

	result := model.CrawlResult{
		URL:             item.URL,
		Depth:           item.Depth,
		InternalLinks:   []string{},
		BookingTriggers: []model.BookingTrigger{},
		VisitedAt:       start.UTC(),
		Errors:          []string{},
	}
	log := c.log.With("url", item.URL, "depth", item.Depth)

	var nav browser.NavigateResult
	outcome := c.opts.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		nav, err = s.Navigate(ctx, item.URL, browser.NavigateOptions{Timeout: c.opts.PageTimeout, WaitUntil: "load"})
		return err
	})
	metrics.RecordRetries(outcome.Attempts)
	if !outcome.OK() {
		log.Warn("page load failed", "error", outcome.Err, "attempts", outcome.Attempts)
		result.Errors = append(result.Errors, fmt.Sprintf("navigation failed: %v", outcome.Err))
		metrics.PagesVisited.WithLabelValues("error").Inc()
		return result
	}
	result.Status = nav.Status
	if !nav.OK() {
		log.Warn("page returned error status", "status", nav.Status)
		result.Errors = append(result.Errors, "http status "+strconv.Itoa(nav.Status))
		metrics.PagesVisited.WithLabelValues("http_" + strconv.Itoa(nav.Status)).Inc()
		return result
	}

	if err := s.WaitForIdle(ctx, c.opts.IdleTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		result.Errors = append(result.Errors, fmt.Sprintf("wait for idle: %v", err))
	}

	pageURL := item.URL
	if final, ok := urlutil.Normalize(nav.FinalURL); ok && final != item.URL {
		if !urlutil.SameSite(final, c.opts.BaseURL) {
			result.Errors = append(result.Errors, "redirected off-site to "+final)
			metrics.PagesVisited.WithLabelValues("offsite").Inc()
			return result
		}
		c.redirected[final] = true
		pageURL = final
	}

	doc, err := dom.Snapshot(ctx, s)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		metrics.PagesVisited.WithLabelValues("error").Inc()
		return result
	}

	pm := mapPage(doc, pageURL, c.policy)
	result.Title = pm.Title
	result.Language = pm.Language
	childDepth := item.Depth + 1
	for _, link := range pm.Links {
		result.InternalLinks = append(result.InternalLinks, link.URL)
		if childDepth > c.opts.MaxDepth {
			continue
		}
		priority := childDepth + nonBookingPenalty
		if rules.CrawlPriority.Any(link.Text) || rules.CrawlPriority.Any(urlutil.PathOf(link.URL)) {
			priority = childDepth
		}
		c.enqueue(model.CrawlQueueItem{URL: link.URL, Depth: childDepth, SourceURL: pageURL, Priority: priority})
	}

	for _, t := range c.opts.Detector.DetectDocument(doc, pageURL) {
		result.BookingTriggers = append(result.BookingTriggers, t)
		key := t.SourceURL + "\x00" + t.Text + "\x00" + t.Selector
		if c.triggerKeys[key] {
			continue
		}
		c.triggerKeys[key] = true
		c.triggers = append(c.triggers, t)
		metrics.TriggersDetected.WithLabelValues(t.TriggerType).Inc()
	}

	metrics.PagesVisited.WithLabelValues("ok").Inc()
	log.Debug("page visited", "title", result.Title, "links", len(result.InternalLinks), "triggers", len(result.BookingTriggers), "skipped", pm.Skipped)
	return result
}

// enqueue adds item unless its URL was already visited or is waiting
func (c *Crawler) enqueue(item model.CrawlQueueItem) {
	if c.visited[item.URL] || c.redirected[item.URL] || c.queued[item.URL] {
		return
	}
	c.queued[item.URL] = true
	c.queue.push(item)
}
