// Package rodbrowser implements the browser capabilities with go-rod.
package rodbrowser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/flowscout/internal/browser"
)

// Options configures the launched browser
type Options struct {
	Width      int
	Height     int
	Headless   bool
	UserAgent  string
	ProfileDir string // Chrome/Chromium profile directory, shared by every session
}

// Browser wraps a launched Chromium
type Browser struct {
	browser *rod.Browser
	opts    Options
}

// Launch starts a local Chromium and connects to it
func Launch(opts Options) (*Browser, error) {
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 900
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return &Browser{browser: b, opts: opts}, nil
}

// NewSession opens an incognito context, so cookies and storage never leak
// between sessions
func (b *Browser) NewSession(ctx context.Context) (browser.Session, error) {
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("open incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.opts.Width,
		Height:            b.opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if b.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent}); err != nil {
			_ = incognito.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	return &session{
		context: incognito,
		page:    page,
		known:   map[proto.TargetTargetID]bool{page.TargetID: true},
	}, nil
}

// Close shuts the browser down
func (b *Browser) Close() error {
	return b.browser.Close()
}

type session struct {
	context *rod.Browser
	page    *rod.Page
	known   map[proto.TargetTargetID]bool
	lastURL string
}

func (s *session) Navigate(ctx context.Context, url string, opts browser.NavigateOptions) (browser.NavigateResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return browser.NavigateResult{}, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return browser.NavigateResult{}, fmt.Errorf("wait load %s: %w", url, err)
	}
	if opts.WaitUntil == "idle" {
		// Persistent connections (websockets, polling) never go idle
		_ = s.WaitForIdle(ctx, 5*time.Second)
		if s.isSPA(ctx) {
			s.waitForInteractive(ctx, 5*time.Second)
		}
	}
	return browser.NavigateResult{Status: s.status(ctx), FinalURL: s.URL()}, nil
}

// isSPA looks for client-side framework markers
func (s *session) isSPA(ctx context.Context) bool {
	res, err := s.page.Context(ctx).Eval(`() => {
		if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
		if (window.__VUE__ || document.querySelector('[data-v-app]')) return true;
		if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
		if (document.querySelector('[class*="svelte-"]')) return true;
		return false;
	}`)
	return err == nil && res.Value.Bool()
}

// waitForInteractive polls until the app has rendered a visible control or
// timeout passes
func (s *session) waitForInteractive(ctx context.Context, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		res, err := s.page.Context(ctx).Eval(`() => {
			const els = document.querySelectorAll('button, [role="button"], input:not([type="hidden"]), select, a[href]');
			let visible = 0;
			els.forEach(el => { if (el.offsetParent) visible++; });
			return visible;
		}`)
		if err != nil {
			return
		}
		if res.Value.Int() > 0 {
			// Let the last renders land
			_ = browser.Sleep(ctx, 300*time.Millisecond)
			return
		}
		if browser.Sleep(ctx, 200*time.Millisecond) != nil {
			return
		}
	}
}

// status reads the HTTP status of the last navigation from the
// Navigation Timing API
func (s *session) status(ctx context.Context) int {
	res, err := s.page.Context(ctx).Eval(`() => {
		const e = performance.getEntriesByType('navigation')[0];
		return e && e.responseStatus ? e.responseStatus : 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func (s *session) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return s.lastURL
	}
	s.lastURL = info.URL
	return info.URL
}

func (s *session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *session) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el, ctx: ctx})
	}
	return out, nil
}

func (s *session) WaitForIdle(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s.page.Context(ctx).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	return nil
}

func (s *session) AdoptNewTab(ctx context.Context) (bool, error) {
	res, err := proto.TargetGetTargets{}.Call(s.context)
	if err != nil {
		return false, fmt.Errorf("list targets: %w", err)
	}
	for _, info := range res.TargetInfos {
		if info.Type != proto.TargetTargetInfoTypePage || s.known[info.TargetID] {
			continue
		}
		if info.BrowserContextID != s.context.BrowserContextID {
			continue
		}
		s.known[info.TargetID] = true
		page, err := s.context.PageFromTarget(info.TargetID)
		if err != nil {
			return false, fmt.Errorf("attach new tab: %w", err)
		}
		s.page = page
		_ = page.Context(ctx).WaitLoad()
		return true, nil
	}
	return false, nil
}

func (s *session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, nil)
}

// Close disposes the incognito context and every page in it
func (s *session) Close() error {
	return s.context.Close()
}
