// Package browser defines the automation capabilities flowscout consumes.
//
// The crawler, explorer and scraper only depend on these interfaces;
// rodbrowser drives a real Chromium through go-rod and static serves an
// in-memory site for tests.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoElement is returned when a selector matches nothing
	ErrNoElement = errors.New("element not found")
	// ErrNotInteractable is returned when an element exists but cannot be clicked
	ErrNotInteractable = errors.New("element not interactable")
	// ErrUnsupported is returned by implementations lacking a capability
	ErrUnsupported = errors.New("capability not supported")
)

// Browser hands out isolated sessions
type Browser interface {
	// NewSession opens a browsing context with its own cookies and storage
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// NavigateOptions bounds a navigation
type NavigateOptions struct {
	Timeout   time.Duration
	WaitUntil string // "load" or "idle"
}

// NavigateResult is the outcome of a navigation
type NavigateResult struct {
	Status   int // 0 when the implementation cannot tell
	FinalURL string
}

// OK reports whether the response status is 2xx/3xx or unknown
func (r NavigateResult) OK() bool {
	return r.Status == 0 || (r.Status >= 200 && r.Status < 400)
}

// Session is one isolated browsing context with a single active page
type Session interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) (NavigateResult, error)
	// URL returns the active page URL
	URL() string
	// HTML returns the current DOM serialized as HTML
	HTML(ctx context.Context) (string, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	WaitForIdle(ctx context.Context, timeout time.Duration) error
	// AdoptNewTab switches to a tab opened since the last call, if any
	AdoptNewTab(ctx context.Context) (bool, error)
	// Screenshot returns a PNG of the viewport
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// ClickOptions tunes a click
type ClickOptions struct {
	Timeout time.Duration
	Force   bool // dispatch a DOM click even if the element is covered
}

// Element is a handle on one DOM node
type Element interface {
	TagName() string
	Attribute(name string) (string, bool)
	Text() string
	Visible() bool
	Click(ctx context.Context, opts ClickOptions) error
	Fill(ctx context.Context, value string) error
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// First returns the first visible element matching selector
func First(ctx context.Context, s Session, selector string) (Element, error) {
	els, err := s.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		if el.Visible() {
			return el, nil
		}
	}
	if len(els) > 0 {
		return nil, ErrNotInteractable
	}
	return nil, ErrNoElement
}
