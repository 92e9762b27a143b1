package detector

import (
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/browser/static"
	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
)

const homePage = `<body>
	<nav><a href="/login">Log in</a><a href="/about">About</a></nav>
	<div class="hero"><a id="cta" class="btn" href="/book">Book Now</a></div>
	<a href="https://www.facebook.com/sharer/sharer.php?u=x">Share</a>
	<a href="https://example.roller.app/widget">Tickets</a>
</body>`

func parse(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := dom.Parse(raw)
	require.NoError(t, err)
	return doc
}

func TestDetectDocument(t *testing.T) {
	d := New(Options{})
	got := d.DetectDocument(parse(t, homePage), "https://example.com/")
	require.Len(t, got, 2)

	tickets, book := got[0], got[1]
	assert.Equal(t, "Tickets", tickets.Text)
	assert.Equal(t, model.TriggerExternalLink, tickets.TriggerType)
	assert.Equal(t, "https://example.roller.app/widget", tickets.Href)
	assert.InDelta(t, 0.93, tickets.Confidence, 1e-9)

	assert.Equal(t, "Book Now", book.Text)
	assert.Equal(t, "#cta", book.Selector)
	assert.Equal(t, "a", book.TagName)
	assert.Equal(t, model.TriggerLink, book.TriggerType)
	assert.Equal(t, "https://example.com/book", book.Href)
	assert.InDelta(t, 0.88, book.Confidence, 1e-9)
	assert.Equal(t, "https://example.com/", book.SourceURL)
	assert.NotEmpty(t, book.ID)
	assert.NotEqual(t, tickets.ID, book.ID)
}

func TestDetectMinConfidence(t *testing.T) {
	d := New(Options{MinConfidence: 0.9})
	got := d.DetectDocument(parse(t, homePage), "https://example.com/")
	require.Len(t, got, 1)
	assert.Equal(t, "Tickets", got[0].Text)
}

func TestDetectKeepsOneTriggerPerElement(t *testing.T) {
	doc := parse(t, `<body>
		<div class="booking-widget" data-booking="true"><button>Book now</button></div>
	</body>`)
	got := New(Options{}).DetectDocument(doc, "https://example.com/")
	require.Len(t, got, 1)
	assert.Equal(t, "div", got[0].TagName)
	assert.Equal(t, model.TriggerDataAttr, got[0].TriggerType)
	assert.Equal(t, map[string]string{"data-booking": "true"}, got[0].DataAttributes)
	assert.InDelta(t, 0.85, got[0].Confidence, 1e-9)
}

func TestDetectIframe(t *testing.T) {
	doc := parse(t, `<body>
		<div class="booking"><iframe src="https://ecom.roller.app/venue/checkout" title="Book tickets"></iframe></div>
	</body>`)
	got := New(Options{}).DetectDocument(doc, "https://example.com/parties")
	require.Len(t, got, 1, "the empty wrapper loses to the frame")
	assert.Equal(t, model.TriggerIframe, got[0].TriggerType)
	assert.Equal(t, "Book tickets", got[0].Text)
	assert.Equal(t, "https://ecom.roller.app/venue/checkout", got[0].Href)
	assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)
}

func TestDetectIgnoresPlainNavigation(t *testing.T) {
	doc := parse(t, `<body><a href="/about">About</a><a href="/blog/bowling-tips">Read more</a><button>Menu</button></body>`)
	assert.Empty(t, New(Options{}).DetectDocument(doc, "https://example.com/"))
}

func TestDetectFromSession(t *testing.T) {
	ctx := context.Background()
	site := static.NewSite(map[string]string{"https://example.com/": homePage})
	s, err := site.NewSession(ctx)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Navigate(ctx, "https://example.com/", browser.NavigateOptions{})
	require.NoError(t, err)

	got, err := New(Options{}).Detect(ctx, s, s.URL())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
