package static

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowscout/internal/browser"
)

func TestSiteNavigationAndClicks(t *testing.T) {
	ctx := context.Background()
	site := NewSite(map[string]string{
		"https://example.com/": `<body>
			<a id="book" href="/book">Book now</a>
			<a id="ext" href="https://vendor.com/w" target="_blank">Tickets</a>
			<button id="go" data-href="/next">Go</button>
			<button id="off" disabled>Off</button>
		</body>`,
		"https://example.com/book": `<body><form action="/done"><input name="email"><button>Send</button></form></body>`,
		"https://example.com/next": `<body>next</body>`,
		"https://example.com/done": `<body>done</body>`,
		"https://vendor.com/w":     `<body>widget</body>`,
	})
	site.SetStatus("https://example.com/next", 503)

	s, err := site.NewSession(ctx)
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Navigate(ctx, "https://example.com", browser.NavigateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "https://example.com/", s.URL())

	click := func(sel string) error {
		els, err := s.QueryAll(ctx, sel)
		require.NoError(t, err)
		require.Len(t, els, 1)
		return els[0].Click(ctx, browser.ClickOptions{})
	}

	require.ErrorIs(t, click("#off"), browser.ErrNotInteractable)

	require.NoError(t, click("#ext"))
	assert.Equal(t, "https://example.com/", s.URL(), "target=_blank opens a tab")
	adopted, err := s.AdoptNewTab(ctx)
	require.NoError(t, err)
	assert.True(t, adopted)
	assert.Equal(t, "https://vendor.com/w", s.URL())

	_, err = s.Navigate(ctx, "https://example.com/", browser.NavigateOptions{})
	require.NoError(t, err)
	require.NoError(t, click("#book"))
	assert.Equal(t, "https://example.com/book", s.URL())

	els, err := s.QueryAll(ctx, `input[name="email"]`)
	require.NoError(t, err)
	require.NoError(t, els[0].Fill(ctx, "a@b.c"))
	html, err := s.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `value="a@b.c"`)

	require.NoError(t, click("button"))
	assert.Equal(t, "https://example.com/done", s.URL())

	res, err = s.Navigate(ctx, "https://example.com/next", browser.NavigateOptions{})
	require.NoError(t, err)
	assert.False(t, res.OK())
	res, err = s.Navigate(ctx, "https://example.com/missing", browser.NavigateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 404, res.Status)

	texts := []string{}
	for _, c := range site.Clicks() {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"Tickets", "Book now", "Send"}, texts)
	assert.Len(t, site.Visits(), 7)
}

func TestFailClicks(t *testing.T) {
	ctx := context.Background()
	site := NewSite(map[string]string{"https://example.com/": `<body><button>Next</button></body>`})
	site.FailClicks("next", 2)

	s, _ := site.NewSession(ctx)
	_, err := s.Navigate(ctx, "https://example.com/", browser.NavigateOptions{})
	require.NoError(t, err)
	els, _ := s.QueryAll(ctx, "button")

	assert.ErrorIs(t, els[0].Click(ctx, browser.ClickOptions{}), browser.ErrNotInteractable)
	assert.ErrorIs(t, els[0].Click(ctx, browser.ClickOptions{}), browser.ErrNotInteractable)
	assert.NoError(t, els[0].Click(ctx, browser.ClickOptions{}))
	assert.Len(t, site.Clicks(), 1)
}

func TestSessionsAreCounted(t *testing.T) {
	ctx := context.Background()
	site := NewSite(nil)
	a, _ := site.NewSession(ctx)
	b, _ := site.NewSession(ctx)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	opened, closed := site.Sessions()
	assert.Equal(t, 2, opened)
	assert.Equal(t, 1, closed)
	_ = b.Close()

	_, err := a.Navigate(ctx, "https://example.com/", browser.NavigateOptions{})
	assert.Error(t, err)

	shot, err := b.Screenshot(ctx)
	assert.Nil(t, shot)
	assert.ErrorIs(t, err, browser.ErrUnsupported)
}
