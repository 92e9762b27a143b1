package scraper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/browser/static"
	"github.com/v0xg/flowscout/internal/detector"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

const widget = "https://book.example.com/"

const widgetHome = `<html><head><title>Book online | Bowl-a-rama</title></head><body>
	<nav class="category-tabs">
		<a href="/?cat=bowling">Bowling</a>
		<a href="/?cat=parties">Parties</a>
	</nav>
	<footer>
		<a href="tel:+61 2 5550 1234">Call us</a>
		<a href="mailto:hi@bowl.example?subject=Party">Email us</a>
		<address>1 Lane St, Sydney</address>
	</footer>
</body></html>`

const bowlingTab = `<body>
	<div class="package-card" data-package-id="strike">
		<h3>Strike Package</h3>
		<p class="price">Mon–Thu $30pp / Fri–Sun $35pp</p>
		<p class="desc">Two games and shoe hire for 2-8 players.</p>
		<a href="/pkg/strike">More info</a>
		<button>Select</button>
	</div>
	<div class="package-card" data-package-id="strike-again">
		<h3>strike   package</h3>
		<p class="price">$30 per person</p>
		<button>Select</button>
	</div>
	<div class="package-card" data-package-id="lanes">
		<h3>Lane Hire</h3>
		<p class="price">$60</p>
		<a href="/pkg/lanes">Details</a>
		<button>Select</button>
	</div>
</body>`

const partiesTab = `<body>
	<div class="package-card"><h3>Strike Package</h3><p class="price">$30 per person</p><button>Select</button></div>
	<div class="package-card"><h3>Gold Party</h3><p class="price">$450</p><p>Up to 20 guests, 3 hours of fun.</p><button>Select</button></div>
</body>`

const strikeDetail = `<body>
	<h1>Strike Package</h1>
	<p>Two games of ten-pin bowling with shoe hire, a reserved lane and a dedicated host for your group.</p>
	<h3>What's included</h3>
	<ul><li>2 games of bowling</li><li>Shoe hire</li><li>Jug of soft drink</li></ul>
	<p>Minimum age 5. Valid Mon–Thu only.</p>
	<p>Duration: 2 hours</p>
</body>`

func newScraper(site *static.Site, details int) *Scraper {
	return New(site, Options{
		MaxPackageDetails: details,
		Retry:             browser.RetryPolicy{MaxAttempts: 1},
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func names(pkgs []model.BookablePackage) []string {
	var out []string
	for _, p := range pkgs {
		out = append(out, p.Category+"/"+p.Name)
	}
	return out
}

func TestScrapeBookingSystem(t *testing.T) {
	site := static.NewSite(map[string]string{
		widget:                                widgetHome,
		"https://book.example.com/?cat=bowling": bowlingTab,
		"https://book.example.com/?cat=parties": partiesTab,
		"https://book.example.com/pkg/strike":   strikeDetail,
	})
	out, err := newScraper(site, 1).ScrapeBookingSystem(context.Background(), widget)
	require.NoError(t, err)

	assert.Equal(t, widget, out.URL)
	assert.Equal(t, detector.PlatformCustom, out.Platform)
	assert.Equal(t, model.VenueInfo{
		Name:    "Bowl-a-rama",
		Address: "1 Lane St, Sydney",
		Phone:   "+61 2 5550 1234",
		Email:   "hi@bowl.example",
	}, out.Venue)
	assert.Equal(t, []string{"Bowling", "Parties"}, out.Categories)
	assert.Empty(t, out.Errors)
	assert.False(t, out.ScrapedAt.IsZero())

	require.Equal(t, []string{
		"Bowling/Strike Package",
		"Bowling/Lane Hire",
		"Parties/Strike Package",
		"Parties/Gold Party",
	}, names(out.Packages), "duplicates collapse within a category only")
	strike, lanes, partyStrike, gold := out.Packages[0], out.Packages[1], out.Packages[2], out.Packages[3]
	assert.NotEqual(t, strike.ID, partyStrike.ID)

	assert.True(t, strike.DetailScraped)
	assert.Equal(t, "Two games of ten-pin bowling with shoe hire, a reserved lane and a dedicated host for your group.", strike.Description)
	if diff := cmp.Diff([]model.DayPrice{
		{Days: []string{"mon", "tue", "wed", "thu"}, Price: 30, PerPerson: true},
		{Days: []string{"fri", "sat", "sun"}, Price: 35, PerPerson: true},
	}, strike.Pricing.DayPricing); diff != "" {
		t.Errorf("day pricing mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, &model.GuestConfiguration{Min: 2, Max: 8}, strike.Guests)
	assert.Equal(t, []model.PackageInclusion{
		{Text: "2 games of bowling", Category: "activity"},
		{Text: "Shoe hire", Category: "equipment"},
		{Text: "Jug of soft drink", Category: "drink"},
	}, strike.Inclusions)
	assert.Equal(t, []string{"Minimum age 5. Valid Mon–Thu only."}, strike.Restrictions)
	assert.Equal(t, "2 hours", strike.Duration)

	assert.False(t, lanes.DetailScraped, "detail budget spent")
	assert.Equal(t, textutil.FloatPtr(60), lanes.Pricing.BasePrice)

	assert.Equal(t, textutil.FloatPtr(30), partyStrike.Pricing.PerPersonPrice)
	assert.Equal(t, textutil.FloatPtr(450), gold.Pricing.BasePrice)
	assert.Equal(t, &model.GuestConfiguration{Max: 20}, gold.Guests)
	assert.Equal(t, "3 hours", gold.Duration)

	assert.Equal(t, []string{
		widget,
		"https://book.example.com/?cat=bowling",
		"https://book.example.com/pkg/strike",
		"https://book.example.com/?cat=bowling",
		"https://book.example.com/?cat=parties",
	}, site.Visits())
	require.Len(t, site.Clicks(), 1)
	assert.Equal(t, "More info", site.Clicks()[0].Text)
	opened, closed := site.Sessions()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestScrapeWithoutTabs(t *testing.T) {
	site := static.NewSite(map[string]string{widget: `<body>
		<div class="package-card"><h3>Jump Pass</h3><p class="price">$22</p><button>Details</button><button>Select</button></div>
	</body>`})
	out, err := newScraper(site, 5).ScrapeBookingSystem(context.Background(), widget)
	require.NoError(t, err)

	assert.Equal(t, []string{CategoryAll}, out.Categories)
	require.Len(t, out.Packages, 1)
	assert.Equal(t, CategoryAll, out.Packages[0].Category)
	assert.False(t, out.Packages[0].DetailScraped)
	assert.Equal(t, []string{"details of Jump Pass: detail view did not open"}, out.Errors)
}

func TestScrapeNotAWidget(t *testing.T) {
	site := static.NewSite(map[string]string{widget: `<body><h1>About us</h1><p>We love bowling</p></body>`})
	out, err := newScraper(site, 0).ScrapeBookingSystem(context.Background(), widget)
	require.NoError(t, err)
	assert.Empty(t, out.Packages)
	assert.Equal(t, []string{"page does not look like a booking widget"}, out.Errors)
}

func TestScrapeLoadFailure(t *testing.T) {
	site := static.NewSite(nil)
	site.SetStatus(widget, 500)
	out, err := newScraper(site, 0).ScrapeBookingSystem(context.Background(), widget)
	require.NoError(t, err)
	assert.Equal(t, []string{"load widget: http status 500"}, out.Errors)
	assert.Empty(t, out.Categories)
}

func TestScrapeNeedsASession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newScraper(static.NewSite(nil), 0).ScrapeBookingSystem(ctx, widget)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScrapeForDates(t *testing.T) {
	card := func(name, price string) string {
		return `<div class="package-card"><h3>` + name + `</h3><p class="price">` + price + `</p><button>Select</button></div>`
	}
	site := static.NewSite(map[string]string{
		widget: `<body>
			<div class="calendar">
				<button class="day" data-date="2026-11-02" data-href="/?date=2026-11-02">2</button>
				<button class="day" data-date="2026-11-07" data-href="/?date=2026-11-07">7</button>
			</div>` + card("Open Bowl", "$15") + `</body>`,
		"https://book.example.com/?date=2026-11-02": `<body>` + card("Open Bowl", "$15") + card("Twilight Special", "$12") + `</body>`,
		"https://book.example.com/?date=2026-11-07": `<body>` + card("Open Bowl", "$18") + card("Glow Party", "$25") + `</body>`,
	})
	day := func(d int) time.Time { return time.Date(2026, time.November, d, 0, 0, 0, 0, time.UTC) }

	out, err := newScraper(site, 0).ScrapeForDates(context.Background(), widget, []time.Time{day(2), day(3), day(7)})
	require.NoError(t, err)

	require.Equal(t, []string{"all/Open Bowl", "all/Twilight Special", "all/Glow Party"}, names(out.Packages))
	assert.Nil(t, out.Packages[0].AvailableDays, "offered on every probed day")
	assert.Equal(t, []string{"mon"}, out.Packages[1].AvailableDays)
	assert.Equal(t, []string{"sat"}, out.Packages[2].AvailableDays)
	assert.Equal(t, []string{"pick date 2026-11-03: date 2026-11-03 not offered"}, out.Errors)

	opened, closed := site.Sessions()
	assert.Equal(t, 2, opened)
	assert.Equal(t, 2, closed)
}

func TestMatchesDate(t *testing.T) {
	d := time.Date(2026, time.November, 7, 0, 0, 0, 0, time.UTC)
	assert.True(t, matchesDate(model.DateOption{Value: "2026-11-07T00:00"}, d))
	assert.False(t, matchesDate(model.DateOption{Value: "2026-11-17"}, d))
	assert.True(t, matchesDate(model.DateOption{Label: "Saturday, 7 November 2026"}, d))
	assert.False(t, matchesDate(model.DateOption{Label: "17 November"}, d))
}
