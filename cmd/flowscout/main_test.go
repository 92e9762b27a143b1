package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowscout/internal/browser/static"
	"github.com/v0xg/flowscout/internal/config"
	"github.com/v0xg/flowscout/internal/model"
)

func venueSite() *static.Site {
	return static.NewSite(map[string]string{
		"https://example.com/": `<body><a id="book" href="/book">Book now</a></body>`,
		"https://example.com/book": `<body><h1>Choose a package</h1>
			<div class="package-card"><h3>Bronze</h3><span class="price">$25</span><a href="/book/date">Select</a></div>
			<div class="package-card"><h3>Gold</h3><span class="price">$40</span><a href="/book/date">Select</a></div>
		</body>`,
		"https://example.com/book/date": `<body><h1>Pick a date</h1>
			<div class="calendar"><button data-date="2026-11-02" class="day" data-href="/book/pay">2</button></div>
		</body>`,
		"https://example.com/book/pay": `<body><h1>Payment details</h1>
			<input name="cardnumber" placeholder="Card number"><button>Pay now</button>
		</body>`,
	})
}

func testConfig(t *testing.T) {
	t.Helper()
	prevCfg, prevLogger := cfg, logger
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })

	cfg = config.Default()
	cfg.BaseURL = "https://example.com"
	cfg.MaxDepth = 0
	cfg.CrawlDelay = 0
	cfg.InteractionDelay = 0
	cfg.RetryBackoff = time.Millisecond
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiscover(t *testing.T) {
	testConfig(t)
	site := venueSite()

	rep, err := discover(context.Background(), site, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", rep.BaseURL)
	require.Len(t, rep.Crawl, 1)
	require.Len(t, rep.Triggers, 1)
	assert.Equal(t, "Book now", rep.Triggers[0].Text)

	require.Len(t, rep.Flows, 1)
	require.Len(t, rep.Flows[0].Flows, 1)
	v := rep.Flows[0].Flows[0]
	assert.Equal(t, model.ReasonPaymentReached, v.TerminationReason)
	assert.Equal(t, "2: product_selection > date_selection", stepPath(v.Steps))

	require.Len(t, rep.BookingSystems, 1)
	sys := rep.BookingSystems[0]
	assert.Equal(t, "https://example.com/book", sys.URL)
	require.Len(t, sys.Packages, 2)
	assert.Equal(t, "Bronze", sys.Packages[0].Name)
	assert.Equal(t, "Gold", sys.Packages[1].Name)

	for _, c := range site.Clicks() {
		assert.NotEqual(t, "Pay now", c.Text)
	}
	opened, closed := site.Sessions()
	assert.Equal(t, opened, closed, "every session is closed")
}

func TestDiscoverWithoutTriggers(t *testing.T) {
	testConfig(t)
	cfg.ScrapePackages = true
	site := static.NewSite(map[string]string{"https://example.com/": `<body><h1>Closed for winter</h1></body>`})

	rep, err := discover(context.Background(), site, nil)
	require.NoError(t, err)
	assert.Empty(t, rep.Triggers)
	assert.NotNil(t, rep.Flows)
	assert.Empty(t, rep.Flows)
	assert.Empty(t, rep.BookingSystems)
}

func TestDiscoverFailsWhenCrawlCannotStart(t *testing.T) {
	testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := discover(ctx, venueSite(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWidgetURLs(t *testing.T) {
	variation := func(urls ...string) model.FlowVariation {
		var v model.FlowVariation
		for i, u := range urls {
			v.Steps = append(v.Steps, model.FlowStep{StepOrder: i + 1, URL: u})
		}
		return v
	}
	flows := []model.BookingFlow{
		{Flows: []model.FlowVariation{variation("https://example.com/book/", "https://example.com/book/date"), variation()}},
		{Flows: []model.FlowVariation{variation("https://example.com/book?utm_source=nav")}},
		{Flows: []model.FlowVariation{variation("https://tickets.vendor.com/w/1")}},
	}
	assert.Equal(t, []string{"https://example.com/book", "https://tickets.vendor.com/w/1"}, widgetURLs(flows))
}

func TestStepPath(t *testing.T) {
	assert.Equal(t, "-", stepPath(nil))
	assert.Equal(t, "1: payment", stepPath([]model.FlowStep{{StepType: model.StepPayment}}))
}

func TestWriteReportAndSummary(t *testing.T) {
	rep := report{
		BaseURL: "https://example.com",
		Flows: []model.BookingFlow{{
			Name: "Book now",
			Flows: []model.FlowVariation{{
				GroupSizeMode:     model.GroupSizeMax,
				GroupSize:         16,
				FlowType:          model.FlowHighRevenue,
				Steps:             []model.FlowStep{{StepType: model.StepGroupSize}},
				TerminationReason: model.ReasonPaymentReached,
			}},
		}},
		BookingSystems: []model.BookingSystemDiscovery{{URL: "https://example.com/book", Platform: "roller"}},
	}

	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, writeReport(path, rep))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "https://example.com", back["baseUrl"])

	var out bytes.Buffer
	printSummary(&out, rep)
	assert.Contains(t, out.String(), "max (16)")
	assert.Contains(t, out.String(), "1: group_size_selection")
	assert.Contains(t, out.String(), "roller")
}
