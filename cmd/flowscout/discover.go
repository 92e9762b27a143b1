package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/v0xg/flowscout/internal/advisor"
	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/crawler"
	"github.com/v0xg/flowscout/internal/detector"
	"github.com/v0xg/flowscout/internal/explorer"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/scraper"
	"github.com/v0xg/flowscout/internal/storyboard"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// runDiscover crawls the site, explores every booking flow and scrapes the
// widgets those flows reach
func runDiscover(cmd *cobra.Command, args []string) error {
	defer logCloser.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider advisor.Provider
	if cfg.AdvisorProvider != "" {
		p, err := advisor.NewProvider(cfg.AdvisorProvider, cfg.AdvisorModel)
		if err != nil {
			return fmt.Errorf("advisor init failed: %w", err)
		}
		provider = p
	}

	b, err := launchBrowser()
	if err != nil {
		return err
	}
	defer b.Close()

	rep, err := discover(ctx, b, provider)
	if err != nil {
		return err
	}

	if err := writeReport(cfg.Output, rep); err != nil {
		return err
	}
	printSummary(os.Stdout, rep)
	if cfg.Output != "-" {
		fmt.Printf("✓ Saved to %s\n", cfg.Output)
	}
	return nil
}

// discover runs the three stages against b. Only a browser that cannot
// open sessions fails it.
func discover(ctx context.Context, b browser.Browser, provider advisor.Provider) (report, error) {
	retry := cfg.RetryPolicy()
	det := detector.New(detector.Options{MinConfidence: cfg.MinConfidence, Logger: logger})

	// Step 1: Crawl
	start := time.Now()
	fmt.Printf("→ Crawling %s... ", cfg.BaseURL)
	cr, err := crawler.New(b, crawler.Options{
		BaseURL:     cfg.BaseURL,
		MaxPages:    cfg.MaxPages,
		MaxDepth:    cfg.MaxDepth,
		PageTimeout: cfg.PageTimeout,
		IdleTimeout: cfg.IdleTimeout,
		CrawlDelay:  cfg.CrawlDelay,
		Retry:       retry,
		Detector:    det,
		Logger:      logger.With("stage", "crawl"),
		OnPage: func(r model.CrawlResult) {
			logger.Debug("page visited", "url", r.URL, "depth", r.Depth, "triggers", len(r.BookingTriggers))
		},
	})
	if err != nil {
		fmt.Println("failed")
		return report{}, err
	}
	crawl, err := cr.Crawl(ctx)
	if err != nil {
		fmt.Println("failed")
		return report{}, fmt.Errorf("crawl failed: %w", err)
	}
	fmt.Printf("done (%d pages, %d triggers, %s)\n", len(crawl.Results), len(crawl.Triggers), elapsed(start))

	rep := report{
		BaseURL:        cfg.BaseURL,
		Crawl:          crawl.Results,
		Triggers:       crawl.Triggers,
		Flows:          []model.BookingFlow{},
		BookingSystems: []model.BookingSystemDiscovery{},
		GeneratedAt:    time.Now().UTC(),
	}
	if len(crawl.Triggers) == 0 {
		fmt.Println("⚠ No booking triggers found")
		return rep, nil
	}

	// Step 2: Explore
	var board *storyboard.Board
	if cfg.Screenshots {
		board = storyboard.New(storyboard.Options{
			Dir:      cfg.ScreenshotDir,
			MaxWidth: uint(cfg.ScreenshotWidth),
			GIF:      cfg.Storyboard,
		})
	}
	start = time.Now()
	fmt.Printf("→ Exploring booking flows... ")
	var unentered atomic.Int32
	ex := explorer.New(b, explorer.Options{
		SiteURL:          cfg.BaseURL,
		MaxFlows:         cfg.MaxFlows,
		Concurrency:      cfg.FlowConcurrency,
		MaxSteps:         cfg.MaxStepsPerFlow,
		FlowTimeout:      cfg.FlowTimeout,
		PageTimeout:      cfg.PageTimeout,
		ActionTimeout:    cfg.ActionTimeout,
		IdleTimeout:      cfg.IdleTimeout,
		InteractionDelay: cfg.InteractionDelay,
		Retry:            retry,
		Screenshots:      cfg.Screenshots,
		Board:            board,
		Advisor:          provider,
		Logger:           logger.With("stage", "explore"),
		OnFlow: func(f model.BookingFlow) {
			if !entered(f) {
				unentered.Add(1)
			}
		},
	})
	flows, err := ex.ExploreAll(ctx, crawl.Triggers)
	if err != nil {
		fmt.Println("failed")
		return rep, fmt.Errorf("exploration failed: %w", err)
	}
	rep.Flows = flows
	if n := unentered.Load(); n > 0 {
		fmt.Printf("done (%d flows, %d not entered, %s)\n", len(flows), n, elapsed(start))
	} else {
		fmt.Printf("done (%d flows, %s)\n", len(flows), elapsed(start))
	}

	// Step 3: Scrape the widgets the flows reached
	if !cfg.ScrapePackages {
		return rep, nil
	}
	targets := widgetURLs(flows)
	if len(targets) == 0 {
		return rep, nil
	}
	start = time.Now()
	fmt.Printf("→ Scraping %d booking widgets... ", len(targets))
	sc := scraper.New(b, scraper.Options{
		MaxCategories:     cfg.MaxCategories,
		MaxPackageDetails: cfg.MaxPackageDetails,
		PageTimeout:       cfg.PageTimeout,
		ActionTimeout:     cfg.ActionTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		InteractionDelay:  cfg.InteractionDelay,
		Retry:             retry,
		Logger:            logger.With("stage", "scrape"),
	})
	packages := 0
	for _, u := range targets {
		if ctx.Err() != nil {
			break
		}
		sys, err := sc.ScrapeBookingSystem(ctx, u)
		if err != nil {
			fmt.Println("failed")
			return rep, fmt.Errorf("package scrape failed: %w", err)
		}
		packages += len(sys.Packages)
		rep.BookingSystems = append(rep.BookingSystems, sys)
	}
	fmt.Printf("done (%d packages, %s)\n", packages, elapsed(start))
	return rep, nil
}

// widgetURLs returns the distinct first-step URLs of the explored flows
func widgetURLs(flows []model.BookingFlow) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range flows {
		for _, v := range f.Flows {
			if len(v.Steps) == 0 {
				continue
			}
			u, ok := urlutil.Normalize(v.Steps[0].URL)
			if !ok || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// entered reports whether any variation of f got past its trigger
func entered(f model.BookingFlow) bool {
	for _, v := range f.Flows {
		if len(v.Steps) > 0 {
			return true
		}
	}
	return false
}
