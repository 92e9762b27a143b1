package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/v0xg/flowscout/internal/browser/rodbrowser"
	"github.com/v0xg/flowscout/internal/config"
	"github.com/v0xg/flowscout/internal/logging"
	"github.com/v0xg/flowscout/internal/metrics"
)

var (
	cfgFile string
	verbose bool
	// flag targets; only flags the user set are copied over the loaded config
	flagCfg = config.Default()

	cfg       config.Config
	logger    *slog.Logger
	logCloser io.Closer = io.NopCloser(nil)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flowscout [url]",
		Short: "Discover the booking flows of a venue website",
		Long: `flowscout crawls a website, finds the buttons and links that start a booking,
follows each booking flow step by step up to (never into) payment, and scrapes
the packages offered by the booking widgets it reaches.

Example:
  flowscout https://venue.example.com --max-pages 30 -o venue.json`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: setup,
		RunE:              runDiscover,
		SilenceUsage:      true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress (debug logging)")
	pf.StringVarP(&flagCfg.Output, "output", "o", flagCfg.Output, "Output JSON file (- for stdout)")
	pf.DurationVar(&flagCfg.PageTimeout, "page-timeout", flagCfg.PageTimeout, "Page load timeout")
	pf.DurationVar(&flagCfg.ActionTimeout, "action-timeout", flagCfg.ActionTimeout, "Timeout per click or fill")
	pf.DurationVar(&flagCfg.IdleTimeout, "idle-timeout", flagCfg.IdleTimeout, "Wait for network idle after actions")
	pf.DurationVar(&flagCfg.InteractionDelay, "delay", flagCfg.InteractionDelay, "Pause after every action")
	pf.BoolVar(&flagCfg.Headless, "headless", flagCfg.Headless, "Run the browser headless")
	pf.StringVar(&flagCfg.UserAgent, "user-agent", "", "Browser user agent override")
	pf.IntVar(&flagCfg.Viewport.Width, "width", flagCfg.Viewport.Width, "Viewport width")
	pf.IntVar(&flagCfg.Viewport.Height, "height", flagCfg.Viewport.Height, "Viewport height")
	pf.StringVar(&flagCfg.ProfileDir, "profile", "", "Chrome/Chromium profile directory (close browser first)")
	pf.IntVar(&flagCfg.RetryCount, "retries", flagCfg.RetryCount, "Attempts per browser action")
	pf.IntVar(&flagCfg.MaxPackageDetails, "max-package-details", flagCfg.MaxPackageDetails, "Package detail views opened per widget")
	pf.IntVar(&flagCfg.MaxCategories, "max-categories", flagCfg.MaxCategories, "Category tabs scraped per widget")
	pf.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&flagCfg.LogFile, "log-file", "", "Rotated log file")
	pf.BoolVar(&flagCfg.LogJSON, "log-json", false, "Log as JSON")
	pf.StringVar(&flagCfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	f := rootCmd.Flags()
	f.IntVar(&flagCfg.MaxPages, "max-pages", flagCfg.MaxPages, "Maximum pages to crawl")
	f.IntVar(&flagCfg.MaxDepth, "max-depth", flagCfg.MaxDepth, "Maximum link depth from the start page")
	f.DurationVar(&flagCfg.CrawlDelay, "crawl-delay", flagCfg.CrawlDelay, "Minimum spacing between page loads")
	f.Float64Var(&flagCfg.MinConfidence, "min-confidence", flagCfg.MinConfidence, "Minimum trigger confidence")
	f.IntVar(&flagCfg.MaxFlows, "max-flows", 0, "Maximum flows to explore (0 = all)")
	f.IntVar(&flagCfg.FlowConcurrency, "concurrency", flagCfg.FlowConcurrency, "Flows explored at once")
	f.IntVar(&flagCfg.MaxStepsPerFlow, "max-steps", flagCfg.MaxStepsPerFlow, "Maximum steps per flow variation")
	f.DurationVar(&flagCfg.FlowTimeout, "flow-timeout", flagCfg.FlowTimeout, "Timeout per flow variation")
	f.BoolVar(&flagCfg.Screenshots, "screenshots", false, "Save a screenshot of every step")
	f.StringVar(&flagCfg.ScreenshotDir, "screenshot-dir", flagCfg.ScreenshotDir, "Screenshot directory")
	f.IntVar(&flagCfg.ScreenshotWidth, "screenshot-width", flagCfg.ScreenshotWidth, "Screenshot width in pixels")
	f.BoolVar(&flagCfg.Storyboard, "storyboard", false, "Also write an animated GIF per variation")
	f.BoolVar(&flagCfg.ScrapePackages, "packages", flagCfg.ScrapePackages, "Scrape packages from reached booking widgets")
	f.StringVar(&flagCfg.AdvisorProvider, "advisor", "", "AI advisor for stuck steps: claude, openai")
	f.StringVar(&flagCfg.AdvisorModel, "advisor-model", "", "Advisor model override")

	rootCmd.AddCommand(newPackagesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config, applies set flags and starts logging and metrics
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	applyFlags(cmd, &cfg)
	if len(args) > 0 {
		cfg.BaseURL = args[0]
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, logCloser, err = logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", "config", cfgFile, "url", cfg.BaseURL)

	if cfg.MetricsAddr != "" {
		go metrics.ExposeMetrics(cfg.MetricsAddr)
	}
	return nil
}

// applyFlags copies every flag the user set onto c
func applyFlags(cmd *cobra.Command, c *config.Config) {
	set := func(name string, apply func()) {
		if fl := cmd.Flags().Lookup(name); fl != nil && fl.Changed {
			apply()
		}
	}
	set("output", func() { c.Output = flagCfg.Output })
	set("page-timeout", func() { c.PageTimeout = flagCfg.PageTimeout })
	set("action-timeout", func() { c.ActionTimeout = flagCfg.ActionTimeout })
	set("idle-timeout", func() { c.IdleTimeout = flagCfg.IdleTimeout })
	set("delay", func() { c.InteractionDelay = flagCfg.InteractionDelay })
	set("headless", func() { c.Headless = flagCfg.Headless })
	set("user-agent", func() { c.UserAgent = flagCfg.UserAgent })
	set("width", func() { c.Viewport.Width = flagCfg.Viewport.Width })
	set("height", func() { c.Viewport.Height = flagCfg.Viewport.Height })
	set("profile", func() { c.ProfileDir = flagCfg.ProfileDir })
	set("retries", func() { c.RetryCount = flagCfg.RetryCount })
	set("max-package-details", func() { c.MaxPackageDetails = flagCfg.MaxPackageDetails })
	set("max-categories", func() { c.MaxCategories = flagCfg.MaxCategories })
	set("log-level", func() { c.LogLevel = flagCfg.LogLevel })
	set("log-file", func() { c.LogFile = flagCfg.LogFile })
	set("log-json", func() { c.LogJSON = flagCfg.LogJSON })
	set("metrics-addr", func() { c.MetricsAddr = flagCfg.MetricsAddr })
	set("max-pages", func() { c.MaxPages = flagCfg.MaxPages })
	set("max-depth", func() { c.MaxDepth = flagCfg.MaxDepth })
	set("crawl-delay", func() { c.CrawlDelay = flagCfg.CrawlDelay })
	set("min-confidence", func() { c.MinConfidence = flagCfg.MinConfidence })
	set("max-flows", func() { c.MaxFlows = flagCfg.MaxFlows })
	set("concurrency", func() { c.FlowConcurrency = flagCfg.FlowConcurrency })
	set("max-steps", func() { c.MaxStepsPerFlow = flagCfg.MaxStepsPerFlow })
	set("flow-timeout", func() { c.FlowTimeout = flagCfg.FlowTimeout })
	set("screenshots", func() { c.Screenshots = flagCfg.Screenshots })
	set("screenshot-dir", func() { c.ScreenshotDir = flagCfg.ScreenshotDir })
	set("screenshot-width", func() { c.ScreenshotWidth = flagCfg.ScreenshotWidth })
	set("storyboard", func() { c.Storyboard = flagCfg.Storyboard })
	set("packages", func() { c.ScrapePackages = flagCfg.ScrapePackages })
	set("advisor", func() { c.AdvisorProvider = flagCfg.AdvisorProvider })
	set("advisor-model", func() { c.AdvisorModel = flagCfg.AdvisorModel })
}

// launchBrowser starts Chromium with the configured window
func launchBrowser() (*rodbrowser.Browser, error) {
	fmt.Printf("→ Launching browser... ")
	b, err := rodbrowser.Launch(rodbrowser.Options{
		Width:      cfg.Viewport.Width,
		Height:     cfg.Viewport.Height,
		Headless:   cfg.Headless,
		UserAgent:  cfg.UserAgent,
		ProfileDir: cfg.ProfileDir,
	})
	if err != nil {
		fmt.Println("failed")
		return nil, fmt.Errorf("browser launch failed: %w", err)
	}
	fmt.Println("done")
	return b, nil
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(100 * time.Millisecond).String()
}
