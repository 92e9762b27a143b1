// Package config holds the settings of a flowscout run.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/v0xg/flowscout/internal/browser"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "FLOWSCOUT_"

// Viewport is the browser window size
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config represents a run configuration (flowscout.yaml).
type Config struct {
	BaseURL string `yaml:"baseURL"`

	// Crawl
	MaxPages   int           `yaml:"maxPages"`
	MaxDepth   int           `yaml:"maxDepth"`
	CrawlDelay time.Duration `yaml:"crawlDelay"`

	// Browser
	PageTimeout      time.Duration `yaml:"pageTimeout"`
	ActionTimeout    time.Duration `yaml:"actionTimeout"`
	IdleTimeout      time.Duration `yaml:"idleTimeout"`
	InteractionDelay time.Duration `yaml:"interactionDelay"`
	Headless         bool          `yaml:"headless"`
	UserAgent        string        `yaml:"userAgent"`
	Viewport         Viewport      `yaml:"viewport"`
	ProfileDir       string        `yaml:"profileDir"`
	RetryCount       int           `yaml:"retryCount"` // attempts per action
	RetryBackoff     time.Duration `yaml:"retryBackoff"`

	// Detection and exploration
	MinConfidence   float64       `yaml:"minConfidence"`
	MaxFlows        int           `yaml:"maxFlows"` // 0 = unlimited
	FlowConcurrency int           `yaml:"flowConcurrency"`
	MaxStepsPerFlow int           `yaml:"maxStepsPerFlow"`
	FlowTimeout     time.Duration `yaml:"flowTimeout"`

	// Screenshots
	Screenshots     bool   `yaml:"screenshots"`
	ScreenshotDir   string `yaml:"screenshotDir"`
	ScreenshotWidth int    `yaml:"screenshotWidth"`
	Storyboard      bool   `yaml:"storyboard"`

	// Package scraping
	ScrapePackages    bool `yaml:"scrapePackages"`
	MaxPackageDetails int  `yaml:"maxPackageDetails"`
	MaxCategories     int  `yaml:"maxCategories"`

	// Stuck-step advisor
	AdvisorProvider string `yaml:"advisorProvider"`
	AdvisorModel    string `yaml:"advisorModel"`

	// Output
	LogLevel    string `yaml:"logLevel"`
	LogFile     string `yaml:"logFile"`
	LogJSON     bool   `yaml:"logJSON"`
	MetricsAddr string `yaml:"metricsAddr"`
	Output      string `yaml:"output"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		MaxPages:          50,
		MaxDepth:          3,
		CrawlDelay:        time.Second,
		PageTimeout:       30 * time.Second,
		ActionTimeout:     10 * time.Second,
		IdleTimeout:       5 * time.Second,
		InteractionDelay:  800 * time.Millisecond,
		Headless:          true,
		Viewport:          Viewport{Width: 1280, Height: 900},
		RetryCount:        3,
		RetryBackoff:      500 * time.Millisecond,
		MinConfidence:     0.3,
		FlowConcurrency:   1,
		MaxStepsPerFlow:   15,
		FlowTimeout:       3 * time.Minute,
		ScreenshotDir:     "screenshots",
		ScreenshotWidth:   800,
		ScrapePackages:    true,
		MaxPackageDetails: 20,
		MaxCategories:     10,
		LogLevel:          "info",
		Output:            "discovery.json",
	}
}

// Load builds a config from the defaults, the YAML file at path (skipped
// when path is empty) and the environment, in that order. A .env file in
// the working directory is read first if present.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from FLOWSCOUT_* variables
func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("BASE_URL", &c.BaseURL)
	num("MAX_PAGES", &c.MaxPages)
	num("MAX_DEPTH", &c.MaxDepth)
	dur("CRAWL_DELAY", &c.CrawlDelay)
	dur("PAGE_TIMEOUT", &c.PageTimeout)
	dur("ACTION_TIMEOUT", &c.ActionTimeout)
	dur("IDLE_TIMEOUT", &c.IdleTimeout)
	dur("INTERACTION_DELAY", &c.InteractionDelay)
	flag("HEADLESS", &c.Headless)
	str("USER_AGENT", &c.UserAgent)
	num("VIEWPORT_WIDTH", &c.Viewport.Width)
	num("VIEWPORT_HEIGHT", &c.Viewport.Height)
	str("PROFILE_DIR", &c.ProfileDir)
	num("RETRY_COUNT", &c.RetryCount)
	dur("RETRY_BACKOFF", &c.RetryBackoff)
	if v, ok := os.LookupEnv(EnvPrefix + "MIN_CONFIDENCE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMIN_CONFIDENCE: %w", EnvPrefix, err))
		} else {
			c.MinConfidence = f
		}
	}
	num("MAX_FLOWS", &c.MaxFlows)
	num("FLOW_CONCURRENCY", &c.FlowConcurrency)
	num("MAX_STEPS_PER_FLOW", &c.MaxStepsPerFlow)
	dur("FLOW_TIMEOUT", &c.FlowTimeout)
	flag("SCREENSHOTS", &c.Screenshots)
	str("SCREENSHOT_DIR", &c.ScreenshotDir)
	num("SCREENSHOT_WIDTH", &c.ScreenshotWidth)
	flag("STORYBOARD", &c.Storyboard)
	flag("SCRAPE_PACKAGES", &c.ScrapePackages)
	num("MAX_PACKAGE_DETAILS", &c.MaxPackageDetails)
	num("MAX_CATEGORIES", &c.MaxCategories)
	str("ADVISOR_PROVIDER", &c.AdvisorProvider)
	str("ADVISOR_MODEL", &c.AdvisorModel)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	flag("LOG_JSON", &c.LogJSON)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("OUTPUT", &c.Output)

	return errors.Join(errs...)
}

// Validate reports every invalid setting
func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base URL %q must be an absolute http(s) URL", c.BaseURL))
	}

	caps := []struct {
		name string
		v    int
	}{
		{"maxPages", c.MaxPages},
		{"maxDepth", c.MaxDepth},
		{"maxFlows", c.MaxFlows},
		{"maxStepsPerFlow", c.MaxStepsPerFlow},
		{"maxPackageDetails", c.MaxPackageDetails},
		{"maxCategories", c.MaxCategories},
		{"screenshotWidth", c.ScreenshotWidth},
	}
	for _, cp := range caps {
		if cp.v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", cp.name, cp.v))
		}
	}
	durations := []struct {
		name string
		v    time.Duration
	}{
		{"crawlDelay", c.CrawlDelay},
		{"pageTimeout", c.PageTimeout},
		{"actionTimeout", c.ActionTimeout},
		{"idleTimeout", c.IdleTimeout},
		{"interactionDelay", c.InteractionDelay},
		{"retryBackoff", c.RetryBackoff},
		{"flowTimeout", c.FlowTimeout},
	}
	for _, d := range durations {
		if d.v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", d.name, d.v))
		}
	}
	if c.RetryCount < 1 {
		errs = append(errs, fmt.Errorf("retryCount must be at least 1, got %d", c.RetryCount))
	}
	if c.FlowConcurrency < 1 {
		errs = append(errs, fmt.Errorf("flowConcurrency must be at least 1, got %d", c.FlowConcurrency))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("minConfidence must be within [0,1], got %g", c.MinConfidence))
	}
	switch strings.ToLower(c.AdvisorProvider) {
	case "", "claude", "anthropic", "openai", "gpt":
	default:
		errs = append(errs, fmt.Errorf("unknown advisor provider %q", c.AdvisorProvider))
	}
	return errors.Join(errs...)
}

// RetryPolicy is the policy applied to every browser action
func (c Config) RetryPolicy() browser.RetryPolicy {
	return browser.RetryPolicy{MaxAttempts: c.RetryCount, Backoff: c.RetryBackoff}
}
