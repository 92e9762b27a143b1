package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/scraper"
)

func newPackagesCmd() *cobra.Command {
	var dates []string
	cmd := &cobra.Command{
		Use:   "packages <url>",
		Short: "Scrape the packages of one booking widget",
		Long: `packages opens a booking widget page and reads every package it offers:
pricing by weekday, guest limits, inclusions, add-ons and restrictions.

With --date, the date picker is set to each given day and the packages are
read again, so packages offered only on some weekdays get availableDays.

Example:
  flowscout packages https://venue.example.com/book --date 2026-11-02 --date 2026-11-07`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logCloser.Close()
			var days []time.Time
			for _, d := range dates {
				t, err := time.Parse(time.DateOnly, d)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", d, err)
				}
				days = append(days, t)
			}
			return runPackages(args[0], days)
		},
	}
	cmd.Flags().StringSliceVar(&dates, "date", nil, "Re-scrape with this date (YYYY-MM-DD) picked; repeatable")
	return cmd
}

func runPackages(rawURL string, days []time.Time) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := launchBrowser()
	if err != nil {
		return err
	}
	defer b.Close()

	sc := scraper.New(b, scraper.Options{
		MaxCategories:     cfg.MaxCategories,
		MaxPackageDetails: cfg.MaxPackageDetails,
		PageTimeout:       cfg.PageTimeout,
		ActionTimeout:     cfg.ActionTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		InteractionDelay:  cfg.InteractionDelay,
		Retry:             cfg.RetryPolicy(),
		Logger:            logger.With("stage", "scrape"),
	})

	start := time.Now()
	fmt.Printf("→ Scraping %s... ", rawURL)
	var sys model.BookingSystemDiscovery
	if len(days) > 0 {
		sys, err = sc.ScrapeForDates(ctx, rawURL, days)
	} else {
		sys, err = sc.ScrapeBookingSystem(ctx, rawURL)
	}
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("package scrape failed: %w", err)
	}
	fmt.Printf("done (%d packages, %s)\n", len(sys.Packages), elapsed(start))
	for _, e := range sys.Errors {
		fmt.Printf("⚠ %s\n", e)
	}

	rep := report{BaseURL: rawURL, GeneratedAt: time.Now().UTC(), BookingSystems: []model.BookingSystemDiscovery{sys}}
	if err := writeReport(cfg.Output, rep); err != nil {
		return err
	}
	printSummary(os.Stdout, rep)
	if cfg.Output != "-" {
		fmt.Printf("✓ Saved to %s\n", cfg.Output)
	}
	return nil
}
