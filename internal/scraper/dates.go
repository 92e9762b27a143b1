package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
)

// ScrapeForDates scrapes the widget, then picks each date in its date
// picker and re-reads the cards. Packages offered on only some of the
// probed weekdays get AvailableDays; packages seen only on a picked date
// are added under CategoryAll.
func (sc *Scraper) ScrapeForDates(ctx context.Context, rawURL string, dates []time.Time) (model.BookingSystemDiscovery, error) {
	out, err := sc.ScrapeBookingSystem(ctx, rawURL)
	if err != nil || len(dates) == 0 {
		return out, err
	}

	s, err := sc.browser.NewSession(ctx)
	if err != nil {
		return out, fmt.Errorf("open scrape session: %w", err)
	}
	defer s.Close()
	j := &job{sc: sc, s: s, log: sc.log.With("url", rawURL), pageURL: rawURL, seen: map[string]bool{}, out: &out}

	probed := map[string]bool{}
	offered := map[string]map[string]bool{} // package key → weekdays
	for _, d := range dates {
		if ctx.Err() != nil {
			break
		}
		day := weekdays[(int(d.Weekday())+6)%7]
		doc, err := j.pickDate(ctx, d)
		if err != nil {
			j.fail("pick date "+d.Format(time.DateOnly), err)
			continue
		}
		probed[day] = true
		for _, c := range extract.Cards(doc, nil) {
			key := textutil.NormalizeName(c.Name)
			if key == "" || rules.NegativeText.Any(c.Name) {
				continue
			}
			if offered[key] == nil {
				offered[key] = map[string]bool{}
			}
			offered[key][day] = true
			if !j.known(key) {
				j.seen[CategoryAll+"\x00"+key] = true
				out.Packages = append(out.Packages, packageFromCard(c, CategoryAll))
			}
		}
	}
	if len(probed) == 0 {
		return out, nil
	}

	for i := range out.Packages {
		days := offered[textutil.NormalizeName(out.Packages[i].Name)]
		if len(days) == 0 || len(days) == len(probed) {
			continue
		}
		out.Packages[i].AvailableDays = nil
		for _, wd := range weekdays {
			if days[wd] {
				out.Packages[i].AvailableDays = append(out.Packages[i].AvailableDays, wd)
			}
		}
	}
	return out, nil
}

// known reports whether a package with this key was found in any category
func (j *job) known(key string) bool {
	for _, p := range j.out.Packages {
		if textutil.NormalizeName(p.Name) == key {
			return true
		}
	}
	return false
}

// pickDate loads the widget, selects d in its date picker and returns the
// page that follows
func (j *job) pickDate(ctx context.Context, d time.Time) (*goquery.Document, error) {
	if err := j.navigate(ctx, j.pageURL); err != nil {
		return nil, err
	}
	doc, err := dom.Snapshot(ctx, j.s)
	if err != nil {
		return nil, err
	}
	iso := d.Format(time.DateOnly)
	for _, opt := range extract.Dates(doc) {
		if opt.Selector == "" || !opt.Available {
			continue
		}
		in := doc.Find(opt.Selector).First()
		if t, _ := in.Attr("type"); dom.Tag(in) == "input" && strings.EqualFold(t, "date") {
			if err := j.fill(ctx, opt.Selector, iso); err != nil {
				return nil, err
			}
			return dom.Snapshot(ctx, j.s)
		}
		if matchesDate(opt, d) {
			if err := j.click(ctx, opt.Selector); err != nil {
				return nil, err
			}
			return dom.Snapshot(ctx, j.s)
		}
	}
	return nil, fmt.Errorf("date %s not offered", iso)
}

func (j *job) fill(ctx context.Context, selector, value string) error {
	els, err := j.s.QueryAll(ctx, selector)
	if err != nil {
		return err
	}
	if len(els) == 0 {
		return fmt.Errorf("%s: no element", selector)
	}
	if err := els[0].Fill(ctx, value); err != nil {
		return err
	}
	return j.settle(ctx)
}

// matchesDate compares a calendar cell with d by its data-date value or
// by a label naming the day and month
func matchesDate(opt model.DateOption, d time.Time) bool {
	if opt.Value != "" {
		return strings.HasPrefix(opt.Value, d.Format(time.DateOnly))
	}
	label := strings.ToLower(opt.Label)
	day := strconv.Itoa(d.Day())
	return strings.Contains(label, strings.ToLower(d.Month().String())) && containsWord(label, day)
}

func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' }) {
		if f == word {
			return true
		}
	}
	return false
}
