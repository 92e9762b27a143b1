package scraper

import (
	"regexp"
	"strings"

	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

var weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

const dayName = `(mon(?:day)?|tue(?:s|sday)?|wed(?:nesday)?|thu(?:r|rs|rsday)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)\b\.?`

var (
	// "Mon–Thu $30", "Fri - Sun: $35pp", "Saturday $40"
	dayBand = regexp.MustCompile(`(?i)\b` + dayName + `(?:\s*(?:-|–|—|to|through|thru)\s*` + dayName + `)?\s*:?\s*(?:from\s+)?$`)
	// "weekdays $25", "weekends: $30"
	weekPart = regexp.MustCompile(`(?i)\b(weekdays?|weekends?|week\s?nights?)\s*:?\s*(?:from\s+)?$`)
	// "$30 Mon-Thu"
	dayBandAfter = regexp.MustCompile(`(?i)^\s*(?:\(|on\s+)?` + dayName + `(?:\s*(?:-|–|—|to|through|thru)\s*` + dayName + `)?`)
	noteSplit    = regexp.MustCompile(`[\n;|•]+|\.\s+`)
)

// ParsePricing reads base, per-person and weekday-banded prices out of
// free text. Sentences carrying a price that fits none of these are kept
// verbatim as notes.
func ParsePricing(text string) model.PackagePricing {
	var p model.PackagePricing
	for _, seg := range noteSplit.Split(text, -1) {
		seg = textutil.Clean(seg)
		if seg == "" {
			continue
		}
		prices := textutil.FindPrices(seg)
		if len(prices) == 0 {
			continue
		}
		if p.Currency == "" {
			p.Currency = prices[0].Currency
		}
		used := false
		for _, pr := range prices {
			before := seg[:pr.Index]
			after := seg[pr.Index+len(pr.Raw):]
			perPerson := extract.PerPersonSuffix.MatchString(after)
			if perPerson {
				after = extract.PerPersonSuffix.ReplaceAllString(after, "")
			}

			if days := bandDays(before, after); len(days) > 0 {
				p.DayPricing = append(p.DayPricing, model.DayPrice{Days: days, Price: pr.Value, PerPerson: perPerson})
				used = true
				continue
			}
			switch {
			case perPerson && p.PerPersonPrice == nil:
				p.PerPersonPrice = textutil.FloatPtr(pr.Value)
				used = true
			case !perPerson && p.BasePrice == nil:
				p.BasePrice = textutil.FloatPtr(pr.Value)
				used = true
			}
		}
		if !used {
			p.Notes = append(p.Notes, seg)
		}
	}
	return p
}

// bandDays returns the weekdays a price applies to, from the words right
// before or after it
func bandDays(before, after string) []string {
	// Only the trailing clause of before belongs to this price
	if i := strings.LastIndexAny(before, "/,"); i >= 0 {
		before = before[i+1:]
	}
	if m := dayBand.FindStringSubmatch(before); m != nil {
		return expandDays(m[1], m[2])
	}
	if m := weekPart.FindStringSubmatch(before); m != nil {
		return weekDays(m[1])
	}
	if m := dayBandAfter.FindStringSubmatch(after); m != nil {
		return expandDays(m[1], m[2])
	}
	return nil
}

func weekDays(word string) []string {
	w := strings.ToLower(word)
	switch {
	case strings.HasPrefix(w, "weekend"):
		return []string{"sat", "sun"}
	case strings.HasPrefix(w, "week"):
		if strings.Contains(w, "night") {
			return []string{"mon", "tue", "wed", "thu"}
		}
		return []string{"mon", "tue", "wed", "thu", "fri"}
	}
	return nil
}

// expandDays turns a day range into its days, wrapping past Sunday
func expandDays(from, to string) []string {
	start := dayIndex(from)
	if start < 0 {
		return nil
	}
	end := dayIndex(to)
	if end < 0 {
		return []string{weekdays[start]}
	}
	var out []string
	for i := start; ; i = (i + 1) % 7 {
		out = append(out, weekdays[i])
		if i == end || len(out) == 7 {
			break
		}
	}
	return out
}

func dayIndex(s string) int {
	s = strings.ToLower(s)
	if len(s) < 3 {
		return -1
	}
	for i, d := range weekdays {
		if s[:3] == d {
			return i
		}
	}
	return -1
}
