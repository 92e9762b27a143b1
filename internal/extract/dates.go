package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

const (
	maxDates = 62
	maxTimes = 48
)

// calendarCells covers the day cells of common date pickers
const calendarCells = `[data-date], [data-day], td[data-handler="selectDay"] a, .flatpickr-day, .react-datepicker__day, ` +
	`.pika-button, .day, [class*=calendar] button, [class*=calendar] td, [class*=datepicker] button, [class*=datepicker] td, [role=gridcell]`

var (
	dayNumber = regexp.MustCompile(`^\s*(0?[1-9]|[12]\d|3[01])\s*$`)
	timeText  = regexp.MustCompile(`(?i)\b(([01]?\d|2[0-3])[:.][0-5]\d\s*(am|pm)?|(1[0-2]|0?[1-9])\s*(am|pm))\b`)
	calendar  = regexp.MustCompile(`(?i)(calendar|datepicker|date-picker|flatpickr|pika|react-datepicker|ui-datepicker)`)
)

// Dates returns the selectable day cells and date inputs of a step
func Dates(doc *goquery.Document) []model.DateOption {
	var out []model.DateOption
	seen := map[*html.Node]bool{}

	dom.Each(doc.Find("input[type=date]"), func(in *goquery.Selection) {
		if !dom.Visible(in) {
			return
		}
		seen[in.Nodes[0]] = true
		sel, _ := dom.Selector(doc, in)
		value, _ := in.Attr("value")
		if value == "" {
			value, _ = in.Attr("min")
		}
		out = append(out, model.DateOption{
			Label:     fieldLabel(doc, in),
			Value:     value,
			Selector:  sel,
			Available: dom.Enabled(in),
		})
	})

	dom.Each(doc.Find(calendarCells), func(cell *goquery.Selection) {
		if len(out) >= maxDates || seen[cell.Nodes[0]] || !dom.Visible(cell) {
			return
		}
		value, hasDate := cell.Attr("data-date")
		label := dom.Label(cell)
		if !hasDate && !dayNumber.MatchString(label) {
			return
		}
		if !hasDate && !calendar.MatchString(dom.AncestorSignature(cell, 6)) {
			if _, ok := cell.Attr("data-day"); !ok {
				return
			}
		}
		// Nested matches like td > button resolve to the innermost cell
		if cell.Find(calendarCells).Length() > 0 {
			return
		}
		seen[cell.Nodes[0]] = true
		sel, _ := dom.Selector(doc, cell)
		if aria, ok := cell.Attr("aria-label"); ok && aria != "" {
			label = textutil.Clean(aria)
		}
		out = append(out, model.DateOption{
			Label:     label,
			Value:     value,
			Selector:  sel,
			Available: dom.Enabled(cell) && dom.Enabled(cell.Parent()),
		})
	})
	return out
}

// Times returns the time-slot controls of a step
func Times(doc *goquery.Document) []model.TimeOption {
	var out []model.TimeOption
	seen := map[*html.Node]bool{}
	candidates := `button, a, label, li, [role=option], [role=radio], [data-time], [class*=slot], [class*=time] > *`
	dom.Each(doc.Find(candidates), func(el *goquery.Selection) {
		if len(out) >= maxTimes || seen[el.Nodes[0]] || !dom.Visible(el) {
			return
		}
		label := dom.Label(el)
		if v, ok := el.Attr("data-time"); ok && label == "" {
			label = v
		}
		if len(label) > 40 || !timeText.MatchString(label) {
			return
		}
		// Wrappers resolve to the innermost control carrying the time
		inner := false
		dom.Each(el.Find("button, a, label, [role=option], [role=radio], [data-time]"), func(c *goquery.Selection) {
			inner = inner || timeText.MatchString(dom.Label(c))
		})
		if inner {
			return
		}
		seen[el.Nodes[0]] = true
		sel, _ := dom.Selector(doc, el)
		available := dom.Enabled(el)
		if in := el.Find("input").First(); in.Length() > 0 {
			available = available && dom.Enabled(in)
		}
		out = append(out, model.TimeOption{Label: label, Selector: sel, Available: available})
	})
	return out
}

// HasCalendar reports a date picker or date input on the page
func HasCalendar(doc *goquery.Document) bool {
	if doc.Find("input[type=date], input[type=datetime-local]").Length() > 0 {
		return true
	}
	found := false
	dom.Each(doc.Find("[class], [id]"), func(s *goquery.Selection) {
		if found {
			return
		}
		cls, _ := s.Attr("class")
		id, _ := s.Attr("id")
		found = calendar.MatchString(cls+" "+id) && dom.Visible(s)
	})
	return found
}
