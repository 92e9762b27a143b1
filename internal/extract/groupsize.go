// Package extract reads booking options out of a page snapshot.
//
// Every function is best effort: absence yields nil or an empty slice,
// never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
)

// Stepper is a +/- quantity control
type Stepper struct {
	Category      string
	IncSelector   string
	DecSelector   string
	ValueSelector string
	Value         int
	Min           int
	Max           int // 0 when unbounded
}

var (
	incLabel   = regexp.MustCompile(`(?i)^\s*(\+|＋|plus|add)\s*$|increase|increment|add (one|a|an)|more (guests|people|players)`)
	decLabel   = regexp.MustCompile(`(?i)^\s*(-|−|–|minus|remove)\s*$|decrease|decrement|remove (one|a|an)|fewer`)
	guestField = regexp.MustCompile(`(?i)(guest|people|person|party|players?|adults?|child|children|kids?|size|qty|quantity|pax|participants?|attendees?|jumpers?|bowlers?|tickets?)`)
	digitsOnly = regexp.MustCompile(`^\s*\d+\s*$`)
)

// Steppers finds +/- quantity controls and the value they drive
func Steppers(doc *goquery.Document) []Stepper {
	var out []Stepper
	seen := map[string]bool{}
	dom.Each(doc.Find("button, [role=button], a, span[class*=plus], span[class*=increment]"), func(inc *goquery.Selection) {
		if !dom.Visible(inc) || !incLabel.MatchString(dom.Label(inc)) {
			return
		}
		container := inc.Parent()
		var dec *goquery.Selection
		for i := 0; i < 3 && container.Length() > 0; i++ {
			dec = findDecrement(container)
			if dec != nil {
				break
			}
			container = container.Parent()
		}
		if dec == nil {
			return
		}
		incSel, _ := dom.Selector(doc, inc)
		if seen[incSel] {
			return
		}
		seen[incSel] = true
		decSel, _ := dom.Selector(doc, dec)

		st := Stepper{IncSelector: incSel, DecSelector: decSel, Min: 0}
		if input := container.Find("input").First(); input.Length() > 0 {
			st.ValueSelector, _ = dom.Selector(doc, input)
			st.Value = attrInt(input, "value", 0)
			st.Min = attrInt(input, "min", 0)
			st.Max = attrInt(input, "max", 0)
		} else {
			dom.Each(container.Find("span, output, div, strong"), func(s *goquery.Selection) {
				if st.ValueSelector == "" && s.Children().Length() == 0 && digitsOnly.MatchString(s.Text()) {
					st.ValueSelector, _ = dom.Selector(doc, s)
					st.Value, _ = textutil.FirstInt(s.Text())
				}
			})
		}
		st.Min = attrIntFallback(container, "data-min", st.Min)
		st.Max = attrIntFallback(container, "data-max", st.Max)
		st.Category = stepperCategory(container)
		out = append(out, st)
	})
	return out
}

func findDecrement(container *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	dom.Each(container.Find("button, [role=button], a, span[class*=minus], span[class*=decrement]"), func(s *goquery.Selection) {
		if found == nil && decLabel.MatchString(dom.Label(s)) {
			found = s
		}
	})
	return found
}

func stepperCategory(container *goquery.Selection) string {
	for _, sel := range []string{"label", "[class*=label]", "[class*=name]", "[class*=title]", "h3", "h4", "h5", "strong", "span"} {
		var name string
		dom.Each(container.Find(sel), func(s *goquery.Selection) {
			t := textutil.Clean(s.Text())
			if name == "" && t != "" && !digitsOnly.MatchString(t) && !incLabel.MatchString(t) && !decLabel.MatchString(t) {
				name = t
			}
		})
		if name != "" {
			return textutil.Truncate(name, 40)
		}
	}
	return "guests"
}

// GroupSize reads the party-size selector of a step, or nil when the page
// has none
func GroupSize(doc *goquery.Document) *model.GroupSizeConfig {
	cfg, _ := GroupSizeField(doc)
	return cfg
}

// GroupSizeField is GroupSize plus the selector of the input or select
// behind it; the selector is empty for steppers
func GroupSizeField(doc *goquery.Document) (*model.GroupSizeConfig, string) {
	var cfg *model.GroupSizeConfig
	var field string

	if steppers := Steppers(doc); len(steppers) > 0 {
		cfg = &model.GroupSizeConfig{Control: "stepper"}
		for _, st := range steppers {
			cfg.Categories = append(cfg.Categories, model.GuestCategory{Name: st.Category, Min: st.Min, Max: st.Max})
			cfg.Default += st.Value
			cfg.Max = max(cfg.Max, st.Max)
		}
		cfg.Min = max(steppers[0].Min, 1)
	}

	if cfg == nil {
		dom.Each(doc.Find("input[type=number]"), func(in *goquery.Selection) {
			if cfg != nil || !dom.Visible(in) || !guestField.MatchString(fieldSignature(doc, in)) {
				return
			}
			cfg = &model.GroupSizeConfig{
				Control: "input",
				Min:     max(attrInt(in, "min", 1), 1),
				Max:     attrInt(in, "max", 0),
				Default: attrInt(in, "value", 0),
			}
			field, _ = dom.Selector(doc, in)
		})
	}

	if cfg == nil {
		dom.Each(doc.Find("select"), func(s *goquery.Selection) {
			if cfg != nil || !dom.Visible(s) || !guestField.MatchString(fieldSignature(doc, s)) {
				return
			}
			c := &model.GroupSizeConfig{Control: "select"}
			var sizes []int
			dom.Each(s.Find("option"), func(o *goquery.Selection) {
				t := textutil.Clean(o.Text())
				n, ok := textutil.FirstInt(t)
				if !ok {
					return
				}
				sizes = append(sizes, n)
				if strings.Contains(t, "+") && c.DivergencePoint == 0 {
					c.DivergencePoint = n
				}
				if _, sel := o.Attr("selected"); sel {
					c.Default = n
				}
			})
			if len(sizes) == 0 {
				return
			}
			c.Min, c.Max = sizes[0], sizes[0]
			for _, n := range sizes {
				c.Min = min(c.Min, n)
				c.Max = max(c.Max, n)
			}
			cfg = c
			field, _ = dom.Selector(doc, s)
		})
	}

	if cfg == nil {
		return nil, ""
	}
	if cfg.Min < 1 {
		cfg.Min = 1
	}
	if d := Divergence(dom.BodyText(doc)); d > 0 && cfg.DivergencePoint == 0 {
		cfg.DivergencePoint = d
	}
	return cfg, field
}

// Divergence returns the party size at which the text says the booking
// path changes, or 0
func Divergence(text string) int {
	for _, r := range rules.Divergence {
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 2 {
			continue
		}
		if r.Name == "above" {
			n++
		}
		return n
	}
	return 0
}

// fieldSignature concatenates everything that names a form control
func fieldSignature(doc *goquery.Document, sel *goquery.Selection) string {
	var parts []string
	for _, a := range []string{"name", "id", "aria-label", "placeholder", "class"} {
		if v, ok := sel.Attr(a); ok {
			parts = append(parts, v)
		}
	}
	parts = append(parts, fieldLabel(doc, sel))
	return strings.Join(parts, " ")
}

func attrInt(sel *goquery.Selection, name string, fallback int) int {
	v, ok := sel.Attr(name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func attrIntFallback(sel *goquery.Selection, name string, current int) int {
	if current != 0 {
		return current
	}
	return attrInt(sel, name, current)
}
