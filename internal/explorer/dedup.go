package explorer

import (
	"sort"

	"github.com/antzucaro/matchr"

	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// labelSimilarity is the Jaro-Winkler score above which two href-less
// triggers on the same page are treated as the same control
const labelSimilarity = 0.92

// Group is one destination and every trigger that leads there
type Group struct {
	Key     string
	Primary model.BookingTrigger
	Members []model.BookingTrigger
}

// Eligible reports whether a trigger is worth exploring at all
func Eligible(t model.BookingTrigger) bool {
	if t.Href != "" && (urlutil.IsSocialOrShare(t.Href) || urlutil.IsAuthLink(t.Href)) {
		return false
	}
	return !rules.NegativeText.Any(t.Text)
}

// destinationKey identifies where a trigger leads. Linked triggers key on
// their destination; same-site paths collapse, external destinations keep
// host and query. Triggers without a link key on their page and label.
func destinationKey(t model.BookingTrigger, siteURL string) string {
	if t.Href != "" {
		if key, _ := urlutil.DestinationKey(t.Href, siteURL); key != "" {
			return key
		}
	}
	return "control:" + urlutil.PathOf(t.SourceURL) + "|" + textutil.NormalizeName(t.Text)
}

// GroupTriggers drops ineligible triggers and groups the rest by
// destination. Groups are ordered by their best trigger's confidence.
func GroupTriggers(triggers []model.BookingTrigger, siteURL string) []Group {
	sorted := make([]model.BookingTrigger, 0, len(triggers))
	for _, t := range triggers {
		if Eligible(t) {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var groups []Group
	index := map[string]int{}
	for _, t := range sorted {
		key := destinationKey(t, siteURL)
		i, ok := index[key]
		if !ok && t.Href == "" {
			i, ok = similarControl(groups, t)
		}
		if ok {
			if !hasTrigger(groups[i].Members, t.ID) {
				groups[i].Members = append(groups[i].Members, t)
			}
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Primary: t, Members: []model.BookingTrigger{t}})
	}
	return groups
}

// similarControl finds an href-less group on the same page whose primary
// label is nearly identical to t's
func similarControl(groups []Group, t model.BookingTrigger) (int, bool) {
	label := textutil.NormalizeName(t.Text)
	if label == "" {
		return 0, false
	}
	for i, g := range groups {
		p := g.Primary
		if p.Href != "" || urlutil.PathOf(p.SourceURL) != urlutil.PathOf(t.SourceURL) {
			continue
		}
		if matchr.JaroWinkler(label, textutil.NormalizeName(p.Text), false) >= labelSimilarity {
			return i, true
		}
	}
	return 0, false
}

// DedupTriggers keeps one trigger per destination
func DedupTriggers(triggers []model.BookingTrigger, siteURL string) []model.BookingTrigger {
	groups := GroupTriggers(triggers, siteURL)
	out := make([]model.BookingTrigger, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Primary)
	}
	return out
}

// MergeFlows folds flows whose first step landed on the same destination
// into the earliest of them, uniting their entry points
func MergeFlows(flows []model.BookingFlow, siteURL string) []model.BookingFlow {
	var out []model.BookingFlow
	index := map[string]int{}
	for _, f := range flows {
		key := landingKey(f, siteURL)
		i, ok := index[key]
		if !ok || key == "" {
			if key != "" {
				index[key] = len(out)
			}
			out = append(out, f)
			continue
		}
		for _, ep := range f.EntryPoints {
			if !hasTrigger(out[i].EntryPoints, ep.ID) {
				out[i].EntryPoints = append(out[i].EntryPoints, ep)
			}
		}
		if out[i].GroupSizeConfig == nil {
			out[i].GroupSizeConfig = f.GroupSizeConfig
		}
	}
	return out
}

// landingKey is "" for flows that never left the trigger's page, since
// in-page widgets on one page are not the same destination
func landingKey(f model.BookingFlow, siteURL string) string {
	for _, v := range f.Flows {
		if len(v.Steps) == 0 {
			continue
		}
		landing := v.Steps[0].URL
		for _, ep := range f.EntryPoints {
			if urlutil.SameSite(landing, ep.SourceURL) && urlutil.PathOf(landing) == urlutil.PathOf(ep.SourceURL) {
				return ""
			}
		}
		key, _ := urlutil.DestinationKey(landing, siteURL)
		return key
	}
	return ""
}

func hasTrigger(list []model.BookingTrigger, id string) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}
