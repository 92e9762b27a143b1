// Package rules holds the keyword tables behind every heuristic in flowscout
// and the small scorer that evaluates them.
//
// Tables are ordered lists of weighted rules. Classification uses the first
// match in order; scoring sums or maxes weights. Extending a heuristic means
// adding a row, not a branch.
package rules

import (
	"regexp"
	"strings"
)

// Rule is one weighted pattern
type Rule struct {
	Name    string
	Weight  float64
	Pattern *regexp.Regexp
}

// Matches reports whether the rule matches text
func (r Rule) Matches(text string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(text)
}

// Keywords builds a case-insensitive rule matching any phrase on word
// boundaries. Phrases are literal; spaces also match "-" and "_".
func Keywords(name string, weight float64, phrases ...string) Rule {
	alts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		q := regexp.QuoteMeta(strings.ToLower(p))
		q = strings.ReplaceAll(q, " ", `[\s_-]+`)
		alts = append(alts, q)
	}
	return Rule{
		Name:    name,
		Weight:  weight,
		Pattern: regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(?:` + strings.Join(alts, "|") + `)(?:$|[^\pL\pN])`),
	}
}

// Regexp builds a rule from a raw expression
func Regexp(name string, weight float64, expr string) Rule {
	return Rule{Name: name, Weight: weight, Pattern: regexp.MustCompile(expr)}
}

// Ruleset is an ordered rule list
type Ruleset []Rule

// First returns the first rule in order that matches text
func (rs Ruleset) First(text string) (Rule, bool) {
	for _, r := range rs {
		if r.Matches(text) {
			return r, true
		}
	}
	return Rule{}, false
}

// Best returns the matching rule with the highest weight
func (rs Ruleset) Best(text string) (Rule, bool) {
	var best Rule
	found := false
	for _, r := range rs {
		if r.Matches(text) && (!found || r.Weight > best.Weight) {
			best, found = r, true
		}
	}
	return best, found
}

// Sum adds the weights of every matching rule
func (rs Ruleset) Sum(text string) float64 {
	var total float64
	for _, r := range rs {
		if r.Matches(text) {
			total += r.Weight
		}
	}
	return total
}

// Any reports whether at least one rule matches
func (rs Ruleset) Any(text string) bool {
	_, ok := rs.First(text)
	return ok
}

// Classify returns the name of the first matching rule, or fallback
func (rs Ruleset) Classify(text, fallback string) string {
	if r, ok := rs.First(text); ok {
		return r.Name
	}
	return fallback
}

// Score accumulates independent weighted signals
type Score struct {
	Value   float64
	Signals []string
}

// Add records a signal and its weight; zero weights are ignored
func (s *Score) Add(signal string, weight float64) {
	if weight == 0 {
		return
	}
	s.Value += weight
	s.Signals = append(s.Signals, signal)
}

// AddBest records the best matching rule of rs against text
func (s *Score) AddBest(prefix string, rs Ruleset, text string) bool {
	r, ok := rs.Best(text)
	if ok {
		s.Add(prefix+":"+r.Name, r.Weight)
	}
	return ok
}

// Clamped returns the score bounded to [0,1]
func (s Score) Clamped() float64 {
	return Clamp(s.Value)
}

// Clamp bounds v to [0,1]
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
