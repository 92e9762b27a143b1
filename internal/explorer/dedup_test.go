package explorer

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/textutil"
)

func parse(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := dom.Parse(raw)
	require.NoError(t, err)
	return doc
}

func trig(id, text, source, href string, conf float64) model.BookingTrigger {
	return model.BookingTrigger{ID: id, Text: text, SourceURL: source, Href: href, Confidence: conf}
}

func TestGroupTriggers(t *testing.T) {
	triggers := []model.BookingTrigger{
		trig("a", "Book now", "https://example.com/", "https://example.com/book", 0.7),
		trig("b", "Tickets", "https://example.com/", "https://tickets.vendor.com/book", 0.9),
		trig("c", "Reserve", "https://example.com/about", "https://example.com/book?utm_source=x", 0.5),
		trig("d", "Book your party", "https://example.com/parties", "", 0.6),
		trig("e", "Book your party now", "https://example.com/parties", "", 0.55),
		trig("f", "Book your party", "https://example.com/events", "", 0.4),
		trig("g", "Sign in", "https://example.com/", "https://example.com/account", 0.95),
	}
	groups := GroupTriggers(triggers, site)

	var keys [][]string
	for _, g := range groups {
		var ids []string
		for _, m := range g.Members {
			ids = append(ids, m.ID)
		}
		keys = append(keys, ids)
	}
	want := [][]string{{"b"}, {"a", "c"}, {"d", "e"}, {"f"}}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "site:/book", groups[1].Key)
	assert.Equal(t, "ext:tickets.vendor.com/book", groups[0].Key, "external destinations never merge with same-site ones")
}

func TestDedupTriggersIsIdempotent(t *testing.T) {
	triggers := []model.BookingTrigger{
		trig("a", "Book now", "https://example.com/", "https://example.com/book", 0.7),
		trig("b", "Book now", "https://example.com/contact", "https://example.com/book/", 0.6),
		trig("c", "Tickets", "https://example.com/", "https://example.com/tickets", 0.8),
	}
	once := DedupTriggers(triggers, site)
	require.Len(t, once, 2)
	assert.Equal(t, once, DedupTriggers(once, site))
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(trig("a", "Book now", site, "https://example.com/book", 1)))
	assert.False(t, Eligible(trig("b", "Share", site, "", 1)))
	assert.False(t, Eligible(trig("c", "Book", site, "https://www.facebook.com/sharer/sharer.php?u=x", 1)))
	assert.False(t, Eligible(trig("d", "Book", site, "https://example.com/login", 1)))
}

func flowLanding(id, source, landing string) model.BookingFlow {
	return model.BookingFlow{
		ID:          id,
		EntryPoints: []model.BookingTrigger{{ID: "trg-" + id, SourceURL: source}},
		Flows: []model.FlowVariation{{
			Steps: []model.FlowStep{{StepOrder: 1, URL: landing}},
		}},
	}
}

func TestMergeFlows(t *testing.T) {
	cfg := &model.GroupSizeConfig{Min: 1, Control: "stepper"}
	second := flowLanding("2", "https://example.com/about", "https://example.com/book")
	second.GroupSizeConfig = cfg

	merged := MergeFlows([]model.BookingFlow{
		flowLanding("1", "https://example.com/", "https://example.com/book"),
		second,
		flowLanding("3", "https://example.com/parties", "https://example.com/parties"),
		flowLanding("4", "https://example.com/parties", "https://example.com/parties"),
		flowLanding("5", "https://example.com/", "https://widgets.vendor.com/book"),
	}, site)

	var ids []string
	for _, f := range merged {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"1", "3", "4", "5"}, ids, "in-page widgets never merge")
	require.Len(t, merged[0].EntryPoints, 2)
	assert.Equal(t, "trg-2", merged[0].EntryPoints[1].ID)
	assert.Same(t, cfg, merged[0].GroupSizeConfig)
}

func TestDetermineFlowType(t *testing.T) {
	step := func(st model.StepType, desc string) model.FlowStep {
		return model.FlowStep{StepType: st, Description: desc, URL: "https://example.com/book"}
	}
	testCases := []struct {
		name  string
		v     model.FlowVariation
		large bool
		want  string
	}{
		{"no steps", model.FlowVariation{}, false, model.FlowUnknown},
		{"enquiry end", model.FlowVariation{
			Steps:             []model.FlowStep{step(model.StepDate, "Pick a date")},
			TerminationReason: model.ReasonEnquiryForm,
		}, false, model.FlowEnquiry},
		{"enquiry step", model.FlowVariation{
			Steps: []model.FlowStep{step(model.StepProduct, "Packages"), step(model.StepEnquiryForm, "Tell us more")},
		}, false, model.FlowEnquiry},
		{"standard", model.FlowVariation{
			Steps: []model.FlowStep{step(model.StepDate, "Pick a date"), step(model.StepTime, "Pick a time")},
		}, false, model.FlowStandard},
		{"premium wording", model.FlowVariation{
			Steps: []model.FlowStep{step(model.StepProduct, "VIP lounge packages")},
		}, false, model.FlowHighRevenue},
		{"large group seen", model.FlowVariation{
			Steps: []model.FlowStep{step(model.StepDate, "Pick a date")},
		}, true, model.FlowHighRevenue},
		{"expensive product", model.FlowVariation{
			Steps: []model.FlowStep{{
				StepType: model.StepProduct,
				AvailableOptions: model.AvailableOptions{
					Products: []model.ProductOption{{Name: "Lane hire", Price: textutil.FloatPtr(650)}},
				},
			}},
		}, false, model.FlowHighRevenue},
		{"nothing recognised", model.FlowVariation{
			Steps: []model.FlowStep{step(model.StepUnknown, "Welcome")},
		}, false, model.FlowUnknown},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetermineFlowType(tc.v, tc.large))
		})
	}
}

func TestAdvanceCandidates(t *testing.T) {
	doc := parse(t, `<body><form>
		<a href="/back">Back</a>
		<button class="btn-primary" type="button">Let's go</button>
		<button type="submit">Save</button>
		<button>Continue to extras</button>
		<button>Next</button>
		<button>Pay now</button>
		<button disabled>Proceed</button>
	</form></body>`)

	cands, guarded := advanceCandidates(doc, nil)
	var labels []string
	for _, c := range cands {
		labels = append(labels, c.Text)
	}
	assert.Equal(t, []string{"Next", "Continue to extras", "Save", "Let's go"}, labels)
	assert.Equal(t, 1, guarded)
}

func TestSizeValue(t *testing.T) {
	doc := parse(t, `<body><select name="party">
		<option value="">Choose</option>
		<option>2 guests</option>
		<option>10 guests</option>
		<option>20+ guests</option>
	</select></body>`)
	cfg := &model.GroupSizeConfig{Control: "select"}
	field := `select[name="party"]`

	assert.Equal(t, "2 guests", sizeValue(doc, cfg, field, 2))
	assert.Equal(t, "10 guests", sizeValue(doc, cfg, field, 8))
	assert.Equal(t, "20+ guests", sizeValue(doc, cfg, field, 40))
	assert.Equal(t, "12", sizeValue(doc, &model.GroupSizeConfig{Control: "input"}, "#n", 12))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, `click "Next" (advance)`, Action{Type: "click", Selector: "#n", Text: "Next", Reason: "advance"}.String())
	assert.Equal(t, `fill "#email"`, Action{Type: "fill", Selector: "#email"}.String())
	assert.True(t, Guarded("Confirm & Pay"))
	assert.False(t, Guarded("Payment options explained"))
}
