package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/v0xg/flowscout/internal/advisor"
	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/detector"
	"github.com/v0xg/flowscout/internal/dom"
	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
	"github.com/v0xg/flowscout/internal/urlutil"
)

// highRevenuePrice is the price from which a flow counts as premium
const highRevenuePrice = 500

// maxAdvisorControls bounds the control list sent to the advisor
const maxAdvisorControls = 40

const clickables = `button, a[href], input[type=submit], input[type=button], [role=button]`

// Advance control ranks, lower is tried first
const (
	rankExact = iota
	rankContinue
	rankSubmit
	rankSelect
	rankReview
	rankPrimary
)

var nextRanks = map[string]int{
	"exact_continue":  rankExact,
	"continue_phrase": rankContinue,
	"select_phrase":   rankSelect,
	"review_phrase":   rankReview,
}

var (
	retreatText  = rules.Ruleset{rules.Keywords("retreat", 1, "back", "previous", "go back", "cancel", "remove", "edit", "change", "clear", "reset", "start over")}
	primaryClass = regexp.MustCompile(`(?i)(primary|btn-main|cta|next|continue|submit|proceed)`)
)

// run is the state of one variation
type run struct {
	e        *Explorer
	s        browser.Session
	act      *actor
	log      *slog.Logger
	flowID   string
	trigger  model.BookingTrigger
	mode     string
	target   int // party size for the max variation, 0 for min
	sizeSet  bool
	large    bool // a large group page was seen in the max variation
	groupCfg *model.GroupSizeConfig
	seen     map[string]bool // step fingerprints
	v        model.FlowVariation
}

func newRun(e *Explorer, s browser.Session, log *slog.Logger, flowID string, t model.BookingTrigger, mode string, target int) *run {
	return &run{
		e: e,
		s: s,
		act: &actor{
			s:       s,
			retry:   e.opts.Retry,
			timeout: e.opts.ActionTimeout,
			idle:    e.opts.IdleTimeout,
			delay:   e.opts.InteractionDelay,
			log:     log,
		},
		log:     log,
		flowID:  flowID,
		trigger: t,
		mode:    mode,
		target:  target,
		seen:    map[string]bool{},
		v: model.FlowVariation{
			GroupSizeMode: mode,
			Steps:         []model.FlowStep{},
		},
	}
}

// explore runs the state machine until a terminal state
func (r *run) explore(ctx context.Context) {
	if err := r.enter(ctx); err != nil {
		r.v.Errors = append(r.v.Errors, fmt.Sprintf("entry: %v", err))
		r.end(ctx, model.ReasonEntryFailed)
		return
	}

	for {
		if ctx.Err() != nil {
			r.end(ctx, model.ReasonTimeout)
			return
		}
		if len(r.v.Steps) >= r.e.opts.MaxSteps {
			r.end(ctx, model.ReasonMaxSteps)
			return
		}

		doc, err := dom.Snapshot(ctx, r.s)
		if err != nil {
			r.v.Errors = append(r.v.Errors, err.Error())
			r.end(ctx, model.ReasonActionFailed)
			return
		}
		pageURL := r.s.URL()
		stepType := detector.ClassifyStep(doc, pageURL)
		if stepType == model.StepPayment {
			r.log.Info("payment page reached, stopping", "url", pageURL)
			r.end(ctx, model.ReasonPaymentReached)
			return
		}

		opts := extract.Options(doc)
		fp := fingerprint(pageURL, stepType, doc, opts)
		if r.seen[fp] {
			r.end(ctx, model.ReasonCycleDetected)
			return
		}
		r.seen[fp] = true

		idx := r.record(ctx, doc, pageURL, stepType, opts)
		if r.mode == model.GroupSizeMax && detector.HasLargeGroupIndicators(doc) {
			r.large = true
		}
		switch stepType {
		case model.StepConfirmation:
			r.end(ctx, model.ReasonConfirmation)
			return
		case model.StepEnquiryForm:
			r.end(ctx, model.ReasonEnquiryForm)
			return
		}

		if reason, ok := r.advance(ctx, doc, pageURL, idx); !ok {
			r.end(ctx, reason)
			return
		}
	}
}

// end sets the terminal state. Failures caused by the flow deadline are
// reported as a timeout.
func (r *run) end(ctx context.Context, reason string) {
	switch reason {
	case model.ReasonActionFailed, model.ReasonNoProgression, model.ReasonEntryFailed:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = model.ReasonTimeout
		}
	}
	r.v.TerminationReason = reason
	r.v.Completed = reason == model.ReasonConfirmation || reason == model.ReasonEnquiryForm
}

// enter opens the trigger's page and activates the trigger. Iframe
// triggers are entered by loading the frame source directly.
func (r *run) enter(ctx context.Context) error {
	t := r.trigger
	if t.TriggerType == model.TriggerIframe && t.Href != "" {
		return r.navigate(ctx, t.Href)
	}
	if err := r.navigate(ctx, t.SourceURL); err != nil {
		return err
	}

	out := r.act.click(ctx, Action{Type: "click", Selector: t.Selector, Text: t.Text, Reason: "entry"})
	if out.OK() {
		return nil
	}
	if errors.Is(out.Err, ErrPaymentGuard) || ctx.Err() != nil {
		return out.Err
	}
	r.log.Debug("trigger selector failed, trying label", "selector", t.Selector, "error", out.Err)

	if sel := r.findByLabel(ctx, t.Text); sel != "" && sel != t.Selector {
		if out = r.act.click(ctx, Action{Type: "click", Selector: sel, Text: t.Text, Reason: "entry"}); out.OK() {
			return nil
		}
	}
	if t.Href != "" {
		return r.navigate(ctx, t.Href)
	}
	return out.Err
}

// navigate loads rawURL under the retry policy
func (r *run) navigate(ctx context.Context, rawURL string) error {
	var nav browser.NavigateResult
	out := r.e.opts.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		nav, err = r.s.Navigate(ctx, rawURL, browser.NavigateOptions{Timeout: r.e.opts.PageTimeout, WaitUntil: "idle"})
		if err != nil {
			return err
		}
		if !nav.OK() {
			return browser.Permanent(fmt.Errorf("%s: http status %d", rawURL, nav.Status))
		}
		return nil
	})
	if !out.OK() {
		return out.Err
	}
	r.act.settle(ctx)
	return nil
}

// findByLabel returns the selector of a clickable element whose label
// equals text
func (r *run) findByLabel(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	doc, err := dom.Snapshot(ctx, r.s)
	if err != nil {
		return ""
	}
	var found string
	dom.Each(doc.Find(clickables), func(el *goquery.Selection) {
		if found == "" && dom.Visible(el) && strings.EqualFold(dom.Label(el), text) {
			found, _ = dom.Selector(doc, el)
		}
	})
	return found
}

// record appends the step and returns its index
func (r *run) record(ctx context.Context, doc *goquery.Document, pageURL string, stepType model.StepType, opts model.AvailableOptions) int {
	step := model.FlowStep{
		StepOrder:        len(r.v.Steps) + 1,
		URL:              pageURL,
		Description:      describe(doc, stepType),
		StepType:         stepType,
		AvailableOptions: opts,
		AddOns:           extract.AddOns(doc),
		FormFields:       extract.FormFields(doc),
		Errors:           []string{},
	}
	if step.AddOns == nil {
		step.AddOns = []model.AddOn{}
	}
	if step.FormFields == nil {
		step.FormFields = []model.FormField{}
	}
	if opts.GroupSize != nil && r.groupCfg == nil {
		r.groupCfg = opts.GroupSize
	}

	if r.e.opts.Screenshots && r.e.opts.Board != nil {
		shot, err := r.s.Screenshot(ctx)
		switch {
		case errors.Is(err, browser.ErrUnsupported):
		case err != nil:
			step.Errors = append(step.Errors, fmt.Sprintf("screenshot: %v", err))
		default:
			path, err := r.e.opts.Board.SaveStep(r.flowID, r.mode, step.StepOrder, shot)
			if err != nil {
				step.Errors = append(step.Errors, err.Error())
			}
			step.ScreenshotPath = path
		}
	}

	r.log.Debug("step recorded", "order", step.StepOrder, "type", stepType, "url", pageURL)
	r.v.Steps = append(r.v.Steps, step)
	return len(r.v.Steps) - 1
}

// advance makes the selections the step asks for and then leaves it. It
// returns the termination reason when the step cannot be left.
func (r *run) advance(ctx context.Context, doc *goquery.Document, pageURL string, idx int) (string, bool) {
	step := &r.v.Steps[idx]
	var done []string
	clicked := map[string]bool{}
	defer func() { step.Action = strings.Join(done, "; ") }()

	fail := func(err error) (string, bool) {
		step.Errors = append(step.Errors, err.Error())
		if errors.Is(err, ErrPaymentGuard) {
			return model.ReasonPaymentBlocked, false
		}
		return model.ReasonActionFailed, false
	}
	left := func() bool { return r.s.URL() != pageURL }

	if cfg, field := extract.GroupSizeField(doc); cfg != nil && !r.sizeSet {
		r.sizeSet = true
		target := r.targetSize(cfg)
		acts, size, err := r.act.setGroupSize(ctx, cfg, extract.Steppers(doc), field, sizeValue(doc, cfg, field, target), target)
		if err != nil {
			return fail(fmt.Errorf("set group size: %w", err))
		}
		if size > 0 {
			r.v.GroupSize = size
		}
		if r.mode == model.GroupSizeMax && size > 0 && size < target {
			r.log.Warn("group size control stops below the large group size", "size", size, "target", target)
			r.v.Errors = append(r.v.Errors, fmt.Sprintf("group size capped at %d, below the large group size %d", size, target))
		}
		for _, a := range acts {
			done = append(done, a.String())
			clicked[a.Selector] = true
		}
		if left() {
			return "", true
		}
	}

	opts := step.AvailableOptions
	if d, ok := firstDate(opts.Dates); ok {
		act := Action{Type: "click", Selector: d.Selector, Text: d.Label, Reason: "first available date"}
		var out browser.Outcome
		if isDateInput(doc, d.Selector) {
			act.Type, act.Text = "fill", dateValue(d)
			out = r.act.fill(ctx, d.Selector, act.Text)
		} else {
			out = r.act.click(ctx, act)
		}
		if !out.OK() {
			return fail(fmt.Errorf("select date: %w", out.Err))
		}
		done = append(done, act.String())
		clicked[d.Selector] = true
		if left() {
			return "", true
		}
	}
	for _, t := range opts.Times {
		if !t.Available || t.Selector == "" {
			continue
		}
		act := Action{Type: "click", Selector: t.Selector, Text: t.Label, Reason: "first available time"}
		if out := r.act.click(ctx, act); !out.OK() {
			return fail(fmt.Errorf("select time: %w", out.Err))
		}
		done = append(done, act.String())
		clicked[t.Selector] = true
		if left() {
			return "", true
		}
		break
	}
	if len(opts.Products) > 0 && opts.Products[0].Selector != "" {
		p := opts.Products[0]
		act := Action{Type: "click", Selector: p.Selector, Text: p.Name, Reason: "first product"}
		out := r.act.click(ctx, act)
		if !out.OK() && !errors.Is(out.Err, ErrPaymentGuard) {
			return fail(fmt.Errorf("select product: %w", out.Err))
		}
		if out.OK() {
			done = append(done, act.String())
			clicked[p.Selector] = true
			if left() {
				return "", true
			}
		}
	}

	if step.StepType == model.StepDetailsForm {
		step.Errors = append(step.Errors, r.act.fillDetails(ctx, step.FormFields)...)
		done = append(done, "fill details")
	}

	cands, guarded := advanceCandidates(doc, clicked)
	blocked := false
	for _, c := range cands {
		act := Action{Type: "click", Selector: c.Selector, Text: c.Text, Reason: "advance"}
		out := r.act.click(ctx, act)
		if out.OK() {
			done = append(done, act.String())
			return "", true
		}
		if errors.Is(out.Err, ErrPaymentGuard) {
			blocked = true
			continue
		}
		return fail(fmt.Errorf("advance: %w", out.Err))
	}
	if blocked || guarded > 0 {
		r.log.Info("only payment controls left, stopping", "url", pageURL)
		return model.ReasonPaymentBlocked, false
	}

	if act, ok := r.consultAdvisor(ctx, doc, pageURL, step.StepType, clicked); ok {
		out := r.act.click(ctx, act)
		if out.OK() {
			done = append(done, act.String())
			return "", true
		}
		return fail(fmt.Errorf("advisor pick: %w", out.Err))
	}
	return model.ReasonNoProgression, false
}

// targetSize is the party size this variation asks for
func (r *run) targetSize(cfg *model.GroupSizeConfig) int {
	if r.mode == model.GroupSizeMax && r.target > 0 {
		return r.target
	}
	return max(cfg.Min, 1)
}

// candidate is a control that may leave the current step
type candidate struct {
	Selector string
	Text     string
	rank     int
}

// advanceCandidates ranks the controls that could leave the step, and
// counts the ones refused by the payment guard
func advanceCandidates(doc *goquery.Document, exclude map[string]bool) ([]candidate, int) {
	var out []candidate
	guarded := 0
	seen := map[string]bool{}
	dom.Each(doc.Find(clickables), func(el *goquery.Selection) {
		if !dom.Visible(el) || !dom.Enabled(el) {
			return
		}
		label := dom.Label(el)
		if Guarded(label) {
			guarded++
			return
		}
		if label == "" || retreatText.Any(label) || rules.NegativeText.Any(label) {
			return
		}
		if href, ok := el.Attr("href"); ok && (urlutil.IsSocialOrShare(href) || urlutil.IsAuthLink(href)) {
			return
		}
		rank := -1
		if r, ok := rules.NextButtons.First(label); ok {
			rank = nextRanks[r.Name]
		}
		if isSubmit(el) && (rank < 0 || rank > rankSubmit) {
			rank = rankSubmit
		}
		if cls, _ := el.Attr("class"); rank < 0 && primaryClass.MatchString(cls) {
			rank = rankPrimary
		}
		if rank < 0 {
			return
		}
		sel, _ := dom.Selector(doc, el)
		if sel == "" || exclude[sel] || seen[sel] {
			return
		}
		seen[sel] = true
		out = append(out, candidate{Selector: sel, Text: label, rank: rank})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].rank < out[j].rank })
	return out, guarded
}

func isSubmit(el *goquery.Selection) bool {
	t, _ := el.Attr("type")
	switch dom.Tag(el) {
	case "button":
		return (t == "" && el.Closest("form").Length() > 0) || strings.EqualFold(t, "submit")
	case "input":
		return strings.EqualFold(t, "submit")
	}
	return false
}

// consultAdvisor asks the model for an advance control. The pick must be
// one of the offered controls.
func (r *run) consultAdvisor(ctx context.Context, doc *goquery.Document, pageURL string, stepType model.StepType, exclude map[string]bool) (Action, bool) {
	if r.e.opts.Advisor == nil {
		return Action{}, false
	}
	page := advisor.PageMap{URL: pageURL, Title: dom.Title(doc), StepType: string(stepType)}
	offered := map[string]string{}
	dom.Each(doc.Find(clickables), func(el *goquery.Selection) {
		if len(page.Controls) >= maxAdvisorControls || !dom.Visible(el) || !dom.Enabled(el) {
			return
		}
		label := dom.Label(el)
		if label == "" || Guarded(label) || rules.NegativeText.Any(label) {
			return
		}
		sel, _ := dom.Selector(doc, el)
		if sel == "" || exclude[sel] || offered[sel] != "" {
			return
		}
		offered[sel] = label
		page.Controls = append(page.Controls, advisor.Control{Selector: sel, Text: textutil.Truncate(label, 80), Tag: dom.Tag(el)})
	})
	if len(page.Controls) == 0 {
		return Action{}, false
	}

	s, err := r.e.opts.Advisor.SuggestAdvance(ctx, page)
	if err != nil {
		r.log.Warn("advisor failed", "error", err)
		return Action{}, false
	}
	label, ok := offered[s.Selector]
	if !ok {
		if s.Selector != "" {
			r.log.Warn("advisor picked an unknown control", "selector", s.Selector)
		}
		return Action{}, false
	}
	return Action{Type: "click", Selector: s.Selector, Text: label, Reason: "advisor: " + s.Reason}, true
}

func firstDate(dates []model.DateOption) (model.DateOption, bool) {
	for _, d := range dates {
		if d.Available && d.Selector != "" {
			return d, true
		}
	}
	return model.DateOption{}, false
}

func isDateInput(doc *goquery.Document, selector string) bool {
	in := doc.Find(selector).First()
	t, _ := in.Attr("type")
	return dom.Tag(in) == "input" && strings.EqualFold(t, "date")
}

// dateValue is the value typed into a date input: its preset or minimum,
// else a week from now
func dateValue(d model.DateOption) string {
	if d.Value != "" {
		return d.Value
	}
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

// sizeValue is what to type into an input or pick from a select to ask
// for target guests
func sizeValue(doc *goquery.Document, cfg *model.GroupSizeConfig, field string, target int) string {
	if cfg.Control != "select" || field == "" {
		return strconv.Itoa(target)
	}
	var exact, above, last string
	dom.Each(doc.Find(field).First().Find("option"), func(o *goquery.Selection) {
		t := textutil.Clean(o.Text())
		n, ok := textutil.FirstInt(t)
		if !ok {
			return
		}
		last = t
		switch {
		case n == target && exact == "":
			exact = t
		case n > target && above == "":
			above = t
		}
	})
	for _, v := range []string{exact, above, last} {
		if v != "" {
			return v
		}
	}
	return ""
}

// describe names a step by its main heading
func describe(doc *goquery.Document, stepType model.StepType) string {
	for _, sel := range []string{"h1", "h2", "legend", "h3"} {
		var found string
		dom.Each(doc.Find(sel), func(h *goquery.Selection) {
			if t := textutil.Clean(h.Text()); found == "" && t != "" && dom.Visible(h) {
				found = t
			}
		})
		if found != "" {
			return textutil.Truncate(found, 120)
		}
	}
	if t := dom.Title(doc); t != "" {
		return textutil.Truncate(t, 120)
	}
	return strings.ReplaceAll(string(stepType), "_", " ")
}

// fingerprint identifies a step state: page, step type and what it offers
func fingerprint(pageURL string, stepType model.StepType, doc *goquery.Document, opts model.AvailableOptions) string {
	parts := []string{pageURL, string(stepType), describe(doc, stepType)}
	for _, p := range opts.Products {
		parts = append(parts, p.Name)
	}
	for _, d := range opts.Dates {
		parts = append(parts, d.Label+strconv.FormatBool(d.Available))
	}
	for _, t := range opts.Times {
		parts = append(parts, t.Label+strconv.FormatBool(t.Available))
	}
	if g := opts.GroupSize; g != nil {
		parts = append(parts, g.Control, strconv.Itoa(g.Default))
	}
	for _, f := range extract.FormFields(doc) {
		parts = append(parts, f.Name)
	}
	return textutil.ID("step", parts...)
}

// DetermineFlowType labels a finished variation. largeGroup marks a
// variation that passed corporate or large party wording.
func DetermineFlowType(v model.FlowVariation, largeGroup bool) string {
	if len(v.Steps) == 0 {
		return model.FlowUnknown
	}
	if v.TerminationReason == model.ReasonEnquiryForm {
		return model.FlowEnquiry
	}

	var text []string
	known := false
	top := 0.0
	for _, s := range v.Steps {
		if s.StepType == model.StepEnquiryForm {
			return model.FlowEnquiry
		}
		if s.StepType != model.StepUnknown {
			known = true
		}
		text = append(text, s.Description, urlutil.PathOf(s.URL))
		for _, p := range s.AvailableOptions.Products {
			text = append(text, p.Name)
			if p.Price != nil {
				top = max(top, *p.Price)
			}
		}
		if pr := s.AvailableOptions.Pricing; pr != nil {
			for _, f := range []*float64{pr.Base, pr.PerPerson, pr.Total} {
				if f != nil {
					top = max(top, *f)
				}
			}
		}
	}
	joined := strings.Join(text, " ")
	if largeGroup || rules.HighRevenue.Any(joined) || rules.LargeGroup.Any(joined) || top >= highRevenuePrice {
		return model.FlowHighRevenue
	}
	if !known {
		return model.FlowUnknown
	}
	return model.FlowStandard
}
