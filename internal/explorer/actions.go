package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/extract"
	"github.com/v0xg/flowscout/internal/metrics"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/rules"
	"github.com/v0xg/flowscout/internal/textutil"
)

// ErrPaymentGuard is returned when an action would submit a payment
var ErrPaymentGuard = errors.New("refusing to click a payment control")

// maxStepperClicks bounds how far a +/- control is driven
const maxStepperClicks = 60

// Action represents a single interaction with the current step
type Action struct {
	Type     string `json:"action"`             // click, fill
	Selector string `json:"selector,omitempty"` // CSS selector for the target element
	Text     string `json:"text,omitempty"`     // label for clicks, value for fills
	Reason   string `json:"reason,omitempty"`   // why the explorer chose it
}

func (a Action) String() string {
	label := a.Text
	if label == "" {
		label = a.Selector
	}
	if a.Reason != "" {
		return fmt.Sprintf("%s %q (%s)", a.Type, label, a.Reason)
	}
	return fmt.Sprintf("%s %q", a.Type, label)
}

// Guarded reports whether label names a payment submission
func Guarded(label string) bool {
	return rules.PaymentActions.Any(label)
}

// actor performs actions on one session under the retry policy
type actor struct {
	s       browser.Session
	retry   browser.RetryPolicy
	timeout time.Duration // per click or fill
	idle    time.Duration
	delay   time.Duration // pause after every state change
	log     *slog.Logger
}

// click finds the element, checks its live label against the payment
// guard and clicks it, retrying transient failures
func (a *actor) click(ctx context.Context, act Action) browser.Outcome {
	outcome := a.retry.Do(ctx, func(ctx context.Context) error {
		el, err := browser.First(ctx, a.s, act.Selector)
		if err != nil {
			return fmt.Errorf("%s: %w", act.Selector, err)
		}
		label := el.Text()
		if v, ok := el.Attribute("value"); ok {
			label += " " + v
		}
		if v, ok := el.Attribute("aria-label"); ok {
			label += " " + v
		}
		if Guarded(label) {
			return browser.Permanent(ErrPaymentGuard)
		}
		return el.Click(ctx, browser.ClickOptions{Timeout: a.timeout})
	})
	metrics.RecordRetries(outcome.Attempts)
	if outcome.OK() {
		a.settle(ctx)
	} else {
		a.log.Debug("action failed", "action", act.String(), "attempts", outcome.Attempts, "error", outcome.Err)
	}
	return outcome
}

// fill types value into the element, retrying transient failures
func (a *actor) fill(ctx context.Context, selector, value string) browser.Outcome {
	outcome := a.retry.Do(ctx, func(ctx context.Context) error {
		el, err := browser.First(ctx, a.s, selector)
		if err != nil {
			return fmt.Errorf("%s: %w", selector, err)
		}
		fctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return el.Fill(fctx, value)
	})
	metrics.RecordRetries(outcome.Attempts)
	return outcome
}

// settle follows a tab the click opened and waits for the page to calm down
func (a *actor) settle(ctx context.Context) {
	if ok, err := a.s.AdoptNewTab(ctx); err != nil {
		a.log.Debug("new tab check failed", "error", err)
	} else if ok {
		a.log.Debug("switched to new tab", "url", a.s.URL())
	}
	if err := a.s.WaitForIdle(ctx, a.idle); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		a.log.Debug("wait for idle failed", "error", err)
	}
	_ = browser.Sleep(ctx, a.delay)
}

// setGroupSize drives the party-size control of a step toward target and
// returns the size it asked for. value is what to type or pick when the
// control is an input or select.
func (a *actor) setGroupSize(ctx context.Context, cfg *model.GroupSizeConfig, steppers []extract.Stepper, field, value string, target int) ([]Action, int, error) {
	switch cfg.Control {
	case "stepper":
		if len(steppers) == 0 {
			return nil, 0, nil
		}
		return a.driveStepper(ctx, steppers[0], target)
	case "input", "select":
		if field == "" || value == "" {
			return nil, 0, nil
		}
		act := Action{Type: "fill", Selector: field, Text: value, Reason: "group size"}
		if out := a.fill(ctx, field, value); !out.OK() {
			return nil, 0, out.Err
		}
		a.settle(ctx)
		n, ok := textutil.FirstInt(value)
		if !ok {
			n = target
		}
		return []Action{act}, n, nil
	}
	return nil, 0, nil
}

// driveStepper clicks + or - until the stepper shows target
func (a *actor) driveStepper(ctx context.Context, st extract.Stepper, target int) ([]Action, int, error) {
	if st.Max > 0 && target > st.Max {
		target = st.Max
	}
	if target < st.Min {
		target = st.Min
	}
	delta := target - st.Value
	sel, label := st.IncSelector, "+"
	if delta < 0 {
		sel, label, delta = st.DecSelector, "-", -delta
	}
	if delta > maxStepperClicks {
		target -= (delta - maxStepperClicks) * sign(target-st.Value)
		delta = maxStepperClicks
	}
	if delta == 0 {
		return nil, target, nil
	}
	for i := 0; i < delta; i++ {
		if out := a.click(ctx, Action{Type: "click", Selector: sel, Text: label}); !out.OK() {
			return nil, 0, out.Err
		}
	}
	return []Action{{Type: "click", Selector: sel, Text: fmt.Sprintf("%s x%d", label, delta), Reason: st.Category + " to " + strconv.Itoa(target)}}, target, nil
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}

// placeholderName matches fields that want a person's name
var placeholderName = regexp.MustCompile(`(?i)name`)

// fillDetails puts inert placeholder values into the required fields of
// a details form. Card fields are never touched.
func (a *actor) fillDetails(ctx context.Context, fields []model.FormField) []string {
	var errs []string
	for _, f := range fields {
		if f.Selector == "" || (!f.Required && f.Type != "email") {
			continue
		}
		if rules.PaymentFields.Any(f.Name + " " + f.Label) {
			continue
		}
		var out browser.Outcome
		switch f.Type {
		case "checkbox", "radio":
			out = a.click(ctx, Action{Type: "click", Selector: f.Selector, Text: f.Label})
		case "select":
			if len(f.Options) == 0 {
				continue
			}
			out = a.fill(ctx, f.Selector, f.Options[0])
		case "date", "time", "datetime-local", "file":
			continue
		default:
			out = a.fill(ctx, f.Selector, placeholder(f))
		}
		if !out.OK() {
			errs = append(errs, fmt.Sprintf("fill %s: %v", fieldName(f), out.Err))
		}
	}
	return errs
}

func placeholder(f model.FormField) string {
	sig := strings.ToLower(f.Name + " " + f.Label)
	switch {
	case f.Type == "email" || strings.Contains(sig, "email"):
		return "test@example.com"
	case f.Type == "tel" || strings.Contains(sig, "phone") || strings.Contains(sig, "mobile"):
		return "0400000000"
	case f.Type == "number":
		return "1"
	case f.Type == "textarea":
		return "Test booking, please ignore."
	case strings.Contains(sig, "postcode") || strings.Contains(sig, "zip"):
		return "2000"
	case placeholderName.MatchString(sig):
		return "Test Booker"
	}
	return "Test"
}

func fieldName(f model.FormField) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}
