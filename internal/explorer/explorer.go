// Package explorer follows booking triggers through their flows, one
// isolated browser session per variation, and stops before any payment.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/v0xg/flowscout/internal/advisor"
	"github.com/v0xg/flowscout/internal/browser"
	"github.com/v0xg/flowscout/internal/metrics"
	"github.com/v0xg/flowscout/internal/model"
	"github.com/v0xg/flowscout/internal/storyboard"
	"github.com/v0xg/flowscout/internal/textutil"
)

// Options configures exploration
type Options struct {
	SiteURL          string
	MaxFlows         int // 0 explores every destination
	Concurrency      int // flows explored at once
	MaxSteps         int
	FlowTimeout      time.Duration // per variation
	PageTimeout      time.Duration
	ActionTimeout    time.Duration
	IdleTimeout      time.Duration
	InteractionDelay time.Duration
	Retry            browser.RetryPolicy
	Screenshots      bool
	Board            *storyboard.Board // required when Screenshots is set
	Advisor          advisor.Provider  // optional
	Logger           *slog.Logger
	// OnFlow, if set, is called as each flow finishes; it may be called
	// from several goroutines
	OnFlow func(model.BookingFlow)
}

// Explorer drives booking flows on one browser
type Explorer struct {
	opts    Options
	browser browser.Browser
	log     *slog.Logger
}

// New creates an explorer, filling zero options with defaults
func New(b browser.Browser, opts Options) *Explorer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 15
	}
	if opts.FlowTimeout <= 0 {
		opts.FlowTimeout = 3 * time.Minute
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = browser.DefaultRetry
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Explorer{opts: opts, browser: b, log: opts.Logger}
}

// ExploreAll groups triggers by destination and explores one flow per
// group. Flows that could not be entered are kept with their
// entry_failed variation and its errors. Only a failure to open a browser
// session aborts the run.
func (e *Explorer) ExploreAll(ctx context.Context, triggers []model.BookingTrigger) ([]model.BookingFlow, error) {
	groups := GroupTriggers(triggers, e.opts.SiteURL)
	if e.opts.MaxFlows > 0 && len(groups) > e.opts.MaxFlows {
		e.log.Info("flow cap reached", "destinations", len(groups), "max_flows", e.opts.MaxFlows)
		groups = groups[:e.opts.MaxFlows]
	}
	e.log.Info("exploring flows", "triggers", len(triggers), "destinations", len(groups), "concurrency", e.opts.Concurrency)

	found := make([]*model.BookingFlow, len(groups))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, grp := range groups {
		i, grp := i, grp
		g.Go(func() error {
			flow, _, err := e.exploreGroup(gCtx, grp)
			if err != nil {
				return err
			}
			found[i] = flow
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	flows := make([]model.BookingFlow, 0, len(found))
	for _, f := range found {
		if f != nil {
			flows = append(flows, *f)
		}
	}
	return MergeFlows(flows, e.opts.SiteURL), nil
}

// ExploreSingleTrigger explores the flow behind one trigger. It returns
// nil when the trigger is not eligible or could not be entered at all.
func (e *Explorer) ExploreSingleTrigger(ctx context.Context, t model.BookingTrigger) (*model.BookingFlow, error) {
	if !Eligible(t) {
		return nil, nil
	}
	grp := Group{Key: destinationKey(t, e.opts.SiteURL), Primary: t, Members: []model.BookingTrigger{t}}
	flow, entered, err := e.exploreGroup(ctx, grp)
	if err != nil || !entered {
		return nil, err
	}
	return flow, nil
}

// exploreGroup runs the minimum group size variation and, when the flow
// shows a large group branch, a second one at the divergence point. The
// flow is returned even when no variation got past entry.
func (e *Explorer) exploreGroup(ctx context.Context, grp Group) (*model.BookingFlow, bool, error) {
	t := grp.Primary
	flowID := textutil.ID("flow", grp.Key)
	log := e.log.With("flow", flowID, "trigger", t.Text)

	flow := &model.BookingFlow{
		ID:           flowID,
		Name:         t.Text,
		Destination:  t.Href,
		EntryPoints:  grp.Members,
		DiscoveredAt: time.Now().UTC(),
	}
	if flow.Name == "" {
		flow.Name = "Booking flow"
	}

	first, cfg, err := e.runVariation(ctx, log, flowID, t, model.GroupSizeMin, 0)
	if err != nil {
		return nil, false, err
	}
	flow.Flows = append(flow.Flows, first)
	flow.GroupSizeConfig = cfg

	if cfg.HasDivergence() {
		log.Info("large group branch detected", "divergence_point", cfg.DivergencePoint)
		second, _, err := e.runVariation(ctx, log, flowID, t, model.GroupSizeMax, cfg.DivergencePoint)
		if err != nil {
			return nil, false, err
		}
		flow.Flows = append(flow.Flows, second)
	}

	entered := false
	for _, v := range flow.Flows {
		if len(v.Steps) > 0 {
			entered = true
			if flow.Description == "" {
				flow.Description = v.Steps[0].Description
			}
			if flow.Destination == "" {
				flow.Destination = v.Steps[0].URL
			}
		}
	}
	if !entered {
		log.Warn("flow could not be entered", "reason", first.TerminationReason, "errors", first.Errors)
	}

	if e.opts.OnFlow != nil {
		e.opts.OnFlow(*flow)
	}
	return flow, entered, nil
}

// runVariation explores one variation in its own session under the flow
// timeout. The returned error is only set when no session could be opened.
func (e *Explorer) runVariation(ctx context.Context, log *slog.Logger, flowID string, t model.BookingTrigger, mode string, target int) (model.FlowVariation, *model.GroupSizeConfig, error) {
	start := time.Now()
	session, err := e.browser.NewSession(ctx)
	if err != nil {
		return model.FlowVariation{}, nil, fmt.Errorf("open flow session: %w", err)
	}
	defer session.Close()

	vctx, cancel := context.WithTimeout(ctx, e.opts.FlowTimeout)
	defer cancel()

	r := newRun(e, session, log.With("variation", mode), flowID, t, mode, target)
	r.explore(vctx)

	v := r.v
	v.FlowType = DetermineFlowType(v, r.large)
	v.ExplorationTimeMs = time.Since(start).Milliseconds()
	if e.opts.Board != nil {
		path, err := e.opts.Board.Finish(flowID, mode)
		if err != nil {
			v.Errors = append(v.Errors, fmt.Sprintf("storyboard: %v", err))
		}
		v.StoryboardPath = path
	}

	metrics.Variations.WithLabelValues(v.TerminationReason).Inc()
	metrics.FlowSteps.Observe(float64(len(v.Steps)))
	log.Info("variation finished", "variation", mode, "steps", len(v.Steps), "reason", v.TerminationReason, "type", v.FlowType)
	return v, r.groupCfg, nil
}
