package rodbrowser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/flowscout/internal/browser"
)

type element struct {
	el  *rod.Element
	ctx context.Context
}

func (e *element) TagName() string {
	res, err := e.el.Context(e.ctx).Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return res.Value.String()
}

func (e *element) Attribute(name string) (string, bool) {
	v, err := e.el.Context(e.ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *element) Text() string {
	t, err := e.el.Context(e.ctx).Text()
	if err != nil {
		return ""
	}
	return t
}

func (e *element) Visible() bool {
	v, err := e.el.Context(e.ctx).Visible()
	return err == nil && v
}

func (e *element) Click(ctx context.Context, opts browser.ClickOptions) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	el := e.el.Context(ctx)
	if opts.Force {
		if _, err := el.Eval(`() => this.click()`); err != nil {
			return fmt.Errorf("%w: %v", browser.ErrNotInteractable, err)
		}
		return nil
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("%w: %v", browser.ErrNotInteractable, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("%w: %v", browser.ErrNotInteractable, err)
	}
	return nil
}

func (e *element) Fill(ctx context.Context, value string) error {
	el := e.el.Context(ctx)
	if e.TagName() == "select" {
		if err := el.Select([]string{value}, true, rod.SelectorTypeText); err != nil {
			return fmt.Errorf("select %q: %w", value, err)
		}
		return nil
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("%w: %v", browser.ErrNotInteractable, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input %q: %w", value, err)
	}
	return nil
}
