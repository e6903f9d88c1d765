package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/pfrederiksen/force-scraper/internal/logger"
)

// Chrome drives one tab of a Chrome process started by chromedp.
type Chrome struct {
	opts        Options
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChrome launches Chrome and opens a tab. The browser lives until Close
// is called or ctx is cancelled.
func NewChrome(ctx context.Context, opts Options) (*Chrome, error) {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(opts.UserAgent),
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debug("chromedp", logger.Fields{"message": fmt.Sprintf(format, args...)})
	}))

	// Run with no actions starts the browser so launch errors surface here.
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	return &Chrome{
		opts:        opts,
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// run executes actions in the tab, bounded by the navigation timeout and by
// the caller's ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.tab, c.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return html, nil
}

// OuterHTML reads the element without waiting for it to appear, so a missing
// element fails fast instead of running into the timeout.
func (c *Chrome) OuterHTML(ctx context.Context, selector string) (string, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return "", fmt.Errorf("querying %s: %w", selector, err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("%s: %w", selector, ErrNoMatch)
	}

	var html string
	if err := c.run(ctx, chromedp.OuterHTML([]cdp.NodeID{nodes[0].NodeID}, &html, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("reading %s: %w", selector, err)
	}
	return html, nil
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("querying %s: %w", selector, err)
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%s: %w", selector, ErrNoMatch)
	}

	if err := c.run(ctx, chromedp.Click([]cdp.NodeID{nodes[0].NodeID}, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

// selectOptionJS picks an option by its visible text and fires change so
// listeners (DataTables' length menu) react as they would to a user.
const selectOptionJS = `(function(selector, text) {
	const el = document.querySelector(selector);
	if (!el) return false;
	for (const opt of el.options) {
		if (opt.text.trim() === text) {
			el.value = opt.value;
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
	}
	return false;
})(%s, %s)`

func (c *Chrome) SelectOption(ctx context.Context, selector, text string) error {
	sel, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	txt, err := json.Marshal(text)
	if err != nil {
		return err
	}

	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(selectOptionJS, sel, txt), &ok)); err != nil {
		return fmt.Errorf("selecting %q in %s: %w", text, selector, err)
	}
	if !ok {
		return fmt.Errorf("option %q in %s: %w", text, selector, ErrNoMatch)
	}
	return nil
}

// Close closes the tab and shuts the browser down.
func (c *Chrome) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	return nil
}
