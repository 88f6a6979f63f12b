package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

type ChromedpOptions struct {
	Headless  bool
	UserAgent string
	Timeout   time.Duration
	ExecPath  string
}

// ChromedpRenderer renders pages in a headless Chrome driven over the
// DevTools protocol. One allocator is shared; every Render opens a tab.
type ChromedpRenderer struct {
	opts        ChromedpOptions
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	logger      *slog.Logger
}

func NewChromedpRenderer(opts ChromedpOptions, logger *slog.Logger) *ChromedpRenderer {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return &ChromedpRenderer{
		opts:        opts,
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		logger:      logger.With("component", "chromedp_renderer"),
	}
}

func (r *ChromedpRenderer) Render(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	// The first Run starts the tab and binds its lifetime to tabCtx, so it
	// must not run on the timeout context.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		return nil, fmt.Errorf("%w: failed to start tab: %v", ErrNavigation, err)
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, r.opts.Timeout)
	defer cancelNav()

	start := time.Now()
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		cancelTab()
		r.logger.Error("navigation failed", "url", url, "error", err, "elapsed", time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrRenderTimeout, r.opts.Timeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	r.logger.Debug("page loaded", "url", url, "elapsed", time.Since(start))
	return &chromedpPage{ctx: tabCtx, cancel: cancelTab, url: url}, nil
}

func (r *ChromedpRenderer) Close() error {
	r.cancelAlloc()
	return nil
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string
}

func (p *chromedpPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w waiting for %q", ErrRenderTimeout, selector)
		}
		return fmt.Errorf("failed to wait for %q: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var html string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

func (p *chromedpPage) URL() string {
	return p.url
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
