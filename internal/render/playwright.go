package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/markaz-exporter/internal/browser"
)

// PlaywrightRenderer drives a shared Chromium instance and opens a fresh
// page per Render call.
type PlaywrightRenderer struct {
	browser *browser.Browser
	timeout time.Duration
	logger  *slog.Logger
}

func NewPlaywrightRenderer(opts *browser.Options, logger *slog.Logger) (*PlaywrightRenderer, error) {
	if opts == nil {
		opts = browser.DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	b, err := browser.New(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	return &PlaywrightRenderer{
		browser: b,
		timeout: opts.Timeout,
		logger:  logger.With("component", "playwright_renderer"),
	}, nil
}

func (r *PlaywrightRenderer) Render(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	page, err := r.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	if err := r.browser.Navigate(page, url, r.timeout); err != nil {
		page.Close()
		if errors.Is(err, browser.ErrNavigationTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	return &playwrightPage{page: page, url: url}, nil
}

func (r *PlaywrightRenderer) Close() error {
	return r.browser.Close()
}

type playwrightPage struct {
	page playwright.Page
	url  string
}

func (p *playwrightPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return fmt.Errorf("%w waiting for %q", ErrRenderTimeout, selector)
		}
		return fmt.Errorf("failed to wait for %q: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

func (p *playwrightPage) URL() string {
	return p.url
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
