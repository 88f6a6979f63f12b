package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// StaticRenderer fetches the server response without running scripts. It
// only finds products on pages that are server rendered, and is mostly
// useful for saved pages served over HTTP.
type StaticRenderer struct {
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewStaticRenderer(userAgent string, timeout time.Duration, logger *slog.Logger) *StaticRenderer {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticRenderer{
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger.With("component", "static_renderer"),
	}
}

func (r *StaticRenderer) Render(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if r.userAgent != "" {
		opts = append(opts, colly.UserAgent(r.userAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(r.timeout)

	var (
		body     string
		fetchErr error
	)
	c.OnResponse(func(resp *colly.Response) {
		body = string(resp.Body)
		r.logger.Debug("response received", "url", url, "status", resp.StatusCode, "size", len(resp.Body))
	})
	c.OnError(func(resp *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return nil, classifyFetchError(err)
	}
	if fetchErr != nil {
		return nil, classifyFetchError(fetchErr)
	}

	return NewStaticPage(url, body), nil
}

func (r *StaticRenderer) Close() error {
	return nil
}

func classifyFetchError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNavigation, err)
}

// HTMLRenderer serves fixed documents keyed by URL. An empty key matches any
// URL. It backs offline extraction of saved pages.
type HTMLRenderer struct {
	mu    sync.RWMutex
	pages map[string]string
}

func NewHTMLRenderer(pages map[string]string) *HTMLRenderer {
	if pages == nil {
		pages = make(map[string]string)
	}
	return &HTMLRenderer{pages: pages}
}

func (r *HTMLRenderer) Set(url, html string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[url] = html
}

func (r *HTMLRenderer) Render(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	html, ok := r.pages[url]
	if !ok {
		html, ok = r.pages[""]
	}
	if !ok {
		return nil, fmt.Errorf("%w: no document for %s", ErrNavigation, url)
	}
	return NewStaticPage(url, html), nil
}

func (r *HTMLRenderer) Close() error {
	return nil
}

// StaticPage is a Page over an already rendered document. Waiting succeeds
// immediately when the selector matches and times out otherwise, since the
// document never changes.
type StaticPage struct {
	url    string
	html   string
	mu     sync.Mutex
	closed bool
}

func NewStaticPage(url, html string) *StaticPage {
	return &StaticPage{url: url, html: html}
}

func (p *StaticPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.html))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w waiting for %q", ErrRenderTimeout, selector)
	}
	return nil
}

func (p *StaticPage) HTML(ctx context.Context) (string, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	return p.html, nil
}

func (p *StaticPage) URL() string {
	return p.url
}

func (p *StaticPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *StaticPage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *StaticPage) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Closed() {
		return ErrPageClosed
	}
	return nil
}
