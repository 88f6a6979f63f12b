// Package scraper runs one product page through the renderer and the parser
// and always hands back a ProductRecord, tagged with an error status when
// the page could not be extracted.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maltedev/markaz-exporter/internal/models"
	"github.com/maltedev/markaz-exporter/internal/parser"
	"github.com/maltedev/markaz-exporter/internal/render"
)

var (
	ErrInvalidURL     = errors.New("invalid product URL")
	ErrHostNotAllowed = errors.New("host not allowed")
)

type Options struct {
	// MarkerTimeout bounds the wait for the product typography marker.
	MarkerTimeout time.Duration
	// AllowedHosts restricts which hosts may be scraped. Empty allows any.
	AllowedHosts []string
}

func DefaultOptions() Options {
	return Options{
		MarkerTimeout: 10 * time.Second,
	}
}

type Scraper struct {
	renderer render.Renderer
	parser   *parser.Parser
	opts     Options
	logger   *slog.Logger
}

func New(r render.Renderer, p *parser.Parser, opts Options, logger *slog.Logger) *Scraper {
	if opts.MarkerTimeout <= 0 {
		opts.MarkerTimeout = DefaultOptions().MarkerTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		renderer: r,
		parser:   p,
		opts:     opts,
		logger:   logger.With("component", "scraper"),
	}
}

// ValidateURL checks that rawURL is an absolute http(s) URL on an allowed host.
func ValidateURL(rawURL string, allowedHosts []string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if len(allowedHosts) == 0 {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
}

// Scrape renders rawURL and extracts its product. The page is closed on
// every path, including a panic inside the parser.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (rec *models.ProductRecord) {
	rawURL = strings.TrimSpace(rawURL)
	log := s.logger.With("url", rawURL)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("scrape panicked", "panic", r)
			rec = models.FailedRecord(rawURL, fmt.Sprint(r))
		}
		log.Info("scrape finished", "status", rec.Status, "duration", time.Since(start))
	}()

	if err := ValidateURL(rawURL, s.opts.AllowedHosts); err != nil {
		log.Warn("rejecting URL", "error", err)
		return models.FailedRecord(rawURL, err.Error())
	}

	page, err := s.renderer.Render(ctx, rawURL)
	if err != nil {
		log.Error("failed to render page", "error", err)
		return models.FailedRecord(rawURL, err.Error())
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("failed to close page", "error", err)
		}
	}()

	profile := s.parser.Profile()
	if err := page.WaitForSelector(ctx, profile.TypographySelector, s.opts.MarkerTimeout); err != nil {
		log.Warn("product marker not found", "selector", profile.TypographySelector, "error", err)
		return models.FailedRecord(rawURL, parser.ErrMarkerNotFound.Error())
	}

	html, err := page.HTML(ctx)
	if err != nil {
		log.Error("failed to read page", "error", err)
		return models.FailedRecord(rawURL, err.Error())
	}

	rec, err = s.parser.ParseHTML(html, rawURL)
	if err != nil {
		log.Warn("failed to extract product", "error", err)
		return models.FailedRecord(rawURL, err.Error())
	}
	return rec
}

// ScrapeAll scrapes urls one after another, waiting on wait (if set)
// before each one.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string, wait func(context.Context) error) []*models.ProductRecord {
	records := make([]*models.ProductRecord, 0, len(urls))
	for _, u := range urls {
		if wait != nil {
			if err := wait(ctx); err != nil {
				records = append(records, models.FailedRecord(u, err.Error()))
				continue
			}
		}
		records = append(records, s.Scrape(ctx, u))
	}
	return records
}
