// Package parser recovers a ProductRecord from a rendered product page.
// The storefront exposes no structured data, so every field is found by an
// ordered list of heuristics where the first hit in document order wins.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/markaz-exporter/internal/models"
)

var (
	ErrMarkerNotFound = errors.New("could not find product spans")
	ErrFieldNotFound  = errors.New("field not found")
)

type Parser struct {
	profile Profile
	logger  *slog.Logger

	markerRe    *regexp.Regexp
	priceRe     *regexp.Regexp
	codeLineRe  *regexp.Regexp
	codeTokenRe *regexp.Regexp
	codeSplitRe *regexp.Regexp
}

func New(profile Profile, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}

	marker := regexp.QuoteMeta(profile.CurrencyMarker)
	label := regexp.QuoteMeta(profile.ProductCodeLabel)

	return &Parser{
		profile:     profile,
		logger:      logger.With("component", "parser"),
		markerRe:    regexp.MustCompile(`(?i)` + marker),
		priceRe:     regexp.MustCompile(`(?i)` + marker + `\s*([\d,]+)`),
		codeLineRe:  regexp.MustCompile(`(?i)` + label + `\s*(.+)`),
		codeTokenRe: regexp.MustCompile(`(?i)` + label + `\s*([A-Z0-9]+)`),
		codeSplitRe: regexp.MustCompile(`(?i)` + label),
	}
}

func (p *Parser) Profile() Profile {
	return p.profile
}

// pageContext carries what earlier steps found to the later ones.
type pageContext struct {
	doc       *goquery.Document
	base      *url.URL
	marker    *goquery.Selection
	container *goquery.Selection

	title       string
	titleFound  bool
	sku         string
	productCode string
}

func (pc *pageContext) bodyText() string {
	return InnerText(pc.doc.Find("body"))
}

// ParseHTML parses a document and extracts the product from it.
func (p *Parser) ParseHTML(html, pageURL string) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return p.Parse(doc, pageURL)
}

// Parse extracts the product from doc. It fails only when the typography
// marker is missing; every other field degrades to its default and the
// problem is listed in the record's warnings.
func (p *Parser) Parse(doc *goquery.Document, pageURL string) (*models.ProductRecord, error) {
	marker := doc.Find(p.profile.TypographySelector)
	if marker.Length() == 0 {
		return nil, ErrMarkerNotFound
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	pc := &pageContext{
		doc:    doc,
		base:   base,
		marker: marker.First(),
	}

	rec := &models.ProductRecord{
		Title:           models.TitleNotFound,
		Price:           models.DefaultPrice,
		Description:     models.NoDescription,
		ImageURLs:       make([]string, 0),
		BreadcrumbItems: make([]string, 0),
		OptionName:      models.OptionTitle,
		VariantValues:   []string{models.DefaultVariant},
		URL:             pageURL,
		Status:          models.StatusSuccess,
	}

	log := p.logger.With("url", pageURL)

	p.step(log, rec, "container", func() error { return p.locateContainer(log, pc) })
	if pc.container == nil || pc.container.Length() == 0 {
		pc.container = doc.Find("body")
	}

	p.step(log, rec, "title", func() error { return p.extractTitleAndSKU(pc, rec) })
	p.step(log, rec, "price", func() error { return p.extractPrice(log, pc, rec) })
	p.step(log, rec, "breadcrumb", func() error { return p.extractBreadcrumb(pc, rec) })
	p.step(log, rec, "description", func() error { return p.extractDescription(log, pc, rec) })
	p.step(log, rec, "base_sku", func() error { return p.extractBaseSKU(pc, rec) })
	p.step(log, rec, "variants", func() error { return p.extractVariants(log, pc, rec) })
	p.step(log, rec, "images", func() error { return p.extractImages(log, pc, rec) })

	rec.ScrapedAt = time.Now()

	log.Info("product extracted",
		"title", rec.Title,
		"base_sku", rec.BaseSKU,
		"price", rec.Price,
		"variants", len(rec.VariantValues),
		"images", len(rec.ImageURLs),
		"warnings", len(rec.Warnings))

	return rec, nil
}

// step runs one field heuristic. Errors and panics are recorded as
// warnings and never abort the extraction.
func (p *Parser) step(log *slog.Logger, rec *models.ProductRecord, field string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("field extraction panicked", "field", field, "panic", r)
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s: %v", field, r))
		}
	}()

	if err := fn(); err != nil {
		log.Warn("using default for field", "field", field, "error", err)
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s: %v", field, err))
	}
}

func (p *Parser) locateContainer(log *slog.Logger, pc *pageContext) error {
	strategies := []strategy[*goquery.Selection]{
		{"marker_ancestor", func(pc *pageContext) (*goquery.Selection, bool) {
			s := pc.marker.ParentsFiltered(p.profile.ContainerSelector).First()
			return s, s.Length() > 0
		}},
		{"container_class", func(pc *pageContext) (*goquery.Selection, bool) {
			s := pc.doc.Find(p.profile.ContainerSelector).First()
			return s, s.Length() > 0
		}},
		{"marker_div", func(pc *pageContext) (*goquery.Selection, bool) {
			s := pc.marker.ParentsFiltered("div").Last()
			return s, s.Length() > 0
		}},
	}

	container, name, ok := firstOf(pc, strategies)
	if !ok {
		return fmt.Errorf("%w: product container, using page body", ErrFieldNotFound)
	}
	log.Debug("container located", "strategy", name)
	pc.container = container
	return nil
}

func (p *Parser) extractTitleAndSKU(pc *pageContext, rec *models.ProductRecord) error {
	spans := pc.container.Find(p.profile.TypographySelector)

	switch {
	case spans.Length() >= 2:
		pc.sku = strings.TrimSpace(InnerText(spans.Eq(0)))
		pc.title = strings.TrimSpace(InnerText(spans.Eq(1)))
	case spans.Length() == 1:
		pc.title = strings.TrimSpace(InnerText(spans.Eq(0)))
	}

	rec.SKU = pc.sku
	if pc.title == "" {
		pc.title = models.TitleNotFound
		return fmt.Errorf("%w: title", ErrFieldNotFound)
	}
	pc.titleFound = true
	rec.Title = pc.title
	return nil
}

// matchPrice returns the digits following the first currency marker in text.
func (p *Parser) matchPrice(text string) (string, bool) {
	for _, m := range p.priceRe.FindAllStringSubmatch(text, -1) {
		if digits := strings.ReplaceAll(m[1], ",", ""); digits != "" {
			return digits, true
		}
	}
	return "", false
}

func (p *Parser) extractPrice(log *slog.Logger, pc *pageContext, rec *models.ProductRecord) error {
	// Rendered text only, so script and style bodies never count as a price.
	containsMarker := func(_ int, s *goquery.Selection) bool {
		return p.markerRe.MatchString(InnerText(s))
	}

	strategies := []strategy[string]{
		{"element", func(pc *pageContext) (string, bool) {
			var price string
			pc.doc.Find("body *").FilterFunction(containsMarker).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				// Only the innermost elements carrying the marker.
				if s.Children().FilterFunction(containsMarker).Length() > 0 {
					return true
				}
				if v, ok := p.matchPrice(InnerText(s)); ok {
					price = v
					return false
				}
				return true
			})
			return price, price != ""
		}},
		{"container", func(pc *pageContext) (string, bool) {
			return p.matchPrice(InnerText(pc.container))
		}},
		{"page", func(pc *pageContext) (string, bool) {
			return p.matchPrice(pc.bodyText())
		}},
	}

	price, name, ok := firstOf(pc, strategies)
	if !ok {
		return fmt.Errorf("%w: price", ErrFieldNotFound)
	}
	log.Debug("price found", "strategy", name, "price", price)
	rec.Price = price
	return nil
}

var leadingCode = regexp.MustCompile(`(?i)([A-Z0-9]+)`)

func (p *Parser) extractBaseSKU(pc *pageContext, rec *models.ProductRecord) error {
	if pc.productCode != "" {
		if m := leadingCode.FindStringSubmatch(pc.productCode); m != nil {
			rec.BaseSKU = m[1]
			return nil
		}
	}
	rec.BaseSKU = pc.sku
	return nil
}
