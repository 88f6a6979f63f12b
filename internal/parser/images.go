package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/markaz-exporter/internal/models"
)

const fallbackImageLimit = 10

// imageURL reads the first populated source attribute and resolves it
// against the page URL. Decorative assets and non-http sources are rejected.
func (p *Parser) imageURL(pc *pageContext, img *goquery.Selection) (string, bool) {
	var src string
	for _, attr := range p.profile.ImageAttributes {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			src = strings.TrimSpace(v)
			break
		}
	}
	if src == "" {
		return "", false
	}

	u, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	if pc.base != nil {
		u = pc.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	path := strings.ToLower(u.Path)
	for _, kw := range p.profile.DecorativeKeywords {
		if strings.Contains(path, kw) {
			return "", false
		}
	}
	return u.String(), true
}

func (p *Parser) collectImages(pc *pageContext, imgs *goquery.Selection) ([]string, bool) {
	var urls []string
	seen := make(map[string]bool)
	imgs.Each(func(_ int, img *goquery.Selection) {
		if u, ok := p.imageURL(pc, img); ok && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	})
	return urls, len(urls) > 0
}

func (p *Parser) extractImages(log *slog.Logger, pc *pageContext, rec *models.ProductRecord) error {
	strategies := make([]strategy[[]string], 0, len(p.profile.ImageSelectors)+1)
	for _, sel := range p.profile.ImageSelectors {
		strategies = append(strategies, strategy[[]string]{sel, func(pc *pageContext) ([]string, bool) {
			return p.collectImages(pc, pc.doc.Find(sel))
		}})
	}
	strategies = append(strategies, strategy[[]string]{"any img", func(pc *pageContext) ([]string, bool) {
		imgs := pc.doc.Find("img")
		if imgs.Length() > fallbackImageLimit {
			imgs = imgs.Slice(0, fallbackImageLimit)
		}
		return p.collectImages(pc, imgs)
	}})

	urls, name, ok := firstOf(pc, strategies)
	if !ok {
		return fmt.Errorf("%w: images", ErrFieldNotFound)
	}
	log.Debug("images found", "strategy", name, "count", len(urls))
	rec.ImageURLs = urls
	return nil
}
