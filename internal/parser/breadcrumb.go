package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/markaz-exporter/internal/models"
	"github.com/maltedev/markaz-exporter/internal/normalize"
)

var breadcrumbNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s*Products?`),
	regexp.MustCompile(`(?i)\d+[KkMm]?\s*Followers?`),
	regexp.MustCompile(`(?i)Rs\.\s*\d+`),
}

func (p *Parser) mainRegion(pc *pageContext) *goquery.Selection {
	strategies := make([]strategy[*goquery.Selection], 0, len(p.profile.MainSelectors))
	for _, sel := range p.profile.MainSelectors {
		strategies = append(strategies, strategy[*goquery.Selection]{sel, func(pc *pageContext) (*goquery.Selection, bool) {
			s := pc.doc.Find(sel).First()
			return s, s.Length() > 0
		}})
	}
	if region, _, ok := firstOf(pc, strategies); ok {
		return region
	}
	return pc.doc.Find("body")
}

func (p *Parser) isCategoryLink(href string) bool {
	prefix := p.profile.BreadcrumbPrefix
	if strings.HasPrefix(href, prefix) {
		return true
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, prefix)
}

// endsBreadcrumb reports whether link names the product itself, which is
// the last crumb. The match is loose: either text may contain
// the other, and long links only need to share the title's first 20 runes.
func endsBreadcrumb(title, link string) bool {
	t := strings.ToLower(title)
	l := strings.ToLower(link)
	if strings.Contains(t, l) || strings.Contains(l, t) {
		return true
	}
	return len([]rune(link)) > 10 && strings.Contains(l, normalize.Truncate(t, 20))
}

func (p *Parser) isBreadcrumbNoise(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range p.profile.BreadcrumbBlockTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	for _, re := range breadcrumbNoise {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (p *Parser) extractBreadcrumb(pc *pageContext, rec *models.ProductRecord) error {
	var items []string
	seen := make(map[string]bool)

	p.mainRegion(pc).Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !p.isCategoryLink(href) {
			return true
		}

		text := normalize.CollapseSpace(InnerText(a))
		if text == "" {
			return true
		}
		if pc.titleFound && endsBreadcrumb(pc.title, text) {
			return false
		}
		if !normalize.HasLetter(text) || p.isBreadcrumbNoise(text) || seen[text] {
			return true
		}

		seen[text] = true
		items = append(items, text)
		return true
	})

	if len(items) == 0 {
		return fmt.Errorf("%w: breadcrumb", ErrFieldNotFound)
	}
	rec.BreadcrumbItems = items
	return nil
}
