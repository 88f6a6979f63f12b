package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/markaz-exporter/internal/models"
)

const (
	minDescriptionLen   = 10
	minDescriptionLine  = 5
	minCandidateText    = 20
	enoughDescription   = 50
	candidatesPerSelect = 10
)

var bareNumber = regexp.MustCompile(`^[\d,]+(?:\.\d+)?$`)

func (p *Parser) hasCodeLabel(s string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(p.profile.ProductCodeLabel))
}

func (p *Parser) isSkippedLine(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range p.profile.DescriptionSkip {
		if lower == phrase {
			return true
		}
	}
	return false
}

// descriptionFromLines walks the container's rendered lines. Collection
// starts once both the title and the price line have been passed and stops
// at the product code label.
func (p *Parser) descriptionFromLines(pc *pageContext) string {
	var parts []string
	var foundSKU, foundTitle, foundPrice bool

	for _, line := range Lines(InnerText(pc.container)) {
		switch {
		case !foundSKU && pc.sku != "" && line == pc.sku:
			foundSKU = true
			continue
		case !foundTitle && pc.titleFound && line == pc.title:
			foundTitle = true
			continue
		case !foundPrice && p.priceRe.MatchString(line):
			foundPrice = true
			continue
		case bareNumber.MatchString(line):
			continue
		}

		if p.hasCodeLabel(line) {
			if m := p.codeLineRe.FindStringSubmatch(line); m != nil {
				pc.productCode = strings.TrimSpace(m[1])
			}
			break
		}

		if foundTitle && foundPrice && utf8.RuneCountInString(line) > minDescriptionLine && !p.isSkippedLine(line) {
			parts = append(parts, line)
		}
	}

	return strings.Join(parts, "\n")
}

// descriptionFromCandidates looks at description-like elements when the
// container walk found too little.
func (p *Parser) descriptionFromCandidates(pc *pageContext, description string) string {
	for _, sel := range p.profile.DescriptionSelectors {
		candidates := pc.doc.Find(sel)
		if candidates.Length() > candidatesPerSelect {
			candidates = candidates.Slice(0, candidatesPerSelect)
		}

		candidates.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(InnerText(s))

			if p.hasCodeLabel(text) {
				parts := p.codeSplitRe.Split(text, 2)
				description = strings.TrimSpace(parts[0])
				if m := p.codeLineRe.FindStringSubmatch(text); m != nil && pc.productCode == "" {
					pc.productCode = strings.TrimSpace(m[1])
				}
				return false
			}

			if utf8.RuneCountInString(text) > minCandidateText &&
				text != pc.title && text != pc.sku &&
				!p.priceRe.MatchString(text) &&
				!p.isSkippedLine(text) {
				if description == "" {
					description = text
				} else if !strings.Contains(description, text) {
					description += "\n" + text
				}
				return false
			}
			return true
		})

		if utf8.RuneCountInString(description) > enoughDescription {
			break
		}
	}
	return description
}

func (p *Parser) extractDescription(log *slog.Logger, pc *pageContext, rec *models.ProductRecord) error {
	description := p.descriptionFromLines(pc)

	if utf8.RuneCountInString(description) < minDescriptionLen {
		log.Debug("description too short, scanning description elements", "length", len(description))
		description = p.descriptionFromCandidates(pc, description)
	}

	if pc.productCode == "" {
		if m := p.codeTokenRe.FindStringSubmatch(pc.bodyText()); m != nil {
			pc.productCode = strings.TrimSpace(m[1])
		}
	}

	if utf8.RuneCountInString(description) < minDescriptionLen {
		return fmt.Errorf("%w: description", ErrFieldNotFound)
	}
	rec.Description = description
	return nil
}
