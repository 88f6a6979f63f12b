package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/markaz-exporter/internal/models"
	"github.com/maltedev/markaz-exporter/internal/normalize"
)

type variantAxisResult struct {
	option string
	values []string
}

// axisValues finds the first span whose text contains the axis label and
// reads one value per button in the label's nearest enclosing div.
func (p *Parser) axisValues(pc *pageContext, axis VariantAxis) ([]string, bool) {
	label := strings.ToLower(normalize.CollapseSpace(axis.Label))

	labelSpan := pc.doc.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(normalize.CollapseSpace(s.Text())), label)
	}).First()
	if labelSpan.Length() == 0 {
		return nil, false
	}

	group := labelSpan.ParentsFiltered("div").First()
	if group.Length() == 0 {
		return nil, false
	}

	var values []string
	seen := make(map[string]bool)
	group.Find("button").Each(func(_ int, button *goquery.Selection) {
		value := ""
		if typo := button.Find(p.profile.TypographySelector).First(); typo.Length() > 0 {
			value = normalize.CollapseSpace(InnerText(typo))
		}
		if value == "" {
			value = normalize.CollapseSpace(InnerText(button))
		}
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		values = append(values, value)
	})

	return values, len(values) > 0
}

func (p *Parser) extractVariants(log *slog.Logger, pc *pageContext, rec *models.ProductRecord) error {
	strategies := make([]strategy[variantAxisResult], 0, len(p.profile.VariantAxes))
	for _, axis := range p.profile.VariantAxes {
		strategies = append(strategies, strategy[variantAxisResult]{axis.Option, func(pc *pageContext) (variantAxisResult, bool) {
			values, ok := p.axisValues(pc, axis)
			return variantAxisResult{option: axis.Option, values: values}, ok
		}})
	}

	result, _, ok := firstOf(pc, strategies)
	if !ok {
		log.Debug("no variant axis found, using default variant")
		rec.OptionName = models.OptionTitle
		rec.VariantValues = []string{models.DefaultVariant}
		return nil
	}

	log.Debug("variants found", "option", result.option, "count", len(result.values))
	rec.OptionName = result.option
	rec.VariantValues = result.values
	return nil
}
