// Package expand turns one ProductRecord into the ordered rows of a Shopify
// product import. The first row carries the product-level fields; variant
// rows and image-only rows follow it under the same handle.
package expand

import (
	"math"
	"strconv"
	"strings"

	"github.com/maltedev/markaz-exporter/internal/models"
	"github.com/maltedev/markaz-exporter/internal/normalize"
)

const (
	flagTrue  = "TRUE"
	flagFalse = "FALSE"

	tierThreshold  = 2000
	lowTierMarkup  = 500
	highTierMarkup = 1000
)

// Options are the store-wide constants written into every export.
type Options struct {
	Vendor             string `mapstructure:"vendor" validate:"required"`
	InventoryQty       int    `mapstructure:"inventory_qty" validate:"gte=0"`
	InventoryTracker   string `mapstructure:"inventory_tracker"`
	InventoryPolicy    string `mapstructure:"inventory_policy" validate:"oneof=continue deny"`
	FulfillmentService string `mapstructure:"fulfillment_service"`
	WeightUnit         string `mapstructure:"weight_unit" validate:"oneof=g kg lb oz"`
	TieredMarkup       bool   `mapstructure:"tiered_markup"`
}

func DefaultOptions() Options {
	return Options{
		Vendor:             "Markaz",
		InventoryQty:       50,
		InventoryTracker:   "shopify",
		InventoryPolicy:    "continue",
		FulfillmentService: "manual",
		WeightUnit:         "kg",
	}
}

// Adjustments are the amounts added to the scraped price.
type Adjustments struct {
	Variant   float64 `json:"variant_price_adjustment"`
	CompareAt float64 `json:"compare_at_price_adjustment"`
}

type Expander struct {
	opts Options
}

func New(opts Options) *Expander {
	return &Expander{opts: opts}
}

type rowKind int

const (
	primaryRow rowKind = iota
	variantRow
	imageRow
)

// Expand produces the rows for one record. position only feeds the handle
// fallback when the record has neither title nor base SKU.
func (e *Expander) Expand(rec *models.ProductRecord, adj Adjustments, position int) []models.FlatRow {
	if rec == nil {
		return nil
	}

	p := e.prepare(rec, adj, position)

	variants := rec.VariantValues
	if !rec.HasRealVariants() {
		variants = []string{models.DefaultVariant}
	}

	rows := make([]models.FlatRow, 0, len(variants)+len(rec.ImageURLs))
	for i, value := range variants {
		kind := variantRow
		image, imagePos := "", ""
		if i == 0 {
			kind = primaryRow
			if len(rec.ImageURLs) > 0 {
				image, imagePos = rec.ImageURLs[0], "1"
			}
		}
		rows = append(rows, e.row(p, kind, value, image, imagePos))
	}

	for i := 1; i < len(rec.ImageURLs); i++ {
		rows = append(rows, e.row(p, imageRow, "", rec.ImageURLs[i], strconv.Itoa(i+1)))
	}

	return rows
}

// prepared holds everything derived once per record.
type prepared struct {
	rec          *models.ProductRecord
	handle       string
	optionName   string
	variantPrice string
	compareAt    string
	costPerItem  string
	title        string
	bodyHTML     string
	tags         string
	category     string
	seoDesc      string
}

func (e *Expander) prepare(rec *models.ProductRecord, adj Adjustments, position int) prepared {
	p := prepared{
		rec:          rec,
		handle:       normalize.Handle(rec.Title, rec.BaseSKU, position),
		optionName:   rec.OptionName,
		variantPrice: models.DefaultPrice,
		compareAt:    models.DefaultPrice,
		costPerItem:  models.DefaultPrice,
		title:        rec.Title,
		bodyHTML:     normalize.DescriptionHTML(rec.Description),
		tags:         normalize.Tags(rec.BreadcrumbItems),
		category:     normalize.Category(rec.BreadcrumbItems),
		seoDesc:      normalize.Truncate(rec.Description, normalize.SEODescriptionLen),
	}
	if p.optionName == "" || !rec.HasRealVariants() {
		p.optionName = models.OptionTitle
	}
	if p.title == "" {
		p.title = "Untitled Product"
	}

	if price, ok := ParsePrice(rec.Price); ok {
		variantAdj := adj.Variant
		if e.opts.TieredMarkup {
			variantAdj += TieredAdjustment(price)
		}
		p.costPerItem = FormatPrice(price)
		p.variantPrice = FormatPrice(price + variantAdj)
		p.compareAt = FormatPrice(price + adj.CompareAt)
	}
	return p
}

func (e *Expander) row(p prepared, kind rowKind, value, image, imagePos string) models.FlatRow {
	r := models.FlatRow{
		Handle:        p.handle,
		ImageSrc:      image,
		ImagePosition: imagePos,
	}

	if kind == imageRow {
		return r
	}

	r.Option1Name = p.optionName
	r.Option1Value = value
	r.VariantSKU = VariantSKU(p.rec.BaseSKU, value)
	r.VariantInventoryTracker = e.opts.InventoryTracker
	r.VariantInventoryQty = strconv.Itoa(e.opts.InventoryQty)
	r.VariantInventoryPolicy = e.opts.InventoryPolicy
	r.VariantFulfillment = e.opts.FulfillmentService
	r.VariantPrice = p.variantPrice
	r.VariantCompareAtPrice = p.compareAt
	r.VariantRequiresShipping = flagTrue
	r.VariantTaxable = flagTrue
	r.VariantWeightUnit = e.opts.WeightUnit

	if kind != primaryRow {
		return r
	}

	r.Title = p.title
	r.BodyHTML = p.bodyHTML
	r.Vendor = e.opts.Vendor
	r.StandardProductType = p.category
	r.Tags = p.tags
	r.Published = flagTrue
	r.GiftCard = flagFalse
	r.SEOTitle = p.title
	r.SEODescription = p.seoDesc
	r.GoogleCondition = "new"
	r.GoogleCustomProduct = flagFalse
	r.CostPerItem = p.costPerItem
	r.Status = "active"
	if image != "" {
		r.ImageAltText = p.title
	}
	return r
}

// VariantSKU appends the variant value to the base SKU unless the value is
// the default variant.
func VariantSKU(baseSKU, value string) string {
	if value != "" && baseSKU != "" && value != models.DefaultVariant {
		return baseSKU + "-" + value
	}
	return baseSKU
}

// ParsePrice reads a decimal price, tolerating thousands separators.
func ParsePrice(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.DefaultPrice
	}
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		rounded = 0 // drops the sign of -0
	}
	return strconv.FormatFloat(rounded, 'f', 2, 64)
}

// ParseAdjustment parses a user-entered adjustment. Anything unparseable
// counts as zero.
func ParseAdjustment(s string) float64 {
	v, ok := ParsePrice(s)
	if !ok {
		return 0
	}
	return v
}

// TieredAdjustment is the default store markup: a flat amount that steps up
// once the price reaches the threshold.
func TieredAdjustment(price float64) float64 {
	if price < tierThreshold {
		return lowTierMarkup
	}
	return highTierMarkup
}
