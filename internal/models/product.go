package models

import (
	"strings"
	"time"
)

const (
	StatusSuccess     = "success"
	statusErrorPrefix = "Error: "

	OptionSize  = "Size"
	OptionColor = "Color"
	OptionTitle = "Title"

	DefaultVariant = "Default Title"

	DefaultPrice  = "0.00"
	TitleNotFound = "Product Title Not Found"
	NoDescription = "No description available"
)

// ProductRecord is the normalized result of scraping one product page.
// It is never mutated after the scraper returns it.
type ProductRecord struct {
	Title           string    `json:"title" yaml:"title"`
	SKU             string    `json:"sku" yaml:"sku"`
	BaseSKU         string    `json:"base_sku" yaml:"base_sku"`
	Price           string    `json:"price" yaml:"price"`
	Description     string    `json:"description" yaml:"description"`
	ImageURLs       []string  `json:"image_urls" yaml:"image_urls"`
	BreadcrumbItems []string  `json:"breadcrumb_items" yaml:"breadcrumb_items"`
	OptionName      string    `json:"option1_name" yaml:"option1_name"`
	VariantValues   []string  `json:"variants" yaml:"variants"`
	URL             string    `json:"url" yaml:"url"`
	Status          string    `json:"status" yaml:"status"`
	Warnings        []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	ScrapedAt       time.Time `json:"scraped_at" yaml:"scraped_at"`
}

// FailedRecord builds the uniform failure shape: every data field empty,
// the default variant axis, and a status prefixed with "Error: ".
func FailedRecord(url, reason string) *ProductRecord {
	return &ProductRecord{
		ImageURLs:       make([]string, 0),
		BreadcrumbItems: make([]string, 0),
		OptionName:      OptionTitle,
		VariantValues:   []string{DefaultVariant},
		URL:             url,
		Status:          statusErrorPrefix + reason,
		ScrapedAt:       time.Now(),
	}
}

func (p *ProductRecord) Succeeded() bool {
	return p != nil && p.Status == StatusSuccess
}

// HasRealVariants reports whether the record carries a detected option axis
// rather than the single default variant.
func (p *ProductRecord) HasRealVariants() bool {
	if len(p.VariantValues) == 0 {
		return false
	}
	return !(len(p.VariantValues) == 1 && p.VariantValues[0] == DefaultVariant)
}

// Validate checks the record invariants and returns a list of violations.
func (p *ProductRecord) Validate() []string {
	var errors []string

	if p.URL == "" {
		errors = append(errors, "URL is required")
	}

	if p.Status != StatusSuccess && !strings.HasPrefix(p.Status, statusErrorPrefix) {
		errors = append(errors, "Status must be success or an error")
	}

	if len(p.VariantValues) == 0 {
		errors = append(errors, "at least one variant value is required")
	}

	isDefault := len(p.VariantValues) == 1 && p.VariantValues[0] == DefaultVariant
	if (p.OptionName == OptionTitle) != isDefault {
		errors = append(errors, "option name Title must go with the Default Title variant")
	}

	return errors
}
