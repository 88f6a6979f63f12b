package parser

// VariantAxis is a labeled option group on the product page, such as the
// "Size :" row of buttons.
type VariantAxis struct {
	Label  string `mapstructure:"label" yaml:"label"`
	Option string `mapstructure:"option" yaml:"option"`
}

// Profile holds the site-specific markers the extraction heuristics key on.
// The defaults describe the Markaz storefront.
type Profile struct {
	TypographySelector   string        `mapstructure:"typography_selector" yaml:"typography_selector" validate:"required"`
	ContainerSelector    string        `mapstructure:"container_selector" yaml:"container_selector" validate:"required"`
	MainSelectors        []string      `mapstructure:"main_selectors" yaml:"main_selectors"`
	CurrencyMarker       string        `mapstructure:"currency_marker" yaml:"currency_marker" validate:"required"`
	BreadcrumbPrefix     string        `mapstructure:"breadcrumb_prefix" yaml:"breadcrumb_prefix" validate:"required"`
	BreadcrumbBlockTerms []string      `mapstructure:"breadcrumb_block_terms" yaml:"breadcrumb_block_terms"`
	ProductCodeLabel     string        `mapstructure:"product_code_label" yaml:"product_code_label" validate:"required"`
	DescriptionSkip      []string      `mapstructure:"description_skip" yaml:"description_skip"`
	DescriptionSelectors []string      `mapstructure:"description_selectors" yaml:"description_selectors"`
	VariantAxes          []VariantAxis `mapstructure:"variant_axes" yaml:"variant_axes" validate:"dive"`
	ImageSelectors       []string      `mapstructure:"image_selectors" yaml:"image_selectors"`
	ImageAttributes      []string      `mapstructure:"image_attributes" yaml:"image_attributes"`
	DecorativeKeywords   []string      `mapstructure:"decorative_keywords" yaml:"decorative_keywords"`
}

func DefaultProfile() Profile {
	return Profile{
		TypographySelector: "span.ant-typography",
		ContainerSelector:  "div.flex.flex-col.flex-wrap",
		MainSelectors:      []string{"main", `[role="main"]`},
		CurrencyMarker:     "Rs.",
		BreadcrumbPrefix:   "/explore",
		BreadcrumbBlockTerms: []string{
			"followers", "products", "rs.", "add to cart", "cart", "view all",
		},
		ProductCodeLabel: "Product Code:",
		DescriptionSkip: []string{
			"add to cart", "buy now", "description", "details", "sku",
		},
		DescriptionSelectors: []string{
			`[class*="description"]`,
			`[class*="Description"]`,
			`[class*="detail"]`,
			`[class*="Detail"]`,
			"p",
		},
		VariantAxes: []VariantAxis{
			{Label: "Size :", Option: "Size"},
			{Label: "Color :", Option: "Color"},
		},
		ImageSelectors: []string{
			`[class*="gallery"] img`,
			`[class*="thumbnail"] img`,
			`[class*="image"] img`,
			`[class*="Image"] img`,
			".product-image img",
			".product-images img",
		},
		ImageAttributes:    []string{"src", "data-src", "data-lazy-src"},
		DecorativeKeywords: []string{"logo", "icon", "avatar", "placeholder", "loading"},
	}
}
