package models

// Columns is the Shopify product import header. The order is fixed.
var Columns = []string{
	"Handle",
	"Title",
	"Body (HTML)",
	"Vendor",
	"Standard Product Type",
	"Custom Product Type",
	"Tags",
	"Published",
	"Option1 Name",
	"Option1 Value",
	"Option2 Name",
	"Option2 Value",
	"Option3 Name",
	"Option3 Value",
	"Variant SKU",
	"Variant Grams",
	"Variant Inventory Tracker",
	"Variant Inventory Qty",
	"Variant Inventory Policy",
	"Variant Fulfillment Service",
	"Variant Price",
	"Variant Compare At Price",
	"Variant Requires Shipping",
	"Variant Taxable",
	"Variant Barcode",
	"Image Src",
	"Image Position",
	"Image Alt Text",
	"Gift Card",
	"SEO Title",
	"SEO Description",
	"Google Shopping / Google Product Category",
	"Google Shopping / Gender",
	"Google Shopping / Age Group",
	"Google Shopping / MPN",
	"Google Shopping / Condition",
	"Google Shopping / Custom Product",
	"Google Shopping / Custom Label 0",
	"Google Shopping / Custom Label 1",
	"Google Shopping / Custom Label 2",
	"Google Shopping / Custom Label 3",
	"Google Shopping / Custom Label 4",
	"Variant Weight Unit",
	"Variant Tax Code",
	"Cost per item",
	"Price / International",
	"Compare At Price / International",
	"Status",
}

// FlatRow is one line of the export. Fields left empty are written as "".
type FlatRow struct {
	Handle                  string `json:"handle"`
	Title                   string `json:"title"`
	BodyHTML                string `json:"body_html"`
	Vendor                  string `json:"vendor"`
	StandardProductType     string `json:"standard_product_type"`
	CustomProductType       string `json:"custom_product_type"`
	Tags                    string `json:"tags"`
	Published               string `json:"published"`
	Option1Name             string `json:"option1_name"`
	Option1Value            string `json:"option1_value"`
	Option2Name             string `json:"option2_name"`
	Option2Value            string `json:"option2_value"`
	Option3Name             string `json:"option3_name"`
	Option3Value            string `json:"option3_value"`
	VariantSKU              string `json:"variant_sku"`
	VariantGrams            string `json:"variant_grams"`
	VariantInventoryTracker string `json:"variant_inventory_tracker"`
	VariantInventoryQty     string `json:"variant_inventory_qty"`
	VariantInventoryPolicy  string `json:"variant_inventory_policy"`
	VariantFulfillment      string `json:"variant_fulfillment_service"`
	VariantPrice            string `json:"variant_price"`
	VariantCompareAtPrice   string `json:"variant_compare_at_price"`
	VariantRequiresShipping string `json:"variant_requires_shipping"`
	VariantTaxable          string `json:"variant_taxable"`
	VariantBarcode          string `json:"variant_barcode"`
	ImageSrc                string `json:"image_src"`
	ImagePosition           string `json:"image_position"`
	ImageAltText            string `json:"image_alt_text"`
	GiftCard                string `json:"gift_card"`
	SEOTitle                string `json:"seo_title"`
	SEODescription          string `json:"seo_description"`
	GoogleProductCategory   string `json:"google_product_category"`
	GoogleGender            string `json:"google_gender"`
	GoogleAgeGroup          string `json:"google_age_group"`
	GoogleMPN               string `json:"google_mpn"`
	GoogleCondition         string `json:"google_condition"`
	GoogleCustomProduct     string `json:"google_custom_product"`
	GoogleCustomLabel0      string `json:"google_custom_label_0"`
	GoogleCustomLabel1      string `json:"google_custom_label_1"`
	GoogleCustomLabel2      string `json:"google_custom_label_2"`
	GoogleCustomLabel3      string `json:"google_custom_label_3"`
	GoogleCustomLabel4      string `json:"google_custom_label_4"`
	VariantWeightUnit       string `json:"variant_weight_unit"`
	VariantTaxCode          string `json:"variant_tax_code"`
	CostPerItem             string `json:"cost_per_item"`
	PriceInternational      string `json:"price_international"`
	CompareAtInternational  string `json:"compare_at_price_international"`
	Status                  string `json:"status"`
}

// Values returns the row in Columns order.
func (r FlatRow) Values() []string {
	return []string{
		r.Handle,
		r.Title,
		r.BodyHTML,
		r.Vendor,
		r.StandardProductType,
		r.CustomProductType,
		r.Tags,
		r.Published,
		r.Option1Name,
		r.Option1Value,
		r.Option2Name,
		r.Option2Value,
		r.Option3Name,
		r.Option3Value,
		r.VariantSKU,
		r.VariantGrams,
		r.VariantInventoryTracker,
		r.VariantInventoryQty,
		r.VariantInventoryPolicy,
		r.VariantFulfillment,
		r.VariantPrice,
		r.VariantCompareAtPrice,
		r.VariantRequiresShipping,
		r.VariantTaxable,
		r.VariantBarcode,
		r.ImageSrc,
		r.ImagePosition,
		r.ImageAltText,
		r.GiftCard,
		r.SEOTitle,
		r.SEODescription,
		r.GoogleProductCategory,
		r.GoogleGender,
		r.GoogleAgeGroup,
		r.GoogleMPN,
		r.GoogleCondition,
		r.GoogleCustomProduct,
		r.GoogleCustomLabel0,
		r.GoogleCustomLabel1,
		r.GoogleCustomLabel2,
		r.GoogleCustomLabel3,
		r.GoogleCustomLabel4,
		r.VariantWeightUnit,
		r.VariantTaxCode,
		r.CostPerItem,
		r.PriceInternational,
		r.CompareAtInternational,
		r.Status,
	}
}

// Record maps column names to values, convenient for assertions and JSON.
func (r FlatRow) Record() map[string]string {
	values := r.Values()
	m := make(map[string]string, len(Columns))
	for i, col := range Columns {
		m[col] = values[i]
	}
	return m
}
