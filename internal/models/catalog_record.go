package models

// CatalogRecord is one product row as served by the legacy catalog feed.
type CatalogRecord struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	RetailPrice  float64 `json:"retailPrice"`
	Availability string  `json:"availability"`
	Category     string  `json:"category"`
	ImageCount   int     `json:"imageCount"`
	HasVariants  bool    `json:"hasVariants"`
	HasSpecs     bool    `json:"hasSpecs"`
}

// VariantSchema is the declared variant structure of one product: which
// groups it varies along and the options within each group. The concrete
// variants are generated locally, never fetched.
type VariantSchema struct {
	SKU          string        `json:"sku"`
	HasVariants  bool          `json:"hasVariants"`
	VariantCount int           `json:"variantCount"`
	Groups       []SchemaGroup `json:"groups"`
}

// SchemaGroup is one variation axis as declared by the feed.
type SchemaGroup struct {
	Name       string         `json:"name"`
	Label      string         `json:"label"`
	InputStyle string         `json:"inputStyle"`
	Required   bool           `json:"required"`
	SortOrder  int            `json:"sortOrder"`
	Options    []SchemaOption `json:"options"`
}

// SchemaOption is one selectable value within a schema group.
type SchemaOption struct {
	Value         string  `json:"value"`
	DisplayText   string  `json:"displayText"`
	PriceModifier float64 `json:"priceModifier"`
	SortOrder     int     `json:"sortOrder"`
}

// TechAttribute is a single technical attribute from a product's
// specification sheet; the feed groups attributes by category.
type TechAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}
