package models

import "time"

// VariantGroup is one variant dimension of a product (e.g. handing, finish).
// Name is unique within its product.
type VariantGroup struct {
	ID         int       `db:"id" json:"id"`
	ProductID  int       `db:"product_id" json:"productId"`
	Name       string    `db:"name" json:"name"`
	Label      string    `db:"label" json:"label"`
	InputStyle string    `db:"input_style" json:"inputStyle"`
	Required   bool      `db:"required" json:"required"`
	SortOrder  int       `db:"sort_order" json:"sortOrder"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// VariantOption is one selectable value within a group. Value is unique within
// its group. PriceModifier is a signed delta applied on top of the base price.
type VariantOption struct {
	ID             int       `db:"id" json:"id"`
	VariantGroupID int       `db:"variant_group_id" json:"variantGroupId"`
	Value          string    `db:"value" json:"value"`
	DisplayText    string    `db:"display_text" json:"displayText"`
	PriceModifier  float64   `db:"price_modifier" json:"priceModifier"`
	SortOrder      int       `db:"sort_order" json:"sortOrder"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// ProductVariant is one concrete sellable combination of a variable product.
// Its SKU is derived deterministically and is globally unique. The set of
// selection links must cover every group of the parent product exactly once.
type ProductVariant struct {
	ID        int       `db:"id" json:"id"`
	ProductID int       `db:"product_id" json:"productId"`
	SKU       string    `db:"sku" json:"sku"`
	Title     string    `db:"title" json:"title"`
	Price     float64   `db:"price" json:"price"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
