package models

import (
	"database/sql"
	"time"
)

// ProductType enumerates the supported product kinds.
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

// ProductStatus enumerates publication states.
type ProductStatus string

const (
	ProductStatusActive ProductStatus = "active"
	ProductStatusDraft  ProductStatus = "draft"
)

// Product represents a persisted catalog product.
// SKU is nullable because legacy Shopify-only rows predate the feed and carry
// no natural key; rows written by the import pipeline always set one.
type Product struct {
	ID           int            `db:"id" json:"id"`
	SKU          sql.NullString `db:"sku" json:"sku"`
	Title        string         `db:"title" json:"title"`
	Handle       string         `db:"handle" json:"handle"`
	Description  string         `db:"description" json:"description"`
	Price        float64        `db:"price" json:"price"`
	RetailPrice  float64        `db:"retail_price" json:"retailPrice"`
	Category     string         `db:"category" json:"category"`
	ProductType  ProductType    `db:"product_type" json:"productType"`
	VariantCount int            `db:"variant_count" json:"variantCount"`
	Status       ProductStatus  `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"-"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}
