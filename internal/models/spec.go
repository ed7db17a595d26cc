package models

import "time"

// TechnicalSpec is one persisted specification attribute of a product,
// unique per (product, category, name).
type TechnicalSpec struct {
	ID        int       `db:"id" json:"id"`
	ProductID int       `db:"product_id" json:"productId"`
	Category  string    `db:"category" json:"category"`
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	Unit      string    `db:"unit" json:"unit,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
