package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// ProductVariantRepository handles data access for generated product variants
// and their option selection links.
type ProductVariantRepository struct {
	db *sqlx.DB
}

// NewProductVariantRepository creates a new ProductVariantRepository.
func NewProductVariantRepository(db *sqlx.DB) *ProductVariantRepository {
	return &ProductVariantRepository{db: db}
}

// ExistsBySKU reports whether a variant with the given derived sku exists.
func (r *ProductVariantRepository) ExistsBySKU(sku string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM product_variants WHERE sku = $1)`
	var exists bool
	if err := r.db.Get(&exists, q, sku); err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertBySKU inserts or updates a variant keyed by its derived sku. The
// returned flag reports whether a new row was inserted, so callers know
// whether selection links still need to be created.
func (r *ProductVariantRepository) UpsertBySKU(v *models.ProductVariant) (bool, error) {
	const q = `
        INSERT INTO product_variants (product_id, sku, title, price, is_active)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (sku) DO UPDATE SET
            title = EXCLUDED.title,
            price = EXCLUDED.price,
            is_active = EXCLUDED.is_active,
            updated_at = NOW()
        RETURNING id, (xmax = 0) AS inserted`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	var inserted bool
	err = stmt.QueryRowx(
		v.ProductID,
		v.SKU,
		v.Title,
		v.Price,
		v.IsActive,
	).Scan(&v.ID, &inserted)
	return inserted, err
}

// CreateSelection links a variant to one selected option. Duplicate links are
// ignored so re-runs stay idempotent.
func (r *ProductVariantRepository) CreateSelection(variantID, optionID int) error {
	const q = `
        INSERT INTO variant_selections (product_variant_id, variant_option_id)
        VALUES ($1, $2)
        ON CONFLICT (product_variant_id, variant_option_id) DO NOTHING`
	_, err := r.db.Exec(q, variantID, optionID)
	return err
}

// Count returns the total number of product variants.
func (r *ProductVariantRepository) Count() (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM product_variants`); err != nil {
		return 0, err
	}
	return n, nil
}

// CountByProduct returns the number of variants attached to a product.
func (r *ProductVariantRepository) CountByProduct(productID int) (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return 0, err
	}
	return n, nil
}

// CountSelections returns the total number of selection links.
func (r *ProductVariantRepository) CountSelections() (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM variant_selections`); err != nil {
		return 0, err
	}
	return n, nil
}
