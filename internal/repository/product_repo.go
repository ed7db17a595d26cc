package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetBySKU returns a single product by sku, or nil when none exists.
func (r *ProductRepository) GetBySKU(sku string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE sku = $1 LIMIT 1`
	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	var p models.Product
	if err := stmt.Get(&p, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ExistsBySKU reports whether a product with the given sku exists.
func (r *ProductRepository) ExistsBySKU(sku string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`
	var exists bool
	if err := r.db.Get(&exists, q, sku); err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertBySKU inserts or updates a product keyed by its sku unique constraint.
// All mutable fields are overwritten with the incoming values; the row identity
// (id, created_at) is preserved. The returned flag reports whether a new row
// was inserted.
func (r *ProductRepository) UpsertBySKU(p *models.Product) (bool, error) {
	const q = `
        INSERT INTO products (sku, title, handle, description, price, retail_price, category, product_type, variant_count, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (sku) DO UPDATE SET
            title = EXCLUDED.title,
            handle = EXCLUDED.handle,
            description = EXCLUDED.description,
            price = EXCLUDED.price,
            retail_price = EXCLUDED.retail_price,
            category = EXCLUDED.category,
            product_type = EXCLUDED.product_type,
            variant_count = EXCLUDED.variant_count,
            status = EXCLUDED.status,
            updated_at = NOW()
        RETURNING id, (xmax = 0) AS inserted`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	var inserted bool
	err = stmt.QueryRowx(
		p.SKU,
		p.Title,
		p.Handle,
		p.Description,
		p.Price,
		p.RetailPrice,
		p.Category,
		p.ProductType,
		p.VariantCount,
		p.Status,
	).Scan(&p.ID, &inserted)
	return inserted, err
}

// UpdateVariantCount sets the denormalized variant counter for a product.
func (r *ProductRepository) UpdateVariantCount(productID, count int) error {
	const q = `UPDATE products SET variant_count = $2, product_type = $3, updated_at = NOW() WHERE id = $1`
	productType := models.ProductTypeSimple
	if count > 0 {
		productType = models.ProductTypeVariable
	}
	_, err := r.db.Exec(q, productID, count, productType)
	return err
}

// Count returns the total number of products.
func (r *ProductRepository) Count() (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, err
	}
	return n, nil
}

// CountByType returns the number of products of a given kind.
func (r *ProductRepository) CountByType(t models.ProductType) (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM products WHERE product_type = $1`, t); err != nil {
		return 0, err
	}
	return n, nil
}
