package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// SpecRepository handles data access for technical specifications.
type SpecRepository struct {
	db *sqlx.DB
}

// NewSpecRepository creates a new SpecRepository.
func NewSpecRepository(db *sqlx.DB) *SpecRepository {
	return &SpecRepository{db: db}
}

// Upsert inserts or updates a spec keyed by (product_id, category, name).
func (r *SpecRepository) Upsert(spec *models.TechnicalSpec) error {
	const q = `
        INSERT INTO technical_specs (product_id, category, name, value, unit)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (product_id, category, name) DO UPDATE SET
            value = EXCLUDED.value,
            unit = EXCLUDED.unit,
            updated_at = NOW()
        RETURNING id`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.QueryRowx(
		spec.ProductID,
		spec.Category,
		spec.Name,
		spec.Value,
		spec.Unit,
	).Scan(&spec.ID)
}

// Count returns the total number of technical specs.
func (r *SpecRepository) Count() (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM technical_specs`); err != nil {
		return 0, err
	}
	return n, nil
}
