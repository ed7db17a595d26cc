package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// VariantRepository handles data access for variant groups and options.
type VariantRepository struct {
	db *sqlx.DB
}

// NewVariantRepository creates a new VariantRepository.
func NewVariantRepository(db *sqlx.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

// UpsertGroup inserts or updates a variant group keyed by (product_id, name).
// Creation sets all fields; update only refreshes display metadata, never the
// identity key. The returned flag reports whether a new row was inserted.
func (r *VariantRepository) UpsertGroup(g *models.VariantGroup) (bool, error) {
	const q = `
        INSERT INTO variant_groups (product_id, name, label, input_style, required, sort_order)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (product_id, name) DO UPDATE SET
            label = EXCLUDED.label,
            input_style = EXCLUDED.input_style,
            required = EXCLUDED.required,
            sort_order = EXCLUDED.sort_order,
            updated_at = NOW()
        RETURNING id, (xmax = 0) AS inserted`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	var inserted bool
	err = stmt.QueryRowx(
		g.ProductID,
		g.Name,
		g.Label,
		g.InputStyle,
		g.Required,
		g.SortOrder,
	).Scan(&g.ID, &inserted)
	return inserted, err
}

// UpsertOption inserts or updates a variant option keyed by
// (variant_group_id, value). Update refreshes display metadata only. The
// returned flag reports whether a new row was inserted.
func (r *VariantRepository) UpsertOption(o *models.VariantOption) (bool, error) {
	const q = `
        INSERT INTO variant_options (variant_group_id, value, display_text, price_modifier, sort_order)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (variant_group_id, value) DO UPDATE SET
            display_text = EXCLUDED.display_text,
            price_modifier = EXCLUDED.price_modifier,
            sort_order = EXCLUDED.sort_order,
            updated_at = NOW()
        RETURNING id, (xmax = 0) AS inserted`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	var inserted bool
	err = stmt.QueryRowx(
		o.VariantGroupID,
		o.Value,
		o.DisplayText,
		o.PriceModifier,
		o.SortOrder,
	).Scan(&o.ID, &inserted)
	return inserted, err
}

// GetGroupsByProduct returns the groups of a product in display order.
func (r *VariantRepository) GetGroupsByProduct(productID int) ([]models.VariantGroup, error) {
	const q = `SELECT * FROM variant_groups WHERE product_id = $1 ORDER BY sort_order ASC, id ASC`
	var groups []models.VariantGroup
	if err := r.db.Select(&groups, q, productID); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetOptionsByGroup returns the options of a group in display order.
func (r *VariantRepository) GetOptionsByGroup(groupID int) ([]models.VariantOption, error) {
	const q = `SELECT * FROM variant_options WHERE variant_group_id = $1 ORDER BY sort_order ASC, id ASC`
	var options []models.VariantOption
	if err := r.db.Select(&options, q, groupID); err != nil {
		return nil, err
	}
	return options, nil
}

// CountGroups returns the total number of variant groups.
func (r *VariantRepository) CountGroups() (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM variant_groups`); err != nil {
		return 0, err
	}
	return n, nil
}

// CountOptions returns the total number of variant options.
func (r *VariantRepository) CountOptions() (int, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM variant_options`); err != nil {
		return 0, err
	}
	return n, nil
}
