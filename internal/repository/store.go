package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// CatalogStore aggregates the catalog repositories behind the single surface
// the import pipeline consumes.
type CatalogStore struct {
	db       *sqlx.DB
	products *ProductRepository
	variants *VariantRepository
	skus     *ProductVariantRepository
	specs    *SpecRepository
}

// NewCatalogStore creates a CatalogStore over one database handle.
func NewCatalogStore(db *sqlx.DB) *CatalogStore {
	return &CatalogStore{
		db:       db,
		products: NewProductRepository(db),
		variants: NewVariantRepository(db),
		skus:     NewProductVariantRepository(db),
		specs:    NewSpecRepository(db),
	}
}

// Ping validates store reachability, used for prerequisite checks.
func (s *CatalogStore) Ping() error {
	return s.db.Ping()
}

func (s *CatalogStore) UpsertProductBySKU(p *models.Product) (bool, error) {
	return s.products.UpsertBySKU(p)
}

func (s *CatalogStore) ProductExistsBySKU(sku string) (bool, error) {
	return s.products.ExistsBySKU(sku)
}

func (s *CatalogStore) GetProductBySKU(sku string) (*models.Product, error) {
	return s.products.GetBySKU(sku)
}

func (s *CatalogStore) UpdateVariantCount(productID, count int) error {
	return s.products.UpdateVariantCount(productID, count)
}

func (s *CatalogStore) UpsertVariantGroup(g *models.VariantGroup) (bool, error) {
	return s.variants.UpsertGroup(g)
}

func (s *CatalogStore) UpsertVariantOption(o *models.VariantOption) (bool, error) {
	return s.variants.UpsertOption(o)
}

func (s *CatalogStore) VariantExistsBySKU(sku string) (bool, error) {
	return s.skus.ExistsBySKU(sku)
}

func (s *CatalogStore) UpsertProductVariantBySKU(v *models.ProductVariant) (bool, error) {
	return s.skus.UpsertBySKU(v)
}

func (s *CatalogStore) CreateSelectionLink(variantID, optionID int) error {
	return s.skus.CreateSelection(variantID, optionID)
}

func (s *CatalogStore) CountProducts() (int, error) {
	return s.products.Count()
}

func (s *CatalogStore) CountProductsByType(t models.ProductType) (int, error) {
	return s.products.CountByType(t)
}

func (s *CatalogStore) CountVariantGroups() (int, error) {
	return s.variants.CountGroups()
}

func (s *CatalogStore) CountVariantOptions() (int, error) {
	return s.variants.CountOptions()
}

func (s *CatalogStore) CountProductVariants() (int, error) {
	return s.skus.Count()
}

func (s *CatalogStore) CountSelectionLinks() (int, error) {
	return s.skus.CountSelections()
}

func (s *CatalogStore) UpsertTechnicalSpec(spec *models.TechnicalSpec) error {
	return s.specs.Upsert(spec)
}

func (s *CatalogStore) CountTechnicalSpecs() (int, error) {
	return s.specs.Count()
}
