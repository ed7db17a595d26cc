package izerwaren

import "github.com/izerwaren/catalog-importer/internal/models"

// Pagination describes the feed's page envelope.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// ProductPageResponse is one page of the product listing endpoint.
type ProductPageResponse struct {
	Data       []models.CatalogRecord `json:"data"`
	Pagination Pagination             `json:"pagination"`
}

// VariantSchemaResponse wraps the variant schema detail endpoint.
type VariantSchemaResponse struct {
	Data models.VariantSchema `json:"data"`
}

// SpecificationsResponse wraps the technical specification endpoint; entries
// are grouped by specification category.
type SpecificationsResponse struct {
	Data map[string][]models.TechAttribute `json:"data"`
}
