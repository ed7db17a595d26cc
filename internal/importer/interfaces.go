package importer

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// Sentinel errors surfaced by the orchestrator's public entry points.
var (
	// ErrImportRunning is returned when a run is started while another is active.
	ErrImportRunning = errors.New("an import run is already in progress")
	// ErrAborted distinguishes a user-requested abort from processing failures.
	ErrAborted = errors.New("import aborted by user")
	// ErrNotPausable is returned when pause/resume is requested in the wrong state.
	ErrNotPausable = errors.New("import is not in a pausable state")
)

// Source is the catalog feed boundary. Pagination is drained inside ListAll;
// the orchestrator always sees a flat record set. Errors from any method are
// treated as retryable.
type Source interface {
	Ping(ctx context.Context) error
	ListAll(ctx context.Context) ([]models.CatalogRecord, error)
	GetVariantSchema(ctx context.Context, sku string) (*models.VariantSchema, error)
	GetTechnicalAttributes(ctx context.Context, sku string) (map[string][]models.TechAttribute, error)
}

// Store is the persistent boundary: natural-key upserts per entity kind plus
// the counts used for skip-detection and post-run validation.
type Store interface {
	Ping() error

	UpsertProductBySKU(p *models.Product) (created bool, err error)
	ProductExistsBySKU(sku string) (bool, error)
	UpdateVariantCount(productID, count int) error

	UpsertVariantGroup(g *models.VariantGroup) (created bool, err error)
	UpsertVariantOption(o *models.VariantOption) (created bool, err error)

	VariantExistsBySKU(sku string) (bool, error)
	UpsertProductVariantBySKU(v *models.ProductVariant) (created bool, err error)
	CreateSelectionLink(variantID, optionID int) error

	UpsertTechnicalSpec(spec *models.TechnicalSpec) error

	CountProducts() (int, error)
	CountProductsByType(t models.ProductType) (int, error)
	CountVariantGroups() (int, error)
	CountVariantOptions() (int, error)
	CountProductVariants() (int, error)
	CountSelectionLinks() (int, error)
	CountTechnicalSpecs() (int, error)
}

// SchemaCache is an optional read-through cache for per-SKU feed detail
// responses. Implementations must treat failures as misses.
type SchemaCache interface {
	GetVariantSchema(ctx context.Context, sku string) (*models.VariantSchema, bool)
	SetVariantSchema(ctx context.Context, sku string, schema *models.VariantSchema)
	GetTechnicalAttributes(ctx context.Context, sku string) (map[string][]models.TechAttribute, bool)
	SetTechnicalAttributes(ctx context.Context, sku string, specs map[string][]models.TechAttribute)
}

// ImageDownloader moves one product image. The actual byte transfer is an
// external concern; the pipeline only schedules and accounts for it.
type ImageDownloader interface {
	Download(ctx context.Context, sku string, index int) error
}

// Observer is invoked synchronously after every state mutation, strictly
// after the checkpoint save, with the full current run state.
type Observer func(state *models.ImportState)

// NopImageDownloader satisfies ImageDownloader without transferring bytes,
// for deployments where a CDN sidecar owns the transfer.
type NopImageDownloader struct{}

func (NopImageDownloader) Download(_ context.Context, sku string, index int) error {
	log.Debug().Str("sku", sku).Int("image", index).Msg("image accounted, transfer delegated")
	return nil
}
