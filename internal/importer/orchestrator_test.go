package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izerwaren/catalog-importer/internal/config"
	"github.com/izerwaren/catalog-importer/internal/models"
)

type fakeSource struct {
	mu           sync.Mutex
	records      []models.CatalogRecord
	schemas      map[string]*models.VariantSchema
	specs        map[string]map[string][]models.TechAttribute
	pingErr      error
	listFailures int
	listCalls    int
}

func (f *fakeSource) Ping(context.Context) error { return f.pingErr }

func (f *fakeSource) ListAll(context.Context) ([]models.CatalogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listFailures > 0 {
		f.listFailures--
		return nil, errors.New("feed timeout")
	}
	return f.records, nil
}

func (f *fakeSource) GetVariantSchema(_ context.Context, sku string) (*models.VariantSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schemas[sku], nil
}

func (f *fakeSource) GetTechnicalAttributes(_ context.Context, sku string) (map[string][]models.TechAttribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.specs[sku], nil
}

type storedProduct struct {
	product      models.Product
	variantCount int
	productType  models.ProductType
}

type fakeStore struct {
	mu                 sync.Mutex
	pingErr            error
	nextID             int
	products           map[string]*storedProduct
	groups             map[string]int
	options            map[string]int
	variants           map[string]int
	selections         map[string]struct{}
	specs              map[string]struct{}
	failProductUpserts map[string]int
	failSelections     int
	failExists         bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:           make(map[string]*storedProduct),
		groups:             make(map[string]int),
		options:            make(map[string]int),
		variants:           make(map[string]int),
		selections:         make(map[string]struct{}),
		specs:              make(map[string]struct{}),
		failProductUpserts: make(map[string]int),
	}
}

func (f *fakeStore) Ping() error { return f.pingErr }

func (f *fakeStore) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) UpsertProductBySKU(p *models.Product) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sku := p.SKU.String
	if n := f.failProductUpserts[sku]; n > 0 {
		f.failProductUpserts[sku] = n - 1
		return false, errors.New("deadlock detected")
	}
	if existing, ok := f.products[sku]; ok {
		p.ID = existing.product.ID
		existing.product = *p
		return false, nil
	}
	p.ID = f.id()
	f.products[sku] = &storedProduct{product: *p, productType: p.ProductType}
	return true, nil
}

func (f *fakeStore) ProductExistsBySKU(sku string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failExists {
		return false, errors.New("connection refused")
	}
	_, ok := f.products[sku]
	return ok, nil
}

func (f *fakeStore) UpdateVariantCount(productID, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sp := range f.products {
		if sp.product.ID == productID {
			sp.variantCount = count
			if count > 0 {
				sp.productType = models.ProductTypeVariable
			}
			return nil
		}
	}
	return fmt.Errorf("product %d not found", productID)
}

func (f *fakeStore) UpsertVariantGroup(g *models.VariantGroup) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d|%s", g.ProductID, g.Name)
	if id, ok := f.groups[key]; ok {
		g.ID = id
		return false, nil
	}
	g.ID = f.id()
	f.groups[key] = g.ID
	return true, nil
}

func (f *fakeStore) UpsertVariantOption(o *models.VariantOption) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d|%s", o.VariantGroupID, o.Value)
	if id, ok := f.options[key]; ok {
		o.ID = id
		return false, nil
	}
	o.ID = f.id()
	f.options[key] = o.ID
	return true, nil
}

func (f *fakeStore) VariantExistsBySKU(sku string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.variants[sku]
	return ok, nil
}

func (f *fakeStore) UpsertProductVariantBySKU(v *models.ProductVariant) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.variants[v.SKU]; ok {
		v.ID = id
		return false, nil
	}
	v.ID = f.id()
	f.variants[v.SKU] = v.ID
	return true, nil
}

func (f *fakeStore) CreateSelectionLink(variantID, optionID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSelections > 0 {
		f.failSelections--
		return errors.New("connection reset")
	}
	f.selections[fmt.Sprintf("%d|%d", variantID, optionID)] = struct{}{}
	return nil
}

func (f *fakeStore) UpsertTechnicalSpec(spec *models.TechnicalSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs[fmt.Sprintf("%d|%s|%s", spec.ProductID, spec.Category, spec.Name)] = struct{}{}
	return nil
}

func (f *fakeStore) CountProducts() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products), nil
}

func (f *fakeStore) CountProductsByType(t models.ProductType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sp := range f.products {
		if sp.productType == t {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountVariantGroups() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups), nil
}

func (f *fakeStore) CountVariantOptions() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.options), nil
}

func (f *fakeStore) CountProductVariants() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.variants), nil
}

func (f *fakeStore) CountSelectionLinks() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.selections), nil
}

func (f *fakeStore) CountTechnicalSpecs() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.specs), nil
}

type fakeDownloader struct {
	mu       sync.Mutex
	failSKUs map[string]bool
	calls    int
}

func (f *fakeDownloader) Download(_ context.Context, sku string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failSKUs[sku] {
		return errors.New("connection reset")
	}
	return nil
}

func record(sku, name string, price float64) models.CatalogRecord {
	return models.CatalogRecord{
		SKU:          sku,
		Name:         name,
		Description:  name + " description",
		Price:        price,
		Availability: "in_stock",
		Category:     "door hardware",
	}
}

func testImportConfig(t *testing.T) config.ImportConfig {
	t.Helper()
	return config.ImportConfig{
		BatchSize:                25,
		MaxRetries:               3,
		RetryDelay:               time.Millisecond,
		ConcurrentImageDownloads: 2,
		CheckpointPath:           filepath.Join(t.TempDir(), "import_state.json"),
	}
}

func newTestService(t *testing.T, cfg config.ImportConfig, source *fakeSource, store *fakeStore) (*Service, *CheckpointStore) {
	t.Helper()
	checkpoints := NewCheckpointStore(cfg.CheckpointPath)
	return NewService(cfg, source, store, checkpoints), checkpoints
}

func TestRunImportsSimpleProducts(t *testing.T) {
	source := &fakeSource{records: []models.CatalogRecord{
		record("IZW-0001", "Door Lock 55mm", 189.50),
		record("IZW-0002", "Gas Spring 400N", 95.00),
		record("IZW-0003", "Deck Hinge", 42.75),
	}}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)

	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 3, state.Stats.ProductsCreated)
	assert.Equal(t, 0, state.Stats.ProductsUpdated)
	assert.Equal(t, 0, state.Stats.ProductsSkipped)
	assert.Equal(t, 3, state.Batch.Processed)
	assert.Empty(t, state.Errors)

	require.NotNil(t, state.Validation)
	assert.Equal(t, 3, state.Validation.Products)
	assert.Equal(t, 3, state.Validation.SimpleProducts)
}

func TestRunSecondPassSkipsAndUpdates(t *testing.T) {
	source := &fakeSource{records: []models.CatalogRecord{
		record("IZW-0001", "Door Lock 55mm", 189.50),
		record("IZW-0002", "Gas Spring 400N", 95.00),
	}}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)

	require.NoError(t, svc.Run(context.Background()))
	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Stats.ProductsCreated)
	assert.Equal(t, 2, state.Stats.ProductsUpdated)
	assert.Equal(t, 2, state.Stats.ProductsSkipped)

	n, _ := store.CountProducts()
	assert.Equal(t, 2, n)
}

func TestRunExpandsVariants(t *testing.T) {
	rec := record("IZW-0027", "Mortise Lock", 595.00)
	rec.HasVariants = true

	source := &fakeSource{
		records: []models.CatalogRecord{rec},
		schemas: map[string]*models.VariantSchema{
			"IZW-0027": {
				SKU:         "IZW-0027",
				HasVariants: true,
				Groups: []models.SchemaGroup{
					{
						Name: "handing", Label: "Handing",
						Options: []models.SchemaOption{
							{Value: "left", DisplayText: "Left Hand"},
							{Value: "right", DisplayText: "Right Hand"},
						},
					},
					{
						Name: "profile_cylinder", Label: "Cylinder",
						Options: []models.SchemaOption{
							{Value: "standard", DisplayText: "Standard", PriceModifier: 0},
							{Value: "high_security", DisplayText: "High Security", PriceModifier: 125},
						},
					},
				},
			},
		},
	}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)

	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 2, state.Stats.VariantGroupsCreated)
	assert.Equal(t, 4, state.Stats.VariantOptionsCreated)
	assert.Equal(t, 4, state.Stats.VariantsCreated)

	for _, sku := range []string{
		"IZW-0027-LH-STD", "IZW-0027-LH-HS",
		"IZW-0027-RH-STD", "IZW-0027-RH-HS",
	} {
		_, ok := store.variants[sku]
		assert.True(t, ok, "expected variant %s", sku)
	}

	sp := store.products["IZW-0027"]
	require.NotNil(t, sp)
	assert.Equal(t, 4, sp.variantCount)
	assert.Equal(t, models.ProductTypeVariable, sp.productType)

	links, _ := store.CountSelectionLinks()
	assert.Equal(t, 8, links)
}

func TestRunVariantSecondPassSkips(t *testing.T) {
	rec := record("IZW-0027", "Mortise Lock", 595.00)
	rec.HasVariants = true
	source := &fakeSource{
		records: []models.CatalogRecord{rec},
		schemas: map[string]*models.VariantSchema{
			"IZW-0027": {
				SKU:         "IZW-0027",
				HasVariants: true,
				Groups: []models.SchemaGroup{
					{Name: "handing", Label: "Handing", Options: []models.SchemaOption{
						{Value: "left", DisplayText: "Left Hand"},
						{Value: "right", DisplayText: "Right Hand"},
					}},
				},
			},
		},
	}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)

	require.NoError(t, svc.Run(context.Background()))
	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Stats.VariantsCreated)
	assert.Equal(t, 2, state.Stats.VariantsSkipped)

	n, _ := store.CountProductVariants()
	assert.Equal(t, 2, n)
}

func TestSelectionLinksRepairedOnRerun(t *testing.T) {
	rec := record("IZW-0027", "Mortise Lock", 595.00)
	rec.HasVariants = true
	source := &fakeSource{
		records: []models.CatalogRecord{rec},
		schemas: map[string]*models.VariantSchema{
			"IZW-0027": {
				SKU:         "IZW-0027",
				HasVariants: true,
				Groups: []models.SchemaGroup{
					{Name: "handing", Label: "Handing", Options: []models.SchemaOption{
						{Value: "left", DisplayText: "Left Hand"},
						{Value: "right", DisplayText: "Right Hand"},
					}},
				},
			},
		},
	}
	store := newFakeStore()
	store.failSelections = 1
	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)

	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, state.Stats.VariantsCreated)
	require.Len(t, state.Errors, 1)
	assert.Equal(t, models.ErrorKindVariant, state.Errors[0].Kind)

	links, _ := store.CountSelectionLinks()
	assert.Equal(t, 1, links)

	// The second pass rewrites links for existing variants, so the variant
	// whose link failed mid-run ends up fully covered.
	require.NoError(t, svc.Run(context.Background()))

	state, err = checkpoints.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Errors)

	links, _ = store.CountSelectionLinks()
	assert.Equal(t, 2, links)
}

func TestExistenceCheckFailureDoesNotBreakImport(t *testing.T) {
	source := &fakeSource{records: []models.CatalogRecord{record("IZW-0001", "Door Lock", 100)}}
	store := newFakeStore()
	store.failExists = true
	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)

	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 1, state.Stats.ProductsCreated)
	assert.Equal(t, 0, state.Stats.ProductsSkipped)
	assert.Empty(t, state.Errors)
}

func TestRunImportsSpecs(t *testing.T) {
	rec := record("IZW-0050", "Hatch Lift", 120.00)
	rec.HasSpecs = true
	source := &fakeSource{
		records: []models.CatalogRecord{rec},
		specs: map[string]map[string][]models.TechAttribute{
			"IZW-0050": {
				"dimensions": {
					{Name: "stroke", Value: "200", Unit: "mm"},
					{Name: "force", Value: "400", Unit: "N"},
				},
				"materials": {
					{Name: "housing", Value: "stainless steel 316"},
				},
			},
		},
	}
	cfg := testImportConfig(t)
	cfg.EnableSpecImport = true
	store := newFakeStore()
	svc, checkpoints := newTestService(t, cfg, source, store)

	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, state.Stats.SpecsImported)

	n, _ := store.CountTechnicalSpecs()
	assert.Equal(t, 3, n)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	source := &fakeSource{records: []models.CatalogRecord{record("IZW-0001", "Door Lock", 100)}}
	store := newFakeStore()
	store.failProductUpserts["IZW-0001"] = 2

	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)
	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 1, state.Stats.ProductsCreated)
	assert.Empty(t, state.Errors)
}

func TestRunRecordsErrorAfterRetryExhaustion(t *testing.T) {
	source := &fakeSource{records: []models.CatalogRecord{
		record("IZW-0001", "Door Lock", 100),
		record("IZW-0002", "Gas Spring", 95),
	}}
	store := newFakeStore()
	store.failProductUpserts["IZW-0001"] = 100

	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)
	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	// Completed with errors is still completed, not failed.
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 1, state.Stats.ProductsCreated)
	assert.Equal(t, 1, state.Batch.Failed)
	require.Len(t, state.Errors, 1)
	assert.Equal(t, models.ErrorKindProduct, state.Errors[0].Kind)
	assert.Equal(t, "IZW-0001", state.Errors[0].SKU)
	assert.Contains(t, state.Errors[0].Message, "deadlock")
}

func TestRunFailsWhenCatalogFetchExhausted(t *testing.T) {
	source := &fakeSource{listFailures: 100}
	store := newFakeStore()

	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)
	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch catalog")
	assert.Equal(t, 3, source.listCalls)

	state, loadErr := checkpoints.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, models.ImportStatusFailed, state.Status)
	assert.Equal(t, "catalog fetch", state.Phase)
}

func TestRunFetchRecoversWithinRetryBudget(t *testing.T) {
	source := &fakeSource{
		records:      []models.CatalogRecord{record("IZW-0001", "Door Lock", 100)},
		listFailures: 2,
	}
	store := newFakeStore()

	svc, checkpoints := newTestService(t, testImportConfig(t), source, store)
	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
}

func TestRunAggregatesPrerequisiteFailures(t *testing.T) {
	source := &fakeSource{pingErr: errors.New("dns failure")}
	store := newFakeStore()
	store.pingErr = errors.New("connection refused")

	svc, _ := newTestService(t, testImportConfig(t), source, store)
	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog feed unreachable")
	assert.Contains(t, err.Error(), "store unreachable")
}

func TestRunRejectsConcurrentStart(t *testing.T) {
	source := &fakeSource{records: []models.CatalogRecord{record("IZW-0001", "Door Lock", 100)}}
	store := newFakeStore()
	svc, _ := newTestService(t, testImportConfig(t), source, store)

	started := make(chan struct{})
	done := make(chan error, 1)
	svc.SetObserver(func(state *models.ImportState) {
		select {
		case <-started:
		default:
			close(started)
		}
	})
	go func() { done <- svc.Run(context.Background()) }()
	<-started

	err := svc.Run(context.Background())
	if err != nil {
		assert.ErrorIs(t, err, ErrImportRunning)
	}
	require.NoError(t, <-done)
}

func TestRunResumeFromBatch(t *testing.T) {
	cfg := testImportConfig(t)
	cfg.BatchSize = 1
	cfg.ResumeFromBatch = 1

	source := &fakeSource{records: []models.CatalogRecord{
		record("IZW-0001", "Door Lock", 100),
		record("IZW-0002", "Gas Spring", 95),
		record("IZW-0003", "Deck Hinge", 42),
	}}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, cfg, source, store)

	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 2, state.Stats.ProductsCreated)
	_, first := store.products["IZW-0001"]
	assert.False(t, first, "batch before the resume point must not be processed")
}

func TestResumeAcrossServiceInstances(t *testing.T) {
	cfg := testImportConfig(t)
	cfg.BatchSize = 1

	records := []models.CatalogRecord{
		record("IZW-0001", "Door Lock", 100),
		record("IZW-0002", "Gas Spring", 95),
		record("IZW-0003", "Deck Hinge", 42),
		record("IZW-0004", "Cleat", 18),
	}
	store := newFakeStore()

	// First run aborts after two batches.
	first, checkpoints := newTestService(t, cfg, &fakeSource{records: records}, store)
	first.SetObserver(func(state *models.ImportState) {
		if state.Batch.Current == 2 && state.Status == models.ImportStatusInProgress {
			first.Abort()
		}
	})
	require.ErrorIs(t, first.Run(context.Background()), ErrAborted)

	interrupted, err := checkpoints.Load()
	require.NoError(t, err)
	firstProcessed := interrupted.Batch.Processed

	// A fresh instance picks up where the checkpoint says the last run stopped.
	cfg.ResumeFromBatch = interrupted.Batch.Current
	second, _ := newTestService(t, cfg, &fakeSource{records: records}, store)
	require.NoError(t, second.Run(context.Background()))

	resumed, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, resumed.Status)
	assert.Equal(t, len(records), firstProcessed+resumed.Stats.ProductsCreated)

	n, _ := store.CountProducts()
	assert.Equal(t, len(records), n)
}

func TestAbortStopsAtBatchBoundary(t *testing.T) {
	cfg := testImportConfig(t)
	cfg.BatchSize = 1

	source := &fakeSource{records: []models.CatalogRecord{
		record("IZW-0001", "Door Lock", 100),
		record("IZW-0002", "Gas Spring", 95),
		record("IZW-0003", "Deck Hinge", 42),
	}}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, cfg, source, store)
	svc.SetObserver(func(state *models.ImportState) {
		if state.Batch.Current == 1 && state.Status == models.ImportStatusInProgress {
			svc.Abort()
		}
	})

	err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrAborted)

	state, loadErr := checkpoints.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, models.ImportStatusFailed, state.Status)
	assert.Equal(t, "aborted by user", state.Phase)
	assert.Less(t, state.Stats.ProductsCreated, 3)
}

func TestPauseResumeRoundTrip(t *testing.T) {
	cfg := testImportConfig(t)
	cfg.BatchSize = 1

	source := &fakeSource{records: []models.CatalogRecord{
		record("IZW-0001", "Door Lock", 100),
		record("IZW-0002", "Gas Spring", 95),
		record("IZW-0003", "Deck Hinge", 42),
	}}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, cfg, source, store)

	var once sync.Once
	paused := make(chan struct{})
	svc.SetObserver(func(state *models.ImportState) {
		if state.Status == models.ImportStatusInProgress && state.Batch.Current == 1 {
			once.Do(func() {
				assert.NoError(t, svc.Pause())
				close(paused)
			})
		}
	})

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	<-paused
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, svc.Resume())
	require.NoError(t, <-done)

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 3, state.Stats.ProductsCreated)
}

func TestPauseRequiresActiveRun(t *testing.T) {
	source := &fakeSource{}
	store := newFakeStore()
	svc, _ := newTestService(t, testImportConfig(t), source, store)

	assert.ErrorIs(t, svc.Pause(), ErrNotPausable)
	assert.ErrorIs(t, svc.Resume(), ErrNotPausable)
}

func TestImageFailuresDoNotFailRecords(t *testing.T) {
	rec1 := record("IZW-0001", "Door Lock", 100)
	rec1.ImageCount = 2
	rec2 := record("IZW-0002", "Gas Spring", 95)
	rec2.ImageCount = 1

	cfg := testImportConfig(t)
	cfg.EnableImageDownload = true

	source := &fakeSource{records: []models.CatalogRecord{rec1, rec2}}
	store := newFakeStore()
	svc, checkpoints := newTestService(t, cfg, source, store)
	downloader := &fakeDownloader{failSKUs: map[string]bool{"IZW-0002": true}}
	svc.SetImageDownloader(downloader)

	require.NoError(t, svc.Run(context.Background()))

	state, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, state.Status)
	assert.Equal(t, 2, state.Stats.ImagesDownloaded)
	assert.Equal(t, 1, state.Stats.ImagesFailed)
	assert.Equal(t, 0, state.Batch.Failed)
	require.Len(t, state.Errors, 1)
	assert.Equal(t, models.ErrorKindImage, state.Errors[0].Kind)
	assert.Equal(t, 3, downloader.calls)
}

func TestRunContextCancellation(t *testing.T) {
	cfg := testImportConfig(t)
	cfg.BatchSize = 1
	cfg.BatchPause = 50 * time.Millisecond

	source := &fakeSource{records: []models.CatalogRecord{
		record("IZW-0001", "Door Lock", 100),
		record("IZW-0002", "Gas Spring", 95),
	}}
	store := newFakeStore()
	svc, _ := newTestService(t, cfg, source, store)

	ctx, cancel := context.WithCancel(context.Background())
	svc.SetObserver(func(state *models.ImportState) {
		if state.Batch.Current == 1 {
			cancel()
		}
	})

	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPartition(t *testing.T) {
	records := []models.CatalogRecord{
		record("A", "a", 1), record("B", "b", 1), record("C", "c", 1),
		record("D", "d", 1), record("E", "e", 1),
	}
	batches := partition(records, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)

	assert.Nil(t, partition(nil, 2))
}
