// Package importer drives the resumable catalog import pipeline: it pulls
// the full record set from the feed, reconciles it into the store in fixed
// batches with bounded retries, and checkpoints the run state after every
// mutation so a run can be monitored, paused, resumed, and recovered.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/izerwaren/catalog-importer/internal/combination"
	"github.com/izerwaren/catalog-importer/internal/config"
	"github.com/izerwaren/catalog-importer/internal/models"
)

// Service orchestrates import runs. The run state is owned exclusively by the
// running import; Pause/Resume/Abort only flip control flags, and external
// readers consume the checkpoint file, never the live state.
type Service struct {
	cfg         config.ImportConfig
	source      Source
	store       Store
	checkpoints *CheckpointStore
	cache       SchemaCache
	images      ImageDownloader
	observer    Observer

	mu      sync.Mutex
	cond    *sync.Cond
	state   *models.ImportState
	aborted bool
	running bool
}

// NewService constructs an import Service.
func NewService(cfg config.ImportConfig, source Source, store Store, checkpoints *CheckpointStore) *Service {
	s := &Service{
		cfg:         cfg,
		source:      source,
		store:       store,
		checkpoints: checkpoints,
		images:      NopImageDownloader{},
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// SetSchemaCache wires an optional read-through cache for feed detail calls.
func (s *Service) SetSchemaCache(cache SchemaCache) { s.cache = cache }

// SetImageDownloader replaces the default no-op downloader.
func (s *Service) SetImageDownloader(d ImageDownloader) { s.images = d }

// SetObserver registers the progress callback invoked after every mutation.
func (s *Service) SetObserver(fn Observer) { s.observer = fn }

// Running reports whether an import run is currently active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Pause marks an in-progress run as paused. The batch loop blocks at the next
// batch boundary until Resume or Abort.
func (s *Service) Pause() error {
	return s.transition(models.ImportStatusInProgress, models.ImportStatusPaused, "paused")
}

// Resume wakes a paused run.
func (s *Service) Resume() error {
	return s.transition(models.ImportStatusPaused, models.ImportStatusInProgress, "processing")
}

// Abort requests termination. The in-flight batch completes; the run then
// fails with a dedicated "aborted by user" phase so reporting can tell an
// abort apart from genuine failures.
func (s *Service) Abort() {
	s.mu.Lock()
	s.aborted = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Run executes one full import. Per-record failures never escape this method;
// it only returns an error for prerequisite failure, catalog fetch failure,
// abort, or context cancellation.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrImportRunning
	}
	now := time.Now()
	s.running = true
	s.aborted = false
	s.state = &models.ImportState{
		ID:        uuid.New().String(),
		Status:    models.ImportStatusInitializing,
		Phase:     "initializing",
		StartedAt: now,
		UpdatedAt: now,
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	// Wake a paused loop when the surrounding context dies.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			s.cond.Broadcast()
		case <-watchDone:
		}
	}()

	log.Info().Str("run_id", s.state.ID).Msg("Starting catalog import")
	s.mutate(func(st *models.ImportState) {})

	if err := s.validatePrerequisites(ctx); err != nil {
		s.fail("prerequisite validation", err)
		return err
	}

	records, err := s.fetchCatalog(ctx)
	if err != nil {
		s.fail("catalog fetch", err)
		return err
	}

	batches := partition(records, s.cfg.BatchSize)
	start := s.cfg.ResumeFromBatch
	if start < 0 {
		start = 0
	}
	if start > len(batches) {
		start = len(batches)
	}

	s.mutate(func(st *models.ImportState) {
		st.Status = models.ImportStatusInProgress
		st.Phase = "processing"
		st.Batch.Total = len(batches)
		st.Batch.Current = start
	})

	runStart := time.Now()
	for i := start; i < len(batches); i++ {
		if err := s.waitIfPaused(ctx); err != nil {
			return s.failWith(err)
		}

		log.Info().Int("batch", i+1).Int("total", len(batches)).Int("records", len(batches[i])).Msg("Processing batch")
		s.processBatch(ctx, batches[i])

		completed := i + 1 - start
		remaining := len(batches) - (i + 1)
		s.mutate(func(st *models.ImportState) {
			st.Batch.Current = i + 1
			if completed > 0 && remaining > 0 {
				eta := time.Now().Add(time.Since(runStart) / time.Duration(completed) * time.Duration(remaining))
				st.EstimatedCompletion = &eta
			} else {
				st.EstimatedCompletion = nil
			}
		})

		// Brief pause between batches to avoid hammering the feed.
		if remaining > 0 {
			if err := sleepCtx(ctx, s.cfg.BatchPause); err != nil {
				return s.failWith(err)
			}
		}
	}

	s.runValidation()

	s.mutate(func(st *models.ImportState) {
		st.Status = models.ImportStatusCompleted
		st.Phase = "completed"
		st.EstimatedCompletion = nil
	})

	s.mu.Lock()
	errCount := len(s.state.Errors)
	processed := s.state.Batch.Processed
	s.mu.Unlock()
	log.Info().
		Int("processed", processed).
		Int("errors", errCount).
		Dur("duration", time.Since(runStart)).
		Msg("Catalog import completed")
	return nil
}

// validatePrerequisites checks every external dependency up front and reports
// all failures together, not just the first.
func (s *Service) validatePrerequisites(ctx context.Context) error {
	s.mutate(func(st *models.ImportState) { st.Phase = "prerequisite validation" })

	var problems []error
	if err := s.source.Ping(ctx); err != nil {
		problems = append(problems, fmt.Errorf("catalog feed unreachable: %w", err))
	}
	if err := s.store.Ping(); err != nil {
		problems = append(problems, fmt.Errorf("store unreachable: %w", err))
	}
	if err := s.checkpoints.CheckWritable(); err != nil {
		problems = append(problems, fmt.Errorf("checkpoint path unwritable: %w", err))
	}

	if len(problems) > 0 {
		err := errors.Join(problems...)
		log.Error().Err(err).Msg("Prerequisite validation failed")
		return err
	}
	return nil
}

// fetchCatalog drains the full record set from the feed, retrying the listing
// as a whole; exhaustion here is fatal since no records can be processed.
func (s *Service) fetchCatalog(ctx context.Context) ([]models.CatalogRecord, error) {
	s.mutate(func(st *models.ImportState) { st.Phase = "fetching catalog" })

	var records []models.CatalogRecord
	err := s.retry(ctx, func() error {
		var e error
		records, e = s.source.ListAll(ctx)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	log.Info().Int("records", len(records)).Msg("Catalog fetched")
	return records, nil
}

// importedRecord pairs a source record with the product it reconciled to.
type importedRecord struct {
	rec     models.CatalogRecord
	product *models.Product
}

// processBatch runs the fixed sub-phase sequence over one batch. A record's
// base product must reconcile before its variant structures are attempted;
// records that fail a phase are recorded and dropped from later phases.
func (s *Service) processBatch(ctx context.Context, records []models.CatalogRecord) {
	succeeded := make([]importedRecord, 0, len(records))

	s.setPhase("products")
	for _, rec := range records {
		if p := s.importProduct(ctx, rec); p != nil {
			succeeded = append(succeeded, importedRecord{rec: rec, product: p})
		}
	}

	s.setPhase("variants")
	for _, item := range succeeded {
		if item.rec.HasVariants {
			s.importVariants(ctx, item.rec, item.product)
		}
	}

	if s.cfg.EnableSpecImport {
		s.setPhase("specs")
		for _, item := range succeeded {
			if item.rec.HasSpecs {
				s.importSpecs(ctx, item.rec, item.product)
			}
		}
	}

	if s.cfg.EnableImageDownload {
		s.setPhase("images")
		s.accountImages(ctx, succeeded)
	}
}

// importProduct upserts the base product for one record. Returns nil when the
// record failed and was recorded; callers must then skip its later phases.
func (s *Service) importProduct(ctx context.Context, rec models.CatalogRecord) *models.Product {
	exists, err := s.store.ProductExistsBySKU(rec.SKU)
	switch {
	case err != nil:
		// The upsert below still proceeds; only the skip counter may lag.
		log.Debug().Err(err).Str("sku", rec.SKU).Msg("product existence check failed")
	case exists:
		s.mutate(func(st *models.ImportState) { st.Stats.ProductsSkipped++ })
	}

	product := productFromRecord(rec)
	var created bool
	err = s.retry(ctx, func() error {
		var e error
		created, e = s.store.UpsertProductBySKU(product)
		return e
	})
	if err != nil {
		s.recordFailure(models.ErrorKindProduct, rec.SKU, err)
		return nil
	}

	s.mutate(func(st *models.ImportState) {
		if created {
			st.Stats.ProductsCreated++
		} else {
			st.Stats.ProductsUpdated++
		}
		st.Batch.Processed++
	})
	return product
}

// importVariants expands the declared schema into concrete variants and
// reconciles groups, options, variants, and selection links.
func (s *Service) importVariants(ctx context.Context, rec models.CatalogRecord, product *models.Product) {
	schema := s.fetchVariantSchema(ctx, rec.SKU)
	if schema == nil || !schema.HasVariants || len(schema.Groups) == 0 {
		return
	}

	combGroups := make([]combination.Group, 0, len(schema.Groups))
	optionIDs := make(map[string]map[string]int, len(schema.Groups))

	for _, sg := range schema.Groups {
		group := &models.VariantGroup{
			ProductID:  product.ID,
			Name:       sg.Name,
			Label:      sg.Label,
			InputStyle: sg.InputStyle,
			Required:   sg.Required,
			SortOrder:  sg.SortOrder,
		}
		if group.InputStyle == "" {
			group.InputStyle = "single"
		}

		var groupCreated bool
		err := s.retry(ctx, func() error {
			var e error
			groupCreated, e = s.store.UpsertVariantGroup(group)
			return e
		})
		if err != nil {
			s.recordFailure(models.ErrorKindVariant, rec.SKU, err)
			return
		}
		if groupCreated {
			s.mutate(func(st *models.ImportState) { st.Stats.VariantGroupsCreated++ })
		}

		ids := make(map[string]int, len(sg.Options))
		combOptions := make([]combination.Option, 0, len(sg.Options))
		for _, so := range sg.Options {
			option := &models.VariantOption{
				VariantGroupID: group.ID,
				Value:          so.Value,
				DisplayText:    so.DisplayText,
				PriceModifier:  so.PriceModifier,
				SortOrder:      so.SortOrder,
			}
			var optionCreated bool
			err := s.retry(ctx, func() error {
				var e error
				optionCreated, e = s.store.UpsertVariantOption(option)
				return e
			})
			if err != nil {
				s.recordFailure(models.ErrorKindVariant, rec.SKU, err)
				return
			}
			if optionCreated {
				s.mutate(func(st *models.ImportState) { st.Stats.VariantOptionsCreated++ })
			}
			ids[so.Value] = option.ID
			combOptions = append(combOptions, combination.Option{
				Value:         so.Value,
				DisplayText:   so.DisplayText,
				PriceModifier: so.PriceModifier,
			})
		}
		optionIDs[sg.Name] = ids
		combGroups = append(combGroups, combination.Group{Name: sg.Name, Options: combOptions})
	}

	combos := combination.Expand(combGroups)
	if len(combos) == 0 {
		// A group with zero options means nothing to generate, not an error.
		return
	}

	for _, combo := range combos {
		sku := combination.DeriveSKU(rec.SKU, combo)

		exists, err := s.store.VariantExistsBySKU(sku)
		switch {
		case err != nil:
			log.Debug().Err(err).Str("sku", sku).Msg("variant existence check failed")
		case exists:
			s.mutate(func(st *models.ImportState) { st.Stats.VariantsSkipped++ })
		}

		variant := &models.ProductVariant{
			ProductID: product.ID,
			SKU:       sku,
			Title:     combination.DeriveTitle(rec.Name, combGroups, combo),
			Price:     combination.DerivePrice(rec.Price, combGroups, combo),
			IsActive:  true,
		}

		var variantCreated bool
		err = s.retry(ctx, func() error {
			var e error
			variantCreated, e = s.store.UpsertProductVariantBySKU(variant)
			return e
		})
		if err != nil {
			s.recordFailure(models.ErrorKindVariant, sku, err)
			continue
		}

		// Links are written on every pass, not only on create: the insert is
		// ON CONFLICT DO NOTHING, so a re-run repairs a variant whose link
		// loop failed partway through on a previous run.
		linked := true
		for _, g := range combGroups {
			optionID, ok := optionIDs[g.Name][combo[g.Name]]
			if !ok {
				s.recordFailure(models.ErrorKindVariant, sku, fmt.Errorf("no option id for %s=%s", g.Name, combo[g.Name]))
				linked = false
				break
			}
			if err := s.store.CreateSelectionLink(variant.ID, optionID); err != nil {
				s.recordFailure(models.ErrorKindVariant, sku, err)
				linked = false
				break
			}
		}
		if variantCreated && linked {
			s.mutate(func(st *models.ImportState) { st.Stats.VariantsCreated++ })
		}
	}

	if err := s.store.UpdateVariantCount(product.ID, len(combos)); err != nil {
		s.recordFailure(models.ErrorKindVariant, rec.SKU, err)
	}
}

// importSpecs reconciles the technical specification sheet for one record.
func (s *Service) importSpecs(ctx context.Context, rec models.CatalogRecord, product *models.Product) {
	specs := s.fetchTechAttributes(ctx, rec.SKU)
	if len(specs) == 0 {
		return
	}

	imported := 0
	for category, attrs := range specs {
		for _, attr := range attrs {
			spec := &models.TechnicalSpec{
				ProductID: product.ID,
				Category:  category,
				Name:      attr.Name,
				Value:     attr.Value,
				Unit:      attr.Unit,
			}
			if err := s.retry(ctx, func() error { return s.store.UpsertTechnicalSpec(spec) }); err != nil {
				s.recordFailure(models.ErrorKindSpec, rec.SKU, err)
				return
			}
			imported++
		}
	}
	if imported > 0 {
		s.mutate(func(st *models.ImportState) { st.Stats.SpecsImported += imported })
	}
}

// accountImages schedules image transfers for the batch, at most
// ConcurrentImageDownloads in flight. Image failures are recorded but never
// count a record as failed; the catalog data already landed.
func (s *Service) accountImages(ctx context.Context, items []importedRecord) {
	sem := make(chan struct{}, s.cfg.ConcurrentImageDownloads)
	var wg sync.WaitGroup

	for _, item := range items {
		for idx := 0; idx < item.rec.ImageCount; idx++ {
			wg.Add(1)
			sem <- struct{}{}
			go func(sku string, index int) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := s.images.Download(ctx, sku, index); err != nil {
					log.Warn().Err(err).Str("sku", sku).Int("image", index).Msg("image transfer failed")
					s.mutate(func(st *models.ImportState) {
						st.Stats.ImagesFailed++
						st.AddError(models.ErrorKindImage, sku, err.Error())
					})
					return
				}
				s.mutate(func(st *models.ImportState) { st.Stats.ImagesDownloaded++ })
			}(item.rec.SKU, idx)
		}
	}
	wg.Wait()
}

// fetchVariantSchema resolves a record's variant schema via the cache, then
// the feed with retries. Exhaustion records a variant error and returns the
// no-result sentinel.
func (s *Service) fetchVariantSchema(ctx context.Context, sku string) *models.VariantSchema {
	if s.cache != nil {
		if schema, ok := s.cache.GetVariantSchema(ctx, sku); ok {
			return schema
		}
	}

	var schema *models.VariantSchema
	err := s.retry(ctx, func() error {
		var e error
		schema, e = s.source.GetVariantSchema(ctx, sku)
		return e
	})
	if err != nil {
		s.recordFailure(models.ErrorKindVariant, sku, err)
		return nil
	}
	if s.cache != nil {
		s.cache.SetVariantSchema(ctx, sku, schema)
	}
	return schema
}

// fetchTechAttributes resolves a record's spec sheet via the cache, then the
// feed with retries; exhaustion records a spec error and yields nil.
func (s *Service) fetchTechAttributes(ctx context.Context, sku string) map[string][]models.TechAttribute {
	if s.cache != nil {
		if specs, ok := s.cache.GetTechnicalAttributes(ctx, sku); ok {
			return specs
		}
	}

	var specs map[string][]models.TechAttribute
	err := s.retry(ctx, func() error {
		var e error
		specs, e = s.source.GetTechnicalAttributes(ctx, sku)
		return e
	})
	if err != nil {
		s.recordFailure(models.ErrorKindSpec, sku, err)
		return nil
	}
	if s.cache != nil {
		s.cache.SetTechnicalAttributes(ctx, sku, specs)
	}
	return specs
}

// runValidation recomputes aggregate counts directly from the store as the
// post-run ground truth, independent of the in-memory counters.
func (s *Service) runValidation() {
	s.setPhase("validation")

	counts := models.StoreCounts{}
	var err error
	read := func(dst *int, fn func() (int, error)) {
		if err != nil {
			return
		}
		*dst, err = fn()
	}
	read(&counts.Products, s.store.CountProducts)
	read(&counts.SimpleProducts, func() (int, error) { return s.store.CountProductsByType(models.ProductTypeSimple) })
	read(&counts.VariableProducts, func() (int, error) { return s.store.CountProductsByType(models.ProductTypeVariable) })
	read(&counts.VariantGroups, s.store.CountVariantGroups)
	read(&counts.VariantOptions, s.store.CountVariantOptions)
	read(&counts.ProductVariants, s.store.CountProductVariants)
	read(&counts.SelectionLinks, s.store.CountSelectionLinks)
	read(&counts.TechnicalSpecs, s.store.CountTechnicalSpecs)

	if err != nil {
		log.Warn().Err(err).Msg("Post-run validation counts unavailable")
		return
	}

	log.Info().
		Int("products", counts.Products).
		Int("variable_products", counts.VariableProducts).
		Int("variant_groups", counts.VariantGroups).
		Int("variant_options", counts.VariantOptions).
		Int("product_variants", counts.ProductVariants).
		Int("selection_links", counts.SelectionLinks).
		Int("technical_specs", counts.TechnicalSpecs).
		Msg("Post-run validation counts")

	s.mutate(func(st *models.ImportState) { st.Validation = &counts })
}

// retry runs op up to MaxRetries times, sleeping RetryDelay × attempt between
// failures, and returns the last error once all attempts are exhausted.
func (s *Service) retry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Int("max", s.cfg.MaxRetries).Msg("operation failed")
		if attempt < s.cfg.MaxRetries {
			if err := sleepCtx(ctx, time.Duration(attempt)*s.cfg.RetryDelay); err != nil {
				return lastErr
			}
		}
	}
	return lastErr
}

// recordFailure logs and appends a typed per-record error; the record is
// skipped and the run continues.
func (s *Service) recordFailure(kind models.ErrorKind, sku string, err error) {
	log.Warn().Err(err).Str("sku", sku).Str("kind", string(kind)).Msg("record skipped")
	s.mutate(func(st *models.ImportState) {
		st.AddError(kind, sku, err.Error())
		st.Batch.Failed++
	})
}

// waitIfPaused blocks while the run is paused; it returns ErrAborted or the
// context error when the wait is interrupted for good.
func (s *Service) waitIfPaused(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.aborted {
			return ErrAborted
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.state.Status != models.ImportStatusPaused {
			return nil
		}
		s.cond.Wait()
	}
}

// transition flips status between two specific states under lock, saving the
// checkpoint and waking the batch loop.
func (s *Service) transition(from, to models.ImportStatus, phase string) error {
	s.mu.Lock()
	if s.state == nil || s.state.Status != from {
		s.mu.Unlock()
		return ErrNotPausable
	}
	s.state.Status = to
	s.state.Phase = phase
	s.state.UpdatedAt = time.Now()
	s.saveLocked()
	snapshot := s.state.Clone()
	s.cond.Broadcast()
	s.mu.Unlock()

	log.Info().Str("status", string(to)).Msg("Import status changed")
	s.notify(snapshot)
	return nil
}

// fail moves the run to failed with the given phase label.
func (s *Service) fail(phase string, err error) {
	log.Error().Err(err).Str("phase", phase).Msg("Import run failed")
	s.mutate(func(st *models.ImportState) {
		st.Status = models.ImportStatusFailed
		st.Phase = phase
		st.EstimatedCompletion = nil
	})
}

// failWith maps an interruption error onto the failed state with the
// distinguished abort label when applicable.
func (s *Service) failWith(err error) error {
	if errors.Is(err, ErrAborted) {
		s.fail("aborted by user", err)
	} else {
		s.fail("cancelled", err)
	}
	return err
}

// setPhase records the current sub-phase label.
func (s *Service) setPhase(phase string) {
	s.mutate(func(st *models.ImportState) { st.Phase = phase })
}

// mutate applies fn to the run state under lock, persists the checkpoint, and
// only then notifies the observer, so the durable snapshot always leads any
// externally observable effect.
func (s *Service) mutate(fn func(st *models.ImportState)) {
	s.mu.Lock()
	fn(s.state)
	s.state.UpdatedAt = time.Now()
	s.saveLocked()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
}

// saveLocked writes the checkpoint; callers hold s.mu.
func (s *Service) saveLocked() {
	if err := s.checkpoints.Save(s.state); err != nil {
		log.Error().Err(err).Msg("failed to save checkpoint")
	}
}

func (s *Service) notify(snapshot *models.ImportState) {
	if s.observer != nil {
		s.observer(snapshot)
	}
}

// productFromRecord maps a source record onto the persisted product shape.
// Kind and variant count start out simple/0 and are corrected by the variant
// phase once the real combination count is known.
func productFromRecord(rec models.CatalogRecord) *models.Product {
	status := models.ProductStatusActive
	if rec.Availability == "discontinued" {
		status = models.ProductStatusDraft
	}
	p := &models.Product{
		Title:       rec.Name,
		Handle:      combination.DeriveHandle(rec.Name + "-" + rec.SKU),
		Description: rec.Description,
		Price:       rec.Price,
		RetailPrice: rec.RetailPrice,
		Category:    rec.Category,
		ProductType: models.ProductTypeSimple,
		Status:      status,
	}
	p.SKU.String = rec.SKU
	p.SKU.Valid = true
	return p
}

// partition splits records into fixed-size batches, the last one short.
func partition(records []models.CatalogRecord, size int) [][]models.CatalogRecord {
	if size <= 0 {
		size = 1
	}
	var batches [][]models.CatalogRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
