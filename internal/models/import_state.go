package models

import "time"

// ImportStatus is the lifecycle state of an import run.
type ImportStatus string

const (
	ImportStatusInitializing ImportStatus = "initializing"
	ImportStatusInProgress   ImportStatus = "in_progress"
	ImportStatusPaused       ImportStatus = "paused"
	ImportStatusCompleted    ImportStatus = "completed"
	ImportStatusFailed       ImportStatus = "failed"
)

// ErrorKind classifies a per-record import failure by the phase it occurred in.
type ErrorKind string

const (
	ErrorKindProduct ErrorKind = "product"
	ErrorKindVariant ErrorKind = "variant"
	ErrorKindSpec    ErrorKind = "spec"
	ErrorKindImage   ErrorKind = "image"
)

// ImportError is one recorded per-record failure. The list on ImportState is
// append-only and serves both live aggregation and post-run reporting.
type ImportError struct {
	Kind    ErrorKind `json:"kind"`
	SKU     string    `json:"sku"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// BatchProgress tracks position within the batch loop.
type BatchProgress struct {
	Current   int `json:"current"`
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ImportStats aggregates per-entity-kind counters for a run.
type ImportStats struct {
	ProductsCreated       int `json:"productsCreated"`
	ProductsUpdated       int `json:"productsUpdated"`
	ProductsSkipped       int `json:"productsSkipped"`
	VariantGroupsCreated  int `json:"variantGroupsCreated"`
	VariantOptionsCreated int `json:"variantOptionsCreated"`
	VariantsCreated       int `json:"variantsCreated"`
	VariantsSkipped       int `json:"variantsSkipped"`
	SpecsImported         int `json:"specsImported"`
	ImagesDownloaded      int `json:"imagesDownloaded"`
	ImagesFailed          int `json:"imagesFailed"`
}

// StoreCounts is the post-run ground truth recomputed directly from the
// persisted store, independent of the in-memory counters.
type StoreCounts struct {
	Products         int `json:"products"`
	SimpleProducts   int `json:"simpleProducts"`
	VariableProducts int `json:"variableProducts"`
	VariantGroups    int `json:"variantGroups"`
	VariantOptions   int `json:"variantOptions"`
	ProductVariants  int `json:"productVariants"`
	SelectionLinks   int `json:"selectionLinks"`
	TechnicalSpecs   int `json:"technicalSpecs"`
}

// ImportState is the full run record. It has a fresh identity per run, is
// mutated only by the orchestrator, and is checkpointed after every mutation.
type ImportState struct {
	ID                  string        `json:"id"`
	Status              ImportStatus  `json:"status"`
	Phase               string        `json:"phase"`
	Batch               BatchProgress `json:"batch"`
	Stats               ImportStats   `json:"stats"`
	Errors              []ImportError `json:"errors"`
	Validation          *StoreCounts  `json:"validation,omitempty"`
	StartedAt           time.Time     `json:"startedAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
	EstimatedCompletion *time.Time    `json:"estimatedCompletion,omitempty"`
}

// AddError appends a typed error to the run record.
func (s *ImportState) AddError(kind ErrorKind, sku, message string) {
	s.Errors = append(s.Errors, ImportError{
		Kind:    kind,
		SKU:     sku,
		Message: message,
		At:      time.Now(),
	})
}

// ErrorCountsByKind groups the error list for reporting.
func (s *ImportState) ErrorCountsByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, e := range s.Errors {
		counts[e.Kind]++
	}
	return counts
}

// Clone returns a deep copy safe to hand to observers and reporters while
// the orchestrator keeps mutating the original.
func (s *ImportState) Clone() *ImportState {
	c := *s
	c.Errors = append([]ImportError(nil), s.Errors...)
	if s.Validation != nil {
		v := *s.Validation
		c.Validation = &v
	}
	if s.EstimatedCompletion != nil {
		t := *s.EstimatedCompletion
		c.EstimatedCompletion = &t
	}
	return &c
}

// IsTerminal reports whether the run can no longer progress.
func (s *ImportState) IsTerminal() bool {
	return s.Status == ImportStatusCompleted || s.Status == ImportStatusFailed
}
