package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/izerwaren/catalog-importer/internal/importer"
)

// ImportWorker periodically kicks off a full catalog import.
type ImportWorker struct {
	svc      *importer.Service
	interval time.Duration
}

// NewImportWorker constructs an ImportWorker.
func NewImportWorker(svc *importer.Service, interval time.Duration) *ImportWorker {
	return &ImportWorker{svc: svc, interval: interval}
}

// Start begins the periodic import loop and listens for context cancellation.
func (w *ImportWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting scheduled import worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Import worker stopped")
			return
		}
	}
}

func (w *ImportWorker) run(ctx context.Context) {
	log.Info().Msg("Scheduled import starting...")

	err := w.svc.Run(ctx)
	switch {
	case err == nil:
		log.Info().Msg("Scheduled import completed")
	case errors.Is(err, importer.ErrImportRunning):
		// An operator-triggered run is active; skip this tick.
		log.Info().Msg("Scheduled import skipped, run already in progress")
	case errors.Is(err, context.Canceled):
	default:
		log.Error().Err(err).Msg("Scheduled import failed")
	}
}
