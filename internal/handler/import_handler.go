package handler

import (
	"bytes"
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/izerwaren/catalog-importer/internal/importer"
	"github.com/izerwaren/catalog-importer/internal/utils"
)

// ImportHandler exposes the import run control surface for operators.
type ImportHandler struct {
	svc         *importer.Service
	monitor     *importer.Monitor
	checkpoints *importer.CheckpointStore
	// appCtx bounds background runs to the process lifetime so a server
	// shutdown aborts an in-flight import cleanly.
	appCtx context.Context
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(appCtx context.Context, svc *importer.Service, monitor *importer.Monitor, checkpoints *importer.CheckpointStore) *ImportHandler {
	return &ImportHandler{
		svc:         svc,
		monitor:     monitor,
		checkpoints: checkpoints,
		appCtx:      appCtx,
	}
}

// StartImport launches a new import run in the background.
func (h *ImportHandler) StartImport(c *gin.Context) {
	if h.svc.Running() {
		utils.Error(c, 409, "IMPORT_RUNNING", "An import run is already in progress")
		return
	}

	go func() {
		if err := h.svc.Run(h.appCtx); err != nil && !errors.Is(err, importer.ErrImportRunning) {
			log.Error().Err(err).Msg("Background import run ended with error")
		}
	}()

	utils.Success(c, 202, "Import started", nil)
}

// PauseImport pauses the active run at the next batch boundary.
func (h *ImportHandler) PauseImport(c *gin.Context) {
	if err := h.svc.Pause(); err != nil {
		utils.Error(c, 409, "NOT_PAUSABLE", "No pausable import run is in progress")
		return
	}
	utils.Success(c, 200, "Import paused", nil)
}

// ResumeImport resumes a paused run.
func (h *ImportHandler) ResumeImport(c *gin.Context) {
	if err := h.svc.Resume(); err != nil {
		utils.Error(c, 409, "NOT_PAUSED", "No paused import run to resume")
		return
	}
	utils.Success(c, 200, "Import resumed", nil)
}

// AbortImport requests termination of the active run.
func (h *ImportHandler) AbortImport(c *gin.Context) {
	if !h.svc.Running() {
		utils.Error(c, 409, "NOT_RUNNING", "No import run is in progress")
		return
	}
	h.svc.Abort()
	utils.Success(c, 202, "Import abort requested", nil)
}

// GetStatus returns the last checkpointed run state.
func (h *ImportHandler) GetStatus(c *gin.Context) {
	state, err := h.checkpoints.Load()
	if err != nil {
		utils.Error(c, 500, "CHECKPOINT_UNREADABLE", "Failed to load import state")
		return
	}
	if state == nil {
		utils.Error(c, 404, "NO_IMPORT", "No import has been run yet")
		return
	}
	utils.Success(c, 200, "Import status", state)
}

// GetReport renders the human-readable post-run report.
func (h *ImportHandler) GetReport(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.monitor.GenerateReport(&buf); err != nil {
		utils.Error(c, 500, "REPORT_FAILED", "Failed to generate import report")
		return
	}
	c.String(200, buf.String())
}
