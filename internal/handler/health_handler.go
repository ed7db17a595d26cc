package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/izerwaren/catalog-importer/internal/repository"
	"github.com/izerwaren/catalog-importer/internal/utils"
	"github.com/izerwaren/catalog-importer/pkg/izerwaren"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	feed  *izerwaren.Client
	store *repository.CatalogStore
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(feed *izerwaren.Client, store *repository.CatalogStore) *HealthHandler {
	return &HealthHandler{feed: feed, store: store}
}

// GetHealth responds with service, feed, and database status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	feedStatus := "connected"
	if err := h.feed.Ping(c.Request.Context()); err != nil {
		feedStatus = "disconnected"
	}

	dbStatus := "connected"
	if err := h.store.Ping(); err != nil {
		dbStatus = "disconnected"
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  int(time.Since(startTime).Seconds()),
		"feed": gin.H{
			"status": feedStatus,
		},
		"database": gin.H{
			"status": dbStatus,
		},
	})
}
