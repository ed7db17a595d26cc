package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/izerwaren/catalog-importer/internal/cache"
	"github.com/izerwaren/catalog-importer/internal/config"
	"github.com/izerwaren/catalog-importer/internal/database"
	"github.com/izerwaren/catalog-importer/internal/handler"
	"github.com/izerwaren/catalog-importer/internal/importer"
	"github.com/izerwaren/catalog-importer/internal/middleware"
	"github.com/izerwaren/catalog-importer/internal/repository"
	"github.com/izerwaren/catalog-importer/internal/utils"
	"github.com/izerwaren/catalog-importer/internal/worker"
	"github.com/izerwaren/catalog-importer/pkg/izerwaren"
)

// main is the application entrypoint for the catalog importer service.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting catalog importer")

	utils.InitJWT(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.Migrate(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. The feed cache tolerates a nil client, so a Redis
	// outage degrades to uncached feed calls instead of blocking imports.
	var redisClient *cache.RedisClient
	if redisClient, err = cache.NewRedisClient(&cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("redis connection failed - feed caching disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("redis connected successfully")
	}
	feedCache := cache.NewFeedCache(redisClient)

	// 4. Initialize the catalog feed client
	feedClient := izerwaren.NewClient(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Source.PageSize)

	// 5. Initialize store and checkpoint persistence
	store := repository.NewCatalogStore(db)
	checkpoints := importer.NewCheckpointStore(cfg.Import.CheckpointPath)

	// 6. Initialize the import service and monitor
	importSvc := importer.NewService(cfg.Import, feedClient, store, checkpoints)
	importSvc.SetSchemaCache(feedCache)
	monitor := importer.NewMonitor(checkpoints)

	// 7. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 8. Initialize handlers
	healthHandler := handler.NewHealthHandler(feedClient, store)
	importHandler := handler.NewImportHandler(ctx, importSvc, monitor, checkpoints)

	// 9. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 10. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, healthHandler, importHandler, jwtMw)

	// 11. Start scheduled import worker
	if cfg.Worker.Enabled {
		go worker.NewImportWorker(importSvc, cfg.Worker.ImportInterval).Start(ctx)
	}

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop the worker and any in-flight import
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, health *handler.HealthHandler, imports *handler.ImportHandler, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", health.GetHealth)

	// Admin import control routes (protected with operator JWT)
	admin := router.Group("/v1/admin")
	admin.Use(jwtMiddleware.Handle())
	{
		admin.POST("/import/start", imports.StartImport)
		admin.POST("/import/pause", imports.PauseImport)
		admin.POST("/import/resume", imports.ResumeImport)
		admin.POST("/import/abort", imports.AbortImport)
		admin.GET("/import/status", imports.GetStatus)
		admin.GET("/import/report", imports.GetReport)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
