package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/paperbase/paperbase/internal/blob"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/gemini"
	"github.com/paperbase/paperbase/internal/repository"
	"github.com/paperbase/paperbase/internal/service"
	"github.com/paperbase/paperbase/internal/transform"
)

func SetupRouter(cfg *config.Config, db *gorm.DB, blobs blob.Store) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Health check endpoints
	r.GET("/health", healthCheck)
	r.GET("/ready", readinessCheck(db))
	r.GET("/live", livenessCheck)

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":      "Paperbase",
			"version":      "1.0.0",
			"status":       "running",
			"health_check": "/health",
		})
	})

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	unitRepo := repository.NewUnitRepository(db)

	// Initialize the Gemini client
	gem := gemini.NewClient(gemini.Config{
		APIKeys:         cfg.APIKeys(),
		BaseURL:         cfg.GeminiBaseURL,
		EmbeddingModel:  cfg.GeminiEmbeddingModel,
		GenerationModel: cfg.GeminiGenerationModel,
		EmbedTimeout:    time.Duration(cfg.GeminiEmbedTimeoutSec) * time.Second,
		GenTimeout:      time.Duration(cfg.GeminiGenTimeoutSec) * time.Second,
		Temperature:     cfg.GeminiTemperature,
		MaxOutputTokens: cfg.GeminiMaxTokens,
	})

	transformer := transform.New(
		transform.WithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
		transform.WithRowsPerUnit(cfg.TabularRowsPerUnit),
	)

	// Initialize services
	treeSvc := service.NewTreeService(itemRepo, unitRepo, blobs)
	embedSvc := service.NewEmbedService(gem, unitRepo)

	// Background sweep over FAILED units. SWEEP_INTERVAL_SEC=0 disables it.
	if cfg.SweepIntervalSec > 0 {
		go embedSvc.RunSweeper(context.Background(),
			time.Duration(cfg.SweepIntervalSec)*time.Second, cfg.SweepBatch)
	}
	ingestSvc := service.NewIngestService(treeSvc, embedSvc, itemRepo, unitRepo, transformer, cfg.EmbedWorkers)
	retrieveSvc := service.NewRetrieveService(embedSvc, unitRepo)
	chatSvc := service.NewChatService(retrieveSvc, gem)

	// Initialize handlers
	folderHandler := NewFolderHandler(treeSvc)
	fileHandler := NewFileHandler(ingestSvc, embedSvc, treeSvc, cfg.MaxUploadBytes)
	chatHandler := NewChatHandler(chatSvc)

	// API v1
	v1 := r.Group("/v1")
	{
		// Folders and tree structure
		folders := v1.Group("/folders")
		{
			folders.POST("", folderHandler.Create)
		}
		v1.GET("/nodes", folderHandler.ListChildren)
		v1.GET("/tree", folderHandler.Tree)
		v1.POST("/nodes/:id/move", folderHandler.Move)
		v1.DELETE("/nodes/:id", folderHandler.Delete)

		// Files
		files := v1.Group("/files")
		{
			files.GET("", fileHandler.List)
			files.POST("", fileHandler.Upload)
			files.GET("/:id", fileHandler.Get)
			files.GET("/:id/units", fileHandler.ListUnits)
			files.POST("/:id/reembed", fileHandler.Reembed)
		}

		// Chat
		v1.POST("/chat", chatHandler.Ask)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "paperbase",
	})
}

func readinessCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
