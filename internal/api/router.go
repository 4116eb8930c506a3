package api

import (
	"github.com/drivesearch/drivesearch/internal/api/handler"
	"github.com/drivesearch/drivesearch/internal/api/middleware"
	"github.com/drivesearch/drivesearch/internal/config"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/service"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	searchService *service.SearchService,
	libraryService *service.LibraryService,
	exportService *service.ExportService,
	log *logger.Logger,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	searchHandler := handler.NewSearchHandler(searchService)
	videoHandler := handler.NewVideoHandler(libraryService, cfg.Upload.MaxSizeBytes)
	exportHandler := handler.NewExportHandler(exportService)

	// Health check stays open; everything under /api/v1 requires a token.
	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.BearerAuth(cfg.Server.AuthTokens))
	{
		// Search
		v1.POST("/search/text", searchHandler.TextSearch)
		v1.POST("/search/image", searchHandler.ImageSearch)

		// Video library
		v1.GET("/videos", videoHandler.List)
		v1.POST("/videos/upload", videoHandler.Upload)
		v1.GET("/videos/:id", videoHandler.Get)
		v1.DELETE("/videos/:id", videoHandler.Delete)

		// Exports
		v1.POST("/export", exportHandler.Create)
		v1.GET("/export/:id", exportHandler.Get)
		v1.GET("/export/:id/download", exportHandler.Download)
		v1.DELETE("/export/:id", exportHandler.Delete)
	}

	return r
}
