// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalog/location"
	"stockledger/internal/domain/catalog/product"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

// RouterConfig holds the services the router exposes.
type RouterConfig struct {
	Pool            *postgres.Pool
	Logger          *logger.Logger
	LedgerService   *ledger.Service
	Advisor         *ledger.Advisor
	ProductService  *product.Service
	LocationService *location.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/healthz", healthHandler.Live)
	router.GET("/readyz", healthHandler.Ready)

	moveHandler := handlers.NewMoveHandler(cfg.LedgerService)
	batchHandler := handlers.NewBatchHandler(cfg.LedgerService)
	levelHandler := handlers.NewLevelHandler(cfg.LedgerService)
	reorderHandler := handlers.NewReorderHandler(cfg.Advisor)
	productHandler := handlers.NewProductHandler(cfg.ProductService)
	locationHandler := handlers.NewLocationHandler(cfg.LocationService)

	api := router.Group("/api/v1")
	{
		moves := api.Group("/moves")
		{
			moves.POST("", moveHandler.Create)
			moves.GET("", moveHandler.List)
			moves.GET("/:id", moveHandler.Get)
			moves.DELETE("/:id", moveHandler.Delete)
			// Ledger records never change in place.
			moves.PUT("/:id", moveHandler.MethodNotAllowed)
			moves.PATCH("/:id", moveHandler.MethodNotAllowed)
		}

		batches := api.Group("/batches")
		{
			batches.POST("", batchHandler.Create)
			batches.GET("", batchHandler.List)
			batches.GET("/:id", batchHandler.Get)
			batches.DELETE("/:id", batchHandler.Delete)
			batches.PUT("/:id", batchHandler.MethodNotAllowed)
			batches.PATCH("/:id", batchHandler.MethodNotAllowed)
		}

		api.GET("/levels", levelHandler.List)
		api.GET("/reorder-suggestions", reorderHandler.Suggest)

		products := api.Group("/products")
		{
			products.POST("", productHandler.Create)
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
		}

		locations := api.Group("/locations")
		{
			locations.POST("", locationHandler.Create)
			locations.GET("", locationHandler.List)
			locations.GET("/:id", locationHandler.Get)
			locations.PUT("/:id", locationHandler.Update)
			locations.DELETE("/:id", locationHandler.Delete)
		}
	}

	return router
}
