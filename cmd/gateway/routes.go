package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kerani-system/config"
	"kerani-system/internal/database"
	"kerani-system/internal/gateway/handlers"
	"kerani-system/internal/gateway/middleware"
	"kerani-system/internal/services/inventory"
	"kerani-system/internal/services/packing"
	"kerani-system/internal/services/sales"
	"kerani-system/internal/services/transfers"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	store := database.NewStore(db)

	ledger := inventory.NewLedger(store, redisClient, logger)
	salesService := sales.NewService(store, ledger, store, store, store, logger)
	transferService := transfers.NewService(store, ledger, store, store, logger)
	packingService := packing.NewService(store, logger)

	salesHandler := handlers.NewSalesHTTPHandler(salesService, store)
	transferHandler := handlers.NewTransferHTTPHandler(transferService, store)
	packingHandler := handlers.NewPackingHTTPHandler(packingService, store)
	stockHandler := handlers.NewStockHTTPHandler(ledger, store)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit())

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret)))
	{
		salesGroup := protected.Group("/sales")
		{
			salesGroup.POST("", salesHandler.CreateSale)
			salesGroup.GET("", salesHandler.ListSales)
			salesGroup.GET("/:id", salesHandler.GetSale)
			salesGroup.POST("/:id/complete", salesHandler.CompleteSale)
			salesGroup.POST("/:id/cancel", salesHandler.CancelSale)
			salesGroup.POST("/:id/refund", salesHandler.RefundSale)
		}

		transfersGroup := protected.Group("/transfers")
		{
			transfersGroup.POST("", transferHandler.CreateTransfer)
			transfersGroup.GET("", transferHandler.ListTransfers)
			transfersGroup.GET("/:id", transferHandler.GetTransfer)
			transfersGroup.POST("/:id/advance", transferHandler.AdvanceTransfer)
			transfersGroup.POST("/:id/cancel", transferHandler.CancelTransfer)
		}

		packingsGroup := protected.Group("/packings")
		{
			packingsGroup.GET("", packingHandler.ListPackings)
			packingsGroup.GET("/:id", packingHandler.GetPacking)
			packingsGroup.POST("/:id/advance", packingHandler.AdvancePacking)
		}

		stockGroup := protected.Group("/stock")
		{
			stockGroup.GET("/available", stockHandler.GetAvailable)
			stockGroup.POST("/adjust", stockHandler.AdjustStock)
			stockGroup.GET("/movements", stockHandler.ListMovements)
			stockGroup.GET("/low", stockHandler.ListLowStock)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	port := ":" + cfg.HTTP.Port
	logger.Info("Starting server", zap.String("port", port))
	if err := r.Run(port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
