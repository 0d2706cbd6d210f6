package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kerani-system/internal/database"
	"kerani-system/internal/gateway/middleware"
	"kerani-system/internal/services/inventory"
)

type StockHTTPHandler struct {
	ledger *inventory.Ledger
	store  *database.Store
}

func NewStockHTTPHandler(ledger *inventory.Ledger, store *database.Store) *StockHTTPHandler {
	return &StockHTTPHandler{ledger: ledger, store: store}
}

type adjustStockRequest struct {
	ProductID   int64  `json:"product_id" binding:"required"`
	WarehouseID int64  `json:"warehouse_id" binding:"required"`
	NewQuantity *int64 `json:"new_quantity" binding:"required"`
	Reference   string `json:"reference"`
}

func (h *StockHTTPHandler) GetAvailable(c *gin.Context) {
	productID := parseInt64Query(c, "product_id")
	warehouseID := parseInt64Query(c, "warehouse_id")
	if productID == nil || warehouseID == nil {
		fail(c, http.StatusBadRequest, "product_id and warehouse_id are required")
		return
	}

	available, err := h.ledger.Available(c.Request.Context(), *productID, *warehouseID)
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, gin.H{
		"product_id":   *productID,
		"warehouse_id": *warehouseID,
		"available":    available,
	})
}

func (h *StockHTTPHandler) AdjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reference := req.Reference
	if reference == "" {
		reference = "stock adjustment"
	}

	err := h.ledger.AdjustStock(c.Request.Context(), req.ProductID, req.WarehouseID,
		*req.NewQuantity, reference, middleware.CallerID(c))
	if err != nil {
		engineError(c, err)
		return
	}

	available, err := h.ledger.Available(c.Request.Context(), req.ProductID, req.WarehouseID)
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, gin.H{
		"product_id":   req.ProductID,
		"warehouse_id": req.WarehouseID,
		"available":    available,
	})
}

func (h *StockHTTPHandler) ListMovements(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filter := database.MovementsFilter{
		ProductID:   parseInt64Query(c, "product_id"),
		WarehouseID: parseInt64Query(c, "warehouse_id"),
		Reference:   parseStringQuery(c, "reference"),
		Page:        page,
		PageSize:    pageSize,
	}

	list, total, err := h.store.ListMovements(c.Request.Context(), filter)
	if err != nil {
		engineError(c, err)
		return
	}
	successList(c, list, total, page, pageSize)
}

func (h *StockHTTPHandler) ListLowStock(c *gin.Context) {
	list, err := h.store.LowStock(c.Request.Context(), parseInt64Query(c, "warehouse_id"))
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, list)
}
