package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kerani-system/internal/database"
	"kerani-system/internal/database/models"
	"kerani-system/internal/gateway/middleware"
	"kerani-system/internal/services/transfers"
)

type TransferHTTPHandler struct {
	service *transfers.Service
	store   *database.Store
}

func NewTransferHTTPHandler(service *transfers.Service, store *database.Store) *TransferHTTPHandler {
	return &TransferHTTPHandler{service: service, store: store}
}

type transferItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int64 `json:"quantity" binding:"required,gt=0"`
}

type createTransferRequest struct {
	FromWarehouseID int64                 `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   int64                 `json:"to_warehouse_id" binding:"required"`
	Notes           *string               `json:"notes"`
	Items           []transferItemRequest `json:"items" binding:"required,min=1,dive"`
}

type advanceTransferRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_TRANSIT COMPLETED"`
	Items  []struct {
		ItemID              int64 `json:"item_id" binding:"required"`
		TransferredQuantity int64 `json:"transferred_quantity"`
	} `json:"items"`
}

func (h *TransferHTTPHandler) CreateTransfer(c *gin.Context) {
	var req createTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input := transfers.TransferInput{
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Notes:           req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, transfers.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	transfer, err := h.service.CreateStockTransfer(c.Request.Context(), input, middleware.CallerID(c))
	if err != nil {
		engineError(c, err)
		return
	}
	created(c, transfer)
}

func (h *TransferHTTPHandler) AdvanceTransfer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid transfer ID")
		return
	}

	var req advanceTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var fulfilled []transfers.FulfilledItem
	for _, item := range req.Items {
		fulfilled = append(fulfilled, transfers.FulfilledItem{
			ItemID:              item.ItemID,
			TransferredQuantity: item.TransferredQuantity,
		})
	}

	transfer, err := h.service.AdvanceTransfer(c.Request.Context(), id,
		models.TransferStatus(req.Status), fulfilled, middleware.CallerID(c))
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, transfer)
}

func (h *TransferHTTPHandler) CancelTransfer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid transfer ID")
		return
	}

	transfer, err := h.service.CancelTransfer(c.Request.Context(), id, middleware.CallerID(c))
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, transfer)
}

func (h *TransferHTTPHandler) GetTransfer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid transfer ID")
		return
	}

	transfer, err := h.store.TransferByID(c.Request.Context(), id)
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, transfer)
}

func (h *TransferHTTPHandler) ListTransfers(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filter := database.TransfersFilter{
		WarehouseID: parseInt64Query(c, "warehouse_id"),
		Page:        page,
		PageSize:    pageSize,
	}
	if status := c.Query("status"); status != "" {
		s := models.TransferStatus(status)
		filter.Status = &s
	}

	list, total, err := h.store.ListTransfers(c.Request.Context(), filter)
	if err != nil {
		engineError(c, err)
		return
	}
	successList(c, list, total, page, pageSize)
}
