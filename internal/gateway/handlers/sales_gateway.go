package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kerani-system/internal/database"
	"kerani-system/internal/database/models"
	"kerani-system/internal/gateway/middleware"
	"kerani-system/internal/services/sales"
)

type SalesHTTPHandler struct {
	service *sales.Service
	store   *database.Store
}

func NewSalesHTTPHandler(service *sales.Service, store *database.Store) *SalesHTTPHandler {
	return &SalesHTTPHandler{service: service, store: store}
}

type saleItemRequest struct {
	ProductID      int64   `json:"product_id" binding:"required"`
	Quantity       int64   `json:"quantity" binding:"required,gt=0"`
	UnitPrice      *string `json:"unit_price"`
	DiscountAmount *string `json:"discount_amount"`
}

type createSaleRequest struct {
	WarehouseID    int64             `json:"warehouse_id" binding:"required"`
	SaleType       string            `json:"sale_type" binding:"required,oneof=RETAIL WHOLESALE ONLINE"`
	CustomerName   *string           `json:"customer_name"`
	CustomerPhone  *string           `json:"customer_phone"`
	DiscountAmount *string           `json:"discount_amount"`
	TaxAmount      *string           `json:"tax_amount"`
	Notes          *string           `json:"notes"`
	Items          []saleItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (h *SalesHTTPHandler) CreateSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input := sales.SaleInput{
		WarehouseID:    req.WarehouseID,
		SaleType:       models.SaleType(req.SaleType),
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
		Notes:          req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, sales.ItemInput{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
		})
	}

	var cashierID *int64
	if id := middleware.CallerID(c); id != 0 {
		cashierID = &id
	}

	sale, err := h.service.CreateSale(c.Request.Context(), input, cashierID)
	if err != nil {
		engineError(c, err)
		return
	}
	created(c, sale)
}

func (h *SalesHTTPHandler) CompleteSale(c *gin.Context) {
	h.advance(c, h.service.CompleteSale)
}

func (h *SalesHTTPHandler) CancelSale(c *gin.Context) {
	h.advance(c, h.service.CancelSale)
}

func (h *SalesHTTPHandler) RefundSale(c *gin.Context) {
	h.advance(c, h.service.RefundSale)
}

func (h *SalesHTTPHandler) GetSale(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid sale ID")
		return
	}

	sale, err := h.store.SaleByID(c.Request.Context(), id)
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, sale)
}

func (h *SalesHTTPHandler) ListSales(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filter := database.SalesFilter{
		WarehouseID: parseInt64Query(c, "warehouse_id"),
		Page:        page,
		PageSize:    pageSize,
	}
	if status := c.Query("status"); status != "" {
		s := models.SaleStatus(status)
		filter.Status = &s
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid start_date, want YYYY-MM-DD")
			return
		}
		filter.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid end_date, want YYYY-MM-DD")
			return
		}
		end := t.AddDate(0, 0, 1)
		filter.EndDate = &end
	}

	list, total, err := h.store.ListSales(c.Request.Context(), filter)
	if err != nil {
		engineError(c, err)
		return
	}
	successList(c, list, total, page, pageSize)
}

func (h *SalesHTTPHandler) advance(c *gin.Context, op func(ctx context.Context, saleID, actor int64) (*models.Sale, error)) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid sale ID")
		return
	}

	sale, err := op(c.Request.Context(), id, middleware.CallerID(c))
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, sale)
}
