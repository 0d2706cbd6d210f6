package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kerani-system/internal/database"
	"kerani-system/internal/database/models"
	"kerani-system/internal/gateway/middleware"
	"kerani-system/internal/services/packing"
)

type PackingHTTPHandler struct {
	service *packing.Service
	store   *database.Store
}

func NewPackingHTTPHandler(service *packing.Service, store *database.Store) *PackingHTTPHandler {
	return &PackingHTTPHandler{service: service, store: store}
}

type advancePackingRequest struct {
	Status       string  `json:"status" binding:"required,oneof=IN_PROGRESS PACKED SHIPPED"`
	TrackingInfo *string `json:"tracking_info"`
	Notes        *string `json:"notes"`
}

func (h *PackingHTTPHandler) AdvancePacking(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid packing ID")
		return
	}

	var req advancePackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.service.AdvancePacking(c.Request.Context(), id,
		models.PackingStatus(req.Status),
		packing.AdvanceInput{TrackingInfo: req.TrackingInfo, Notes: req.Notes},
		middleware.CallerID(c))
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, record)
}

func (h *PackingHTTPHandler) GetPacking(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid packing ID")
		return
	}

	record, err := h.store.PackingByID(c.Request.Context(), id)
	if err != nil {
		engineError(c, err)
		return
	}
	success(c, record)
}

func (h *PackingHTTPHandler) ListPackings(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var status *models.PackingStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PackingStatus(raw)
		status = &s
	}

	list, total, err := h.store.ListPackings(c.Request.Context(), status, page, pageSize)
	if err != nil {
		engineError(c, err)
		return
	}
	successList(c, list, total, page, pageSize)
}
