package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kerani-system/internal/core"
	"kerani-system/internal/store"
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func successList(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"meta": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// engineError maps the engines' typed errors onto HTTP statuses. Conflict
// covers both stock shortages and illegal lifecycle moves; invariant
// violations are server bugs and say so.
func engineError(c *gin.Context, err error) {
	var (
		notFound     *core.NotFoundError
		validation   *core.ValidationError
		insufficient *core.InsufficientStockError
		mismatch     *core.InvalidWarehouseForSaleTypeError
		same         *core.SameWarehouseError
		transition   *core.InvalidStateTransitionError
		below        *core.BelowReservedError
		violation    *core.InvariantViolationError
	)

	switch {
	case errors.As(err, &notFound):
		fail(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"success":   false,
			"error":     insufficient.Error(),
			"shortages": insufficient.Shortages,
		})
	case errors.As(err, &transition):
		fail(c, http.StatusConflict, transition.Error())
	case errors.As(err, &below):
		fail(c, http.StatusConflict, below.Error())
	case errors.As(err, &validation):
		fail(c, http.StatusBadRequest, validation.Error())
	case errors.As(err, &mismatch):
		fail(c, http.StatusBadRequest, mismatch.Error())
	case errors.As(err, &same):
		fail(c, http.StatusBadRequest, same.Error())
	case errors.As(err, &violation):
		fail(c, http.StatusInternalServerError, violation.Error())
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "record not found")
	default:
		fail(c, http.StatusInternalServerError, "internal error: "+err.Error())
	}
}

func parseIDParam(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

func parseInt64Query(c *gin.Context, param string) *int64 {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil
	}
	return &val
}

func parseStringQuery(c *gin.Context, param string) *string {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	return &str
}

func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
