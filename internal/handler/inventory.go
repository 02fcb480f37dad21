package handler

import (
	"net/http"
	"strconv"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/repository"
	"posledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct{ svc service.LedgerService }

func NewInventoryHandler(svc service.LedgerService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// AdjustStock godoc
// @Summary      Manual stock adjustment
// @Description  Applies a signed delta through the movement ledger. Negative deltas cannot drive stock below zero.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AdjustStockRequest true "Adjustment detail"
// @Success      201  {object} dto.MovementResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/inventory/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, businessID := actor(c)

	resp, err := h.svc.RecordAdjustment(c.Request.Context(), userID, businessID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements godoc
// @Summary      Movement ledger
// @Description  Paginated movement history, optionally filtered by product and type.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query string false "Product UUID"
// @Param        type       query string false "initial | sale | return | adjustment"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 100)"
// @Success      200 {object} dto.MovementListResponse
// @Router       /v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	filter := repository.MovementFilter{Type: c.Query("type")}
	if pid := c.Query("product_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid product_id"))
			return
		}
		filter.ProductID = &id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentStock godoc
// @Summary      Current stock of a product
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.StockResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/inventory/stock/{id} [get]
func (h *InventoryHandler) CurrentStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	stock, err := h.svc.CurrentStock(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
		return
	}
	c.JSON(http.StatusOK, dto.StockResponse{ProductID: id.String(), Stock: stock})
}

// LowStockAlerts godoc
// @Summary      Products at or below their minimum
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.LowStockAlertResponse
// @Router       /v1/inventory/alerts [get]
func (h *InventoryHandler) LowStockAlerts(c *gin.Context) {
	_, businessID := actor(c)

	resp, err := h.svc.LowStockAlerts(c.Request.Context(), businessID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyProduct godoc
// @Summary      Verify ledger consistency for a product
// @Description  Recomputes the sum of movement deltas and compares it with the stored stock.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} map[string]bool
// @Failure      500 {object} apierror.APIError
// @Router       /v1/inventory/verify/{id} [get]
func (h *InventoryHandler) VerifyProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.VerifyProduct(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consistent": true})
}
