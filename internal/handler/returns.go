package handler

import (
	"net/http"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReturnsHandler struct{ svc service.ReturnService }

func NewReturnsHandler(svc service.ReturnService) *ReturnsHandler { return &ReturnsHandler{svc: svc} }

// CreateReturn godoc
// @Summary      Process a return
// @Description  Validates against prior returns, restocks through the ledger and, for refund-bearing types, writes a negative cash movement in the original payment method.
// @Tags         returns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateReturnRequest true "Return detail"
// @Success      201  {object} dto.ReturnResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/returns [post]
func (h *ReturnsHandler) CreateReturn(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, businessID := actor(c)

	resp, err := h.svc.CreateReturn(c.Request.Context(), userID, businessID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetReturn godoc
// @Summary      Get one return
// @Tags         returns
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Return UUID"
// @Success      200 {object} dto.ReturnResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/returns/{id} [get]
func (h *ReturnsHandler) GetReturn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.GetReturn(c.Request.Context(), businessID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListBySale godoc
// @Summary      List returns against a sale
// @Tags         returns
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      200 {array} dto.ReturnResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id}/returns [get]
func (h *ReturnsHandler) ListBySale(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale_id"))
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.ListBySale(c.Request.Context(), businessID, saleID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
