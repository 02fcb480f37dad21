package handler

import (
	"net/http"
	"strconv"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ShiftsHandler struct{ svc service.ShiftService }

func NewShiftsHandler(svc service.ShiftService) *ShiftsHandler { return &ShiftsHandler{svc: svc} }

// OpenShift godoc
// @Summary      Open a cash shift
// @Description  Opens a shift on a register with a counted opening balance. One open shift per register.
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.OpenShiftRequest true "Register and opening balance"
// @Success      201  {object} dto.ShiftResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/shifts/open [post]
func (h *ShiftsHandler) OpenShift(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, businessID := actor(c)

	resp, err := h.svc.OpenShift(c.Request.Context(), userID, businessID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CloseShift godoc
// @Summary      Close a cash shift
// @Description  Computes the expected balance from the shift's movements and records the variance against the counted balance. Never blocks on a mismatch.
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CloseShiftRequest true "Counted balance"
// @Success      200  {object} dto.CloseShiftResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/shifts/close [post]
func (h *ShiftsHandler) CloseShift(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, businessID := actor(c)

	resp, err := h.svc.CloseShift(c.Request.Context(), userID, businessID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordMovement godoc
// @Summary      Record a manual cash movement
// @Description  Deposits (cash_in) and withdrawals (cash_out) against an open shift.
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ManualMovementRequest true "Movement detail"
// @Success      201  {object} dto.ShiftResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/shifts/movements [post]
func (h *ShiftsHandler) RecordMovement(c *gin.Context) {
	var req dto.ManualMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, businessID := actor(c)

	resp, err := h.svc.RecordManualMovement(c.Request.Context(), userID, businessID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ActiveShift godoc
// @Summary      Get the caller's open shift
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ShiftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/shifts/active [get]
func (h *ShiftsHandler) ActiveShift(c *gin.Context) {
	userID, _ := actor(c)

	resp, err := h.svc.ActiveShift(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary      Shift report
// @Description  Totals by payment method plus variance data for closed shifts.
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Shift UUID"
// @Success      200 {object} dto.ShiftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/shifts/{id} [get]
func (h *ShiftsHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.Report(c.Request.Context(), businessID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      Closed shift history
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 50)"
// @Success      200 {array} dto.ShiftResponse
// @Router       /v1/shifts [get]
func (h *ShiftsHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	_, businessID := actor(c)

	resp, err := h.svc.History(c.Request.Context(), businessID, page, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
