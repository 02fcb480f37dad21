package handler

import (
	"net/http"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CommissionsHandler struct{ svc service.CommissionService }

func NewCommissionsHandler(svc service.CommissionService) *CommissionsHandler {
	return &CommissionsHandler{svc: svc}
}

// Compute godoc
// @Summary      Commission projection per seller
// @Description  Derived on every call from completed sales minus attributed refunds; never persisted, so reruns are idempotent.
// @Tags         commissions
// @Produce      json
// @Security     BearerAuth
// @Param        from query string true "Period start YYYY-MM-DD"
// @Param        to   query string true "Period end YYYY-MM-DD (inclusive)"
// @Success      200  {array}  dto.CommissionRecord
// @Failure      400  {object} apierror.APIError
// @Router       /v1/commissions [get]
func (h *CommissionsHandler) Compute(c *gin.Context) {
	var filter dto.CommissionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(filter); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.Compute(c.Request.Context(), businessID, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
