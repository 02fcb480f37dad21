package handler

import (
	"net/http"

	"posledger/internal/apierror"
	"posledger/internal/dto"
	"posledger/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler { return &AuditHandler{svc: svc} }

// List godoc
// @Summary      Audit trail
// @Description  Paginated who-did-what records, filterable by actor and operation.
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        actor_id  query string false "Actor UUID"
// @Param        operation query string false "e.g. sale.create, shift.close"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.AuditListResponse
// @Router       /v1/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter dto.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	_, businessID := actor(c)

	resp, err := h.svc.List(c.Request.Context(), businessID, filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
