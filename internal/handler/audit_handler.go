package handler

import (
	"net/http"

	"catalog/internal/service"
	"catalog/pkg/pagination"
	"catalog/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	requireAdmin gin.HandlerFunc
}

func NewAuditHandler(auditService service.AuditService, requireAdmin gin.HandlerFunc) *AuditHandler {
	return &AuditHandler{auditService: auditService, requireAdmin: requireAdmin}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/catalog/products/:code/matrix/audit")
	group.Use(h.requireAdmin) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns the paginated matrix change history of a product, newest first
// @Summary      Matrix audit log
// @Tags         matrix
// @Security     BearerAuth
// @Produce      json
// @Param        code   path   string  true   "Product code or id"
// @Param        page   query  int     false  "Page number (default 1)"
// @Param        limit  query  int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response
// @Router       /catalog/products/{code}/matrix/audit [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.ListByProduct(c.Request.Context(), c.Param("code"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
