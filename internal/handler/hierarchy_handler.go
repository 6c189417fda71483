package handler

import (
	"fmt"
	"net/http"

	"catalog/internal/model"
	"catalog/internal/service"
	"catalog/pkg/pagination"
	"catalog/pkg/response"

	"github.com/gin-gonic/gin"
)

type HierarchyHandler struct {
	hierarchyService service.HierarchyService
	requireAdmin     gin.HandlerFunc
	requireSync      gin.HandlerFunc
}

// NewHierarchyHandler wires the menu/feature endpoints. requireSync guards the sync triggers and
// typically also accepts the service token.
func NewHierarchyHandler(hierarchyService service.HierarchyService, requireAdmin, requireSync gin.HandlerFunc) *HierarchyHandler {
	return &HierarchyHandler{hierarchyService: hierarchyService, requireAdmin: requireAdmin, requireSync: requireSync}
}

func (h *HierarchyHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/catalog/products/:code")
	{
		products.POST("/menus/sync", h.requireSync, h.sync(model.KindMenu))
		products.GET("/menus", h.tree(model.KindMenu))
		products.POST("/features/sync", h.requireSync, h.sync(model.KindFeature))
		products.GET("/features", h.tree(model.KindFeature))
		products.GET("/sync-runs", h.requireAdmin, h.ListSyncRuns)
	}
}

// sync pulls the product's menu or feature tree from upstream into the local mirror
// @Summary      Sync menus or features
// @Tags         hierarchy
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "Product code or id"
// @Success      200   {object}  response.Response{data=service.SyncResult}
// @Failure      502   {object}  response.Response
// @Router       /catalog/products/{code}/menus/sync [post]
// @Router       /catalog/products/{code}/features/sync [post]
func (h *HierarchyHandler) sync(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.hierarchyService.Sync(c.Request.Context(), c.Param("code"), kind)
		if err != nil {
			writeError(c, err)
			return
		}

		ack := response.Ack(http.StatusOK, fmt.Sprintf("Synced %d %ss for %s", res.Count, kind, res.ProductCode), res.Count)
		ack.Data = res
		c.JSON(http.StatusOK, ack)
	}
}

// tree returns the mirrored menu or feature tree
// @Summary      Menu or feature tree
// @Description  refresh=1 forces a sync first. An empty mirror is synced once automatically.
// @Tags         hierarchy
// @Produce      json
// @Param        code     path   string  true   "Product code or id"
// @Param        refresh  query  string  false  "1 or true to sync before reading"
// @Success      200  {object}  response.Response{data=service.HierarchyResponse}
// @Router       /catalog/products/{code}/menus [get]
// @Router       /catalog/products/{code}/features [get]
func (h *HierarchyHandler) tree(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		refresh := c.Query("refresh") == "1" || c.Query("refresh") == "true"

		res, err := h.hierarchyService.GetTree(c.Request.Context(), c.Param("code"), kind, refresh)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
	}
}

// ListSyncRuns returns the paginated sync history of a product
// @Summary      Sync runs
// @Tags         hierarchy
// @Security     BearerAuth
// @Produce      json
// @Param        code   path   string  true   "Product code or id"
// @Param        page   query  int     false  "Page number (default 1)"
// @Param        limit  query  int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response
// @Router       /catalog/products/{code}/sync-runs [get]
func (h *HierarchyHandler) ListSyncRuns(c *gin.Context) {
	p := pagination.Parse(c)

	runs, total, err := h.hierarchyService.ListSyncRuns(c.Request.Context(), c.Param("code"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, runs, p.Page, p.Limit, total))
}
