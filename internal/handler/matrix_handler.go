package handler

import (
	"net/http"
	"strconv"

	"catalog/internal/middleware"
	"catalog/internal/service"
	"catalog/pkg/response"

	"github.com/gin-gonic/gin"
)

type MatrixHandler struct {
	matrixService service.MatrixService
	requireAdmin  gin.HandlerFunc
}

func NewMatrixHandler(matrixService service.MatrixService, requireAdmin gin.HandlerFunc) *MatrixHandler {
	return &MatrixHandler{matrixService: matrixService, requireAdmin: requireAdmin}
}

func (h *MatrixHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/catalog/products/:code")
	{
		products.GET("/matrix", h.GetMatrix)
		products.POST("/matrix/bulk", h.requireAdmin, h.BulkUpsert)
		products.PATCH("/matrix/toggle", h.requireAdmin, h.Toggle)
		products.GET("/packages/:packageId/items", h.GetPackageItems)
	}
}

// GetMatrix returns the authorization matrix aggregate of a product
// @Summary      Get package matrix
// @Description  Packages, features, menus and the explicitly written matrix cells. Absent cells are disabled.
// @Tags         matrix
// @Produce      json
// @Param        code  path      string  true  "Product code or id"
// @Success      200   {object}  response.Response{data=service.MatrixAggregate}
// @Failure      404   {object}  response.Response
// @Router       /catalog/products/{code}/matrix [get]
func (h *MatrixHandler) GetMatrix(c *gin.Context) {
	agg, err := h.matrixService.Aggregate(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agg))
}

// BulkUpsert applies a batch of matrix changes atomically
// @Summary      Bulk upsert matrix cells
// @Tags         matrix
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        code     path  string                     true  "Product code or id"
// @Param        payload  body  service.BulkUpsertRequest  true  "Changes"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /catalog/products/{code}/matrix/bulk [post]
func (h *MatrixHandler) BulkUpsert(c *gin.Context) {
	var req service.BulkUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	count, err := h.matrixService.BulkUpsert(c.Request.Context(), middleware.Actor(c), c.Param("code"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Ack(http.StatusOK, "Matrix updated", count))
}

// Toggle writes a single matrix cell
// @Summary      Toggle a matrix cell
// @Tags         matrix
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        code     path  string                true  "Product code or id"
// @Param        payload  body  service.MatrixChange  true  "Cell"
// @Success      200  {object}  response.Response{data=service.MatrixCellResponse}
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /catalog/products/{code}/matrix/toggle [patch]
func (h *MatrixHandler) Toggle(c *gin.Context) {
	var req service.MatrixChange
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	cell, err := h.matrixService.Toggle(c.Request.Context(), middleware.Actor(c), c.Param("code"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cell))
}

// GetPackageItems lists the feature and menu ids enabled for one package
// @Summary      Enabled items of a package
// @Tags         matrix
// @Produce      json
// @Param        code       path  string  true  "Product code or id"
// @Param        packageId  path  int     true  "Package id"
// @Success      200  {object}  response.Response{data=service.PackageItemsResponse}
// @Failure      404  {object}  response.Response
// @Router       /catalog/products/{code}/packages/{packageId}/items [get]
func (h *MatrixHandler) GetPackageItems(c *gin.Context) {
	packageID, err := strconv.ParseUint(c.Param("packageId"), 10, 64)
	if err != nil || packageID == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid package id"))
		return
	}

	items, err := h.matrixService.PackageItems(c.Request.Context(), c.Param("code"), uint(packageID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}
