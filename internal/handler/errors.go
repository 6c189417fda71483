package handler

import (
	"net/http"

	"catalog/internal/service"
	"catalog/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError renders a service error as the standard envelope, keeping the HTTP status in both
// header and body. The raw error is attached to the context for the request logger.
func writeError(c *gin.Context, err error) {
	de := service.AsDomainError(err)
	_ = c.Error(err)
	c.JSON(de.Status, response.ErrorWithDetails(de.Status, de.Code, de.Message, de.Details))
}

// writeBindError reports a malformed body as a validation failure.
func writeBindError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusUnprocessableEntity, response.ErrorWithDetails(
		http.StatusUnprocessableEntity, service.CodeValidation, "Invalid request body: "+err.Error(), nil))
}
