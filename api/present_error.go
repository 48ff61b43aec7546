package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/utils"
)

// presentError maps domain errors to HTTP statuses and reports whether a
// response was written. Handlers return immediately when it returns true.
func presentError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, models.BadParameterError):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, models.NotFoundError):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, models.ConflictError):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		ctx := c.Request.Context()
		logger := utils.LoggerFromContext(ctx)
		logger.ErrorContext(ctx, "Unexpected error handling request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
	return true
}
