package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"urlshort/internal/apperr"
	"urlshort/internal/models"
)

// respondError translates an error into the uniform JSON error body,
// using the *apperr.Error taxonomy's HTTPStatus when present and
// falling back to 500 for anything unrecognized.
func respondError(c *gin.Context, err error) {
	appErr := apperr.As(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: err.Error(),
		})
		return
	}
	c.JSON(appErr.HTTPStatus, models.ErrorResponse{
		Error:   string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
