package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
)

// respondError maps the pipeline error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a storage-dependency failure the caller may retry.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, photos.ErrInvalid):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Message: err.Error()})
	case errors.Is(err, photos.ErrQuotaExceeded):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "quota exceeded", Message: err.Error()})
	case errors.Is(err, photos.ErrLeaseExpired):
		c.JSON(http.StatusGone, models.ErrorResponse{Error: "lease expired", Message: err.Error()})
	case errors.Is(err, photos.ErrRecoveryExpired):
		c.JSON(http.StatusGone, models.ErrorResponse{Error: "recovery expired", Message: err.Error()})
	case errors.Is(err, photos.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "storage failure", Message: err.Error()})
	}
}
