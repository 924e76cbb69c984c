package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
)

type PhotosHandler struct {
	service *photos.Service
}

func NewPhotosHandler(service *photos.Service) *PhotosHandler {
	return &PhotosHandler{service: service}
}

// GetStatus godoc
// @Summary Get a photo's current status
// @Produce json
// @Param   photo_id path string true "Photo ID"
// @Success 200 {object} models.PhotoResponse
// @Failure 404 {object} models.ErrorResponse
// @Router  /photos/{photo_id} [get]
func (h *PhotosHandler) GetStatus(c *gin.Context) {
	photo, err := h.service.GetPhoto(c.Request.Context(), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPhotoResponse(photo))
}
