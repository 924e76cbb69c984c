package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
)

type RecoveryHandler struct {
	service *photos.Service
}

func NewRecoveryHandler(service *photos.Service) *RecoveryHandler {
	return &RecoveryHandler{service: service}
}

// SoftDelete godoc
// @Summary     Soft-delete an approved photo
// @Description The photo leaves the farm's live set but stays recoverable for the grace window, after which the sweeper purges it.
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Success     200 {object} models.PhotoResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/photos/{photo_id}/delete [post]
func (h *RecoveryHandler) SoftDelete(c *gin.Context) {
	photo, err := h.service.SoftDelete(c.Request.Context(), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPhotoResponse(photo))
}

// Recover godoc
// @Summary     Recover a soft-deleted photo before its window closes
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Success     200 {object} models.PhotoResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     410 {object} models.ErrorResponse
// @Router      /admin/photos/{photo_id}/recover [post]
func (h *RecoveryHandler) Recover(c *gin.Context) {
	photo, err := h.service.Recover(c.Request.Context(), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPhotoResponse(photo))
}

// ListRecoverable godoc
// @Summary  List soft-deleted photos still inside their recovery window
// @Produce  json
// @Security Bearer
// @Success  200 {object} models.PhotoListResponse
// @Router   /admin/photos/recoverable [get]
func (h *RecoveryHandler) ListRecoverable(c *gin.Context) {
	recoverable, err := h.service.ListRecoverable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.PhotoListResponse{Photos: make([]models.PhotoResponse, 0, len(recoverable))}
	for _, p := range recoverable {
		resp.Photos = append(resp.Photos, models.NewPhotoResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}
