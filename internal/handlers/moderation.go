package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
)

type ModerationHandler struct {
	service *photos.Service
}

func NewModerationHandler(service *photos.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// ListPending godoc
// @Summary  List photos awaiting review, oldest first
// @Produce  json
// @Security Bearer
// @Success  200 {object} models.PhotoListResponse
// @Router   /admin/photos/pending [get]
func (h *ModerationHandler) ListPending(c *gin.Context) {
	pending, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.PhotoListResponse{Photos: make([]models.PhotoResponse, 0, len(pending))}
	for _, p := range pending {
		resp.Photos = append(resp.Photos, models.NewPhotoResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// Approve godoc
// @Summary     Approve a pending photo
// @Description Idempotent: re-approving an approved photo is a no-op. Capacity is re-checked at commit even if reservation passed earlier.
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Success     200 {object} models.PhotoResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /admin/photos/{photo_id}/approve [post]
func (h *ModerationHandler) Approve(c *gin.Context) {
	photo, err := h.service.Approve(c.Request.Context(), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPhotoResponse(photo))
}

// Reject godoc
// @Summary     Reject a pending photo
// @Description Removes the record and, best effort, the uploaded blob. Terminal.
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/photos/{photo_id}/reject [post]
func (h *ModerationHandler) Reject(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), c.Param("photo_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
