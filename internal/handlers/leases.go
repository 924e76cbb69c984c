package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
	"farm-photos-backend/internal/ratelimit"
)

type LeasesHandler struct {
	service *photos.Service
	limiter *ratelimit.Limiter
}

func NewLeasesHandler(service *photos.Service, limiter *ratelimit.Limiter) *LeasesHandler {
	return &LeasesHandler{
		service: service,
		limiter: limiter,
	}
}

// Reserve godoc
// @Summary     Reserve an upload lease
// @Description Validates the upload, checks the farm's photo quota, and returns a short-lived signed upload URL bound to one object key. Replace mode reuses the replaced photo's id and bypasses the quota ceiling.
// @Accept      json
// @Produce     json
// @Param       farm_id path string true "Farm ID"
// @Param       request body models.ReserveRequest true "Upload intent"
// @Success     200 {object} models.LeaseResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Router      /farms/{farm_id}/photos/reserve [post]
func (h *LeasesHandler) Reserve(c *gin.Context) {
	if !h.admit(c, "reserve") {
		return
	}

	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
		})
		return
	}

	lease, err := h.service.Reserve(c.Request.Context(), photos.ReserveInput{
		FarmID:      c.Param("farm_id"),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		Mode:        models.LeaseMode(req.Mode),
		ReplaceID:   req.ReplaceID,
		Caption:     req.Caption,
		Author:      req.Author,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.LeaseResponse{
		PhotoID:   lease.PhotoID.String(),
		ObjectKey: lease.ObjectKey,
		UploadURL: lease.UploadURL,
		ExpiresAt: lease.ExpiresAt,
	})
}

// Confirm godoc
// @Summary     Confirm an upload lease
// @Description Converts a still-valid lease into a pending moderation record. An expired or missing lease requires a fresh reservation.
// @Produce     json
// @Param       photo_id path string true "Photo ID"
// @Success     200 {object} models.PhotoResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     410 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Router      /photos/{photo_id}/confirm [post]
func (h *LeasesHandler) Confirm(c *gin.Context) {
	if !h.admit(c, "confirm") {
		return
	}

	photo, err := h.service.Confirm(c.Request.Context(), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPhotoResponse(photo))
}

// admit applies the per-client window. Rate-limit rejections are a distinct
// outcome from validation errors.
func (h *LeasesHandler) admit(c *gin.Context, scope string) bool {
	allowed, err := h.limiter.Allow(c.Request.Context(), scope, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return false
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:   "too many requests",
			Message: "rate limit exceeded, retry later",
		})
		return false
	}
	return true
}
