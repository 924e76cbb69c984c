package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
)

type ReconcileHandler struct {
	service *photos.Service
}

func NewReconcileHandler(service *photos.Service) *ReconcileHandler {
	return &ReconcileHandler{service: service}
}

// Run godoc
// @Summary     Run a reconciliation pass now
// @Description Cross-checks pending and approved records against blob storage, repairs or removes broken entries, and purges expired recoverables.
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ReconcileResponse
// @Router      /admin/reconcile [post]
func (h *ReconcileHandler) Run(c *gin.Context) {
	summary, err := h.service.RunReconciliation(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReconcileResponse{
		Checked:        summary.Checked,
		RemovedMissing: summary.RemovedMissing,
		RepairedURLs:   summary.RepairedURLs,
		Purged:         summary.Purged,
		Errors:         summary.Errors,
	})
}
