package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CleanCache godoc
// @Summary      Sweep expired cache entries
// @Description  Drops expired quote-cache entries and backoff records; safe on any schedule
// @Tags         admin
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  map[string]int
// @Router       /api/admin/cache/clean [post]
func (h *Handler) CleanCache(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.clean-cache")
	defer span.End()

	removed := h.engine.CleanExpiredCache(ctx)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
