package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetExchangeRate godoc
// @Summary      Get a currency conversion rate
// @Description  Only USD→BRL is fetched live; other pairs return identity or the static fallback
// @Tags         exchange
// @Produce      json
// @Param        from  query  string  true  "Source currency code"
// @Param        to    query  string  true  "Target currency code"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/exchange-rate [get]
func (h *Handler) GetExchangeRate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-exchange-rate")
	defer span.End()

	from := strings.ToUpper(strings.TrimSpace(c.Query("from")))
	to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	span.SetAttributes(attribute.String("pair", from+"/"+to))

	rate := h.engine.ExchangeRate(ctx, from, to)
	c.JSON(http.StatusOK, gin.H{
		"from": from,
		"to":   to,
		"rate": rate,
	})
}
