package handler

import (
	"net/http"
	"strings"
	"time"

	"quote-engine/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetQuote godoc
// @Summary      Resolve the price of an asset
// @Description  Walks the category's provider chain with caching and backoff; failures come back as success=false with a manual-entry message
// @Tags         quotes
// @Produce      json
// @Param        symbol    path   string  true   "Asset symbol (e.g., PETR4, AAPL, BTC)"
// @Param        category  query  string  true   "Asset category (EQUITY_BR, EQUITY_US, CRYPTO, REIT_BR, FIXED_INCOME)"
// @Param        date      query  string  false  "Target date, yyyy-mm-dd; omitted or today means current"
// @Param        time      query  string  false  "Intraday timestamp, RFC 3339; takes precedence over date"
// @Success      200  {object}  domain.QuoteResult
// @Failure      400  {object}  map[string]string
// @Router       /api/quotes/{symbol} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	category := domain.AssetCategory(strings.ToUpper(c.Query("category")))
	if !category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":                "invalid category: " + string(category),
			"supported_categories": domain.Categories,
		})
		return
	}

	req := domain.QuoteRequest{Symbol: symbol, Category: category}

	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected yyyy-mm-dd: " + d})
			return
		}
		req.Date = parsed
	}
	if at := c.Query("time"); at != "" {
		parsed, err := parseTimestamp(at)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time, expected RFC 3339: " + at})
			return
		}
		req.At = parsed
	}

	c.JSON(http.StatusOK, h.engine.ResolveQuote(ctx, req))
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
