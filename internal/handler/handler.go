package handler

import (
	"quote-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer trace.Tracer
	engine *service.Engine
	apiKey string
}

func New(tracer trace.Tracer, engine *service.Engine, apiKey string) *Handler {
	return &Handler{
		tracer: tracer,
		engine: engine,
		apiKey: apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/quotes/:symbol", h.GetQuote)
	r.GET("/api/exchange-rate", h.GetExchangeRate)
	r.POST("/api/fixed-income/value", h.ValueFixedIncome)

	admin := r.Group("/api/admin", APIKeyAuth(h.apiKey))
	admin.POST("/cache/clean", h.CleanCache)
}
