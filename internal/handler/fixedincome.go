package handler

import (
	"net/http"
	"strings"
	"time"

	"quote-engine/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type valueRequest struct {
	Principal          decimal.Decimal `json:"principal"`
	Regime             string          `json:"regime"`
	Index              string          `json:"index"`
	IndexPercent       decimal.Decimal `json:"index_percent"`
	FixedSpreadPercent decimal.Decimal `json:"fixed_spread_percent"`
	IssueDate          string          `json:"issue_date"`
	MaturityDate       string          `json:"maturity_date"`
	InstrumentType     string          `json:"instrument_type"`
	ReferenceDate      string          `json:"reference_date"`
}

// ValueFixedIncome godoc
// @Summary      Value a fixed-income position
// @Description  Daily-compounded net current value with progressive withholding tax; LCI/LCA are exempt
// @Tags         fixed-income
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/fixed-income/value [post]
func (h *Handler) ValueFixedIncome(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.value-fixed-income")
	defer span.End()

	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	regime := domain.RateRegime(strings.ToUpper(req.Regime))
	if !regime.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid regime: " + req.Regime})
		return
	}
	index := domain.IndexNone
	if req.Index != "" {
		index = domain.RateIndex(strings.ToUpper(req.Index))
		if !index.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index: " + req.Index})
			return
		}
	}
	span.SetAttributes(attribute.String("regime", string(regime)))

	issue, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issue_date, expected yyyy-mm-dd"})
		return
	}
	maturity, err := time.Parse("2006-01-02", req.MaturityDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maturity_date, expected yyyy-mm-dd"})
		return
	}

	reference := time.Now()
	if req.ReferenceDate != "" {
		reference, err = time.Parse("2006-01-02", req.ReferenceDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference_date, expected yyyy-mm-dd"})
			return
		}
	}

	terms := domain.FixedIncomeTerms{
		Principal:          req.Principal,
		Regime:             regime,
		Index:              index,
		IndexPercent:       req.IndexPercent,
		FixedSpreadPercent: req.FixedSpreadPercent,
		IssueDate:          issue,
		MaturityDate:       maturity,
		InstrumentType:     req.InstrumentType,
	}

	value := h.engine.ValueFixedIncome(ctx, terms, reference)
	c.JSON(http.StatusOK, gin.H{
		"net_value": value,
		"principal": req.Principal,
		"exempt":    terms.TaxExempt(),
	})
}
