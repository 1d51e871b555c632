package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RateRegime selects how a fixed-income position accrues interest.
type RateRegime string

const (
	RegimePreFixed        RateRegime = "PRE_FIXED"
	RegimePostFixed       RateRegime = "POST_FIXED"
	RegimePostFixedSpread RateRegime = "POST_FIXED_PLUS_SPREAD"
)

func (r RateRegime) IsValid() bool {
	switch r {
	case RegimePreFixed, RegimePostFixed, RegimePostFixedSpread:
		return true
	}
	return false
}

// RateIndex names the reference rate a post-fixed position tracks.
type RateIndex string

const (
	IndexSELIC RateIndex = "SELIC"
	IndexCDI   RateIndex = "CDI"
	IndexIPCA  RateIndex = "IPCA"
	IndexNone  RateIndex = "NONE"
)

func (i RateIndex) IsValid() bool {
	switch i {
	case IndexSELIC, IndexCDI, IndexIPCA, IndexNone:
		return true
	}
	return false
}

// FixedIncomeTerms describes one fixed-income position. For PRE_FIXED
// positions FixedSpreadPercent holds the contracted annual rate; for
// POST_FIXED_PLUS_SPREAD it is the spread added on top of the index.
type FixedIncomeTerms struct {
	Principal          decimal.Decimal `json:"principal"`
	Regime             RateRegime      `json:"regime"`
	Index              RateIndex       `json:"index"`
	IndexPercent       decimal.Decimal `json:"index_percent"`
	FixedSpreadPercent decimal.Decimal `json:"fixed_spread_percent"`
	IssueDate          time.Time       `json:"issue_date"`
	MaturityDate       time.Time       `json:"maturity_date"`
	InstrumentType     string          `json:"instrument_type"`
}

// TaxExempt reports whether the instrument type carries no withholding tax.
func (t FixedIncomeTerms) TaxExempt() bool {
	switch strings.ToUpper(strings.TrimSpace(t.InstrumentType)) {
	case "LCI", "LCA":
		return true
	}
	return false
}
