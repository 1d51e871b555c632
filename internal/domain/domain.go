package domain

import (
	"fmt"
	"strings"
	"time"
)

// AssetCategory identifies which provider chain prices an asset.
type AssetCategory string

const (
	CategoryEquityBR    AssetCategory = "EQUITY_BR"
	CategoryEquityUS    AssetCategory = "EQUITY_US"
	CategoryCrypto      AssetCategory = "CRYPTO"
	CategoryREITBR      AssetCategory = "REIT_BR"
	CategoryFixedIncome AssetCategory = "FIXED_INCOME"
)

// Categories lists every valid asset category.
var Categories = []AssetCategory{
	CategoryEquityBR, CategoryEquityUS, CategoryCrypto,
	CategoryREITBR, CategoryFixedIncome,
}

func (c AssetCategory) IsValid() bool {
	switch c {
	case CategoryEquityBR, CategoryEquityUS, CategoryCrypto, CategoryREITBR, CategoryFixedIncome:
		return true
	}
	return false
}

// Brazilian reports whether the category is quoted on the local exchange
// (ticker gets the .SA suffix, price is in BRL).
func (c AssetCategory) Brazilian() bool {
	return c == CategoryEquityBR || c == CategoryREITBR
}

// RequestKind classifies a quote request relative to the current clock.
type RequestKind int

const (
	KindCurrent RequestKind = iota
	KindIntraday
	KindHistorical
)

func (k RequestKind) String() string {
	switch k {
	case KindIntraday:
		return "intraday"
	case KindHistorical:
		return "historical"
	default:
		return "current"
	}
}

// QuoteRequest asks for the price of one asset, optionally at a point in
// time. A zero Date means "now". At carries an intraday timestamp; when set
// it takes precedence over Date.
type QuoteRequest struct {
	Symbol   string        `json:"symbol"`
	Category AssetCategory `json:"category"`
	Date     time.Time     `json:"date,omitempty"`
	At       time.Time     `json:"at,omitempty"`
}

// Kind classifies the request against now. A timestamp on today's date is
// intraday; an absent date, today's date, or a future date is current
// (future dates degrade to the latest available price); anything else is
// historical.
func (r QuoteRequest) Kind(now time.Time) RequestKind {
	if !r.At.IsZero() {
		if sameDay(r.At, now) {
			return KindIntraday
		}
		return KindHistorical
	}
	if r.Date.IsZero() || sameDay(r.Date, now) || r.Date.After(now) {
		return KindCurrent
	}
	return KindHistorical
}

// TargetDate is the calendar day the request is about. Current requests
// resolve to today.
func (r QuoteRequest) TargetDate(now time.Time) time.Time {
	if !r.At.IsZero() {
		return dayOf(r.At)
	}
	if r.Kind(now) == KindCurrent {
		return dayOf(now)
	}
	return dayOf(r.Date)
}

// CacheKey builds the memoization key: symbol|category|<time, date or "current">.
func (r QuoteRequest) CacheKey(now time.Time) string {
	var suffix string
	switch r.Kind(now) {
	case KindIntraday:
		suffix = r.At.UTC().Format(time.RFC3339)
	case KindHistorical:
		suffix = r.TargetDate(now).Format("2006-01-02")
	default:
		suffix = "current"
	}
	return fmt.Sprintf("%s|%s|%s", strings.ToUpper(r.Symbol), r.Category, suffix)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// QuoteResult is the outcome of one resolution attempt. A failed result
// always carries a zero price and an actionable message.
type QuoteResult struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	AssetName string  `json:"asset_name,omitempty"`
}

// Candle is a single OHLC record for a fixed time bucket.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}
