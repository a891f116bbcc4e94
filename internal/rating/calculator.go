package rating

import "github.com/shopspring/decimal"

// Price holds the result of rating one call.
type Price struct {
	Cost            float64 `json:"cost"`
	Revenue         float64 `json:"revenue"`
	ProfitMargin    float64 `json:"profit_margin"`
	BillableSeconds int64   `json:"billable_seconds"`
	RatePerMinute   float64 `json:"rate_per_minute"`
}

// currencyScale is the fixed currency precision; amounts are rounded
// half-up to 2 decimal places.
const currencyScale = 2

// BillableSeconds rounds a duration up to the carrier's minimum billing
// increment. A call that never connected (duration 0) bills nothing.
func BillableSeconds(durationSeconds, incrementSeconds int64) int64 {
	if durationSeconds <= 0 {
		return 0
	}
	increments := (durationSeconds + incrementSeconds - 1) / incrementSeconds
	return increments * incrementSeconds
}

// PriceCall computes cost, revenue and profit margin for a call priced
// against the given rate entry. Cost and revenue are rounded independently;
// profit margin is the difference of the rounded values. Callers guarantee
// durationSeconds >= 0.
func PriceCall(durationSeconds int64, e Entry) Price {
	billable := BillableSeconds(durationSeconds, e.MinIncrementSeconds)

	rate := decimal.NewFromFloat(e.RatePerMinute)
	minutes := decimal.NewFromInt(billable).Div(decimal.NewFromInt(60))

	// decimal.Round rounds half away from zero, which is round-half-up for
	// the non-negative amounts produced here.
	cost := minutes.Mul(rate).Round(currencyScale)
	revenue := cost.Mul(decimal.NewFromFloat(e.MarkupFactor)).Round(currencyScale)
	profit := revenue.Sub(cost)

	return Price{
		Cost:            cost.InexactFloat64(),
		Revenue:         revenue.InexactFloat64(),
		ProfitMargin:    profit.InexactFloat64(),
		BillableSeconds: billable,
		RatePerMinute:   e.RatePerMinute,
	}
}
