package domain

import "time"

type CallType string

const (
	CallLocal         CallType = "local"
	CallNational      CallType = "national"
	CallInternational CallType = "international"
)

// ValidCallType reports whether s (already lower-cased) is a known call type.
func ValidCallType(s string) bool {
	switch CallType(s) {
	case CallLocal, CallNational, CallInternational:
		return true
	}
	return false
}

// CDRDraft is a submitted call detail record before validation and pricing.
type CDRDraft struct {
	CallID          string `json:"call_id"`
	CallerNumber    string `json:"caller_number"`
	CalledNumber    string `json:"called_number"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationSeconds int64  `json:"duration_seconds"`
	CarrierID       string `json:"carrier_id"`
	CallType        string `json:"call_type"`
	CountryCode     string `json:"country_code,omitempty"`
}

// CDR is a validated, enriched, priced call detail record. Immutable once
// persisted, except for soft delete.
type CDR struct {
	CallID          string    `json:"call_id"`
	CallerNumber    string    `json:"caller_number"`
	CalledNumber    string    `json:"called_number"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds int64     `json:"duration_seconds"`
	CarrierID       string    `json:"carrier_id"`
	CallType        CallType  `json:"call_type"`
	CountryCode     string    `json:"country_code,omitempty"`
	CountryName     string    `json:"country_name,omitempty"`
	CallerPrefix    string    `json:"caller_prefix"`
	CalledPrefix    string    `json:"called_prefix"`

	// Pricing, filled by the rating engine.
	Cost            float64 `json:"cost"`
	Revenue         float64 `json:"revenue"`
	ProfitMargin    float64 `json:"profit_margin"`
	BillableSeconds int64   `json:"billable_seconds"`
	RatePerMinute   float64 `json:"rate_per_minute"`

	// Successful marks answered calls; zero-duration calls count toward
	// call totals but not success totals.
	Successful bool `json:"successful"`

	// DurationMismatch is set when duration_seconds disagrees with
	// end_time - start_time beyond tolerance. duration_seconds stays
	// authoritative.
	DurationMismatch bool `json:"duration_mismatch,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}
