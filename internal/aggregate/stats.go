package aggregate

import (
	"math"
	"sort"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

func roundUSD(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Summary is the overall traffic and money view.
type Summary struct {
	TotalCalls           int64            `json:"total_calls"`
	TotalDurationSeconds int64            `json:"total_duration_seconds"`
	TotalDurationHours   float64          `json:"total_duration_hours"`
	AverageCallDuration  float64          `json:"average_call_duration"`
	TotalCost            float64          `json:"total_cost"`
	TotalRevenue         float64          `json:"total_revenue"`
	TotalProfit          float64          `json:"total_profit"`
	SuccessRate          float64          `json:"success_rate"`
	CallTypes            map[string]int64 `json:"call_types"`
}

// Summary derives the overall view from the global and call-type buckets.
// All ratios are computed on read; a zero call count yields zeros, never a
// division error.
func (e *Engine) Summary() Summary {
	g := e.Global()

	s := Summary{
		TotalCalls:           g.CallCount,
		TotalDurationSeconds: g.DurationSeconds,
		TotalDurationHours:   math.Round(float64(g.DurationSeconds)/3600*100) / 100,
		TotalCost:            roundUSD(g.TotalCost),
		TotalRevenue:         roundUSD(g.TotalRevenue),
		TotalProfit:          roundUSD(g.TotalRevenue - g.TotalCost),
		CallTypes:            make(map[string]int64),
	}
	if g.CallCount > 0 {
		s.AverageCallDuration = math.Round(float64(g.DurationSeconds)/float64(g.CallCount)*10) / 10
		s.SuccessRate = round4(float64(g.SuccessCount) / float64(g.CallCount))
	}

	for name, snap := range e.family(keyCallType) {
		s.CallTypes[name] = snap.CallCount
	}
	return s
}

// CallTypeCost is the money breakdown for one call type.
type CallTypeCost struct {
	Calls   int64   `json:"calls"`
	Cost    float64 `json:"cost"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// CostAnalysis is the per-call-type money view.
type CostAnalysis struct {
	TotalCalls            int64                   `json:"total_calls"`
	CostByType            map[string]CallTypeCost `json:"cost_by_type"`
	AverageCostPerCall    float64                 `json:"average_cost_per_call"`
	AverageRevenuePerCall float64                 `json:"average_revenue_per_call"`
}

func (e *Engine) CostAnalysis() CostAnalysis {
	g := e.Global()

	a := CostAnalysis{
		TotalCalls: g.CallCount,
		CostByType: make(map[string]CallTypeCost),
	}
	for name, snap := range e.family(keyCallType) {
		a.CostByType[name] = CallTypeCost{
			Calls:   snap.CallCount,
			Cost:    roundUSD(snap.TotalCost),
			Revenue: roundUSD(snap.TotalRevenue),
			Profit:  roundUSD(snap.TotalRevenue - snap.TotalCost),
		}
	}
	if g.CallCount > 0 {
		a.AverageCostPerCall = round4(g.TotalCost / float64(g.CallCount))
		a.AverageRevenuePerCall = round4(g.TotalRevenue / float64(g.CallCount))
	}
	return a
}

// CarrierStat is the derived per-carrier view.
type CarrierStat struct {
	CarrierID            string  `json:"carrier_id"`
	TotalCalls           int64   `json:"total_calls"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	TotalCost            float64 `json:"total_cost"`
	TotalRevenue         float64 `json:"total_revenue"`
	AverageCostPerMinute float64 `json:"average_cost_per_minute"`
	SuccessRate          float64 `json:"success_rate"`
}

// CarrierStats returns per-carrier statistics sorted by call volume.
// average_cost_per_minute and success_rate are derived here, never stored.
func (e *Engine) CarrierStats() []CarrierStat {
	snaps := e.family(keyCarrier)

	stats := make([]CarrierStat, 0, len(snaps))
	for id, snap := range snaps {
		st := CarrierStat{
			CarrierID:            id,
			TotalCalls:           snap.CallCount,
			TotalDurationSeconds: snap.DurationSeconds,
			TotalCost:            roundUSD(snap.TotalCost),
			TotalRevenue:         roundUSD(snap.TotalRevenue),
		}
		if snap.DurationSeconds > 0 {
			st.AverageCostPerMinute = round4(snap.TotalCost / (float64(snap.DurationSeconds) / 60))
		}
		if snap.CallCount > 0 {
			st.SuccessRate = round4(float64(snap.SuccessCount) / float64(snap.CallCount))
		}
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalCalls != stats[j].TotalCalls {
			return stats[i].TotalCalls > stats[j].TotalCalls
		}
		return stats[i].CarrierID < stats[j].CarrierID
	})
	return stats
}

// CountryStat is the derived per-destination view.
type CountryStat struct {
	CountryCode          string  `json:"country_code"`
	CountryName          string  `json:"country_name"`
	CallCount            int64   `json:"call_count"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	Percentage           float64 `json:"percentage"`
}

// Geographic is the destination distribution view.
type Geographic struct {
	TotalCountries int           `json:"total_countries"`
	TopCountries   []CountryStat `json:"top_countries"`
}

const geographicTopN = 10

// Geographic returns the top destinations by call count. Percentages are
// shares of the global call count, computed on read.
func (e *Engine) Geographic() Geographic {
	globalCalls := e.Global().CallCount
	snaps := e.family(keyCountry)

	stats := make([]CountryStat, 0, len(snaps))
	for code, snap := range snaps {
		st := CountryStat{
			CountryCode:          code,
			CountryName:          domain.CountryName(code),
			CallCount:            snap.CallCount,
			TotalDurationSeconds: snap.DurationSeconds,
		}
		if globalCalls > 0 {
			st.Percentage = math.Round(float64(snap.CallCount)/float64(globalCalls)*1000) / 10
		}
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].CallCount != stats[j].CallCount {
			return stats[i].CallCount > stats[j].CallCount
		}
		return stats[i].CountryCode < stats[j].CountryCode
	})

	g := Geographic{TotalCountries: len(stats)}
	if len(stats) > geographicTopN {
		stats = stats[:geographicTopN]
	}
	g.TopCountries = stats
	return g
}

// PeriodStat is one time bucket of the traffic view.
type PeriodStat struct {
	Period               string  `json:"period"`
	CallCount            int64   `json:"call_count"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	TotalCost            float64 `json:"total_cost"`
}

// Traffic returns the time-bucketed view for one period kind, ordered by
// period key.
func (e *Engine) Traffic(p Period) []PeriodStat {
	snaps := e.family(string(p) + ":")

	stats := make([]PeriodStat, 0, len(snaps))
	for key, snap := range snaps {
		stats = append(stats, PeriodStat{
			Period:               key,
			CallCount:            snap.CallCount,
			TotalDurationSeconds: snap.DurationSeconds,
			TotalCost:            roundUSD(snap.TotalCost),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Period < stats[j].Period })
	return stats
}
