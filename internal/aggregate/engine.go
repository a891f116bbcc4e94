// Package aggregate maintains the continuously updated call statistics:
// global totals plus per-carrier, per-country, per-call-type and
// per-time-period rollups.
package aggregate

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

// Key prefixes for the bucket families.
const (
	keyGlobal   = "global"
	keyCarrier  = "carrier:"
	keyCountry  = "country:"
	keyCallType = "type:"
)

// Period is a traffic rollup granularity.
type Period string

const (
	PeriodHourly  Period = "hourly"
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

// ValidPeriod reports whether s names a supported traffic period.
func ValidPeriod(s string) bool {
	switch Period(s) {
	case PeriodHourly, PeriodDaily, PeriodMonthly:
		return true
	}
	return false
}

func periodKey(p Period, t time.Time) string {
	t = t.UTC()
	switch p {
	case PeriodHourly:
		return t.Format("2006-01-02T15")
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// bucket is one counter set. Each bucket carries its own lock so updates to
// unrelated carriers, countries and periods never serialize on each other.
type bucket struct {
	mu              sync.Mutex
	callCount       int64
	durationSeconds int64
	totalCost       float64
	totalRevenue    float64
	successCount    int64
}

func (b *bucket) apply(d Delta) {
	b.mu.Lock()
	b.callCount++
	b.durationSeconds += d.DurationSeconds
	b.totalCost += d.Cost
	b.totalRevenue += d.Revenue
	if d.Successful {
		b.successCount++
	}
	b.mu.Unlock()
}

// Snapshot is a point-in-time copy of one bucket's counters.
type Snapshot struct {
	CallCount       int64   `json:"call_count"`
	DurationSeconds int64   `json:"total_duration_seconds"`
	TotalCost       float64 `json:"total_cost"`
	TotalRevenue    float64 `json:"total_revenue"`
	SuccessCount    int64   `json:"success_count"`
}

func (b *bucket) snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		CallCount:       b.callCount,
		DurationSeconds: b.durationSeconds,
		TotalCost:       b.totalCost,
		TotalRevenue:    b.totalRevenue,
		SuccessCount:    b.successCount,
	}
}

// Delta is the contribution of one accepted, priced CDR.
type Delta struct {
	CarrierID       string
	CountryCode     string
	CallType        domain.CallType
	StartTime       time.Time
	DurationSeconds int64
	Cost            float64
	Revenue         float64
	Successful      bool
}

// DeltaFor builds the aggregation delta for an accepted CDR.
func DeltaFor(cdr *domain.CDR) Delta {
	return Delta{
		CarrierID:       cdr.CarrierID,
		CountryCode:     cdr.CountryCode,
		CallType:        cdr.CallType,
		StartTime:       cdr.StartTime,
		DurationSeconds: cdr.DurationSeconds,
		Cost:            cdr.Cost,
		Revenue:         cdr.Revenue,
		Successful:      cdr.Successful,
	}
}

// keys returns every bucket key this delta touches, in a fixed sorted order
// so overlapping updates take bucket locks in the same sequence.
func (d Delta) keys() []string {
	keys := []string{
		keyGlobal,
		keyCarrier + d.CarrierID,
		keyCallType + string(d.CallType),
		string(PeriodHourly) + ":" + periodKey(PeriodHourly, d.StartTime),
		string(PeriodDaily) + ":" + periodKey(PeriodDaily, d.StartTime),
		string(PeriodMonthly) + ":" + periodKey(PeriodMonthly, d.StartTime),
	}
	if d.CountryCode != "" {
		keys = append(keys, keyCountry+d.CountryCode)
	}
	sort.Strings(keys)
	return keys
}

// Engine owns all aggregation buckets. All mutation goes through Apply.
type Engine struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

func NewEngine() *Engine {
	return &Engine{buckets: make(map[string]*bucket)}
}

// Apply folds one accepted CDR into every bucket it affects. The affected
// key set is computed up front; each bucket update is a single atomic
// read-modify-write under that bucket's lock.
func (e *Engine) Apply(d Delta) {
	for _, key := range d.keys() {
		e.bucket(key).apply(d)
	}
}

// bucket returns the bucket for key, creating it on first use. Creation is
// race-safe: the double check under the write lock keeps concurrent first
// deltas for the same key on one bucket.
func (e *Engine) bucket(key string) *bucket {
	e.mu.RLock()
	b := e.buckets[key]
	e.mu.RUnlock()
	if b != nil {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b = e.buckets[key]; b == nil {
		b = &bucket{}
		e.buckets[key] = b
	}
	return b
}

// Global returns a snapshot of the global bucket.
func (e *Engine) Global() Snapshot {
	return e.bucket(keyGlobal).snapshot()
}

// family snapshots every bucket whose key starts with prefix, keyed by the
// remainder of the key.
func (e *Engine) family(prefix string) map[string]Snapshot {
	e.mu.RLock()
	members := make(map[string]*bucket)
	for key, b := range e.buckets {
		if strings.HasPrefix(key, prefix) {
			members[strings.TrimPrefix(key, prefix)] = b
		}
	}
	e.mu.RUnlock()

	out := make(map[string]Snapshot, len(members))
	for name, b := range members {
		out[name] = b.snapshot()
	}
	return out
}
