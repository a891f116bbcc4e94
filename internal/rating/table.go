package rating

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voxtel/cdrpipeline/internal/domain"
	"github.com/voxtel/cdrpipeline/internal/logging"
)

// Entry holds the billing parameters for one rate key.
type Entry struct {
	RatePerMinute       float64 `json:"rate_per_minute"`
	MarkupFactor        float64 `json:"markup_factor"`
	MinIncrementSeconds int64   `json:"min_increment_seconds"`
}

// ConfigEntry is one row of the rate configuration document. An empty
// carrier_id matches any carrier; an empty country_code makes the entry
// the call type's default.
type ConfigEntry struct {
	CallType            string  `json:"call_type"`
	CountryCode         string  `json:"country_code,omitempty"`
	CarrierID           string  `json:"carrier_id,omitempty"`
	RatePerMinute       float64 `json:"rate_per_minute"`
	MarkupFactor        float64 `json:"markup_factor"`
	MinIncrementSeconds int64   `json:"min_increment_seconds"`
}

// Config is the rate configuration document loaded at startup.
type Config struct {
	Default  *Entry            `json:"default"`
	Carriers map[string]string `json:"carriers,omitempty"` // carrier_id -> display name
	Rates    []ConfigEntry     `json:"rates"`
}

type rateKey struct {
	callType string
	country  string
	carrier  string
}

// Table is an immutable rate table. Lookups never fail: the global default
// entry is guaranteed to exist once construction succeeds.
type Table struct {
	entries      map[rateKey]Entry
	defaultEntry Entry
	carrierNames map[string]string
	cache        *lru.Cache[rateKey, Entry]
}

const resolveCacheSize = 4096

// NewTable validates a configuration document and builds a rate table.
// Validation is eager: any invalid rate makes loading fail before a single
// record can be priced.
func NewTable(cfg Config) (*Table, error) {
	if cfg.Default == nil {
		return nil, fmt.Errorf("rate config: missing mandatory default entry")
	}
	if err := validateEntry("default", Entry(*cfg.Default)); err != nil {
		return nil, err
	}

	entries := make(map[rateKey]Entry, len(cfg.Rates))
	seenTypes := make(map[string]bool)

	for i, ce := range cfg.Rates {
		if !domain.ValidCallType(ce.CallType) {
			return nil, fmt.Errorf("rate config: entry %d: unknown call_type %q", i, ce.CallType)
		}
		e := Entry{
			RatePerMinute:       ce.RatePerMinute,
			MarkupFactor:        ce.MarkupFactor,
			MinIncrementSeconds: ce.MinIncrementSeconds,
		}
		name := fmt.Sprintf("entry %d (%s/%s/%s)", i, ce.CallType, ce.CountryCode, ce.CarrierID)
		if err := validateEntry(name, e); err != nil {
			return nil, err
		}
		key := rateKey{callType: ce.CallType, country: ce.CountryCode, carrier: ce.CarrierID}
		if _, dup := entries[key]; dup {
			return nil, fmt.Errorf("rate config: duplicate %s", name)
		}
		entries[key] = e
		seenTypes[ce.CallType] = true
	}

	for _, ct := range []domain.CallType{domain.CallLocal, domain.CallNational, domain.CallInternational} {
		if !seenTypes[string(ct)] {
			return nil, fmt.Errorf("rate config: no rates configured for call_type %q", ct)
		}
	}

	cache, err := lru.New[rateKey, Entry](resolveCacheSize)
	if err != nil {
		return nil, fmt.Errorf("resolve cache: %w", err)
	}

	return &Table{
		entries:      entries,
		defaultEntry: Entry(*cfg.Default),
		carrierNames: cfg.Carriers,
		cache:        cache,
	}, nil
}

func validateEntry(name string, e Entry) error {
	if e.RatePerMinute < 0 {
		return fmt.Errorf("rate config: %s: rate_per_minute must be >= 0, got %v", name, e.RatePerMinute)
	}
	if e.MarkupFactor < 1.0 {
		return fmt.Errorf("rate config: %s: markup_factor must be >= 1.0, got %v", name, e.MarkupFactor)
	}
	if e.MinIncrementSeconds < 1 {
		return fmt.Errorf("rate config: %s: min_increment_seconds must be >= 1, got %d", name, e.MinIncrementSeconds)
	}
	return nil
}

// Resolve finds the rate entry for a call. Lookup order: exact match, then
// any-carrier for the destination, then the call type default, then the
// global default. It never fails.
func (t *Table) Resolve(callType domain.CallType, countryCode, carrierID string) Entry {
	key := rateKey{callType: string(callType), country: countryCode, carrier: carrierID}
	if e, ok := t.cache.Get(key); ok {
		return e
	}

	e := t.resolve(key)
	t.cache.Add(key, e)
	return e
}

func (t *Table) resolve(key rateKey) Entry {
	if e, ok := t.entries[key]; ok {
		return e
	}
	if e, ok := t.entries[rateKey{callType: key.callType, country: key.country}]; ok {
		return e
	}
	if e, ok := t.entries[rateKey{callType: key.callType}]; ok {
		return e
	}
	return t.defaultEntry
}

// CarrierInfo describes one configured carrier.
type CarrierInfo struct {
	CarrierID string `json:"carrier_id"`
	Name      string `json:"name"`
}

// Carriers lists the carriers the table has rates or names for, sorted by ID.
func (t *Table) Carriers() []CarrierInfo {
	ids := make(map[string]bool)
	for key := range t.entries {
		if key.carrier != "" {
			ids[key.carrier] = true
		}
	}
	for id := range t.carrierNames {
		ids[id] = true
	}

	infos := make([]CarrierInfo, 0, len(ids))
	for id := range ids {
		name := t.carrierNames[id]
		if name == "" {
			name = "Unknown"
		}
		infos = append(infos, CarrierInfo{CarrierID: id, Name: name})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CarrierID < infos[j].CarrierID })
	return infos
}

// Reloader owns the current rate table and supports hot reload. A reload
// builds and validates a complete new table, then swaps the pointer; in-flight
// lookups never see a partially updated table.
type Reloader struct {
	path string
	cur  atomic.Pointer[Table]
}

// NewReloader loads the rate table from path. If the file does not exist the
// built-in default table is used. Any other load or validation error is fatal
// to startup.
func NewReloader(path string) (*Reloader, error) {
	r := &Reloader{path: path}
	t, err := loadTable(path)
	if err != nil {
		return nil, err
	}
	r.cur.Store(t)
	return r, nil
}

// Table returns the current rate table.
func (r *Reloader) Table() *Table {
	return r.cur.Load()
}

// Reload re-reads the configuration file and atomically replaces the table.
// On error the previous table stays active.
func (r *Reloader) Reload() error {
	t, err := loadTable(r.path)
	if err != nil {
		return err
	}
	r.cur.Store(t)
	logging.Sugar.Infof("[rating] Reloaded rate table from %s (%d entries)", r.path, len(t.entries))
	return nil
}

func loadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.Sugar.Infof("[rating] No rate table at %s, using built-in defaults", path)
		return NewTable(DefaultConfig())
	}
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rate table: %w", err)
	}
	return NewTable(cfg)
}
