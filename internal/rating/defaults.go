package rating

// Built-in rate table used when no configuration file is supplied. The
// figures mirror the carrier contracts the platform launched with.

const (
	defaultMarkup    = 1.5
	defaultIncrement = 60
)

type carrierRates struct {
	id       string
	name     string
	local    float64
	national float64
	intl     map[string]float64
	intlDef  float64
}

var builtinCarriers = []carrierRates{
	{
		id: "carrier_001", name: "Premium Carrier A",
		local: 0.01, national: 0.02,
		intl:    map[string]float64{"US": 0.03, "GB": 0.04, "DE": 0.04, "FR": 0.04, "AU": 0.05, "JP": 0.06},
		intlDef: 0.08,
	},
	{
		id: "carrier_002", name: "Budget Carrier B",
		local: 0.008, national: 0.015,
		intl:    map[string]float64{"US": 0.025, "GB": 0.035, "DE": 0.035, "FR": 0.035, "AU": 0.045, "JP": 0.055},
		intlDef: 0.07,
	},
	{
		id: "carrier_003", name: "Standard Carrier C",
		local: 0.009, national: 0.018,
		intl:    map[string]float64{"US": 0.028, "GB": 0.038, "DE": 0.038, "FR": 0.038, "AU": 0.048, "JP": 0.058},
		intlDef: 0.075,
	},
}

// DefaultConfig builds the built-in rate configuration: per-carrier home
// market rates, per-country international rates, a call type default per
// type, and a global default.
func DefaultConfig() Config {
	entry := func(ct, country, carrier string, rate float64) ConfigEntry {
		return ConfigEntry{
			CallType:            ct,
			CountryCode:         country,
			CarrierID:           carrier,
			RatePerMinute:       rate,
			MarkupFactor:        defaultMarkup,
			MinIncrementSeconds: defaultIncrement,
		}
	}

	cfg := Config{
		Default: &Entry{
			RatePerMinute:       0.08,
			MarkupFactor:        defaultMarkup,
			MinIncrementSeconds: defaultIncrement,
		},
		Carriers: make(map[string]string, len(builtinCarriers)),
	}

	for _, c := range builtinCarriers {
		cfg.Carriers[c.id] = c.name
		cfg.Rates = append(cfg.Rates,
			entry("local", "US", c.id, c.local),
			entry("national", "US", c.id, c.national),
		)
		for country, rate := range c.intl {
			cfg.Rates = append(cfg.Rates, entry("international", country, c.id, rate))
		}
	}

	// Call type defaults used when neither destination nor carrier is
	// configured; international defaults per destination are the any-carrier
	// tier.
	first := builtinCarriers[0]
	cfg.Rates = append(cfg.Rates,
		entry("local", "", "", first.local),
		entry("national", "", "", first.national),
		entry("international", "", "", first.intlDef),
	)
	for country, rate := range first.intl {
		cfg.Rates = append(cfg.Rates, entry("international", country, "", rate))
	}
	cfg.Rates = append(cfg.Rates,
		entry("local", "US", "", first.local),
		entry("national", "US", "", first.national),
	)

	return cfg
}
