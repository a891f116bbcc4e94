package domain

// countryNames maps ISO 3166-1 alpha-2 codes to display names for the
// destinations the platform routes to.
var countryNames = map[string]string{
	"US": "United States",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"CA": "Canada",
	"AU": "Australia",
	"JP": "Japan",
	"CN": "China",
	"IN": "India",
	"BR": "Brazil",
	"MX": "Mexico",
	"IT": "Italy",
	"ES": "Spain",
	"NL": "Netherlands",
	"SE": "Sweden",
}

// CountryName returns the display name for a country code, or "Unknown"
// for codes outside the routing table.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return "Unknown"
}

// KnownCountry reports whether the code is in the routing table.
func KnownCountry(code string) bool {
	_, ok := countryNames[code]
	return ok
}
