package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

// Generates sample CDR drafts usable against POST /cdr/batch.

var countryNumbers = map[string][]string{
	"US": {"+14155551234", "+13105559876", "+12125558888", "+17185559999"},
	"GB": {"+442071234567", "+441234567890", "+447911123456"},
	"DE": {"+493012345678", "+491761234567"},
	"FR": {"+33123456789", "+33612345678"},
	"AU": {"+61212345678", "+61412345678"},
	"JP": {"+81312345678", "+81901234567"},
}

var intlCountries = []string{"US", "GB", "DE", "FR", "AU", "JP"}

var carriers = []string{"carrier_001", "carrier_002", "carrier_003"}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	const count = 200
	usNumbers := countryNumbers["US"]

	var drafts []domain.CDRDraft
	for i := 0; i < count; i++ {
		// 40% local, 30% national, 30% international.
		roll := rng.Float64()
		var callType, countryCode, called string
		switch {
		case roll < 0.4:
			callType = "local"
			called = usNumbers[rng.Intn(len(usNumbers))]
		case roll < 0.7:
			callType = "national"
			called = usNumbers[rng.Intn(len(usNumbers))]
		default:
			callType = "international"
			countryCode = intlCountries[rng.Intn(len(intlCountries))]
			numbers := countryNumbers[countryCode]
			called = numbers[rng.Intn(len(numbers))]
		}

		// Calls spread across the last 7 days, 8:00-20:59 local start.
		daysAgo := rng.Intn(7)
		start := time.Now().UTC().AddDate(0, 0, -daysAgo).Truncate(time.Hour)
		start = start.Add(time.Duration(8+rng.Intn(13)) * time.Hour).Add(time.Duration(rng.Intn(60)) * time.Minute)

		// 1 to 30 minutes; 3% never connected.
		duration := int64(60 + rng.Intn(1740))
		if rng.Float64() < 0.03 {
			duration = 0
		}
		end := start.Add(time.Duration(duration) * time.Second)

		drafts = append(drafts, domain.CDRDraft{
			CallID:          fmt.Sprintf("call_%04d", 1000+i),
			CallerNumber:    usNumbers[rng.Intn(len(usNumbers))],
			CalledNumber:    called,
			StartTime:       start.Format(time.RFC3339),
			EndTime:         end.Format(time.RFC3339),
			DurationSeconds: duration,
			CarrierID:       carriers[rng.Intn(len(carriers))],
			CallType:        callType,
			CountryCode:     countryCode,
		})
	}

	writeJSONFile(filepath.Join(baseDir, "cdrs.json"), drafts)
	fmt.Printf("Generated %d CDR drafts -> cdrs.json\n", len(drafts))
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	candidates := []string{"testdata", "./testdata", "."}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
