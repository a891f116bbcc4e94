package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

// phonePattern is E.164-ish: leading + followed by 7 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+\d{7,15}$`)

// durationToleranceSeconds is how far duration_seconds may drift from
// end_time - start_time before the record is flagged. duration_seconds
// stays authoritative either way.
const durationToleranceSeconds = 5

func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid timestamp %q, use RFC3339", field, value)
	}
	return t, nil
}

// Validate checks a submitted draft and builds the enriched (not yet priced)
// CDR. All failures are reported before any state is touched.
func Validate(draft *domain.CDRDraft) (*domain.CDR, error) {
	if draft.CallID == "" {
		return nil, fmt.Errorf("call_id is required")
	}
	if !phonePattern.MatchString(draft.CallerNumber) {
		return nil, fmt.Errorf("caller_number must start with + and contain 7-15 digits")
	}
	if !phonePattern.MatchString(draft.CalledNumber) {
		return nil, fmt.Errorf("called_number must start with + and contain 7-15 digits")
	}
	if draft.CarrierID == "" {
		return nil, fmt.Errorf("carrier_id is required")
	}
	if draft.DurationSeconds < 0 {
		return nil, fmt.Errorf("duration_seconds must be >= 0, got %d", draft.DurationSeconds)
	}

	callType := strings.ToLower(draft.CallType)
	if !domain.ValidCallType(callType) {
		return nil, fmt.Errorf("call_type must be one of: local, national, international")
	}

	start, err := parseTimestamp("start_time", draft.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseTimestamp("end_time", draft.EndTime)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end_time is before start_time")
	}

	cdr := &domain.CDR{
		CallID:          draft.CallID,
		CallerNumber:    draft.CallerNumber,
		CalledNumber:    draft.CalledNumber,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: draft.DurationSeconds,
		CarrierID:       draft.CarrierID,
		CallType:        domain.CallType(callType),
		CountryCode:     strings.ToUpper(draft.CountryCode),
		CallerPrefix:    numberPrefix(draft.CallerNumber),
		CalledPrefix:    numberPrefix(draft.CalledNumber),
		Successful:      draft.DurationSeconds > 0,
	}
	if cdr.CountryCode != "" {
		cdr.CountryName = domain.CountryName(cdr.CountryCode)
	}

	elapsed := int64(end.Sub(start).Seconds())
	if abs64(elapsed-draft.DurationSeconds) > durationToleranceSeconds {
		cdr.DurationMismatch = true
	}

	return cdr, nil
}

// numberPrefix extracts the leading country/area digits of a phone number.
func numberPrefix(number string) string {
	digits := strings.TrimPrefix(number, "+")
	if len(digits) > 3 {
		return digits[:3]
	}
	return digits
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Anomaly thresholds.
const (
	longCallSeconds  = 14400 // 4 hours
	shortCallSeconds = 10
)

// Anomalies returns advisory warnings for a validated CDR. They never block
// ingestion.
func Anomalies(cdr *domain.CDR) []string {
	var warnings []string
	if cdr.DurationSeconds > longCallSeconds {
		warnings = append(warnings, "unusually long call duration")
	}
	if cdr.DurationSeconds < shortCallSeconds {
		warnings = append(warnings, "very short call duration")
	}
	if cdr.CallerNumber == cdr.CalledNumber {
		warnings = append(warnings, "caller and called numbers are identical")
	}
	return warnings
}
