package pipeline

import (
	"strings"
	"testing"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

func validDraft() domain.CDRDraft {
	return domain.CDRDraft{
		CallID:          "call_001",
		CallerNumber:    "+14155551234",
		CalledNumber:    "+442071234567",
		StartTime:       "2025-01-05T10:30:00Z",
		EndTime:         "2025-01-05T10:35:30Z",
		DurationSeconds: 330,
		CarrierID:       "carrier_001",
		CallType:        "international",
		CountryCode:     "GB",
	}
}

func TestValidateAcceptsAndEnriches(t *testing.T) {
	draft := validDraft()
	cdr, err := Validate(&draft)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cdr.CallType != domain.CallInternational {
		t.Errorf("call type = %s", cdr.CallType)
	}
	if cdr.CountryName != "United Kingdom" {
		t.Errorf("country name = %q", cdr.CountryName)
	}
	if cdr.CallerPrefix != "141" || cdr.CalledPrefix != "442" {
		t.Errorf("prefixes = %q / %q", cdr.CallerPrefix, cdr.CalledPrefix)
	}
	if !cdr.Successful {
		t.Error("330s call should be flagged successful")
	}
	if cdr.DurationMismatch {
		t.Error("consistent duration flagged as mismatch")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.CDRDraft)
		wantMsg string
	}{
		{"missing call_id", func(d *domain.CDRDraft) { d.CallID = "" }, "call_id"},
		{"bad caller number", func(d *domain.CDRDraft) { d.CallerNumber = "4155551234" }, "caller_number"},
		{"caller number too short", func(d *domain.CDRDraft) { d.CallerNumber = "+123456" }, "caller_number"},
		{"bad called number", func(d *domain.CDRDraft) { d.CalledNumber = "+44-20-7123" }, "called_number"},
		{"missing carrier", func(d *domain.CDRDraft) { d.CarrierID = "" }, "carrier_id"},
		{"negative duration", func(d *domain.CDRDraft) { d.DurationSeconds = -1 }, "duration_seconds"},
		{"unknown call type", func(d *domain.CDRDraft) { d.CallType = "premium" }, "call_type"},
		{"bad start time", func(d *domain.CDRDraft) { d.StartTime = "05/01/2025 10:30" }, "start_time"},
		{"missing end time", func(d *domain.CDRDraft) { d.EndTime = "" }, "end_time"},
		{"end before start", func(d *domain.CDRDraft) { d.EndTime = "2025-01-05T10:00:00Z" }, "before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)
			_, err := Validate(&draft)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateCallTypeCaseInsensitive(t *testing.T) {
	draft := validDraft()
	draft.CallType = "International"
	cdr, err := Validate(&draft)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cdr.CallType != domain.CallInternational {
		t.Errorf("call type = %s", cdr.CallType)
	}
}

func TestValidateDurationMismatchFlag(t *testing.T) {
	draft := validDraft()
	draft.DurationSeconds = 100 // end-start says 330s

	cdr, err := Validate(&draft)
	if err != nil {
		t.Fatalf("mismatch must not reject: %v", err)
	}
	if !cdr.DurationMismatch {
		t.Error("expected DurationMismatch flag")
	}
	if cdr.DurationSeconds != 100 {
		t.Errorf("duration_seconds = %d, want the submitted 100 (authoritative)", cdr.DurationSeconds)
	}

	// Within the 5 second tolerance: no flag.
	draft = validDraft()
	draft.DurationSeconds = 327
	cdr, err = Validate(&draft)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cdr.DurationMismatch {
		t.Error("drift inside tolerance flagged")
	}
}

func TestValidateZeroDurationNotSuccessful(t *testing.T) {
	draft := validDraft()
	draft.DurationSeconds = 0
	draft.EndTime = draft.StartTime

	cdr, err := Validate(&draft)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cdr.Successful {
		t.Error("zero-duration call flagged successful")
	}
}

func TestAnomalies(t *testing.T) {
	cdr := &domain.CDR{
		CallerNumber:    "+14155551234",
		CalledNumber:    "+14155551234",
		DurationSeconds: 20000,
	}
	warnings := Anomalies(cdr)
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v", warnings)
	}

	cdr = &domain.CDR{CallerNumber: "+1", CalledNumber: "+2", DurationSeconds: 300}
	if warnings := Anomalies(cdr); len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}
