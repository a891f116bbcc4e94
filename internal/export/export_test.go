package export

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

type sliceSource []domain.CDR

func (s sliceSource) All(_ context.Context, fn func(*domain.CDR) error) error {
	for i := range s {
		if err := fn(&s[i]); err != nil {
			return err
		}
	}
	return nil
}

func exportCDR(callID string, start time.Time) domain.CDR {
	return domain.CDR{
		CallID:          callID,
		CallerNumber:    "+14155551234",
		CalledNumber:    "+442071234567",
		StartTime:       start,
		EndTime:         start.Add(330 * time.Second),
		DurationSeconds: 330,
		CarrierID:       "carrier_001",
		CallType:        domain.CallInternational,
		CountryCode:     "GB",
		CountryName:     "United Kingdom",
		Cost:            1.08,
		Revenue:         1.62,
		ProfitMargin:    0.54,
		BillableSeconds: 360,
		RatePerMinute:   0.18,
		Successful:      true,
		ProcessedAt:     start.Add(time.Minute),
	}
}

func TestCollectRange(t *testing.T) {
	base := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	src := sliceSource{
		exportCDR("call_000", base),
		exportCDR("call_001", base.Add(time.Hour)),
		exportCDR("call_002", base.Add(2*time.Hour)),
	}

	all, err := Collect(context.Background(), src, nil, nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unbounded collect = %d records", len(all))
	}

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	ranged, err := Collect(context.Background(), src, &from, &to)
	if err != nil {
		t.Fatalf("Collect ranged: %v", err)
	}
	if len(ranged) != 1 || ranged[0].CallID != "call_001" {
		t.Errorf("ranged collect = %+v, want only call_001", ranged)
	}

	// Range bounds are inclusive.
	inclusive, err := Collect(context.Background(), src, &base, nil)
	if err != nil {
		t.Fatalf("Collect inclusive: %v", err)
	}
	if len(inclusive) != 3 {
		t.Errorf("inclusive from bound dropped records: %d", len(inclusive))
	}
}

func TestWriteCSV(t *testing.T) {
	base := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	var buf strings.Builder
	err := WriteCSV(&buf, []domain.CDR{exportCDR("call_001", base)})
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "call_id" || len(rows[0]) != len(rows[1]) {
		t.Errorf("header mismatch: %v", rows[0])
	}

	col := func(name string) string {
		for i, h := range rows[0] {
			if h == name {
				return rows[1][i]
			}
		}
		t.Fatalf("no column %q", name)
		return ""
	}
	if col("call_id") != "call_001" {
		t.Errorf("call_id = %q", col("call_id"))
	}
	if col("cost") != "1.08" || col("revenue") != "1.62" {
		t.Errorf("money formatting = %q / %q", col("cost"), col("revenue"))
	}
	if col("start_time") != "2025-01-05T10:00:00Z" {
		t.Errorf("start_time = %q", col("start_time"))
	}
	if col("successful") != "true" {
		t.Errorf("successful = %q", col("successful"))
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("empty export = %d lines, want header only", len(lines))
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC)
	if got := Filename(now); got != "cdrs_20250105.csv" {
		t.Errorf("Filename = %q", got)
	}
}
