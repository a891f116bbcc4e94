// Package export renders stored CDRs as CSV or JSON documents. It consumes
// the repository's replay interface and owns no state.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

// Source is the read contract export needs from the persistence layer.
type Source interface {
	All(ctx context.Context, fn func(*domain.CDR) error) error
}

// Collect gathers every stored CDR whose start_time falls inside the
// optional [from, to] range.
func Collect(ctx context.Context, src Source, from, to *time.Time) ([]domain.CDR, error) {
	var cdrs []domain.CDR
	err := src.All(ctx, func(cdr *domain.CDR) error {
		if from != nil && cdr.StartTime.Before(*from) {
			return nil
		}
		if to != nil && cdr.StartTime.After(*to) {
			return nil
		}
		cdrs = append(cdrs, *cdr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect cdrs: %w", err)
	}
	return cdrs, nil
}

var csvHeader = []string{
	"call_id", "caller_number", "called_number", "start_time", "end_time",
	"duration_seconds", "carrier_id", "call_type", "country_code", "country_name",
	"cost", "revenue", "profit_margin", "billable_seconds", "rate_per_minute",
	"successful", "processed_at",
}

// WriteCSV writes the records as CSV with a header row.
func WriteCSV(w io.Writer, cdrs []domain.CDR) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range cdrs {
		c := &cdrs[i]
		row := []string{
			c.CallID,
			c.CallerNumber,
			c.CalledNumber,
			c.StartTime.UTC().Format(time.RFC3339),
			c.EndTime.UTC().Format(time.RFC3339),
			strconv.FormatInt(c.DurationSeconds, 10),
			c.CarrierID,
			string(c.CallType),
			c.CountryCode,
			c.CountryName,
			strconv.FormatFloat(c.Cost, 'f', 2, 64),
			strconv.FormatFloat(c.Revenue, 'f', 2, 64),
			strconv.FormatFloat(c.ProfitMargin, 'f', 2, 64),
			strconv.FormatInt(c.BillableSeconds, 10),
			strconv.FormatFloat(c.RatePerMinute, 'f', -1, 64),
			strconv.FormatBool(c.Successful),
			c.ProcessedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename builds the attachment name for a CSV export.
func Filename(now time.Time) string {
	return fmt.Sprintf("cdrs_%s.csv", now.UTC().Format("20060102"))
}
