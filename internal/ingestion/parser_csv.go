package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

// ParseCSV parses the switch CSV export format.
//
// Expected header:
//
//	call_id,caller_number,called_number,start_time,end_time,duration_seconds,carrier_id,call_type,country_code
func ParseCSV(data []byte) ([]domain.CDRDraft, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 9 {
		return nil, fmt.Errorf("expected 9 columns, got %d", len(header))
	}

	var drafts []domain.CDRDraft
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < 9 {
			continue
		}

		duration, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d duration: %w", lineNum, err)
		}

		drafts = append(drafts, domain.CDRDraft{
			CallID:          strings.TrimSpace(row[0]),
			CallerNumber:    strings.TrimSpace(row[1]),
			CalledNumber:    strings.TrimSpace(row[2]),
			StartTime:       strings.TrimSpace(row[3]),
			EndTime:         strings.TrimSpace(row[4]),
			DurationSeconds: duration,
			CarrierID:       strings.TrimSpace(row[6]),
			CallType:        strings.TrimSpace(row[7]),
			CountryCode:     strings.TrimSpace(row[8]),
		})
	}

	return drafts, nil
}
