// Package ingestion imports CDR draft files in bulk. Files come from
// switch exports in two formats: a comma CSV and a JSON document. Parsed
// drafts go through the regular submission pipeline, so file records get
// the same validation, deduplication and pricing as API submissions.
package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

// draftFile is the wrapped JSON export format.
type draftFile struct {
	Source  string            `json:"source"`
	Records []domain.CDRDraft `json:"records"`
}

// ParseJSON parses the JSON export format: either a bare array of drafts
// or a wrapped document with a records field.
func ParseJSON(data []byte) ([]domain.CDRDraft, error) {
	var drafts []domain.CDRDraft
	if err := json.Unmarshal(data, &drafts); err == nil {
		return drafts, nil
	}

	var file draftFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if file.Records == nil {
		return nil, fmt.Errorf("document has no records field")
	}
	return file.Records, nil
}
