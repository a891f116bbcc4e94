package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/voxtel/cdrpipeline/internal/domain"
	"github.com/voxtel/cdrpipeline/internal/logging"
	"github.com/voxtel/cdrpipeline/internal/pipeline"
)

// ImportResult is returned from a file import.
type ImportResult struct {
	FileHash        string                `json:"file_hash"`
	AlreadyImported bool                  `json:"already_imported"`
	RecordsParsed   int                   `json:"records_parsed"`
	RecordsAccepted int                   `json:"records_accepted"`
	RecordsRejected int                   `json:"records_rejected"`
	Rejections      []*pipeline.Rejection `json:"rejections,omitempty"`
}

// Service imports CDR files through the submission pipeline.
type Service struct {
	pipe *pipeline.Pipeline

	mu   sync.Mutex
	seen map[string]bool // file hashes imported this process lifetime
}

func NewService(pipe *pipeline.Pipeline) *Service {
	return &Service{pipe: pipe, seen: make(map[string]bool)}
}

// Import parses a CDR file and submits every record through the pipeline.
// Re-importing a byte-identical file is a no-op; per-record rejections are
// reported in the result and never fail the file.
//
// format must be csv or json.
func (s *Service) Import(ctx context.Context, data []byte, format string) (*ImportResult, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(data))

	s.mu.Lock()
	already := s.seen[hash]
	s.mu.Unlock()
	if already {
		return &ImportResult{FileHash: hash, AlreadyImported: true}, nil
	}

	var drafts []domain.CDRDraft
	var err error
	switch format {
	case "csv":
		drafts, err = ParseCSV(data)
	case "json":
		drafts, err = ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	results := s.pipe.SubmitBatch(ctx, drafts)

	result := &ImportResult{FileHash: hash, RecordsParsed: len(drafts)}
	for _, res := range results {
		if res.Rejection == nil {
			result.RecordsAccepted++
			continue
		}
		result.RecordsRejected++
		result.Rejections = append(result.Rejections, res.Rejection)
	}

	s.mu.Lock()
	s.seen[hash] = true
	s.mu.Unlock()

	logging.Sugar.Infof("[ingestion] Imported %s file: %d records (%d accepted, %d rejected)",
		format, result.RecordsParsed, result.RecordsAccepted, result.RecordsRejected)
	return result, nil
}
