// Package pipeline orchestrates CDR ingestion: validate, deduplicate,
// price, persist, aggregate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voxtel/cdrpipeline/internal/aggregate"
	"github.com/voxtel/cdrpipeline/internal/dedup"
	"github.com/voxtel/cdrpipeline/internal/domain"
	"github.com/voxtel/cdrpipeline/internal/logging"
	"github.com/voxtel/cdrpipeline/internal/rating"
	"github.com/voxtel/cdrpipeline/internal/repository"
)

// Store is the narrow persistence contract the pipeline needs: append one
// record, or replay them all.
type Store interface {
	Insert(ctx context.Context, cdr *domain.CDR) error
	All(ctx context.Context, fn func(*domain.CDR) error) error
}

// RejectReason classifies why a submission was not accepted.
type RejectReason string

const (
	RejectValidation  RejectReason = "validation_failed"
	RejectDuplicate   RejectReason = "duplicate_call_id"
	RejectPersistence RejectReason = "persistence_failed"
)

// Rejection is a structured per-record refusal. It carries enough detail to
// retry or audit the submission; it is not an internal error.
type Rejection struct {
	CallID string       `json:"call_id"`
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s (call_id=%s)", r.Reason, r.Detail, r.CallID)
}

// Pipeline runs submitted CDRs through validation, deduplication, rating,
// persistence and aggregation. Aggregation is applied only after the record
// is durably stored, so aggregates always describe stored records.
type Pipeline struct {
	store Store
	rates *rating.Reloader
	dedup *dedup.Index
	agg   *aggregate.Engine
}

func New(store Store, rates *rating.Reloader, dedupIdx *dedup.Index, agg *aggregate.Engine) *Pipeline {
	return &Pipeline{
		store: store,
		rates: rates,
		dedup: dedupIdx,
		agg:   agg,
	}
}

// Submit runs one draft through the pipeline. Exactly one of the results is
// non-nil: the priced CDR on acceptance, or the rejection.
func (p *Pipeline) Submit(ctx context.Context, draft *domain.CDRDraft) (*domain.CDR, *Rejection) {
	cdr, err := Validate(draft)
	if err != nil {
		return nil, &Rejection{CallID: draft.CallID, Reason: RejectValidation, Detail: err.Error()}
	}
	if cdr.DurationMismatch {
		logging.Sugar.Warnf("[pipeline] Duration mismatch for call %s: duration_seconds=%d, end-start=%s",
			cdr.CallID, cdr.DurationSeconds, cdr.EndTime.Sub(cdr.StartTime))
	}
	for _, warning := range Anomalies(cdr) {
		logging.Sugar.Warnf("[pipeline] Anomaly for call %s: %s", cdr.CallID, warning)
	}

	// Atomic check-and-insert: of concurrent submissions of the same
	// call_id, exactly one proceeds past this line.
	if !p.dedup.Admit(cdr.CallID) {
		return nil, &Rejection{CallID: cdr.CallID, Reason: RejectDuplicate, Detail: "call_id already processed"}
	}

	entry := p.rates.Table().Resolve(cdr.CallType, cdr.CountryCode, cdr.CarrierID)
	price := rating.PriceCall(cdr.DurationSeconds, entry)
	cdr.Cost = price.Cost
	cdr.Revenue = price.Revenue
	cdr.ProfitMargin = price.ProfitMargin
	cdr.BillableSeconds = price.BillableSeconds
	cdr.RatePerMinute = price.RatePerMinute
	cdr.ProcessedAt = time.Now().UTC()

	if err := p.store.Insert(ctx, cdr); err != nil {
		if errors.Is(err, repository.ErrDuplicateCall) {
			// Stored in a previous process lifetime; keep the reservation.
			return nil, &Rejection{CallID: cdr.CallID, Reason: RejectDuplicate, Detail: "call_id already stored"}
		}
		// Release the reservation so a retry is not a false duplicate. The
		// aggregation delta is never applied for an unstored record.
		p.dedup.Release(cdr.CallID)
		logging.Sugar.Errorf("[pipeline] Persist failed for call %s: %v", cdr.CallID, err)
		return nil, &Rejection{CallID: cdr.CallID, Reason: RejectPersistence, Detail: err.Error()}
	}

	p.agg.Apply(aggregate.DeltaFor(cdr))

	logging.Sugar.Infof("[pipeline] Accepted call %s: %s %ds via %s, cost=%.2f revenue=%.2f",
		cdr.CallID, cdr.CallType, cdr.DurationSeconds, cdr.CarrierID, cdr.Cost, cdr.Revenue)
	return cdr, nil
}

// BatchResult is the outcome for one element of a batch submission.
type BatchResult struct {
	Index     int         `json:"index"`
	CDR       *domain.CDR `json:"cdr,omitempty"`
	Rejection *Rejection  `json:"rejection,omitempty"`
}

// SubmitBatch applies Submit to each draft independently; one bad record
// never blocks the rest.
func (p *Pipeline) SubmitBatch(ctx context.Context, drafts []domain.CDRDraft) []BatchResult {
	results := make([]BatchResult, len(drafts))
	for i := range drafts {
		cdr, rej := p.Submit(ctx, &drafts[i])
		results[i] = BatchResult{Index: i, CDR: cdr, Rejection: rej}
	}
	return results
}

// Rebuild replays every stored CDR into the dedup index and the aggregation
// engine. Called at startup: aggregates are in-memory and are reconstructed
// from the durable store.
func (p *Pipeline) Rebuild(ctx context.Context) (int, error) {
	replayed := 0
	err := p.store.All(ctx, func(cdr *domain.CDR) error {
		if !p.dedup.Admit(cdr.CallID) {
			return nil
		}
		p.agg.Apply(aggregate.DeltaFor(cdr))
		replayed++
		return nil
	})
	if err != nil {
		return replayed, fmt.Errorf("replay store: %w", err)
	}
	logging.Sugar.Infof("[pipeline] Rebuilt aggregates from %d stored records", replayed)
	return replayed, nil
}

// Dedup exposes the duplicate index, e.g. for an external retention policy.
func (p *Pipeline) Dedup() *dedup.Index {
	return p.dedup
}
