package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voxtel/cdrpipeline/internal/aggregate"
	"github.com/voxtel/cdrpipeline/internal/domain"
	"github.com/voxtel/cdrpipeline/internal/export"
	"github.com/voxtel/cdrpipeline/internal/ingestion"
	"github.com/voxtel/cdrpipeline/internal/logging"
	"github.com/voxtel/cdrpipeline/internal/pipeline"
	"github.com/voxtel/cdrpipeline/internal/rating"
	"github.com/voxtel/cdrpipeline/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	pipe     *pipeline.Pipeline
	importer *ingestion.Service
	cdrRepo  *repository.CDRRepo
	agg      *aggregate.Engine
	rates    *rating.Reloader
	started  time.Time
}

func NewHandlers(
	pipe *pipeline.Pipeline,
	cdrRepo *repository.CDRRepo,
	agg *aggregate.Engine,
	rates *rating.Reloader,
) *Handlers {
	return &Handlers{
		pipe:     pipe,
		importer: ingestion.NewService(pipe),
		cdrRepo:  cdrRepo,
		agg:      agg,
		rates:    rates,
		started:  time.Now(),
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Sugar.Errorf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeRejection(w http.ResponseWriter, rej *pipeline.Rejection) {
	status := http.StatusBadRequest
	switch rej.Reason {
	case pipeline.RejectDuplicate:
		status = http.StatusConflict
	case pipeline.RejectPersistence:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, rej)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// --- SubmitCDR ---

func (h *Handlers) SubmitCDR(w http.ResponseWriter, r *http.Request) {
	var draft domain.CDRDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	cdr, rej := h.pipe.Submit(r.Context(), &draft)
	if rej != nil {
		writeRejection(w, rej)
		return
	}
	writeJSON(w, http.StatusCreated, cdr)
}

// --- SubmitBatch ---

func (h *Handlers) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var drafts []domain.CDRDraft
	if err := json.NewDecoder(r.Body).Decode(&drafts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(drafts) == 0 {
		writeError(w, http.StatusBadRequest, "batch is empty")
		return
	}

	results := h.pipe.SubmitBatch(r.Context(), drafts)

	successCount := 0
	for _, res := range results {
		if res.Rejection == nil {
			successCount++
		}
	}

	batchID := uuid.NewString()
	logging.Sugar.Infof("[api] Batch %s: %d accepted, %d rejected", batchID, successCount, len(results)-successCount)

	writeJSON(w, http.StatusCreated, map[string]any{
		"batch_id":      batchID,
		"success_count": successCount,
		"error_count":   len(results) - successCount,
		"results":       results,
	})
}

// --- ImportFile ---

const maxImportBytes = 32 << 20 // 32 MiB

func (h *Handlers) ImportFile(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "format must be json or csv")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty file")
		return
	}

	result, err := h.importer.Import(r.Context(), data, format)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- ListCDRs ---

func (h *Handlers) ListCDRs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.Filter{
		CarrierID:   q.Get("carrier_id"),
		CountryCode: q.Get("country_code"),
		CallType:    q.Get("call_type"),
		From:        parseTime(q.Get("start_date")),
		To:          parseTime(q.Get("end_date")),
		Limit:       parseIntDefault(q.Get("limit"), 100),
		Offset:      parseIntDefault(q.Get("offset"), 0),
	}

	cdrs, total, err := h.cdrRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(cdrs),
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
		"cdrs":   cdrs,
	})
}

// --- GetCDR ---

func (h *Handlers) GetCDR(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "call_id")

	cdr, err := h.cdrRepo.GetByCallID(r.Context(), callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "CDR with call_id "+callID+" not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cdr)
}

// --- DeleteCDR ---

func (h *Handlers) DeleteCDR(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "call_id")

	if err := h.cdrRepo.SoftDelete(r.Context(), callID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "CDR with call_id "+callID+" not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "CDR " + callID + " deleted"})
}

// --- Analytics ---

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agg.Summary())
}

func (h *Handlers) GetCostAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agg.CostAnalysis())
}

func (h *Handlers) GetCarrierStats(w http.ResponseWriter, r *http.Request) {
	stats := h.agg.CarrierStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_carriers": len(stats),
		"carrier_stats":  stats,
	})
}

func (h *Handlers) GetGeographic(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agg.Geographic())
}

func (h *Handlers) GetTraffic(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(aggregate.PeriodDaily)
	}
	if !aggregate.ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, "period must be one of: hourly, daily, monthly")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"data":   h.agg.Traffic(aggregate.Period(period)),
	})
}

// --- Rates ---

func (h *Handlers) ListCarriers(w http.ResponseWriter, r *http.Request) {
	carriers := h.rates.Table().Carriers()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_carriers": len(carriers),
		"carriers":       carriers,
	})
}

func (h *Handlers) ReloadRates(w http.ResponseWriter, r *http.Request) {
	if err := h.rates.Reload(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "reload rates: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "rate table reloaded"})
}

// --- Export ---

func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "format must be json or csv")
		return
	}

	cdrs, err := export.Collect(r.Context(), h.cdrRepo, parseTime(q.Get("start_date")), parseTime(q.Get("end_date")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, map[string]any{"count": len(cdrs), "cdrs": cdrs})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(time.Now()))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, cdrs); err != nil {
		logging.Sugar.Errorf("[api] csv export: %v", err)
	}
}

// --- Operations ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	total, err := h.cdrRepo.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"total_cdrs": total,
	})
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.cdrRepo.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_cdrs":          total,
		"carriers_configured": len(h.rates.Table().Carriers()),
		"dedup_index_size":    h.pipe.Dedup().Len(),
		"uptime_seconds":      int(time.Since(h.started).Seconds()),
	})
}
