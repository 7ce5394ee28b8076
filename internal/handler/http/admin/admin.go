// Package admin exposes operator-triggered batch jobs over HTTP, mirroring
// original_source's /admin/summary/run and /admin/summary/health: manual
// triggers for the same work the scheduler runs on a cadence.
package admin

import (
	"errors"
	"net/http"
	"strconv"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/internal/summarizer"
	"catchup-feed/internal/vectorindex"
)

var errMethodNotAllowed = errors.New("method not allowed")

const defaultSummaryLimit = 200

// Handler serves the admin batch endpoints.
type Handler struct {
	Summarizer *summarizer.Batch
	Trainer    *vectorindex.Trainer
}

// SummaryRunResponse is the JSON body for POST /admin/summary/run.
type SummaryRunResponse struct {
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// ServeSummaryRun implements POST /admin/summary/run?limit&force.
// Returns 409 when the advisory lock is already held by another process.
func (h Handler) ServeSummaryRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.SafeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	limit := defaultSummaryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, entity.NewError("admin.ServeSummaryRun", entity.KindInvalidInput, err))
			return
		}
		limit = n
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	result, err := h.Summarizer.UpdateMissing(r.Context(), limit, force)
	if err != nil {
		status := http.StatusInternalServerError
		if kind, ok := entity.KindOf(err); ok && kind == entity.KindConflict {
			status = http.StatusConflict
		}
		respond.SafeError(w, status, err)
		return
	}

	respond.JSON(w, http.StatusOK, SummaryRunResponse{
		Skipped:   result.Skipped,
		Reason:    result.Reason,
		Processed: result.Processed,
		Failed:    result.Failed,
	})
}

// SummaryHealthResponse is the JSON body for GET /admin/summary/health.
type SummaryHealthResponse struct {
	Status string `json:"status"`
}

// ServeSummaryHealth implements GET /admin/summary/health: a liveness
// probe confirming the summarizer batch job is wired, matching
// original_source's health endpoint shape.
func (h Handler) ServeSummaryHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.Summarizer == nil {
		status = "unconfigured"
	}
	respond.JSON(w, http.StatusOK, SummaryHealthResponse{Status: status})
}

// ReindexRunResponse is the JSON body for POST /admin/reindex/run.
type ReindexRunResponse struct {
	Indexed   int    `json:"indexed"`
	Dimension int    `json:"dimension"`
	Duration  string `json:"duration"`
}

// ServeReindexRun implements POST /admin/reindex/run: a manual trigger for
// the full C6 reindex pipeline.
func (h Handler) ServeReindexRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.SafeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	result, err := h.Trainer.Reindex(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, ReindexRunResponse{
		Indexed:   result.Indexed,
		Dimension: result.Dimension,
		Duration:  result.Duration.String(),
	})
}
