package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/repository"
	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/source"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
)

// submitRequest mirrors the JSON schema for POST /rankings.
type submitRequest struct {
	RunID       string                   `json:"run_id,omitempty"`
	Competitors []source.CompetitorInput `json:"competitors"`
}

// RunsHandler handles run submission and retrieval.
type RunsHandler struct {
	deps         Dependencies
	maxBatchSize int
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies, maxBatchSize int) *RunsHandler {
	return &RunsHandler{deps: deps, maxBatchSize: maxBatchSize}
}

// HandleSubmit handles POST /rankings. The body is either a JSON submission
// or a CSV sheet (Content-Type: text/csv). Submissions are idempotent by
// run ID: a retried ID is acknowledged as a duplicate, not ranked again.
func (h *RunsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_run"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	runID, batch, err := h.decode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if h.maxBatchSize > 0 && len(batch) > h.maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch_too_large", NewKind(op, source.ErrBatchTooLarge))
		return
	}

	competitors, err := source.FromRequest(batch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if runID == "" {
		runID = uuid.NewString()
	}

	if h.deps.SeenAndRecord(r.Context(), runID) {
		writeJSON(w, http.StatusOK, ackResponse{RunID: runID, Status: "duplicate", Duplicate: true})
		return
	}

	req := model.RunRequest{RunID: runID, Competitors: competitors}
	if ok := h.deps.Enqueue(r.Context(), req); !ok {
		// Roll back the seen mark so the client can retry the same ID.
		h.deps.Unrecord(r.Context(), runID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{RunID: runID, Status: "accepted"})
}

// decode picks the submission codec from the Content-Type header.
func (h *RunsHandler) decode(r *http.Request) (string, []source.CompetitorInput, error) {
	ct := r.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil && mt == "text/csv" {
		batch, err := source.ParseCSV(r.Body)
		if err != nil {
			return "", nil, err
		}
		return r.URL.Query().Get("run_id"), batch, nil
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(req.RunID), req.Competitors, nil
}

// HandleGetRun handles GET /rankings/{run_id}.
func (h *RunsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/rankings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	run, err := h.deps.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}
