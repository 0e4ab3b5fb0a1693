package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pipegate/internal/aggregate"
	"pipegate/internal/result"
	"pipegate/internal/store"
	"pipegate/pkg/api"

	"github.com/google/uuid"
)

// IngestRun handles POST /runs.
// An external CI runner posts the terminal results of its jobs once they
// have all finished; the gate is computed here and stored with the run.
func (h *Handlers) IngestRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.IngestRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Pipeline == "" {
		h.httpError(w, "pipeline is required", http.StatusBadRequest)
		return
	}
	if len(req.Results) == 0 {
		h.httpError(w, "results must not be empty", http.StatusBadRequest)
		return
	}

	results := make(map[string]result.Result, len(req.Results))
	for name, raw := range req.Results {
		res, err := result.Parse(raw)
		if err != nil {
			h.httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		results[name] = res
	}

	summary, err := aggregate.Aggregate(results, req.Required)
	if err != nil {
		// Unknown required job: a configuration error, never a silent
		// gate failure.
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	source := req.Source
	if source == "" {
		source = store.RunSourceIngest
	}

	run := &store.Run{
		ID:        uuid.New(),
		Pipeline:  req.Pipeline,
		Source:    source,
		OverallOK: summary.OverallOK,
		CreatedAt: time.Now().UTC(),
	}
	jobs := make([]store.RunJob, 0, len(summary.Rows))
	for _, row := range summary.Rows {
		jobs = append(jobs, store.RunJob{
			RunID:    run.ID,
			Name:     row.Name,
			Result:   row.Result,
			Required: row.Required,
		})
	}

	if err := h.store.CreateRun(ctx, run, jobs); err != nil {
		h.httpError(w, "Failed to store run", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusCreated, api.IngestRunResponse{
		RunID:     run.ID.String(),
		OverallOK: run.OverallOK,
	})
}

// GetRun handles GET /runs/{id}.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	run, err := h.store.GetRunByID(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	jobs, err := h.store.GetRunJobs(ctx, runID)
	if err != nil {
		h.httpError(w, "Failed to load run jobs", http.StatusInternalServerError)
		return
	}

	resp := runResponse(run)
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, jobRow(j))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetRunSummary handles GET /runs/{id}/summary.
// The summary is recomputed from the stored job rows through the same
// aggregation the gate used, so both always agree.
func (h *Handlers) GetRunSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	run, err := h.store.GetRunByID(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	jobs, err := h.store.GetRunJobs(ctx, runID)
	if err != nil {
		h.httpError(w, "Failed to load run jobs", http.StatusInternalServerError)
		return
	}

	results := make(map[string]result.Result, len(jobs))
	var required []string
	for _, j := range jobs {
		results[j.Name] = j.Result
		if j.Required {
			required = append(required, j.Name)
		}
	}

	summary, err := aggregate.Aggregate(results, required)
	if err != nil {
		h.httpError(w, "Failed to aggregate run", http.StatusInternalServerError)
		return
	}

	resp := api.RunSummaryResponse{
		RunID:     run.ID.String(),
		Pipeline:  run.Pipeline,
		OverallOK: summary.OverallOK,
	}
	for _, row := range summary.Rows {
		resp.Rows = append(resp.Rows, api.JobRowResponse{
			Name:     row.Name,
			Result:   string(row.Result),
			Required: row.Required,
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}

// ListRuns handles GET /runs.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.httpError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.httpError(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		offset = n
	}

	runs, err := h.store.ListRuns(ctx, limit, offset)
	if err != nil {
		h.httpError(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	resp := api.ListRunsResponse{Runs: make([]api.RunResponse, 0, len(runs))}
	for i := range runs {
		resp.Runs = append(resp.Runs, runResponse(&runs[i]))
	}
	h.respondJson(w, http.StatusOK, resp)
}

func runResponse(run *store.Run) api.RunResponse {
	return api.RunResponse{
		ID:        run.ID.String(),
		Pipeline:  run.Pipeline,
		Source:    run.Source,
		OverallOK: run.OverallOK,
		CreatedAt: run.CreatedAt,
	}
}

func jobRow(j store.RunJob) api.JobRowResponse {
	return api.JobRowResponse{
		Name:        j.Name,
		Result:      string(j.Result),
		Required:    j.Required,
		ExitCode:    j.ExitCode,
		Error:       j.ErrorMessage,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		LogTail:     j.LogTail,
	}
}
