package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/crcon-linkbot/internal/api/response"
	"github.com/mcoot/crcon-linkbot/internal/jobs"
)

// JobRunner lists and triggers background jobs
type JobRunner interface {
	Status() []jobs.Status
	Trigger(ctx context.Context, name string) error
}

// JobHandler handles job endpoints
type JobHandler struct {
	scheduler JobRunner
}

// NewJobHandler creates a new job handler
func NewJobHandler(scheduler JobRunner) *JobHandler {
	return &JobHandler{scheduler: scheduler}
}

// List handles GET /api/v1/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.JobListFromStatus(h.scheduler.Status()))
}

// Run handles POST /api/v1/jobs/{name}/run. The job runs before the
// response is written; a job failure is reported in last_error with a 200.
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	err := h.scheduler.Trigger(r.Context(), name)
	if errors.Is(err, jobs.ErrUnknownJob) || errors.Is(err, jobs.ErrJobRunning) {
		WriteError(w, err)
		return
	}

	for _, s := range h.scheduler.Status() {
		if s.Name == name {
			response.JSON(w, http.StatusOK, response.JobFromStatus(s))
			return
		}
	}
	WriteError(w, jobs.ErrUnknownJob)
}
