package api

import (
	"encoding/json"
	"net/http"
	"time"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingqueue "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/queue"
)

// ScheduleRebuildRequest is the admin request to enqueue a one-off rebuild.
// A zero ScheduledAt means run as soon as a worker picks it up.
type ScheduleRebuildRequest struct {
	Year        int       `json:"year"`
	ScopeType   string    `json:"scopeType"`
	ScopeID     string    `json:"scopeId,omitempty"`
	ScheduledAt time.Time `json:"scheduledAt,omitempty"`
}

// ScheduleRebuild enqueues a one-off rebuild job for one scope type.
func (s *Server) ScheduleRebuild(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scopeType, ok := rankingdomain.ParseScopeType(req.ScopeType)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown scope type")
		return
	}
	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	if year < 0 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	at := req.ScheduledAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	job := rankingqueue.RebuildJob{
		TenantID:  TenantFromContext(r.Context()),
		Year:      year,
		ScopeType: string(scopeType),
		ScopeID:   req.ScopeID,
	}
	if err := s.queue.ScheduleRebuild(r.Context(), job, at); err != nil {
		s.serviceError(w, r, "Failed to schedule rebuild", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"scopeType":   job.ScopeType,
		"scopeId":     job.ScopeID,
		"year":        job.Year,
		"scheduledAt": at,
	})
}

// GetScheduledRebuilds lists pending rebuild jobs.
func (s *Server) GetScheduledRebuilds(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.queue.GetScheduledJobs(r.Context())
	if err != nil {
		s.serviceError(w, r, "Failed to list scheduled rebuilds", err)
		return
	}
	if jobs == nil {
		jobs = []rankingqueue.JobInfo{}
	}
	writeJSON(w, http.StatusOK, jobs)
}
