package rankingqueue

import (
	"github.com/google/uuid"
)

// RebuildJob is a scheduled snapshot rebuild for one scope type. Working the
// job publishes a ranking.rebuild.requested message so the rebuild flows
// through the same handler path as ad-hoc requests.
type RebuildJob struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	Year      int       `json:"year"`
	ScopeType string    `json:"scope_type"`
	ScopeID   string    `json:"scope_id,omitempty"`
}

// Kind returns the job type identifier for River.
func (RebuildJob) Kind() string { return "ranking_rebuild" }

// JobInfo describes a scheduled job for monitoring.
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	ScopeType   string `json:"scope_type"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
