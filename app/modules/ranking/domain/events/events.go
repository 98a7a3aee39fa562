// Package rankingevents defines the subjects and payloads exchanged with the
// attendance workflow and the rebuild scheduler.
package rankingevents

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	RankingStreamName = "ranking"
)

// Ranking-related subjects
const (
	AttendanceConfirmedSubject     = "ranking.attendance.confirmed"
	RankingUpdatedSubject          = "ranking.updated"
	RankingUpdateFailedSubject     = "ranking.update.failed"
	RankingRebuildRequestedSubject = "ranking.rebuild.requested"
	RankingRebuildCompletedSubject = "ranking.rebuild.completed"
	RankingRebuildFailedSubject    = "ranking.rebuild.failed"
)

// ScopeHintsPayload carries the scope-determining attributes of the fact.
type ScopeHintsPayload struct {
	ChapterID       string `json:"chapter_id"`
	MemberCountry   string `json:"member_country"`
	MemberContinent string `json:"member_continent"`
}

// AttendanceConfirmedPayload is emitted exactly once by the attendance
// confirmation workflow when evidence review approves a submission. The
// ranking module presumes at-most-once delivery per confirmation;
// deduplication is the producer's responsibility.
type AttendanceConfirmedPayload struct {
	TenantID      uuid.UUID         `json:"tenant_id"`
	AttendanceID  int64             `json:"attendance_id"`
	MemberID      int64             `json:"member_id"`
	EventID       int64             `json:"event_id"`
	Year          int               `json:"year"`
	PointsAwarded int               `json:"points_awarded"`
	MilesRecorded float64           `json:"miles_recorded"`
	ScopeHints    ScopeHintsPayload `json:"scope_hints"`
	VisitorClass  string            `json:"visitor_class"`
	ConfirmedAt   time.Time         `json:"confirmed_at"`
}

// RankingUpdatedPayload reports the new totals after an incremental update.
// CurrentRank is the last rank a rebuild assigned, if any; it carries no
// freshness promise.
type RankingUpdatedPayload struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	AttendanceID int64     `json:"attendance_id"`
	MemberID     int64     `json:"member_id"`
	Year         int       `json:"year"`
	TotalPoints  int       `json:"total_points"`
	TotalMiles   float64   `json:"total_miles"`
	CurrentRank  *int      `json:"current_rank,omitempty"`
}

// RankingUpdateFailedPayload reports a retryable incremental-update failure.
// The underlying attendance stays confirmed; replaying the fact is safe in the
// sense that the nightly rebuild converges the totals either way.
type RankingUpdateFailedPayload struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	AttendanceID int64     `json:"attendance_id"`
	MemberID     int64     `json:"member_id"`
	Reason       string    `json:"reason"`
}

// RankingRebuildRequestedPayload triggers a full recomputation of one scope
// type. An empty ScopeID rebuilds every scope id under the type.
type RankingRebuildRequestedPayload struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	Year      int       `json:"year"`
	ScopeType string    `json:"scope_type"`
	ScopeID   string    `json:"scope_id,omitempty"`
}

// RankingRebuildCompletedPayload reports a finished rebuild.
type RankingRebuildCompletedPayload struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	Year            int       `json:"year"`
	ScopeType       string    `json:"scope_type"`
	ScopeID         string    `json:"scope_id,omitempty"`
	UpdatedRowCount int       `json:"updated_row_count"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}

// RankingRebuildFailedPayload reports a failed rebuild, including how many rows
// were committed before the failure. Rebuilds are idempotent; re-running heals
// any inconsistency.
type RankingRebuildFailedPayload struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	Year        int       `json:"year"`
	ScopeType   string    `json:"scope_type"`
	ScopeID     string    `json:"scope_id,omitempty"`
	RowsWritten int       `json:"rows_written"`
	Reason      string    `json:"reason"`
}
