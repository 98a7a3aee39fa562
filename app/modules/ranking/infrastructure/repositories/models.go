package rankingdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RankingSnapshot is the denormalized aggregate for one member within one
// scope and year. Owned exclusively by the ranking module; no other component
// writes these rows.
type RankingSnapshot struct {
	bun.BaseModel `bun:"table:ranking_snapshots,alias:rs"`

	ID        int64     `bun:"id,pk,autoincrement"`
	TenantID  uuid.UUID `bun:"tenant_id,type:uuid,notnull"`
	Year      int       `bun:"year,notnull"`
	ScopeType string    `bun:"scope_type,notnull"`
	ScopeID   string    `bun:"scope_id,notnull"`
	MemberID  int64     `bun:"member_id,notnull"`

	// Rank is assigned only by Rebuild; incremental updates leave it stale.
	Rank *int `bun:"rank"`

	TotalPoints int     `bun:"total_points,notnull,default:0"`
	TotalMiles  float64 `bun:"total_miles,notnull,default:0"`
	EventsCount int     `bun:"events_count,notnull,default:0"`

	// VisitorClass is the last-computed classification, informational only.
	VisitorClass string `bun:"visitor_class"`

	LastCalculatedAt time.Time `bun:"last_calculated_at,nullzero"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Attendance is a row in the confirmed-attendance ledger. Read-only to this
// module: the confirmation workflow owns it.
type Attendance struct {
	bun.BaseModel `bun:"table:attendances,alias:a"`

	ID           int64     `bun:"id,pk,autoincrement"`
	TenantID     uuid.UUID `bun:"tenant_id,type:uuid,notnull"`
	EventID      int64     `bun:"event_id,notnull"`
	MemberID     int64     `bun:"member_id,notnull"`
	Status       string    `bun:"status,notnull,default:'PENDING'"`
	PointsAwarded int      `bun:"points_awarded_per_member"`
	VisitorClass string    `bun:"visitor_class"`
	ConfirmedAt  time.Time `bun:"confirmed_at,nullzero"`

	Event  *Event  `bun:"rel:belongs-to,join:event_id=id"`
	Member *Member `bun:"rel:belongs-to,join:member_id=id"`
}

// Event is the read-only event catalog entry backing an attendance.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID             int64     `bun:"id,pk,autoincrement"`
	TenantID       uuid.UUID `bun:"tenant_id,type:uuid,notnull"`
	ChapterID      string    `bun:"chapter_id,notnull"`
	EventStartDate time.Time `bun:"event_start_date,notnull"`
	Class          int       `bun:"class,notnull"`
	Mileage        float64   `bun:"mileage,notnull,default:0"`

	StartLocationCountry   string `bun:"start_location_country"`
	StartLocationContinent string `bun:"start_location_continent"`
	EndLocationCountry     string `bun:"end_location_country"`
	EndLocationContinent   string `bun:"end_location_continent"`
}

// Member is the read-only member record providing geography for scope fan-out.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID        int64  `bun:"id,pk,autoincrement"`
	ChapterID string `bun:"chapter_id,notnull"`
	Country   string `bun:"country"`
	Continent string `bun:"continent"`
}

// AttendanceFact is one confirmed attendance joined with the attributes the
// rebuild aggregation needs.
type AttendanceFact struct {
	AttendanceID  int64
	MemberID      int64
	EventID       int64
	PointsAwarded int
	Miles         float64
	VisitorClass  string
	ConfirmedAt   time.Time

	ChapterID       string
	MemberCountry   string
	MemberContinent string
}
