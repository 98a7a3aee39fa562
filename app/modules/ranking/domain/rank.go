package rankingdomain

import (
	"cmp"
	"slices"
	"time"
)

// MemberAggregate is one member's running totals within a single scope.
type MemberAggregate struct {
	MemberID    int64
	TotalPoints Points
	TotalMiles  float64
	EventsCount int

	// VisitorClass is the most recent classification, informational only.
	VisitorClass VisitorClass
	LastEventAt  time.Time
}

// RankedAggregate is a member aggregate with its assigned position.
type RankedAggregate struct {
	MemberAggregate
	Rank int
}

// AssignRanks orders aggregates and assigns dense 1-based ranks.
//
// Order: total points descending, total miles descending, member id ascending.
// The member-id tie-break makes the result deterministic even when points and
// miles are both tied, so repeated rebuilds over the same ledger produce
// identical output.
func AssignRanks(aggregates []MemberAggregate) []RankedAggregate {
	if len(aggregates) == 0 {
		return nil
	}

	sorted := make([]MemberAggregate, len(aggregates))
	copy(sorted, aggregates)

	slices.SortFunc(sorted, func(a, b MemberAggregate) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TotalMiles, a.TotalMiles); c != 0 {
			return c
		}
		return cmp.Compare(a.MemberID, b.MemberID)
	})

	ranked := make([]RankedAggregate, len(sorted))
	for i, agg := range sorted {
		ranked[i] = RankedAggregate{MemberAggregate: agg, Rank: i + 1}
	}
	return ranked
}

// Accumulate folds one attendance contribution into the aggregate. The kept
// visitor class is the one from the chronologically latest contribution, not
// the latest call, so folding facts in any order yields the same aggregate.
func (a *MemberAggregate) Accumulate(points Points, miles float64, class VisitorClass, at time.Time) {
	a.TotalPoints += points
	a.TotalMiles += miles
	a.EventsCount++
	if class != "" && !at.Before(a.LastEventAt) {
		a.VisitorClass = class
	}
	if at.After(a.LastEventAt) {
		a.LastEventAt = at
	}
}
