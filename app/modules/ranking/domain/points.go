package rankingdomain

import (
	"fmt"
	"strings"
)

// Points uses a custom type to prevent floating-point errors.
type Points int

// VisitorClass captures the geographic relationship between a member and an
// event's start location.
type VisitorClass string

const (
	VisitorLocal VisitorClass = "LOCAL"
	VisitorA     VisitorClass = "VISITOR_A"
	VisitorB     VisitorClass = "VISITOR_B"
)

const kmToMilesFactor = 0.621371

// PointsRules holds the externally-configured scoring tables. The zero value
// is not usable; construct via config or DefaultPointsRules.
type PointsRules struct {
	// ClassPoints maps event class to base points. Classes outside the table
	// fall back to the class-1 entry.
	ClassPoints map[int]int

	// Distance thresholds in one-way miles. Both comparisons are strictly
	// greater-than: a ride exactly at the threshold stays in the lower tier.
	Threshold1Point  int
	Threshold2Points int

	BonusSameContinent      int
	BonusDifferentContinent int
}

// DefaultPointsRules returns the standard competition tables.
func DefaultPointsRules() PointsRules {
	return PointsRules{
		ClassPoints:             map[int]int{1: 1, 2: 3, 3: 5, 4: 10, 5: 15},
		Threshold1Point:         200,
		Threshold2Points:        800,
		BonusSameContinent:      1,
		BonusDifferentContinent: 2,
	}
}

// PointsBreakdown is the result of a single attendance calculation.
type PointsBreakdown struct {
	PointsPerEvent    Points
	PointsPerDistance Points
	VisitorBonus      Points
	TotalPoints       Points
	VisitorClass      VisitorClass

	// Details is a human-readable audit trail of the calculation.
	Details string
}

// Calculate produces the point breakdown for one attendance. Pure and safe for
// concurrent use; the incremental and rebuild paths share it so their math is
// identical.
func (r PointsRules) Calculate(
	distanceMiles float64,
	eventClass int,
	memberCountry, memberContinent string,
	eventStartCountry, eventStartContinent string,
) PointsBreakdown {
	perEvent := r.pointsPerClass(eventClass)
	perDistance := r.pointsPerDistance(distanceMiles)
	bonus, class := r.classifyVisitor(memberCountry, memberContinent, eventStartCountry, eventStartContinent)

	total := perEvent + perDistance + bonus

	return PointsBreakdown{
		PointsPerEvent:    perEvent,
		PointsPerDistance: perDistance,
		VisitorBonus:      bonus,
		TotalPoints:       total,
		VisitorClass:      class,
		Details: fmt.Sprintf("Class:%d miles:%.2fmi PointsPerEvent:%d PointsPerDistance:%d VisitorBonus(%s):%d Total:%d",
			eventClass, distanceMiles, perEvent, perDistance, class, bonus, total),
	}
}

func (r PointsRules) pointsPerClass(eventClass int) Points {
	if pts, ok := r.ClassPoints[eventClass]; ok {
		return Points(pts)
	}
	return Points(r.ClassPoints[1])
}

func (r PointsRules) pointsPerDistance(miles float64) Points {
	if miles > float64(r.Threshold2Points) {
		return 2
	}
	if miles > float64(r.Threshold1Point) {
		return 1
	}
	return 0
}

// classifyVisitor decides the visitor class from geography alone.
//
// Missing data is resolved conservatively, matching the documented source
// behavior: a missing member or event country means LOCAL (no bonus); different
// countries with missing continent data on either side means VISITOR_A.
func (r PointsRules) classifyVisitor(memberCountry, memberContinent, eventCountry, eventContinent string) (Points, VisitorClass) {
	if memberCountry == "" || eventCountry == "" {
		return 0, VisitorLocal
	}
	if strings.EqualFold(memberCountry, eventCountry) {
		return 0, VisitorLocal
	}

	if memberContinent != "" && eventContinent != "" {
		if strings.EqualFold(memberContinent, eventContinent) {
			return Points(r.BonusSameContinent), VisitorA
		}
		return Points(r.BonusDifferentContinent), VisitorB
	}

	// Different countries, continent unknown on at least one side.
	return Points(r.BonusSameContinent), VisitorA
}

// MilesToKilometers converts one-way miles to kilometers.
func MilesToKilometers(miles float64) float64 {
	return miles / kmToMilesFactor
}

// KilometersToMiles converts kilometers to one-way miles.
func KilometersToMiles(kilometers float64) float64 {
	return kilometers * kmToMilesFactor
}
