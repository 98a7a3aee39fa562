package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
)

// TestDataGenerator produces ledger rows for integration tests. Seeded runs
// are reproducible; the default seed is the current time.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}
	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

var generatorChapters = []struct {
	ID        string
	Country   string
	Continent string
}{
	{"PL-01", "POLAND", "EUROPE"},
	{"DE-02", "GERMANY", "EUROPE"},
	{"US-07", "USA", "NORTH AMERICA"},
	{"JP-03", "JAPAN", "ASIA"},
}

// GenerateMembers creates members spread across the fixture chapters.
func (g *TestDataGenerator) GenerateMembers(count int) []rankingdb.Member {
	members := make([]rankingdb.Member, count)
	for i := 0; i < count; i++ {
		chapter := generatorChapters[g.faker.Number(0, len(generatorChapters)-1)]
		members[i] = rankingdb.Member{
			ID:        int64(i + 1),
			ChapterID: chapter.ID,
			Country:   chapter.Country,
			Continent: chapter.Continent,
		}
	}
	return members
}

// GenerateEvents creates events within the given competition year.
func (g *TestDataGenerator) GenerateEvents(tenantID uuid.UUID, year, count int) []rankingdb.Event {
	events := make([]rankingdb.Event, count)
	for i := 0; i < count; i++ {
		chapter := generatorChapters[g.faker.Number(0, len(generatorChapters)-1)]
		start := time.Date(year, time.Month(g.faker.Number(1, 12)), g.faker.Number(1, 28), 9, 0, 0, 0, time.UTC)
		events[i] = rankingdb.Event{
			ID:                     int64(i + 1),
			TenantID:               tenantID,
			ChapterID:              chapter.ID,
			EventStartDate:         start,
			Class:                  g.faker.Number(1, 5),
			Mileage:                float64(g.faker.Number(20, 2500)),
			StartLocationCountry:   chapter.Country,
			StartLocationContinent: chapter.Continent,
		}
	}
	return events
}

// GenerateConfirmedAttendances creates one confirmed attendance per
// member/event pair drawn at random, with pre-awarded points.
func (g *TestDataGenerator) GenerateConfirmedAttendances(tenantID uuid.UUID, members []rankingdb.Member, events []rankingdb.Event, count int) []rankingdb.Attendance {
	attendances := make([]rankingdb.Attendance, count)
	seen := make(map[[2]int64]bool, count)
	classes := []string{"LOCAL", "VISITOR_A", "VISITOR_B"}

	for i := 0; i < count; i++ {
		var member rankingdb.Member
		var event rankingdb.Event
		for {
			member = members[g.faker.Number(0, len(members)-1)]
			event = events[g.faker.Number(0, len(events)-1)]
			key := [2]int64{member.ID, event.ID}
			if !seen[key] {
				seen[key] = true
				break
			}
		}
		attendances[i] = rankingdb.Attendance{
			ID:            int64(i + 1),
			TenantID:      tenantID,
			EventID:       event.ID,
			MemberID:      member.ID,
			Status:        "CONFIRMED",
			PointsAwarded: g.faker.Number(1, 17),
			VisitorClass:  classes[g.faker.Number(0, len(classes)-1)],
			ConfirmedAt:   event.EventStartDate.Add(24 * time.Hour),
		}
	}
	return attendances
}

// Seed returns the seed used, for reproducing a failing run.
func (g *TestDataGenerator) Seed() int64 {
	return g.seed
}
