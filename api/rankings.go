package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
)

// RankingEntry is the wire shape of one leaderboard row.
type RankingEntry struct {
	Rank         *int      `json:"rank"`
	MemberID     int64     `json:"memberId"`
	TotalPoints  int       `json:"totalPoints"`
	TotalMiles   float64   `json:"totalMiles"`
	EventsCount  int       `json:"eventsCount"`
	VisitorClass string    `json:"visitorClass,omitempty"`
	CalculatedAt time.Time `json:"calculatedAt"`
}

// RankingPage is the paginated leaderboard response.
type RankingPage struct {
	Year      int            `json:"year"`
	ScopeType string         `json:"scopeType"`
	ScopeID   string         `json:"scopeId"`
	Skip      int            `json:"skip"`
	Take      int            `json:"take"`
	Entries   []RankingEntry `json:"entries"`
}

func toEntry(row rankingdb.RankingSnapshot) RankingEntry {
	return RankingEntry{
		Rank:         row.Rank,
		MemberID:     row.MemberID,
		TotalPoints:  row.TotalPoints,
		TotalMiles:   row.TotalMiles,
		EventsCount:  row.EventsCount,
		VisitorClass: row.VisitorClass,
		CalculatedAt: row.LastCalculatedAt,
	}
}

type rankingQuery struct {
	year      int
	scopeType rankingdomain.ScopeType
	scopeID   string
	skip      int
	take      int
}

func parseRankingQuery(r *http.Request) (rankingQuery, error) {
	q := rankingQuery{
		year:    time.Now().UTC().Year(),
		scopeID: chi.URLParam(r, "scopeID"),
	}

	scopeType, ok := rankingdomain.ParseScopeType(chi.URLParam(r, "scopeType"))
	if !ok {
		return q, fmt.Errorf("unknown scope type %q", chi.URLParam(r, "scopeType"))
	}
	q.scopeType = scopeType

	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year <= 0 {
			return q, fmt.Errorf("invalid year %q", v)
		}
		q.year = year
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid skip %q", v)
		}
		q.skip = skip
	}
	if v := r.URL.Query().Get("take"); v != "" {
		take, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid take %q", v)
		}
		q.take = take
	}
	return q, nil
}

// GetRanking serves one page of a scope's leaderboard.
func (s *Server) GetRanking(w http.ResponseWriter, r *http.Request) {
	q, err := parseRankingQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.service.GetRanking(r.Context(), TenantFromContext(r.Context()), q.year, q.scopeType, q.scopeID, q.skip, q.take)
	if err != nil {
		s.serviceError(w, r, "Failed to fetch ranking", err)
		return
	}

	entries := make([]RankingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toEntry(row))
	}
	scopeID := q.scopeID
	if len(rows) > 0 {
		scopeID = rows[0].ScopeID
	}

	writeJSON(w, http.StatusOK, RankingPage{
		Year:      q.year,
		ScopeType: string(q.scopeType),
		ScopeID:   scopeID,
		Skip:      q.skip,
		Take:      q.take,
		Entries:   entries,
	})
}

// GetMemberRanking serves a single member's row within a scope. Members with
// no confirmed attendance in the period get a 404.
func (s *Server) GetMemberRanking(w http.ResponseWriter, r *http.Request) {
	q, err := parseRankingQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	memberID, err := strconv.ParseInt(chi.URLParam(r, "memberID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	row, err := s.service.GetMemberRanking(r.Context(), TenantFromContext(r.Context()), q.year, q.scopeType, q.scopeID, memberID)
	if err != nil {
		s.serviceError(w, r, "Failed to fetch member ranking", err)
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "member has no ranking in this scope")
		return
	}
	writeJSON(w, http.StatusOK, toEntry(*row))
}

// GetRankingChart renders a scope's top standings as a PNG bar chart.
func (s *Server) GetRankingChart(w http.ResponseWriter, r *http.Request) {
	q, err := parseRankingQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.service.GetRanking(r.Context(), TenantFromContext(r.Context()), q.year, q.scopeType, q.scopeID, q.skip, q.take)
	if err != nil {
		s.serviceError(w, r, "Failed to fetch ranking for chart", err)
		return
	}

	title := fmt.Sprintf("%s standings %d", q.scopeType, q.year)
	png, err := s.service.GenerateStandingsChart(rows, title)
	if err != nil {
		s.serviceError(w, r, "Failed to render standings chart", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ExportRanking serves a scope's leaderboard as an xlsx download.
func (s *Server) ExportRanking(w http.ResponseWriter, r *http.Request) {
	q, err := parseRankingQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.service.GetRanking(r.Context(), TenantFromContext(r.Context()), q.year, q.scopeType, q.scopeID, q.skip, q.take)
	if err != nil {
		s.serviceError(w, r, "Failed to fetch ranking for export", err)
		return
	}

	data, err := s.service.ExportRankingXLSX(rows, fmt.Sprintf("%s %d", q.scopeType, q.year))
	if err != nil {
		s.serviceError(w, r, "Failed to build ranking export", err)
		return
	}

	filename := fmt.Sprintf("ranking_%s_%d.xlsx", q.scopeType, q.year)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
