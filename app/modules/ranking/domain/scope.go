package rankingdomain

import "strings"

// ScopeType partitions the leaderboard.
type ScopeType string

const (
	ScopeChapter   ScopeType = "CHAPTER"
	ScopeCountry   ScopeType = "COUNTRY"
	ScopeContinent ScopeType = "CONTINENT"
	ScopeGlobal    ScopeType = "GLOBAL"
)

// GlobalScopeID is the scope id of the single global partition.
const GlobalScopeID = "GLOBAL"

// AllScopeTypes lists every scope type, in rebuild-scheduling order.
var AllScopeTypes = []ScopeType{ScopeChapter, ScopeCountry, ScopeContinent, ScopeGlobal}

// ParseScopeType normalizes a client-supplied scope type. ok is false for
// unknown values.
func ParseScopeType(s string) (ScopeType, bool) {
	switch ScopeType(strings.ToUpper(strings.TrimSpace(s))) {
	case ScopeChapter:
		return ScopeChapter, true
	case ScopeCountry:
		return ScopeCountry, true
	case ScopeContinent:
		return ScopeContinent, true
	case ScopeGlobal:
		return ScopeGlobal, true
	default:
		return "", false
	}
}

// ScopeKey identifies one leaderboard partition.
type ScopeKey struct {
	Type ScopeType
	ID   string
}

// ScopeHints carries the scope-determining attributes of a confirmed
// attendance: the event's chapter plus the member's geography.
type ScopeHints struct {
	ChapterID       string
	MemberCountry   string
	MemberContinent string
}

// ScopesFor fans a confirmed attendance out to every applicable partition:
// the event's chapter, the member's country and continent, and the global
// scope. A missing hint drops that partition; the global scope always applies.
func ScopesFor(hints ScopeHints) []ScopeKey {
	scopes := make([]ScopeKey, 0, 4)
	if id := strings.TrimSpace(hints.ChapterID); id != "" {
		scopes = append(scopes, ScopeKey{Type: ScopeChapter, ID: strings.ToUpper(id)})
	}
	if id := strings.TrimSpace(hints.MemberCountry); id != "" {
		scopes = append(scopes, ScopeKey{Type: ScopeCountry, ID: strings.ToUpper(id)})
	}
	if id := strings.TrimSpace(hints.MemberContinent); id != "" {
		scopes = append(scopes, ScopeKey{Type: ScopeContinent, ID: strings.ToUpper(id)})
	}
	scopes = append(scopes, ScopeKey{Type: ScopeGlobal, ID: GlobalScopeID})
	return scopes
}
