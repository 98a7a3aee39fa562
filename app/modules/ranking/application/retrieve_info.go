package rankingservice

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/internal/observability/attr"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
)

// GetRanking returns one page of a scope's leaderboard. Malformed pagination is
// clamped rather than rejected: negative skip becomes 0, take is forced into
// [1, maxPageSize].
func (s *RankingService) GetRanking(
	ctx context.Context,
	tenantID uuid.UUID,
	year int,
	scopeType rankingdomain.ScopeType,
	scopeID string,
	skip, take int,
) ([]rankingdb.RankingSnapshot, error) {
	if tenantID == uuid.Nil {
		tenantID = config.DefaultTenantID
	}
	if _, ok := rankingdomain.ParseScopeType(string(scopeType)); !ok {
		return nil, ErrInvalidScopeType
	}

	if skip < 0 {
		skip = 0
	}
	if take < 1 || take > s.maxPageSize {
		take = s.maxPageSize
	}

	scopeID = strings.ToUpper(strings.TrimSpace(scopeID))
	if scopeType == rankingdomain.ScopeGlobal {
		scopeID = rankingdomain.GlobalScopeID
	}

	rows, err := s.repo.GetRanking(ctx, nil, tenantID, year, string(scopeType), scopeID, skip, take)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get ranking page",
			attr.ExtractCorrelationID(ctx),
			attr.String("scope_type", string(scopeType)),
			attr.String("scope_id", scopeID),
			attr.Error(err),
		)
		return nil, err
	}
	return rows, nil
}

// GetMemberRanking returns one member's row within a scope, or nil when the
// member has no confirmed attendance in the period. Absence is not an error.
func (s *RankingService) GetMemberRanking(
	ctx context.Context,
	tenantID uuid.UUID,
	year int,
	scopeType rankingdomain.ScopeType,
	scopeID string,
	memberID int64,
) (*rankingdb.RankingSnapshot, error) {
	if tenantID == uuid.Nil {
		tenantID = config.DefaultTenantID
	}
	if _, ok := rankingdomain.ParseScopeType(string(scopeType)); !ok {
		return nil, ErrInvalidScopeType
	}

	scopeID = strings.ToUpper(strings.TrimSpace(scopeID))
	if scopeType == rankingdomain.ScopeGlobal {
		scopeID = rankingdomain.GlobalScopeID
	}

	row, err := s.repo.GetMemberRanking(ctx, nil, tenantID, year, string(scopeType), scopeID, memberID)
	if err != nil {
		if errors.Is(err, rankingdb.ErrNotFound) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Failed to get member ranking",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("member_id", memberID),
			attr.Error(err),
		)
		return nil, err
	}
	return row, nil
}
