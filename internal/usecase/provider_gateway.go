package usecase

import (
	"context"
	"time"

	"github.com/unifoot/unifoot/internal/domain/source"
)

// ProviderQuota is a point-in-time view of one provider's call budget.
type ProviderQuota struct {
	CallsMade  int64 `json:"calls_made"`
	DailyLimit int64 `json:"daily_limit"`
}

// ProviderGateway is the narrow contract every external data source
// implements. Implementations own rate limiting, retries, and payload
// decoding; callers only see typed records and sentinel errors
// (ErrRateLimited, ErrDependencyUnavailable, ErrNotFound).
type ProviderGateway interface {
	Name() string
	ListLeagues(ctx context.Context, country string) ([]source.LeagueRecord, error)
	ListTeams(ctx context.Context, leagueProviderID string) ([]source.TeamRecord, error)
	ListMatches(ctx context.Context, from, to time.Time) ([]source.MatchRecord, error)
	MatchByID(ctx context.Context, providerID string) (source.MatchRecord, error)
	Quota() ProviderQuota
}
