package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unifoot/unifoot/internal/domain/match"
	"github.com/unifoot/unifoot/internal/domain/team"
	"github.com/unifoot/unifoot/internal/platform/cache"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/platform/normalize"
	"github.com/unifoot/unifoot/internal/store"
)

type QueryCacheConfig struct {
	TeamTTL  time.Duration
	MatchTTL time.Duration
}

func NormalizeQueryCacheConfig(cfg QueryCacheConfig) QueryCacheConfig {
	if cfg.TeamTTL <= 0 {
		cfg.TeamTTL = 10 * time.Minute
	}
	if cfg.MatchTTL <= 0 {
		cfg.MatchTTL = time.Minute
	}
	return cfg
}

// MatchRefresher pulls one match straight from its provider when the store
// has never seen it.
type MatchRefresher interface {
	RefreshMatch(ctx context.Context, provider, providerID string) (Resolution, error)
}

// QueryService is the read surface consumed by the HTTP layer. Lookups are
// cached read-through; entries simply expire, a hit may lag a concurrent
// merge by at most one TTL.
type QueryService struct {
	store      *store.Store
	refresher  MatchRefresher
	teamCache  *cache.Store
	matchCache *cache.Store
	logger     *logging.Logger
}

func NewQueryService(st *store.Store, refresher MatchRefresher, cfg QueryCacheConfig, logger *logging.Logger) *QueryService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = NormalizeQueryCacheConfig(cfg)
	return &QueryService{
		store:      st,
		refresher:  refresher,
		teamCache:  cache.NewStore(cfg.TeamTTL),
		matchCache: cache.NewStore(cfg.MatchTTL),
		logger:     logger,
	}
}

// FindTeam resolves a lookup key that may be a universal id, a provider id
// (when providerHint is set), or a display name.
func (s *QueryService) FindTeam(ctx context.Context, key, providerHint string) (team.Universal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.FindTeam")
	defer span.End()

	key = strings.TrimSpace(key)
	if key == "" {
		return team.Universal{}, fmt.Errorf("%w: lookup key is required", ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf("team|%s|%s", providerHint, strings.ToLower(key))
	value, err := s.teamCache.GetOrLoad(ctx, cacheKey, func(ctx context.Context) (any, error) {
		return s.lookupTeam(key, providerHint)
	})
	if err != nil {
		return team.Universal{}, err
	}
	return value.(team.Universal), nil
}

func (s *QueryService) lookupTeam(key, providerHint string) (team.Universal, error) {
	if providerHint != "" {
		if found, ok := s.store.TeamByProvider(providerHint, key); ok {
			return found, nil
		}
	}
	if found, ok := s.store.GetTeam(key); ok {
		return found, nil
	}

	normalized := normalize.Name(key, normalize.KindTeam)
	if normalized != "" {
		candidates := s.store.TeamsByNormalizedName(normalized)
		if len(candidates) == 1 {
			return candidates[0], nil
		}
		if len(candidates) > 1 {
			return team.Universal{}, fmt.Errorf("%w: %q names %d teams, qualify by provider id",
				ErrAmbiguousMatch, key, len(candidates))
		}
	}
	return team.Universal{}, fmt.Errorf("%w: team %q", ErrNotFound, key)
}

func (s *QueryService) GetTeam(ctx context.Context, id string) (team.Universal, error) {
	_, span := startUsecaseSpan(ctx, "usecase.QueryService.GetTeam")
	defer span.End()

	if found, ok := s.store.GetTeam(id); ok {
		return found, nil
	}
	return team.Universal{}, fmt.Errorf("%w: team %q", ErrNotFound, id)
}

// FindMatchByProviderID maps a provider's own match id to the universal
// record. A store miss falls back to a single-match provider refresh so a
// never-synced match can still be served.
func (s *QueryService) FindMatchByProviderID(ctx context.Context, provider, providerID string) (match.Universal, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.FindMatchByProviderID")
	defer span.End()

	provider = strings.TrimSpace(provider)
	providerID = strings.TrimSpace(providerID)
	if provider == "" || providerID == "" {
		return match.Universal{}, fmt.Errorf("%w: provider and provider id are required", ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf("match|%s|%s", provider, providerID)
	value, err := s.matchCache.GetOrLoad(ctx, cacheKey, func(ctx context.Context) (any, error) {
		if found, ok := s.store.MatchByProvider(provider, providerID); ok {
			return found, nil
		}
		if s.refresher == nil {
			return nil, fmt.Errorf("%w: match %s/%s", ErrNotFound, provider, providerID)
		}
		res, err := s.refresher.RefreshMatch(ctx, provider, providerID)
		if err != nil {
			return nil, fmt.Errorf("refresh match %s/%s: %w", provider, providerID, err)
		}
		found, ok := s.store.GetMatch(res.ID)
		if !ok {
			return nil, fmt.Errorf("%w: match %s/%s", ErrNotFound, provider, providerID)
		}
		s.logger.InfoContext(ctx, "match refreshed on demand",
			"provider", provider,
			"provider_id", providerID,
			"match_id", res.ID,
		)
		return found, nil
	})
	if err != nil {
		return match.Universal{}, err
	}
	return value.(match.Universal), nil
}

func (s *QueryService) GetMatch(ctx context.Context, id string) (match.Universal, error) {
	_, span := startUsecaseSpan(ctx, "usecase.QueryService.GetMatch")
	defer span.End()

	if found, ok := s.store.GetMatch(id); ok {
		return found, nil
	}
	return match.Universal{}, fmt.Errorf("%w: match %q", ErrNotFound, id)
}

// MatchesOn lists matches whose kickoff falls on the given UTC day.
func (s *QueryService) MatchesOn(ctx context.Context, day time.Time) []match.Universal {
	_, span := startUsecaseSpan(ctx, "usecase.QueryService.MatchesOn")
	defer span.End()

	wanted := match.NormalizedDateUTC(day)
	var out []match.Universal
	for _, m := range s.store.AllMatches() {
		if match.NormalizedDateUTC(m.Date) == wanted {
			out = append(out, m)
		}
	}
	return out
}
