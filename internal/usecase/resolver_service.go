package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unifoot/unifoot/internal/domain/league"
	"github.com/unifoot/unifoot/internal/domain/match"
	"github.com/unifoot/unifoot/internal/domain/source"
	"github.com/unifoot/unifoot/internal/domain/syncjob"
	"github.com/unifoot/unifoot/internal/domain/team"
	"github.com/unifoot/unifoot/internal/platform/id"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/platform/normalize"
	"github.com/unifoot/unifoot/internal/platform/similarity"
	"github.com/unifoot/unifoot/internal/store"
)

type ResolverConfig struct {
	// AcceptThreshold and above merges without corroboration.
	AcceptThreshold float64
	// ReviewThreshold up to AcceptThreshold merges only with a corroborating
	// signal: same country plus one shared league.
	ReviewThreshold float64
	// VerifyThreshold marks a merge as verified when two sources agree this
	// strongly.
	VerifyThreshold float64
	// Providers lists every configured provider, in canonical-display
	// priority order.
	Providers []string
}

func NormalizeResolverConfig(cfg ResolverConfig) ResolverConfig {
	if cfg.AcceptThreshold <= 0 || cfg.AcceptThreshold > 1 {
		cfg.AcceptThreshold = 0.8
	}
	if cfg.ReviewThreshold <= 0 || cfg.ReviewThreshold >= cfg.AcceptThreshold {
		cfg.ReviewThreshold = 0.6
	}
	if cfg.VerifyThreshold <= 0 || cfg.VerifyThreshold > 1 {
		cfg.VerifyThreshold = 0.9
	}
	return cfg
}

// Resolution is the outcome of feeding one provider record through the
// matcher.
type Resolution struct {
	ID         string
	Created    bool
	Confidence float64
	Conflicts  []syncjob.Conflict
}

// ResolverService decides, per provider record, whether to create a new
// universal record, attach a provider mapping to an existing one, or reject.
// It holds only transient references during a merge; the store owns every
// record.
type ResolverService struct {
	store  *store.Store
	cfg    ResolverConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewResolverService(st *store.Store, cfg ResolverConfig, logger *logging.Logger) *ResolverService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolverService{
		store:  st,
		cfg:    NormalizeResolverConfig(cfg),
		logger: logger,
		now:    time.Now,
	}
}

func (s *ResolverService) ResolveTeam(ctx context.Context, rec source.TeamRecord) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolverService.ResolveTeam")
	defer span.End()

	if err := rec.Validate(); err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	normalized := normalize.Name(rec.Name, normalize.KindTeam)
	countryKey := normalize.Country(rec.Country)
	if normalized == "" {
		return Resolution{}, fmt.Errorf("%w: name %q normalizes to nothing", ErrInvalidInput, rec.Name)
	}

	// Fast path: this provider id is already mapped.
	if existing, ok := s.store.TeamByProvider(rec.Provider, rec.ProviderID); ok {
		merged := s.attachTeamSource(existing, rec, 1)
		s.store.UpsertTeam(merged)
		return Resolution{ID: merged.ID, Confidence: merged.Confidence}, nil
	}

	if candidate, score, ok := s.bestTeamCandidate(normalized, countryKey, rec); ok {
		merged := s.attachTeamSource(candidate, rec, score)
		s.store.UpsertTeam(merged)
		return Resolution{ID: merged.ID, Confidence: merged.Confidence}, nil
	} else if score >= s.cfg.ReviewThreshold && score < s.cfg.AcceptThreshold {
		// In the corroboration band without a corroborating signal the record
		// stays unresolved rather than guessed.
		return Resolution{}, fmt.Errorf("%w: %s %q scored %.2f against existing team",
			ErrAmbiguousMatch, rec.Provider, rec.Name, score)
	}

	created, err := s.createTeam(rec, normalized, countryKey)
	if err != nil {
		return Resolution{}, err
	}
	s.store.UpsertTeam(created)
	s.logger.DebugContext(ctx, "created universal team",
		"team_id", created.ID,
		"provider", rec.Provider,
		"name", rec.Name,
	)
	return Resolution{ID: created.ID, Created: true, Confidence: created.Confidence}, nil
}

// bestTeamCandidate scans the country-scoped candidates and returns the best
// acceptable one. The returned score is the best score seen even when no
// candidate is acceptable, so callers can detect the corroboration band.
func (s *ResolverService) bestTeamCandidate(normalized, countryKey string, rec source.TeamRecord) (team.Universal, float64, bool) {
	var best team.Universal
	bestScore := 0.0
	found := false

	for _, candidate := range s.store.TeamCandidates(countryKey) {
		score := similarity.Score(normalized, candidate.NormalizedName)
		if score <= bestScore && found {
			continue
		}
		if score < s.cfg.ReviewThreshold {
			if score > bestScore {
				bestScore = score
			}
			continue
		}

		acceptable := score >= s.cfg.AcceptThreshold
		if !acceptable {
			acceptable = s.corroborated(candidate, countryKey, rec)
		}
		if acceptable {
			best = candidate
			bestScore = score
			found = true
		} else if score > bestScore {
			bestScore = score
		}
	}

	return best, bestScore, found
}

// corroborated requires both a shared country and one shared league before a
// review-band score is trusted.
func (s *ResolverService) corroborated(candidate team.Universal, countryKey string, rec source.TeamRecord) bool {
	if countryKey == "" || normalize.Country(candidate.Country) != countryKey {
		return false
	}
	if rec.LeagueProviderID == "" {
		return false
	}
	lg, ok := s.store.LeagueByProvider(rec.Provider, rec.LeagueProviderID)
	if !ok {
		return false
	}
	for _, leagueID := range candidate.Leagues {
		if leagueID == lg.ID {
			return true
		}
	}
	return false
}

func (s *ResolverService) attachTeamSource(existing team.Universal, rec source.TeamRecord, score float64) team.Universal {
	now := s.now().UTC()

	if existing.Sources == nil {
		existing.Sources = make(map[string]team.Source, len(s.cfg.Providers))
	}
	// One slot per provider; a repeat payload overwrites, never duplicates.
	existing.Sources[rec.Provider] = team.Source{
		ProviderID: rec.ProviderID,
		Name:       strings.TrimSpace(rec.Name),
		LogoURL:    strings.TrimSpace(rec.LogoURL),
		UpdatedAt:  now,
	}

	if rec.LeagueProviderID != "" {
		if lg, ok := s.store.LeagueByProvider(rec.Provider, rec.LeagueProviderID); ok {
			existing.AddLeague(lg.ID)
		}
	}
	if existing.Country == "" {
		existing.Country = strings.TrimSpace(rec.Country)
	}
	existing.Name = s.canonicalTeamName(existing)

	if len(existing.Sources) >= 2 && score >= s.cfg.VerifyThreshold {
		existing.Verified = true
	}
	existing.Confidence = s.confidence(len(existing.Sources), existing.Verified)
	existing.LastUpdated = now
	return existing
}

// canonicalTeamName picks the display name from the highest-priority provider
// present, so the canonical view is stable across merge order.
func (s *ResolverService) canonicalTeamName(record team.Universal) string {
	for _, provider := range s.cfg.Providers {
		if src, ok := record.Sources[provider]; ok && src.Name != "" {
			return src.Name
		}
	}
	if record.Name != "" {
		return record.Name
	}
	for _, src := range record.Sources {
		if src.Name != "" {
			return src.Name
		}
	}
	return ""
}

func (s *ResolverService) createTeam(rec source.TeamRecord, normalized, countryKey string) (team.Universal, error) {
	teamID, err := id.Derive(func(candidate string) bool {
		return s.store.TeamIDTaken(candidate, normalized, countryKey)
	}, normalized, countryKey)
	if err != nil {
		return team.Universal{}, fmt.Errorf("%w: team %q: %v", ErrIdentifierExhausted, rec.Name, err)
	}

	fresh := team.Universal{
		ID:             teamID,
		Country:        strings.TrimSpace(rec.Country),
		NormalizedName: normalized,
	}
	return s.attachTeamSource(fresh, rec, 1), nil
}

func (s *ResolverService) ResolveLeague(ctx context.Context, rec source.LeagueRecord) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolverService.ResolveLeague")
	defer span.End()

	if err := rec.Validate(); err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	normalized := normalize.Name(rec.Name, normalize.KindLeague)
	countryKey := normalize.Country(rec.Country)
	if normalized == "" {
		return Resolution{}, fmt.Errorf("%w: name %q normalizes to nothing", ErrInvalidInput, rec.Name)
	}

	if existing, ok := s.store.LeagueByProvider(rec.Provider, rec.ProviderID); ok {
		merged := s.attachLeagueSource(existing, rec, 1)
		s.store.UpsertLeague(merged)
		return Resolution{ID: merged.ID, Confidence: merged.Confidence}, nil
	}

	var best league.Universal
	bestScore := 0.0
	found := false
	for _, candidate := range s.store.LeagueCandidates(countryKey) {
		if candidate.Season != rec.Season {
			continue
		}
		score := similarity.Score(normalized, candidate.NormalizedName)
		if score < s.cfg.AcceptThreshold {
			if score > bestScore {
				bestScore = score
			}
			continue
		}
		if !found || score > bestScore {
			best = candidate
			bestScore = score
			found = true
		}
	}

	if found {
		merged := s.attachLeagueSource(best, rec, bestScore)
		s.store.UpsertLeague(merged)
		return Resolution{ID: merged.ID, Confidence: merged.Confidence}, nil
	}
	if bestScore >= s.cfg.ReviewThreshold {
		return Resolution{}, fmt.Errorf("%w: %s league %q scored %.2f against existing league",
			ErrAmbiguousMatch, rec.Provider, rec.Name, bestScore)
	}

	leagueID, err := id.Derive(func(candidate string) bool {
		return s.store.LeagueIDTaken(candidate, normalized, countryKey, rec.Season)
	}, normalized, countryKey, rec.Season)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: league %q: %v", ErrIdentifierExhausted, rec.Name, err)
	}

	fresh := league.Universal{
		ID:             leagueID,
		Country:        strings.TrimSpace(rec.Country),
		Season:         strings.TrimSpace(rec.Season),
		Type:           league.NormalizeType(rec.Type),
		Active:         rec.Active,
		NormalizedName: normalized,
	}
	created := s.attachLeagueSource(fresh, rec, 1)
	s.store.UpsertLeague(created)
	s.logger.DebugContext(ctx, "created universal league",
		"league_id", created.ID,
		"provider", rec.Provider,
		"name", rec.Name,
	)
	return Resolution{ID: created.ID, Created: true, Confidence: created.Confidence}, nil
}

func (s *ResolverService) attachLeagueSource(existing league.Universal, rec source.LeagueRecord, score float64) league.Universal {
	now := s.now().UTC()

	if existing.Sources == nil {
		existing.Sources = make(map[string]league.Source, len(s.cfg.Providers))
	}
	existing.Sources[rec.Provider] = league.Source{
		ProviderID: rec.ProviderID,
		Name:       strings.TrimSpace(rec.Name),
		LogoURL:    strings.TrimSpace(rec.LogoURL),
		UpdatedAt:  now,
	}

	if existing.Country == "" {
		existing.Country = strings.TrimSpace(rec.Country)
	}
	if rec.Active {
		existing.Active = true
	}
	existing.Name = s.canonicalLeagueName(existing)

	if len(existing.Sources) >= 2 && score >= s.cfg.VerifyThreshold {
		existing.Verified = true
	}
	existing.Confidence = s.confidence(len(existing.Sources), existing.Verified)
	existing.LastUpdated = now
	return existing
}

func (s *ResolverService) canonicalLeagueName(record league.Universal) string {
	for _, provider := range s.cfg.Providers {
		if src, ok := record.Sources[provider]; ok && src.Name != "" {
			return src.Name
		}
	}
	if record.Name != "" {
		return record.Name
	}
	for _, src := range record.Sources {
		if src.Name != "" {
			return src.Name
		}
	}
	return ""
}

func (s *ResolverService) ResolveMatch(ctx context.Context, rec source.MatchRecord) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolverService.ResolveMatch")
	defer span.End()

	if err := rec.Validate(); err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if existing, ok := s.store.MatchByProvider(rec.Provider, rec.ProviderID); ok {
		merged, conflicts := s.mergeMatch(existing, rec)
		s.store.UpsertMatch(merged)
		return Resolution{ID: merged.ID, Confidence: merged.Confidence, Conflicts: conflicts}, nil
	}

	homeID, err := s.resolveMatchTeam(rec, rec.HomeTeamProviderID, rec.HomeTeamName)
	if err != nil {
		return Resolution{}, err
	}
	awayID, err := s.resolveMatchTeam(rec, rec.AwayTeamProviderID, rec.AwayTeamName)
	if err != nil {
		return Resolution{}, err
	}

	dateUTC := match.NormalizedDateUTC(rec.KickoffAt)
	matchID, err := id.Derive(func(candidate string) bool {
		return s.store.MatchIDTaken(candidate, homeID, awayID, dateUTC)
	}, homeID, awayID, dateUTC)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: match %s: %v", ErrIdentifierExhausted, rec.ProviderID, err)
	}

	if existing, ok := s.store.GetMatch(matchID); ok {
		merged, conflicts := s.mergeMatch(existing, rec)
		s.store.UpsertMatch(merged)
		return Resolution{ID: merged.ID, Confidence: merged.Confidence, Conflicts: conflicts}, nil
	}

	var leagueID string
	if rec.LeagueProviderID != "" {
		if lg, ok := s.store.LeagueByProvider(rec.Provider, rec.LeagueProviderID); ok {
			leagueID = lg.ID
		}
	}

	fresh := match.Universal{
		ID:         matchID,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		LeagueID:   leagueID,
		Date:       rec.KickoffAt.UTC(),
		Status:     match.NormalizeStatus(rec.Status),
	}
	merged, conflicts := s.mergeMatch(fresh, rec)
	s.store.UpsertMatch(merged)
	s.logger.DebugContext(ctx, "created universal match",
		"match_id", merged.ID,
		"provider", rec.Provider,
		"home_team_id", homeID,
		"away_team_id", awayID,
	)
	return Resolution{ID: merged.ID, Created: true, Confidence: merged.Confidence, Conflicts: conflicts}, nil
}

// resolveMatchTeam maps a provider's team reference to a universal id, first
// by provider id, then by normalized name.
func (s *ResolverService) resolveMatchTeam(rec source.MatchRecord, providerTeamID, name string) (string, error) {
	if providerTeamID != "" {
		if found, ok := s.store.TeamByProvider(rec.Provider, providerTeamID); ok {
			return found.ID, nil
		}
	}

	normalized := normalize.Name(name, normalize.KindTeam)
	if normalized != "" {
		candidates := s.store.TeamsByNormalizedName(normalized)
		if len(candidates) == 1 {
			return candidates[0].ID, nil
		}
		if len(candidates) > 1 {
			return "", fmt.Errorf("%w: team %q has %d canonical candidates",
				ErrAmbiguousMatch, name, len(candidates))
		}
	}

	return "", fmt.Errorf("%w: team reference %q/%q from %s",
		ErrNotFound, providerTeamID, name, rec.Provider)
}

// mergeMatch applies the field-level merge policy: mutable fields follow the
// most recently updated source, but two sources disagreeing on a final score
// keep the previous value and flag a conflict instead of guessing.
func (s *ResolverService) mergeMatch(existing match.Universal, rec source.MatchRecord) (match.Universal, []syncjob.Conflict) {
	now := s.now().UTC()
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	var conflicts []syncjob.Conflict

	newStatus := match.NormalizeStatus(rec.Status)
	if match.IsFinishedStatus(existing.Status) && match.IsFinishedStatus(newStatus) &&
		scoresDisagree(existing.HomeScore, existing.AwayScore, rec.HomeScore, rec.AwayScore) {
		conflicts = append(conflicts, syncjob.Conflict{
			EntityID: existing.ID,
			Provider: rec.Provider,
			Field:    "score",
			Kept:     formatScore(existing.HomeScore, existing.AwayScore),
			Rejected: formatScore(rec.HomeScore, rec.AwayScore),
		})
	} else if updatedAt.After(latestSourceUpdate(existing)) || len(existing.Sources) == 0 {
		existing.Status = newStatus
		if rec.HomeScore != nil {
			existing.HomeScore = cloneIntPtr(rec.HomeScore)
		}
		if rec.AwayScore != nil {
			existing.AwayScore = cloneIntPtr(rec.AwayScore)
		}
	}

	if existing.Sources == nil {
		existing.Sources = make(map[string]match.Source, len(s.cfg.Providers))
	}
	existing.Sources[rec.Provider] = match.Source{
		ProviderID: rec.ProviderID,
		Status:     newStatus,
		HomeScore:  cloneIntPtr(rec.HomeScore),
		AwayScore:  cloneIntPtr(rec.AwayScore),
		Raw:        append([]byte(nil), rec.Raw...),
		UpdatedAt:  updatedAt,
	}

	if len(existing.Sources) >= 2 && len(conflicts) == 0 {
		existing.Verified = true
	}
	existing.Confidence = s.confidence(len(existing.Sources), existing.Verified)
	existing.LastUpdated = now
	return existing, conflicts
}

// confidence grows with source agreement: a single source caps at 0.5,
// full provider coverage approaches 1.0, verification adds the last step.
func (s *ResolverService) confidence(sources int, verified bool) float64 {
	configured := len(s.cfg.Providers)
	if configured == 0 {
		configured = 1
	}
	if sources > configured {
		sources = configured
	}

	base := 0.5 * float64(sources) / float64(configured)
	if sources >= 2 {
		base += 0.3
	}
	if verified {
		base += 0.2
	}
	if base > 1 {
		base = 1
	}
	return base
}

func latestSourceUpdate(record match.Universal) time.Time {
	var latest time.Time
	for _, src := range record.Sources {
		if src.UpdatedAt.After(latest) {
			latest = src.UpdatedAt
		}
	}
	return latest
}

func scoresDisagree(prevHome, prevAway, nextHome, nextAway *int) bool {
	if prevHome == nil || prevAway == nil || nextHome == nil || nextAway == nil {
		return false
	}
	return *prevHome != *nextHome || *prevAway != *nextAway
}

func formatScore(home, away *int) string {
	if home == nil || away == nil {
		return ""
	}
	return fmt.Sprintf("%d-%d", *home, *away)
}

func cloneIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
