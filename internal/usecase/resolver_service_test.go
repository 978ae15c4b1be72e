package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unifoot/unifoot/internal/domain/match"
	"github.com/unifoot/unifoot/internal/domain/source"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/store"
)

func newTestResolver(t *testing.T) (*ResolverService, *store.Store) {
	t.Helper()
	st := store.New()
	svc := NewResolverService(st, ResolverConfig{
		Providers: []string{"sportsfeed", "scoreline"},
	}, logging.NewNop())
	return svc, st
}

func intPtr(v int) *int { return &v }

func TestResolveTeamTwoProvidersMergeToOneRecord(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	first, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "529",
		Name:       "FC Barcelona",
		Country:    "Spain",
	})
	if err != nil {
		t.Fatalf("resolve first provider: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected first record to create a team")
	}

	second, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "scoreline",
		ProviderID: "t-83",
		Name:       "Barcelona",
		Country:    "Spain",
	})
	if err != nil {
		t.Fatalf("resolve second provider: %v", err)
	}
	if second.Created {
		t.Fatalf("expected second provider to attach, not create")
	}
	if second.ID != first.ID {
		t.Fatalf("expected one universal team, got ids %s and %s", first.ID, second.ID)
	}

	merged, ok := st.GetTeam(first.ID)
	if !ok {
		t.Fatalf("merged team missing from store")
	}
	if len(merged.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(merged.Sources))
	}
	if merged.Sources["sportsfeed"].ProviderID != "529" || merged.Sources["scoreline"].ProviderID != "t-83" {
		t.Fatalf("provider ids not preserved: %+v", merged.Sources)
	}
	if second.Confidence <= first.Confidence {
		t.Fatalf("two-source confidence %f should exceed single-source %f", second.Confidence, first.Confidence)
	}
}

func TestResolveTeamAlternateCountrySpelling(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	first, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "541",
		Name:       "Real Madrid",
		Country:    "Spain",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	second, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "scoreline",
		ProviderID: "t-12",
		Name:       "Real Madrid CF",
		Country:    "España",
	})
	if err != nil {
		t.Fatalf("resolve alternate spelling: %v", err)
	}
	if second.Created || second.ID != first.ID {
		t.Fatalf("alternate country spelling must match the existing record")
	}
	if got := len(st.AllTeams()); got != 1 {
		t.Fatalf("expected 1 team, got %d", got)
	}
}

func TestResolveTeamDistinctTeamsSharingTokenStaySeparate(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	if _, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "541",
		Name:       "Real Madrid",
		Country:    "Spain",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	res, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "548",
		Name:       "Real Sociedad",
		Country:    "Spain",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Created {
		t.Fatalf("Real Sociedad must not merge into Real Madrid")
	}
	if got := len(st.AllTeams()); got != 2 {
		t.Fatalf("expected 2 teams, got %d", got)
	}
}

func TestResolveTeamMergeIdempotence(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	rec := source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "529",
		Name:       "FC Barcelona",
		Country:    "Spain",
	}
	first, err := svc.ResolveTeam(ctx, rec)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	before, _ := st.GetTeam(first.ID)

	second, err := svc.ResolveTeam(ctx, rec)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.Created {
		t.Fatalf("repeat record must not create a new team")
	}
	if second.Confidence != first.Confidence {
		t.Fatalf("confidence changed on repeat: %f -> %f", first.Confidence, second.Confidence)
	}

	after, _ := st.GetTeam(first.ID)
	if len(after.Sources) != len(before.Sources) {
		t.Fatalf("sources changed on repeat: %d -> %d", len(before.Sources), len(after.Sources))
	}
	if got := len(st.AllTeams()); got != 1 {
		t.Fatalf("expected 1 team, got %d", got)
	}
}

func TestResolveTeamCompletenessMonotonicity(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	first, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "529",
		Name:       "FC Barcelona",
		Country:    "Spain",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "scoreline",
		ProviderID: "t-83",
		Name:       "Barcelona",
		Country:    "Spain",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Another sweep from the second provider must not evict the first slot.
	if _, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "scoreline",
		ProviderID: "t-83",
		Name:       "Barcelona",
		Country:    "Spain",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	merged, _ := st.GetTeam(first.ID)
	if _, ok := merged.Sources["sportsfeed"]; !ok {
		t.Fatalf("first provider source evicted by later sync")
	}
	if !merged.HasCompleteData([]string{"sportsfeed", "scoreline"}) {
		t.Fatalf("expected complete coverage after both providers attached")
	}
}

func TestResolveTeamReviewBandWithoutCorroborationIsAmbiguous(t *testing.T) {
	t.Parallel()

	svc, _ := newTestResolver(t)
	ctx := context.Background()

	if _, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "100",
		Name:       "Deportivo La Coruna",
		Country:    "Spain",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Close enough to land in the review band, but with no league context
	// there is nothing to corroborate the merge.
	_, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "scoreline",
		ProviderID: "t-7",
		Name:       "Deportivo La Corona",
		Country:    "Spain",
	})
	if err == nil {
		t.Fatalf("expected ambiguous match error")
	}
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
}

func TestResolveTeamProviderSlotOverwrites(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	first, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "529",
		Name:       "FC Barcelona",
		Country:    "Spain",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "529",
		Name:       "FC Barcelona",
		Country:    "Spain",
		LogoURL:    "https://img.example/barca.png",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	merged, _ := st.GetTeam(first.ID)
	if len(merged.Sources) != 1 {
		t.Fatalf("same provider must occupy one slot, got %d", len(merged.Sources))
	}
	if merged.Sources["sportsfeed"].LogoURL != "https://img.example/barca.png" {
		t.Fatalf("repeat payload must overwrite the slot")
	}
}

func TestResolveLeagueCreatesAndMerges(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	first, err := svc.ResolveLeague(ctx, source.LeagueRecord{
		Provider:   "sportsfeed",
		ProviderID: "140",
		Name:       "Primera División",
		Country:    "Spain",
		Season:     "2025",
		Active:     true,
	})
	if err != nil {
		t.Fatalf("resolve league: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected league creation")
	}

	second, err := svc.ResolveLeague(ctx, source.LeagueRecord{
		Provider:   "scoreline",
		ProviderID: "l-9",
		Name:       "Primera Division",
		Country:    "Spain",
		Season:     "2025",
	})
	if err != nil {
		t.Fatalf("resolve league: %v", err)
	}
	if second.Created || second.ID != first.ID {
		t.Fatalf("accented and plain spellings must merge to one league")
	}

	merged, _ := st.GetLeague(first.ID)
	if len(merged.Sources) != 2 {
		t.Fatalf("expected 2 league sources, got %d", len(merged.Sources))
	}
	if !merged.Active {
		t.Fatalf("active flag must survive merge")
	}
}

func TestResolveLeagueSeasonsStaySeparate(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()

	if _, err := svc.ResolveLeague(ctx, source.LeagueRecord{
		Provider:   "sportsfeed",
		ProviderID: "140-2024",
		Name:       "La Liga",
		Country:    "Spain",
		Season:     "2024",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	res, err := svc.ResolveLeague(ctx, source.LeagueRecord{
		Provider:   "sportsfeed",
		ProviderID: "140-2025",
		Name:       "La Liga",
		Country:    "Spain",
		Season:     "2025",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Created {
		t.Fatalf("different seasons must produce distinct leagues")
	}
	if got := len(st.AllLeagues()); got != 2 {
		t.Fatalf("expected 2 leagues, got %d", got)
	}
}

func TestResolveMatchDedupesAcrossProviders(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()
	kickoff := time.Date(2025, 10, 26, 20, 0, 0, 0, time.UTC)

	home, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider: "sportsfeed", ProviderID: "541", Name: "Real Madrid", Country: "Spain",
	})
	if err != nil {
		t.Fatalf("resolve home: %v", err)
	}
	away, err := svc.ResolveTeam(ctx, source.TeamRecord{
		Provider: "sportsfeed", ProviderID: "529", Name: "FC Barcelona", Country: "Spain",
	})
	if err != nil {
		t.Fatalf("resolve away: %v", err)
	}

	first, err := svc.ResolveMatch(ctx, source.MatchRecord{
		Provider:           "sportsfeed",
		ProviderID:         "m-1001",
		HomeTeamProviderID: "541",
		AwayTeamProviderID: "529",
		KickoffAt:          kickoff,
		Status:             "NS",
	})
	if err != nil {
		t.Fatalf("resolve match: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected match creation")
	}

	// The second provider knows neither team id; name resolution plus the
	// derived (home, away, day) identity must land on the same match.
	second, err := svc.ResolveMatch(ctx, source.MatchRecord{
		Provider:     "scoreline",
		ProviderID:   "sl-77",
		HomeTeamName: "Real Madrid",
		AwayTeamName: "Barcelona",
		KickoffAt:    kickoff.Add(5 * time.Minute),
		Status:       "scheduled",
	})
	if err != nil {
		t.Fatalf("resolve match from second provider: %v", err)
	}
	if second.Created || second.ID != first.ID {
		t.Fatalf("expected one universal match, got ids %s and %s", first.ID, second.ID)
	}

	merged, _ := st.GetMatch(first.ID)
	if len(merged.Sources) != 2 {
		t.Fatalf("expected 2 match sources, got %d", len(merged.Sources))
	}
	if merged.HomeTeamID != home.ID || merged.AwayTeamID != away.ID {
		t.Fatalf("match must reference teams by universal id")
	}
}

func TestResolveMatchStatusUpdateKeepsID(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()
	kickoff := time.Date(2025, 10, 26, 20, 0, 0, 0, time.UTC)

	mustResolveTeams(ctx, t, svc)

	first, err := svc.ResolveMatch(ctx, source.MatchRecord{
		Provider:           "sportsfeed",
		ProviderID:         "m-1001",
		HomeTeamProviderID: "541",
		AwayTeamProviderID: "529",
		KickoffAt:          kickoff,
		Status:             "NS",
		UpdatedAt:          kickoff.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("resolve scheduled match: %v", err)
	}

	updated, err := svc.ResolveMatch(ctx, source.MatchRecord{
		Provider:           "sportsfeed",
		ProviderID:         "m-1001",
		HomeTeamProviderID: "541",
		AwayTeamProviderID: "529",
		KickoffAt:          kickoff,
		Status:             "FT",
		HomeScore:          intPtr(2),
		AwayScore:          intPtr(1),
		UpdatedAt:          kickoff.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("resolve finished match: %v", err)
	}
	if updated.ID != first.ID {
		t.Fatalf("status update must keep the match id")
	}

	merged, _ := st.GetMatch(first.ID)
	if merged.Status != match.StatusFinished {
		t.Fatalf("expected finished status, got %s", merged.Status)
	}
	if merged.HomeScore == nil || *merged.HomeScore != 2 || merged.AwayScore == nil || *merged.AwayScore != 1 {
		t.Fatalf("expected score 2-1, got %v-%v", merged.HomeScore, merged.AwayScore)
	}
}

func TestResolveMatchConflictingFinalScoresFlagged(t *testing.T) {
	t.Parallel()

	svc, st := newTestResolver(t)
	ctx := context.Background()
	kickoff := time.Date(2025, 10, 26, 20, 0, 0, 0, time.UTC)

	mustResolveTeams(ctx, t, svc)

	if _, err := svc.ResolveMatch(ctx, source.MatchRecord{
		Provider:           "sportsfeed",
		ProviderID:         "m-1001",
		HomeTeamProviderID: "541",
		AwayTeamProviderID: "529",
		KickoffAt:          kickoff,
		Status:             "FT",
		HomeScore:          intPtr(2),
		AwayScore:          intPtr(1),
		UpdatedAt:          kickoff.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("resolve first final: %v", err)
	}

	res, err := svc.ResolveMatch(ctx, source.MatchRecord{
		Provider:     "scoreline",
		ProviderID:   "sl-77",
		HomeTeamName: "Real Madrid",
		AwayTeamName: "Barcelona",
		KickoffAt:    kickoff,
		Status:       "finished",
		HomeScore:    intPtr(3),
		AwayScore:    intPtr(1),
		UpdatedAt:    kickoff.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("resolve conflicting final: %v", err)
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(res.Conflicts))
	}
	if res.Conflicts[0].Field != "score" || res.Conflicts[0].Kept != "2-1" || res.Conflicts[0].Rejected != "3-1" {
		t.Fatalf("unexpected conflict: %+v", res.Conflicts[0])
	}

	merged, _ := st.GetMatch(res.ID)
	if merged.HomeScore == nil || *merged.HomeScore != 2 {
		t.Fatalf("conflicting score must keep the previous value")
	}
	if merged.Verified {
		t.Fatalf("a conflicted merge must not be marked verified")
	}
}

func TestResolveMatchUnknownTeamsFail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestResolver(t)
	ctx := context.Background()

	_, err := svc.ResolveMatch(ctx, source.MatchRecord{
		Provider:     "scoreline",
		ProviderID:   "sl-1",
		HomeTeamName: "Phantom FC",
		AwayTeamName: "Ghost United",
		KickoffAt:    time.Now(),
		Status:       "scheduled",
	})
	if err == nil {
		t.Fatalf("expected error for unknown teams")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func mustResolveTeams(ctx context.Context, t *testing.T, svc *ResolverService) {
	t.Helper()
	for _, rec := range []source.TeamRecord{
		{Provider: "sportsfeed", ProviderID: "541", Name: "Real Madrid", Country: "Spain"},
		{Provider: "sportsfeed", ProviderID: "529", Name: "FC Barcelona", Country: "Spain"},
	} {
		if _, err := svc.ResolveTeam(ctx, rec); err != nil {
			t.Fatalf("seed team %s: %v", rec.Name, err)
		}
	}
}
