package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unifoot/unifoot/internal/domain/source"
	"github.com/unifoot/unifoot/internal/domain/syncjob"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/store"
)

func newQueryFixture(t *testing.T) (*QueryService, *ResolverService, *store.Store) {
	t.Helper()
	st := store.New()
	resolver := NewResolverService(st, ResolverConfig{
		Providers: []string{"sportsfeed", "scoreline"},
	}, logging.NewNop())
	query := NewQueryService(st, nil, QueryCacheConfig{
		TeamTTL:  time.Minute,
		MatchTTL: time.Minute,
	}, logging.NewNop())
	return query, resolver, st
}

func TestFindTeamByNameProviderIDAndUniversalID(t *testing.T) {
	t.Parallel()

	query, resolver, _ := newQueryFixture(t)
	ctx := context.Background()

	res, err := resolver.ResolveTeam(ctx, source.TeamRecord{
		Provider:   "sportsfeed",
		ProviderID: "529",
		Name:       "FC Barcelona",
		Country:    "Spain",
	})
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}

	byName, err := query.FindTeam(ctx, "Barcelona", "")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if byName.ID != res.ID {
		t.Fatalf("name lookup returned %s, want %s", byName.ID, res.ID)
	}

	byProvider, err := query.FindTeam(ctx, "529", "sportsfeed")
	if err != nil {
		t.Fatalf("find by provider id: %v", err)
	}
	if byProvider.ID != res.ID {
		t.Fatalf("provider lookup returned %s, want %s", byProvider.ID, res.ID)
	}

	byID, err := query.FindTeam(ctx, res.ID, "")
	if err != nil {
		t.Fatalf("find by universal id: %v", err)
	}
	if byID.ID != res.ID {
		t.Fatalf("id lookup returned %s, want %s", byID.ID, res.ID)
	}
}

func TestFindTeamUnknownReturnsNotFound(t *testing.T) {
	t.Parallel()

	query, _, _ := newQueryFixture(t)
	if _, err := query.FindTeam(context.Background(), "Phantom FC", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindMatchByProviderID(t *testing.T) {
	t.Parallel()

	query, resolver, _ := newQueryFixture(t)
	ctx := context.Background()

	mustResolveTeams(ctx, t, resolver)
	res, err := resolver.ResolveMatch(ctx, source.MatchRecord{
		Provider:           "sportsfeed",
		ProviderID:         "m-1001",
		HomeTeamProviderID: "541",
		AwayTeamProviderID: "529",
		KickoffAt:          time.Date(2025, 10, 26, 20, 0, 0, 0, time.UTC),
		Status:             "NS",
	})
	if err != nil {
		t.Fatalf("seed match: %v", err)
	}

	found, err := query.FindMatchByProviderID(ctx, "sportsfeed", "m-1001")
	if err != nil {
		t.Fatalf("find match: %v", err)
	}
	if found.ID != res.ID {
		t.Fatalf("match lookup returned %s, want %s", found.ID, res.ID)
	}

	if _, err := query.FindMatchByProviderID(ctx, "scoreline", "m-1001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong provider, got %v", err)
	}
}

func TestFindMatchByProviderIDRefreshesOnStoreMiss(t *testing.T) {
	t.Parallel()

	st := store.New()
	resolver := NewResolverService(st, ResolverConfig{
		Providers: []string{"sportsfeed", "scoreline"},
	}, logging.NewNop())
	ctx := context.Background()
	mustResolveTeams(ctx, t, resolver)

	gw := &fakeGateway{
		name: "sportsfeed",
		matches: []source.MatchRecord{{
			Provider:           "sportsfeed",
			ProviderID:         "m-7777",
			HomeTeamProviderID: "541",
			AwayTeamProviderID: "529",
			KickoffAt:          time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC),
			Status:             "NS",
		}},
	}
	syncSvc := NewSyncService([]ProviderGateway{gw}, resolver, syncjob.NewRegistry(), SyncConfig{}, logging.NewNop())
	query := NewQueryService(st, syncSvc, QueryCacheConfig{}, logging.NewNop())

	found, err := query.FindMatchByProviderID(ctx, "sportsfeed", "m-7777")
	if err != nil {
		t.Fatalf("find never-synced match: %v", err)
	}
	if found.ID == "" {
		t.Fatalf("expected a universal match id")
	}
	if _, ok := st.MatchByProvider("sportsfeed", "m-7777"); !ok {
		t.Fatalf("refreshed match should land in the store")
	}

	if _, err := query.FindMatchByProviderID(ctx, "sportsfeed", "m-nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an id the provider cannot serve, got %v", err)
	}
}

func TestMatchesOnFiltersByUTCDay(t *testing.T) {
	t.Parallel()

	query, resolver, _ := newQueryFixture(t)
	ctx := context.Background()

	mustResolveTeams(ctx, t, resolver)
	day := time.Date(2025, 10, 26, 20, 0, 0, 0, time.UTC)
	for idx, kickoff := range []time.Time{day, day.Add(48 * time.Hour)} {
		if _, err := resolver.ResolveMatch(ctx, source.MatchRecord{
			Provider:           "sportsfeed",
			ProviderID:         []string{"m-1", "m-2"}[idx],
			HomeTeamProviderID: "541",
			AwayTeamProviderID: "529",
			KickoffAt:          kickoff,
			Status:             "NS",
		}); err != nil {
			t.Fatalf("seed match: %v", err)
		}
	}

	if got := query.MatchesOn(ctx, day); len(got) != 1 {
		t.Fatalf("expected 1 match on %s, got %d", day.Format("2006-01-02"), len(got))
	}
}

func TestStatsSnapshotCounts(t *testing.T) {
	t.Parallel()

	st := store.New()
	providers := []string{"sportsfeed", "scoreline"}
	resolver := NewResolverService(st, ResolverConfig{Providers: providers}, logging.NewNop())
	ctx := context.Background()

	// One two-source team and one single-source team.
	for _, rec := range []source.TeamRecord{
		{Provider: "sportsfeed", ProviderID: "529", Name: "FC Barcelona", Country: "Spain"},
		{Provider: "scoreline", ProviderID: "t-83", Name: "Barcelona", Country: "Spain"},
		{Provider: "sportsfeed", ProviderID: "548", Name: "Real Sociedad", Country: "Spain"},
	} {
		if _, err := resolver.ResolveTeam(ctx, rec); err != nil {
			t.Fatalf("seed team %s: %v", rec.Name, err)
		}
	}

	jobs := syncjob.NewRegistry()
	started := time.Date(2025, 10, 26, 6, 0, 0, 0, time.UTC)
	jobs.Start("full-1", syncjob.ModeFull, started)
	jobs.AddResolved("full-1", true)
	jobs.Finish("full-1", started.Add(time.Minute))

	gateway := spainGateway("sportsfeed", "140", "sf")
	stats := NewStatsService(st, []ProviderGateway{gateway}, jobs, providers)
	snapshot := stats.Snapshot(ctx)

	if snapshot.Teams.Total != 2 {
		t.Fatalf("expected 2 teams, got %d", snapshot.Teams.Total)
	}
	if snapshot.Teams.Complete != 1 || snapshot.Teams.SingleSource != 1 {
		t.Fatalf("expected 1 complete and 1 single-source, got %+v", snapshot.Teams)
	}
	if len(snapshot.Providers) != 1 || snapshot.Providers[0].Name != "sportsfeed" {
		t.Fatalf("unexpected provider stats: %+v", snapshot.Providers)
	}
	if snapshot.LastFullSync == nil || snapshot.LastFullSync.JobID != "full-1" {
		t.Fatalf("expected last full sync full-1, got %+v", snapshot.LastFullSync)
	}
	if snapshot.LastIncremental != nil {
		t.Fatalf("no incremental run yet, got %+v", snapshot.LastIncremental)
	}
}
