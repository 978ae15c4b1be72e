package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/unifoot/unifoot/internal/domain/source"
	"github.com/unifoot/unifoot/internal/domain/syncjob"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/store"
)

type fakeGateway struct {
	name      string
	leagues   map[string][]source.LeagueRecord
	teams     map[string][]source.TeamRecord
	matches   []source.MatchRecord
	leagueErr map[string]error
	teamErr   map[string]error
	matchErr  error
	started   chan struct{}
	release   chan struct{}
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) ListLeagues(ctx context.Context, country string) ([]source.LeagueRecord, error) {
	if g.started != nil {
		close(g.started)
		g.started = nil
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := g.leagueErr[country]; err != nil {
		return nil, err
	}
	return g.leagues[country], nil
}

func (g *fakeGateway) ListTeams(ctx context.Context, leagueProviderID string) ([]source.TeamRecord, error) {
	if err := g.teamErr[leagueProviderID]; err != nil {
		return nil, err
	}
	return g.teams[leagueProviderID], nil
}

func (g *fakeGateway) ListMatches(ctx context.Context, from, to time.Time) ([]source.MatchRecord, error) {
	if g.matchErr != nil {
		return nil, g.matchErr
	}
	out := make([]source.MatchRecord, 0, len(g.matches))
	for _, record := range g.matches {
		if record.KickoffAt.Before(from) || record.KickoffAt.After(to) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (g *fakeGateway) MatchByID(ctx context.Context, providerID string) (source.MatchRecord, error) {
	for _, record := range g.matches {
		if record.ProviderID == providerID {
			return record, nil
		}
	}
	return source.MatchRecord{}, fmt.Errorf("%w: match %s", ErrNotFound, providerID)
}

func (g *fakeGateway) Quota() ProviderQuota {
	return ProviderQuota{CallsMade: 1, DailyLimit: 100}
}

func newSyncFixture(t *testing.T, gateways ...ProviderGateway) (*SyncService, *store.Store) {
	t.Helper()
	st := store.New()
	resolver := NewResolverService(st, ResolverConfig{
		Providers: []string{"sportsfeed", "scoreline"},
	}, logging.NewNop())
	svc := NewSyncService(gateways, resolver, syncjob.NewRegistry(), SyncConfig{
		Countries:    []string{"Spain"},
		FetchWorkers: 2,
	}, logging.NewNop())
	return svc, st
}

func spainGateway(name, leagueID string, prefix string) *fakeGateway {
	return &fakeGateway{
		name: name,
		leagues: map[string][]source.LeagueRecord{
			"Spain": {{
				Provider:   name,
				ProviderID: leagueID,
				Name:       "Primera Division",
				Country:    "Spain",
				Season:     "2025",
				Active:     true,
			}},
		},
		teams: map[string][]source.TeamRecord{
			leagueID: {
				{Provider: name, ProviderID: prefix + "-541", Name: "Real Madrid", Country: "Spain", LeagueProviderID: leagueID},
				{Provider: name, ProviderID: prefix + "-529", Name: "FC Barcelona", Country: "Spain", LeagueProviderID: leagueID},
			},
		},
	}
}

func TestRunFullMergesTwoProviders(t *testing.T) {
	t.Parallel()

	svc, st := newSyncFixture(t,
		spainGateway("sportsfeed", "140", "sf"),
		spainGateway("scoreline", "l-9", "sl"),
	)

	job, err := svc.RunFull(context.Background())
	if err != nil {
		t.Fatalf("run full: %v", err)
	}
	if job.State != syncjob.StateCompleted {
		t.Fatalf("expected completed, got %s (errors: %+v)", job.State, job.Errors)
	}

	teams := st.AllTeams()
	if len(teams) != 2 {
		t.Fatalf("expected 2 universal teams, got %d", len(teams))
	}
	for _, team := range teams {
		if len(team.Sources) != 2 {
			t.Fatalf("team %s should carry both providers, got %d sources", team.Name, len(team.Sources))
		}
	}
	if leagues := st.AllLeagues(); len(leagues) != 1 {
		t.Fatalf("expected 1 universal league, got %d", len(leagues))
	}
	// 2 league resolves + 4 team resolves across both providers.
	if job.Resolved != 6 {
		t.Fatalf("expected 6 resolved items, got %d", job.Resolved)
	}
}

func TestRunFullPartialFailureContainment(t *testing.T) {
	t.Parallel()

	gw := spainGateway("sportsfeed", "140", "sf")
	gw.leagues["Spain"] = append(gw.leagues["Spain"], source.LeagueRecord{
		Provider:   "sportsfeed",
		ProviderID: "141",
		Name:       "Copa del Rey",
		Country:    "Spain",
		Season:     "2025",
	})
	gw.teamErr = map[string]error{"141": errors.New("upstream 500")}

	svc, st := newSyncFixture(t, gw)

	job, err := svc.RunFull(context.Background())
	if err != nil {
		t.Fatalf("run full: %v", err)
	}
	if job.State != syncjob.StateCompletedWithErrors {
		t.Fatalf("expected completed_with_errors, got %s", job.State)
	}
	if len(job.Errors) != 1 {
		t.Fatalf("expected 1 item error, got %d: %+v", len(job.Errors), job.Errors)
	}
	if job.Errors[0].RawID != "141" {
		t.Fatalf("error should reference the failed league, got %+v", job.Errors[0])
	}
	// The healthy league's teams still resolved.
	if got := len(st.AllTeams()); got != 2 {
		t.Fatalf("expected 2 teams despite one failed league, got %d", got)
	}
}

func TestRunFullRejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	gw := spainGateway("sportsfeed", "140", "sf")
	gw.started = make(chan struct{})
	gw.release = make(chan struct{})

	svc, _ := newSyncFixture(t, gw)

	done := make(chan syncjob.Job, 1)
	go func() {
		job, _ := svc.RunFull(context.Background())
		done <- job
	}()
	<-gw.started

	_, err := svc.RunFull(context.Background())
	if !errors.Is(err, ErrSyncAlreadyRunning) {
		t.Fatalf("expected ErrSyncAlreadyRunning, got %v", err)
	}

	close(gw.release)
	first := <-done
	if first.State != syncjob.StateCompleted {
		t.Fatalf("first run should complete, got %s", first.State)
	}

	// After the first run finishes the mode is free again.
	if _, err := svc.RunFull(context.Background()); err != nil {
		t.Fatalf("run after release: %v", err)
	}
}

func TestRunIncrementalResolvesWindowedMatches(t *testing.T) {
	t.Parallel()

	kickoff := time.Now().UTC().Add(24 * time.Hour)
	gw := spainGateway("sportsfeed", "140", "sf")
	gw.matches = []source.MatchRecord{
		{
			Provider:           "sportsfeed",
			ProviderID:         "m-1",
			HomeTeamProviderID: "sf-541",
			AwayTeamProviderID: "sf-529",
			LeagueProviderID:   "140",
			KickoffAt:          kickoff,
			Status:             "NS",
			UpdatedAt:          time.Now().UTC(),
		},
		{
			// Outside the window, must be skipped by the gateway filter.
			Provider:           "sportsfeed",
			ProviderID:         "m-2",
			HomeTeamProviderID: "sf-541",
			AwayTeamProviderID: "sf-529",
			KickoffAt:          kickoff.Add(60 * 24 * time.Hour),
			Status:             "NS",
		},
	}

	svc, st := newSyncFixture(t, gw)
	ctx := context.Background()

	if _, err := svc.RunFull(ctx); err != nil {
		t.Fatalf("seed full sync: %v", err)
	}
	job, err := svc.RunIncremental(ctx)
	if err != nil {
		t.Fatalf("run incremental: %v", err)
	}
	if job.State != syncjob.StateCompleted {
		t.Fatalf("expected completed, got %s (errors: %+v)", job.State, job.Errors)
	}
	if job.Resolved != 1 || job.Created != 1 {
		t.Fatalf("expected 1 created match, got resolved=%d created=%d", job.Resolved, job.Created)
	}
	if got := len(st.AllMatches()); got != 1 {
		t.Fatalf("expected 1 match in store, got %d", got)
	}
}

func TestRunIncrementalRecordsScoreConflicts(t *testing.T) {
	t.Parallel()

	kickoff := time.Now().UTC().Add(-2 * time.Hour)
	sportsfeed := spainGateway("sportsfeed", "140", "sf")
	sportsfeed.matches = []source.MatchRecord{{
		Provider:           "sportsfeed",
		ProviderID:         "m-1",
		HomeTeamProviderID: "sf-541",
		AwayTeamProviderID: "sf-529",
		KickoffAt:          kickoff,
		Status:             "FT",
		HomeScore:          intPtr(2),
		AwayScore:          intPtr(1),
		UpdatedAt:          time.Now().UTC(),
	}}
	scoreline := spainGateway("scoreline", "l-9", "sl")
	scoreline.matches = []source.MatchRecord{{
		Provider:           "scoreline",
		ProviderID:         "sl-77",
		HomeTeamProviderID: "sl-541",
		AwayTeamProviderID: "sl-529",
		KickoffAt:          kickoff,
		Status:             "finished",
		HomeScore:          intPtr(3),
		AwayScore:          intPtr(1),
		UpdatedAt:          time.Now().UTC().Add(time.Minute),
	}}

	svc, st := newSyncFixture(t, sportsfeed, scoreline)
	ctx := context.Background()

	if _, err := svc.RunFull(ctx); err != nil {
		t.Fatalf("seed full sync: %v", err)
	}
	job, err := svc.RunIncremental(ctx)
	if err != nil {
		t.Fatalf("run incremental: %v", err)
	}

	if len(job.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %+v", len(job.Conflicts), job.Conflicts)
	}
	if job.Conflicts[0].Field != "score" {
		t.Fatalf("unexpected conflict field %q", job.Conflicts[0].Field)
	}
	if got := len(st.AllMatches()); got != 1 {
		t.Fatalf("both providers must land on one match, got %d", got)
	}
}

func TestRunIncrementalProviderOutageIsContained(t *testing.T) {
	t.Parallel()

	kickoff := time.Now().UTC().Add(24 * time.Hour)
	sportsfeed := spainGateway("sportsfeed", "140", "sf")
	sportsfeed.matches = []source.MatchRecord{{
		Provider:           "sportsfeed",
		ProviderID:         "m-1",
		HomeTeamProviderID: "sf-541",
		AwayTeamProviderID: "sf-529",
		KickoffAt:          kickoff,
		Status:             "NS",
	}}
	scoreline := spainGateway("scoreline", "l-9", "sl")
	scoreline.matchErr = errors.New("connect timeout")

	svc, st := newSyncFixture(t, sportsfeed, scoreline)
	ctx := context.Background()

	if _, err := svc.RunFull(ctx); err != nil {
		t.Fatalf("seed full sync: %v", err)
	}
	job, err := svc.RunIncremental(ctx)
	if err != nil {
		t.Fatalf("run incremental: %v", err)
	}
	if job.State != syncjob.StateCompletedWithErrors {
		t.Fatalf("expected completed_with_errors, got %s", job.State)
	}
	if got := len(st.AllMatches()); got != 1 {
		t.Fatalf("healthy provider's match must still resolve, got %d", got)
	}
}

func TestJobStatusUnknownID(t *testing.T) {
	t.Parallel()

	svc, _ := newSyncFixture(t, spainGateway("sportsfeed", "140", "sf"))
	if _, err := svc.JobStatus("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTriggerReturnsJobIDBeforeCompletion(t *testing.T) {
	t.Parallel()

	svc, st := newSyncFixture(t, spainGateway("sportsfeed", "140", "sf"))

	jobID, err := svc.Trigger(context.Background(), syncjob.ModeFull)
	if err != nil {
		t.Fatalf("trigger full sync: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id from trigger")
	}

	deadline := time.After(2 * time.Second)
	for {
		job, err := svc.JobStatus(jobID)
		if err != nil {
			t.Fatalf("job status: %v", err)
		}
		if job.State != syncjob.StateRunning {
			if job.State != syncjob.StateCompleted {
				t.Fatalf("expected completed, got %s", job.State)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("background sync did not finish in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := len(st.AllTeams()); got != 2 {
		t.Fatalf("expected 2 teams after background full sync, got %d", got)
	}
}

func TestTriggerRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	svc, _ := newSyncFixture(t, spainGateway("sportsfeed", "140", "sf"))
	if _, err := svc.Trigger(context.Background(), syncjob.Mode("nightly")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
