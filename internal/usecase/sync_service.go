package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/unifoot/unifoot/internal/domain/source"
	"github.com/unifoot/unifoot/internal/domain/syncjob"
	"github.com/unifoot/unifoot/internal/platform/logging"
)

type SyncConfig struct {
	// Countries scopes full syncs; every league in each country is swept.
	Countries []string
	// FetchWorkers caps concurrent team-list calls during a full sync.
	FetchWorkers int
	// LookBack and LookAhead bound the incremental match window around now.
	LookBack  time.Duration
	LookAhead time.Duration
}

func NormalizeSyncConfig(cfg SyncConfig) SyncConfig {
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = 4
	}
	if cfg.LookBack <= 0 {
		cfg.LookBack = 48 * time.Hour
	}
	if cfg.LookAhead <= 0 {
		cfg.LookAhead = 7 * 24 * time.Hour
	}
	return cfg
}

// SyncService drives full and incremental sweeps through the configured
// provider gateways. Fetches run concurrently; every resolve goes through a
// single merge loop so the store only ever sees one writer per job.
type SyncService struct {
	gateways []ProviderGateway
	resolver *ResolverService
	jobs     *syncjob.Registry
	cfg      SyncConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewSyncService(gateways []ProviderGateway, resolver *ResolverService, jobs *syncjob.Registry, cfg SyncConfig, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		gateways: gateways,
		resolver: resolver,
		jobs:     jobs,
		cfg:      NormalizeSyncConfig(cfg),
		logger:   logger,
		now:      time.Now,
	}
}

type teamFetchTarget struct {
	gateway ProviderGateway
	league  source.LeagueRecord
}

type teamFetchResult struct {
	provider string
	leagueID string
	teams    []source.TeamRecord
	err      error
}

// RunFull sweeps every league and team for the configured countries across
// all providers. One failing call loses that call's items only; the job
// always reaches a completed state.
func (s *SyncService) RunFull(ctx context.Context) (syncjob.Job, error) {
	jobID := s.newJobID(syncjob.ModeFull)
	ok, activeID := s.jobs.Start(jobID, syncjob.ModeFull, s.now().UTC())
	if !ok {
		return syncjob.Job{}, fmt.Errorf("%w: full sync %s still running", ErrSyncAlreadyRunning, activeID)
	}

	return s.runFull(ctx, jobID)
}

// Trigger reserves a job and runs the sweep in the background, returning the
// job id right away. The same-mode concurrency check still happens before
// this returns, so callers see rejection synchronously.
func (s *SyncService) Trigger(ctx context.Context, mode syncjob.Mode) (string, error) {
	if mode != syncjob.ModeFull && mode != syncjob.ModeIncremental {
		return "", fmt.Errorf("%w: unknown sync mode %q", ErrInvalidInput, mode)
	}

	jobID := s.newJobID(mode)
	ok, activeID := s.jobs.Start(jobID, mode, s.now().UTC())
	if !ok {
		return "", fmt.Errorf("%w: %s sync %s still running", ErrSyncAlreadyRunning, mode, activeID)
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		var err error
		if mode == syncjob.ModeIncremental {
			_, err = s.runIncremental(bg, jobID)
		} else {
			_, err = s.runFull(bg, jobID)
		}
		if err != nil {
			s.logger.ErrorContext(bg, "background sync failed", "job_id", jobID, "error", err)
		}
	}()

	return jobID, nil
}

func (s *SyncService) runFull(ctx context.Context, jobID string) (syncjob.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.runFull")
	defer span.End()

	s.logger.InfoContext(ctx, "full sync started",
		"job_id", jobID,
		"providers", len(s.gateways),
		"countries", len(s.cfg.Countries),
	)

	targets := s.sweepLeagues(ctx, jobID)
	if ctx.Err() == nil {
		s.sweepTeams(ctx, jobID, targets)
	}

	return s.finish(ctx, jobID)
}

// sweepLeagues lists and resolves leagues country by country, collecting the
// team-fetch targets for the second phase. Cancellation is honored between
// country boundaries.
func (s *SyncService) sweepLeagues(ctx context.Context, jobID string) []teamFetchTarget {
	var targets []teamFetchTarget

	for _, gateway := range s.gateways {
		for _, country := range s.cfg.Countries {
			if err := ctx.Err(); err != nil {
				s.jobs.AddError(jobID, syncjob.ItemError{
					Provider: gateway.Name(),
					RawID:    country,
					Reason:   fmt.Sprintf("sync interrupted: %v", err),
				})
				return targets
			}

			leagues, err := gateway.ListLeagues(ctx, country)
			if err != nil {
				s.jobs.AddError(jobID, syncjob.ItemError{
					Provider: gateway.Name(),
					RawID:    country,
					Reason:   fmt.Sprintf("list leagues: %v", err),
				})
				s.logger.WarnContext(ctx, "league listing failed",
					"job_id", jobID,
					"provider", gateway.Name(),
					"country", country,
					"error", err.Error(),
				)
				continue
			}

			for _, record := range leagues {
				res, err := s.resolver.ResolveLeague(ctx, record)
				if err != nil {
					s.jobs.AddError(jobID, syncjob.ItemError{
						Provider: record.Provider,
						RawID:    record.ProviderID,
						Reason:   err.Error(),
					})
					continue
				}
				s.jobs.AddResolved(jobID, res.Created)
				targets = append(targets, teamFetchTarget{gateway: gateway, league: record})
			}
		}
	}

	return targets
}

// sweepTeams fans team-list calls out to a worker pool and resolves the
// results in this goroutine as they arrive.
func (s *SyncService) sweepTeams(ctx context.Context, jobID string, targets []teamFetchTarget) {
	if len(targets) == 0 {
		return
	}

	pool, err := ants.NewPool(s.cfg.FetchWorkers)
	if err != nil {
		s.jobs.AddError(jobID, syncjob.ItemError{
			Provider: "sync",
			RawID:    jobID,
			Reason:   fmt.Sprintf("worker pool: %v", err),
		})
		return
	}
	defer pool.Release()

	results := make(chan teamFetchResult, len(targets))
	var pending sync.WaitGroup
	for _, target := range targets {
		target := target
		pending.Add(1)
		submitErr := pool.Submit(func() {
			defer pending.Done()
			teams, err := target.gateway.ListTeams(ctx, target.league.ProviderID)
			results <- teamFetchResult{
				provider: target.gateway.Name(),
				leagueID: target.league.ProviderID,
				teams:    teams,
				err:      err,
			}
		})
		if submitErr != nil {
			pending.Done()
			results <- teamFetchResult{
				provider: target.gateway.Name(),
				leagueID: target.league.ProviderID,
				err:      submitErr,
			}
		}
	}

	var closer conc.WaitGroup
	closer.Go(func() {
		pending.Wait()
		close(results)
	})
	defer closer.Wait()

	for fetch := range results {
		if fetch.err != nil {
			s.jobs.AddError(jobID, syncjob.ItemError{
				Provider: fetch.provider,
				RawID:    fetch.leagueID,
				Reason:   fmt.Sprintf("list teams: %v", fetch.err),
			})
			continue
		}
		for _, record := range fetch.teams {
			res, err := s.resolver.ResolveTeam(ctx, record)
			if err != nil {
				s.jobs.AddError(jobID, syncjob.ItemError{
					Provider: record.Provider,
					RawID:    record.ProviderID,
					Reason:   err.Error(),
				})
				continue
			}
			s.jobs.AddResolved(jobID, res.Created)
		}
	}
}

// RunIncremental refreshes matches inside the configured date window.
// Fetches run once per provider concurrently; merging follows the configured
// provider order so repeated runs behave the same way.
func (s *SyncService) RunIncremental(ctx context.Context) (syncjob.Job, error) {
	jobID := s.newJobID(syncjob.ModeIncremental)
	ok, activeID := s.jobs.Start(jobID, syncjob.ModeIncremental, s.now().UTC())
	if !ok {
		return syncjob.Job{}, fmt.Errorf("%w: incremental sync %s still running", ErrSyncAlreadyRunning, activeID)
	}

	return s.runIncremental(ctx, jobID)
}

func (s *SyncService) runIncremental(ctx context.Context, jobID string) (syncjob.Job, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.runIncremental")
	defer span.End()

	now := s.now().UTC()
	from := now.Add(-s.cfg.LookBack)
	to := now.Add(s.cfg.LookAhead)
	s.logger.InfoContext(ctx, "incremental sync started",
		"job_id", jobID,
		"window_from", from.Format(time.RFC3339),
		"window_to", to.Format(time.RFC3339),
	)

	type matchFetchResult struct {
		records []source.MatchRecord
		err     error
	}
	fetched := make([]matchFetchResult, len(s.gateways))

	var fetchers conc.WaitGroup
	for idx, gateway := range s.gateways {
		idx, gateway := idx, gateway
		fetchers.Go(func() {
			records, err := gateway.ListMatches(ctx, from, to)
			fetched[idx] = matchFetchResult{records: records, err: err}
		})
	}
	fetchers.Wait()

	window := fmt.Sprintf("%s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	for idx, gateway := range s.gateways {
		fetch := fetched[idx]
		if fetch.err != nil {
			s.jobs.AddError(jobID, syncjob.ItemError{
				Provider: gateway.Name(),
				RawID:    window,
				Reason:   fmt.Sprintf("list matches: %v", fetch.err),
			})
			continue
		}
		for _, record := range fetch.records {
			res, err := s.resolver.ResolveMatch(ctx, record)
			if err != nil {
				s.jobs.AddError(jobID, syncjob.ItemError{
					Provider: record.Provider,
					RawID:    record.ProviderID,
					Reason:   err.Error(),
				})
				continue
			}
			s.jobs.AddResolved(jobID, res.Created)
			for _, conflict := range res.Conflicts {
				s.jobs.AddConflict(jobID, conflict)
			}
		}
	}

	return s.finish(ctx, jobID)
}

// RefreshMatch re-fetches a single match from every provider that can serve
// it, outside any job. Used by the query path when a caller asks for a match
// the engine has never seen.
func (s *SyncService) RefreshMatch(ctx context.Context, provider, providerID string) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.RefreshMatch")
	defer span.End()

	for _, gateway := range s.gateways {
		if gateway.Name() != provider {
			continue
		}
		record, err := gateway.MatchByID(ctx, providerID)
		if err != nil {
			return Resolution{}, err
		}
		return s.resolver.ResolveMatch(ctx, record)
	}
	return Resolution{}, fmt.Errorf("%w: provider %q is not configured", ErrNotFound, provider)
}

func (s *SyncService) JobStatus(jobID string) (syncjob.Job, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok {
		return syncjob.Job{}, fmt.Errorf("%w: sync job %q", ErrNotFound, jobID)
	}
	return job, nil
}

func (s *SyncService) LastRun(mode syncjob.Mode) (syncjob.Job, bool) {
	return s.jobs.LastFinished(mode)
}

func (s *SyncService) finish(ctx context.Context, jobID string) (syncjob.Job, error) {
	s.jobs.Finish(jobID, s.now().UTC())
	job, _ := s.jobs.Get(jobID)
	s.logger.InfoContext(ctx, "sync finished",
		"job_id", jobID,
		"state", string(job.State),
		"resolved", job.Resolved,
		"created", job.Created,
		"errors", len(job.Errors),
		"conflicts", len(job.Conflicts),
	)
	return job, nil
}

func (s *SyncService) newJobID(mode syncjob.Mode) string {
	return fmt.Sprintf("%s-%d", mode, s.now().UTC().UnixNano())
}
