package usecase

import (
	"context"
	"time"

	"github.com/unifoot/unifoot/internal/domain/syncjob"
	"github.com/unifoot/unifoot/internal/store"
)

// EntityStats summarizes one canonical collection.
type EntityStats struct {
	Total        int `json:"total"`
	Complete     int `json:"complete"`
	SingleSource int `json:"single_source"`
	Verified     int `json:"verified"`
}

type ProviderStats struct {
	Name       string `json:"name"`
	CallsMade  int64  `json:"calls_made"`
	DailyLimit int64  `json:"daily_limit"`
}

type SyncRunStats struct {
	JobID      string     `json:"job_id"`
	State      string     `json:"state"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Resolved   int        `json:"resolved"`
	Errors     int        `json:"errors"`
}

// HealthSnapshot is the read-side aggregation served to operators. Building
// one only takes read locks; it is safe at any time from any reader.
type HealthSnapshot struct {
	Teams           EntityStats     `json:"teams"`
	Leagues         EntityStats     `json:"leagues"`
	Matches         EntityStats     `json:"matches"`
	Providers       []ProviderStats `json:"providers"`
	LastFullSync    *SyncRunStats   `json:"last_full_sync,omitempty"`
	LastIncremental *SyncRunStats   `json:"last_incremental_sync,omitempty"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type StatsService struct {
	store     *store.Store
	gateways  []ProviderGateway
	jobs      *syncjob.Registry
	providers []string
	now       func() time.Time
}

func NewStatsService(st *store.Store, gateways []ProviderGateway, jobs *syncjob.Registry, providers []string) *StatsService {
	return &StatsService{
		store:     st,
		gateways:  gateways,
		jobs:      jobs,
		providers: providers,
		now:       time.Now,
	}
}

func (s *StatsService) Snapshot(ctx context.Context) HealthSnapshot {
	_, span := startUsecaseSpan(ctx, "usecase.StatsService.Snapshot")
	defer span.End()

	snapshot := HealthSnapshot{
		GeneratedAt: s.now().UTC(),
		Providers:   make([]ProviderStats, 0, len(s.gateways)),
	}

	for _, team := range s.store.AllTeams() {
		tally(&snapshot.Teams, len(team.Sources), team.HasCompleteData(s.providers), team.Verified)
	}
	for _, lg := range s.store.AllLeagues() {
		tally(&snapshot.Leagues, len(lg.Sources), lg.HasCompleteData(s.providers), lg.Verified)
	}
	for _, m := range s.store.AllMatches() {
		tally(&snapshot.Matches, len(m.Sources), m.HasCompleteData(s.providers), m.Verified)
	}

	for _, gateway := range s.gateways {
		quota := gateway.Quota()
		snapshot.Providers = append(snapshot.Providers, ProviderStats{
			Name:       gateway.Name(),
			CallsMade:  quota.CallsMade,
			DailyLimit: quota.DailyLimit,
		})
	}

	if job, ok := s.jobs.LastFinished(syncjob.ModeFull); ok {
		snapshot.LastFullSync = runStats(job)
	}
	if job, ok := s.jobs.LastFinished(syncjob.ModeIncremental); ok {
		snapshot.LastIncremental = runStats(job)
	}
	return snapshot
}

func tally(stats *EntityStats, sources int, complete, verified bool) {
	stats.Total++
	if complete {
		stats.Complete++
	}
	if sources == 1 {
		stats.SingleSource++
	}
	if verified {
		stats.Verified++
	}
}

func runStats(job syncjob.Job) *SyncRunStats {
	return &SyncRunStats{
		JobID:      job.ID,
		State:      string(job.State),
		FinishedAt: job.FinishedAt,
		Resolved:   job.Resolved,
		Errors:     len(job.Errors),
	}
}
