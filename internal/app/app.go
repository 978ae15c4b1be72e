package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/unifoot/unifoot/external/scoreline"
	"github.com/unifoot/unifoot/external/sportsfeed"
	"github.com/unifoot/unifoot/internal/config"
	"github.com/unifoot/unifoot/internal/domain/syncjob"
	filesnapshot "github.com/unifoot/unifoot/internal/infrastructure/snapshot/file"
	pgsnapshot "github.com/unifoot/unifoot/internal/infrastructure/snapshot/postgres"
	"github.com/unifoot/unifoot/internal/interfaces/httpapi"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/platform/resilience"
	"github.com/unifoot/unifoot/internal/store"
	"github.com/unifoot/unifoot/internal/usecase"

	"github.com/jmoiron/sqlx"
)

// App owns the canonical store, the provider gateways and every service
// built on top of them, plus the HTTP server and the background schedules
// (checkpointing, full and incremental syncs).
type App struct {
	cfg         config.Config
	logger      *logging.Logger
	store       *store.Store
	snapshotter store.Snapshotter
	db          *sqlx.DB
	syncService *usecase.SyncService
	server      *http.Server
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store.New(),
	}
	if err := a.initSnapshotter(ctx); err != nil {
		return nil, err
	}

	gateways, providers := buildGateways(cfg, logger)
	if len(gateways) == 0 {
		logger.Warn("no provider gateways enabled, sync jobs will produce nothing")
	}

	resolver := usecase.NewResolverService(a.store, usecase.ResolverConfig{
		AcceptThreshold: cfg.AcceptThreshold,
		ReviewThreshold: cfg.ReviewThreshold,
		VerifyThreshold: cfg.VerifyThreshold,
		Providers:       providers,
	}, logger)

	jobs := syncjob.NewRegistry()
	a.syncService = usecase.NewSyncService(gateways, resolver, jobs, usecase.SyncConfig{
		Countries:    cfg.SyncCountries,
		FetchWorkers: cfg.SyncWorkers,
		LookBack:     cfg.IncrementalLookBack,
		LookAhead:    cfg.IncrementalLookAhead,
	}, logger)

	queryService := usecase.NewQueryService(a.store, a.syncService, usecase.QueryCacheConfig{
		TeamTTL:  cfg.TeamCacheTTL,
		MatchTTL: cfg.MatchCacheTTL,
	}, logger)
	statsService := usecase.NewStatsService(a.store, gateways, jobs, providers)

	handler := httpapi.NewHandler(queryService, a.syncService, statsService, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if a.server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return a, nil
}

// Run blocks until ctx is canceled or the HTTP server fails, then shuts
// everything down and writes a final checkpoint.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	schedCtx, stopSchedules := context.WithCancel(ctx)
	var schedules conc.WaitGroup
	schedules.Go(func() { a.checkpointLoop(schedCtx) })
	schedules.Go(func() { a.syncLoop(schedCtx, syncjob.ModeFull, a.cfg.FullSyncInterval, true) })
	schedules.Go(func() { a.syncLoop(schedCtx, syncjob.ModeIncremental, a.cfg.IncrementalSyncInterval, false) })

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = err
	}

	stopSchedules()
	schedules.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown http server: %w", err)
	}

	a.checkpoint(shutdownCtx)
	if a.db != nil {
		_ = a.db.Close()
	}
	a.logger.Info("service stopped")

	return runErr
}

func (a *App) initSnapshotter(ctx context.Context) error {
	switch a.cfg.SnapshotBackend {
	case config.SnapshotBackendFile:
		a.snapshotter = filesnapshot.NewSnapshotter(a.cfg.SnapshotPath)
	case config.SnapshotBackendPostgres:
		db, err := openDatabase(a.cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		a.db = db
		a.snapshotter = pgsnapshot.NewSnapshotter(db)
	default:
		a.logger.Info("snapshot persistence disabled")
		return nil
	}

	snapshot, found, err := a.snapshotter.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if found {
		a.store.Restore(snapshot)
		a.logger.Info("snapshot restored",
			"backend", a.cfg.SnapshotBackend,
			"teams", len(snapshot.Teams),
			"leagues", len(snapshot.Leagues),
			"matches", len(snapshot.Matches),
			"saved_at", snapshot.SavedAt.Format(time.RFC3339),
		)
	}

	return nil
}

func (a *App) checkpointLoop(ctx context.Context) {
	if a.snapshotter == nil {
		return
	}

	ticker := time.NewTicker(a.cfg.CheckpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.checkpoint(ctx)
		}
	}
}

// checkpoint failures are logged and retried on the next tick; the in-memory
// store stays consistent either way.
func (a *App) checkpoint(ctx context.Context) {
	if a.snapshotter == nil {
		return
	}

	snapshot := a.store.Export(time.Now().UTC())
	if err := a.snapshotter.Save(ctx, snapshot); err != nil {
		a.logger.ErrorContext(ctx, "snapshot checkpoint failed", "error", err)
		return
	}
	a.logger.InfoContext(ctx, "snapshot checkpoint saved",
		"teams", len(snapshot.Teams),
		"leagues", len(snapshot.Leagues),
		"matches", len(snapshot.Matches),
	)
}

func (a *App) syncLoop(ctx context.Context, mode syncjob.Mode, interval time.Duration, runAtBoot bool) {
	if interval <= 0 {
		return
	}

	if runAtBoot {
		a.runScheduledSync(ctx, mode)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runScheduledSync(ctx, mode)
		}
	}
}

func (a *App) runScheduledSync(ctx context.Context, mode syncjob.Mode) {
	var err error
	if mode == syncjob.ModeIncremental {
		_, err = a.syncService.RunIncremental(ctx)
	} else {
		_, err = a.syncService.RunFull(ctx)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "scheduled sync failed", "mode", string(mode), "error", err)
	}
}

func buildGateways(cfg config.Config, logger *logging.Logger) ([]usecase.ProviderGateway, []string) {
	var gateways []usecase.ProviderGateway

	if cfg.SportsFeedEnabled {
		gateways = append(gateways, sportsfeed.NewClient(sportsfeed.ClientConfig{
			BaseURL:     cfg.SportsFeedBaseURL,
			APIKey:      cfg.SportsFeedAPIKey,
			Timeout:     cfg.SportsFeedTimeout,
			MaxRetries:  cfg.SportsFeedMaxRetries,
			MinInterval: cfg.SportsFeedMinInterval,
			DailyLimit:  cfg.SportsFeedDailyLimit,
			Logger:      logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SportsFeedCircuitEnabled,
				FailureThreshold: cfg.SportsFeedCircuitFailureCount,
				OpenTimeout:      cfg.SportsFeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SportsFeedCircuitHalfOpenReq,
			},
		}))
	}
	if cfg.ScorelineEnabled {
		gateways = append(gateways, scoreline.NewClient(scoreline.ClientConfig{
			BaseURL:     cfg.ScorelineBaseURL,
			APIKey:      cfg.ScorelineAPIKey,
			Timeout:     cfg.ScorelineTimeout,
			MaxRetries:  cfg.ScorelineMaxRetries,
			MinInterval: cfg.ScorelineMinInterval,
			DailyLimit:  cfg.ScorelineDailyLimit,
			Logger:      logger,
		}))
	}

	providers := make([]string, 0, len(gateways))
	for _, gateway := range gateways {
		providers = append(providers, gateway.Name())
	}

	return gateways, providers
}
