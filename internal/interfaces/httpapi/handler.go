package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/unifoot/unifoot/internal/domain/syncjob"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/usecase"
)

const matchDayLayout = "2006-01-02"

type Handler struct {
	queryService *usecase.QueryService
	syncService  *usecase.SyncService
	statsService *usecase.StatsService
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(
	queryService *usecase.QueryService,
	syncService *usecase.SyncService,
	statsService *usecase.StatsService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queryService: queryService,
		syncService:  syncService,
		statsService: statsService,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// FindTeam resolves q against canonical names, universal ids and provider
// ids. A provider query param narrows the provider-id lookup.
func (h *Handler) FindTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FindTeam")
	defer span.End()

	key := strings.TrimSpace(r.URL.Query().Get("q"))
	if key == "" {
		writeError(ctx, w, fmt.Errorf("%w: query parameter q is required", usecase.ErrInvalidInput))
		return
	}
	providerHint := strings.TrimSpace(r.URL.Query().Get("provider"))

	record, err := h.queryService.FindTeam(ctx, key, providerHint)
	if err != nil {
		h.logger.WarnContext(ctx, "find team failed", "key", key, "provider", providerHint, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, record)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID := r.PathValue("teamID")
	record, err := h.queryService.GetTeam(ctx, teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, record)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	record, err := h.queryService.GetMatch(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, record)
}

func (h *Handler) FindMatchByProviderID(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FindMatchByProviderID")
	defer span.End()

	provider := strings.TrimSpace(r.URL.Query().Get("provider"))
	providerID := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	if provider == "" || providerID == "" {
		writeError(ctx, w, fmt.Errorf("%w: query parameters provider and provider_id are required", usecase.ErrInvalidInput))
		return
	}

	record, err := h.queryService.FindMatchByProviderID(ctx, provider, providerID)
	if err != nil {
		h.logger.WarnContext(ctx, "find match failed", "provider", provider, "provider_id", providerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, record)
}

func (h *Handler) ListMatchesByDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesByDay")
	defer span.End()

	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		writeError(ctx, w, fmt.Errorf("%w: query parameter date is required (YYYY-MM-DD)", usecase.ErrInvalidInput))
		return
	}
	day, err := time.Parse(matchDayLayout, raw)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid date %q: %v", usecase.ErrInvalidInput, raw, err))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.queryService.MatchesOn(ctx, day))
}

func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatistics")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.statsService.Snapshot(ctx))
}

type triggerSyncRequest struct {
	Mode string `json:"mode" validate:"required,oneof=full incremental"`
}

type triggerSyncResponse struct {
	JobID string `json:"job_id"`
	Mode  string `json:"mode"`
	State string `json:"state"`
}

// TriggerSync starts a sync job in the background and answers with the job
// id so callers can poll its state.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerSync")
	defer span.End()

	req, err := decodeTriggerSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.Mode == "" {
		req.Mode = string(syncjob.ModeIncremental)
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	jobID, err := h.syncService.Trigger(ctx, syncjob.Mode(req.Mode))
	if err != nil {
		h.logger.WarnContext(ctx, "trigger sync failed", "mode", req.Mode, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, triggerSyncResponse{
		JobID: jobID,
		Mode:  req.Mode,
		State: string(syncjob.StateRunning),
	})
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSyncStatus")
	defer span.End()

	jobID := r.PathValue("jobID")
	job, err := h.syncService.JobStatus(jobID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, job)
}

func (h *Handler) GetLastSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLastSync")
	defer span.End()

	mode := syncjob.Mode(strings.TrimSpace(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = syncjob.ModeFull
	}
	if mode != syncjob.ModeFull && mode != syncjob.ModeIncremental {
		writeError(ctx, w, fmt.Errorf("%w: unknown sync mode %q", usecase.ErrInvalidInput, mode))
		return
	}

	job, ok := h.syncService.LastRun(mode)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no finished %s sync yet", usecase.ErrNotFound, mode))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, job)
}

func decodeTriggerSyncRequest(r *http.Request) (triggerSyncRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req triggerSyncRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return triggerSyncRequest{}, nil
		}
		return triggerSyncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}
