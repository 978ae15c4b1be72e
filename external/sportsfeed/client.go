// Package sportsfeed implements the provider gateway for the SportsFeed API.
package sportsfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/unifoot/unifoot/internal/domain/source"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/platform/resilience"
	"github.com/unifoot/unifoot/internal/usecase"
)

const (
	providerName   = "sportsfeed"
	defaultBaseURL = "https://api.sportsfeed.io/v4/football"
	maxBodyBytes   = 6 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`api_key=[^&\s"']+`)
var errSportsFeedTransient = crerr.New("sportsfeed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	MinInterval    time.Duration
	DailyLimit     int64
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the SportsFeed REST API and maps its payloads onto source
// records. All calls share one pacer so the provider's spacing holds across
// concurrent workers.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	dailyLimit     int64
	logger         *logging.Logger
	pacer          *resilience.Pacer
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight

	callsMade atomic.Int64
	callsDay  atomic.Value
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 250 * time.Millisecond
	}
	dailyLimit := cfg.DailyLimit
	if dailyLimit <= 0 {
		dailyLimit = 7500
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	client := &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		dailyLimit:     dailyLimit,
		logger:         logger,
		pacer:          resilience.NewPacer(minInterval),
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
	client.callsDay.Store("")
	return client
}

func (c *Client) Name() string { return providerName }

func (c *Client) Quota() usecase.ProviderQuota {
	return usecase.ProviderQuota{
		CallsMade:  c.callsMade.Load(),
		DailyLimit: c.dailyLimit,
	}
}

type leagueEnvelope struct {
	Data []leagueItem `json:"data"`
}

type leagueItem struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  string `json:"season"`
	Type    string `json:"type"`
	Active  bool   `json:"active"`
	Logo    string `json:"logo"`
}

type teamEnvelope struct {
	Data []teamItem `json:"data"`
}

type teamItem struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo"`
}

type matchEnvelope struct {
	Data []matchItem `json:"data"`
}

type matchDetailEnvelope struct {
	Data matchItem `json:"data"`
}

type matchItem struct {
	ID         int64  `json:"id"`
	LeagueID   int64  `json:"league_id"`
	HomeTeamID int64  `json:"home_team_id"`
	AwayTeamID int64  `json:"away_team_id"`
	HomeName   string `json:"home_name"`
	AwayName   string `json:"away_name"`
	KickoffAt  string `json:"kickoff_at"`
	Status     string `json:"status"`
	HomeScore  *int   `json:"home_score"`
	AwayScore  *int   `json:"away_score"`
	UpdatedAt  string `json:"updated_at"`
}

func (c *Client) ListLeagues(ctx context.Context, country string) ([]source.LeagueRecord, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, fmt.Errorf("%w: country is required", usecase.ErrInvalidInput)
	}

	var envelope leagueEnvelope
	raw, err := c.doJSON(ctx, "/leagues", map[string]string{"country": country}, &envelope)
	if err != nil {
		return nil, fmt.Errorf("list leagues country=%s: %w", country, err)
	}

	out := make([]source.LeagueRecord, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.ID <= 0 || strings.TrimSpace(item.Name) == "" {
			continue
		}
		out = append(out, source.LeagueRecord{
			Provider:   providerName,
			ProviderID: fmt.Sprintf("%d", item.ID),
			Name:       strings.TrimSpace(item.Name),
			Country:    strings.TrimSpace(item.Country),
			Season:     strings.TrimSpace(item.Season),
			Type:       strings.TrimSpace(item.Type),
			Active:     item.Active,
			LogoURL:    strings.TrimSpace(item.Logo),
			Raw:        itemJSON(item, raw),
		})
	}
	return out, nil
}

func (c *Client) ListTeams(ctx context.Context, leagueProviderID string) ([]source.TeamRecord, error) {
	leagueProviderID = strings.TrimSpace(leagueProviderID)
	if leagueProviderID == "" {
		return nil, fmt.Errorf("%w: league id is required", usecase.ErrInvalidInput)
	}

	var envelope teamEnvelope
	raw, err := c.doJSON(ctx, "/teams", map[string]string{"league": leagueProviderID}, &envelope)
	if err != nil {
		return nil, fmt.Errorf("list teams league=%s: %w", leagueProviderID, err)
	}

	out := make([]source.TeamRecord, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.ID <= 0 || strings.TrimSpace(item.Name) == "" {
			continue
		}
		out = append(out, source.TeamRecord{
			Provider:         providerName,
			ProviderID:       fmt.Sprintf("%d", item.ID),
			Name:             strings.TrimSpace(item.Name),
			Country:          strings.TrimSpace(item.Country),
			LogoURL:          strings.TrimSpace(item.Logo),
			LeagueProviderID: leagueProviderID,
			Raw:              itemJSON(item, raw),
		})
	}
	return out, nil
}

func (c *Client) ListMatches(ctx context.Context, from, to time.Time) ([]source.MatchRecord, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: date window %s..%s", usecase.ErrInvalidInput,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	query := map[string]string{
		"from": from.UTC().Format("2006-01-02"),
		"to":   to.UTC().Format("2006-01-02"),
	}
	var envelope matchEnvelope
	_, err := c.doJSON(ctx, "/matches", query, &envelope)
	if err != nil {
		return nil, fmt.Errorf("list matches %s..%s: %w", query["from"], query["to"], err)
	}

	out := make([]source.MatchRecord, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		record, ok := c.mapMatch(item)
		if !ok {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (c *Client) MatchByID(ctx context.Context, providerID string) (source.MatchRecord, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return source.MatchRecord{}, fmt.Errorf("%w: match id is required", usecase.ErrInvalidInput)
	}

	var envelope matchDetailEnvelope
	_, err := c.doJSON(ctx, "/matches/"+url.PathEscape(providerID), nil, &envelope)
	if err != nil {
		return source.MatchRecord{}, fmt.Errorf("get match id=%s: %w", providerID, err)
	}

	record, ok := c.mapMatch(envelope.Data)
	if !ok {
		return source.MatchRecord{}, fmt.Errorf("%w: match %s has no usable payload", usecase.ErrNotFound, providerID)
	}
	return record, nil
}

func (c *Client) mapMatch(item matchItem) (source.MatchRecord, bool) {
	if item.ID <= 0 {
		return source.MatchRecord{}, false
	}
	kickoff := parseProviderDateTime(item.KickoffAt)
	if kickoff == nil {
		return source.MatchRecord{}, false
	}

	record := source.MatchRecord{
		Provider:     providerName,
		ProviderID:   fmt.Sprintf("%d", item.ID),
		HomeTeamName: strings.TrimSpace(item.HomeName),
		AwayTeamName: strings.TrimSpace(item.AwayName),
		KickoffAt:    *kickoff,
		Status:       strings.TrimSpace(item.Status),
		HomeScore:    item.HomeScore,
		AwayScore:    item.AwayScore,
		Raw:          itemJSON(item, nil),
	}
	if item.HomeTeamID > 0 {
		record.HomeTeamProviderID = fmt.Sprintf("%d", item.HomeTeamID)
	}
	if item.AwayTeamID > 0 {
		record.AwayTeamProviderID = fmt.Sprintf("%d", item.AwayTeamID)
	}
	if item.LeagueID > 0 {
		record.LeagueProviderID = fmt.Sprintf("%d", item.LeagueID)
	}
	if parsed := parseProviderDateTime(item.UpdatedAt); parsed != nil {
		record.UpdatedAt = *parsed
	}
	return record, true
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sportsfeed circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: sportsfeed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("api_key", c.apiKey)

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSportsFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		c.countCall()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSportsFeedTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSportsFeedTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: provider status=404", usecase.ErrNotFound)
			case resp.StatusCode == http.StatusTooManyRequests:
				lastErr = fmt.Errorf("%w: provider status=429", usecase.ErrRateLimited)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errSportsFeedTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "sportsfeed request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

// countCall tracks calls against the daily quota, resetting at UTC midnight.
func (c *Client) countCall() {
	day := time.Now().UTC().Format("2006-01-02")
	if current, _ := c.callsDay.Load().(string); current != day {
		c.callsDay.Store(day)
		c.callsMade.Store(0)
	}
	c.callsMade.Add(1)
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "api_key=REDACTED")
}

func redactAPIURL(fullURL string) string {
	return apiKeyParamRegex.ReplaceAllString(fullURL, "api_key=REDACTED")
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout || status >= 500
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 240 {
		body = body[:240] + "..."
	}
	return body
}

func itemJSON(item any, fallback []byte) []byte {
	raw, err := sonic.Marshal(item)
	if err != nil {
		return append([]byte(nil), fallback...)
	}
	return raw
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
