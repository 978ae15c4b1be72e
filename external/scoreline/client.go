// Package scoreline implements the provider gateway for the Scoreline API.
// Scoreline uses string entity ids and lowercase match statuses; mapping to
// the engine's record types happens here so the merge layer never sees
// provider quirks.
package scoreline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/unifoot/unifoot/internal/domain/source"
	"github.com/unifoot/unifoot/internal/platform/logging"
	"github.com/unifoot/unifoot/internal/platform/resilience"
	"github.com/unifoot/unifoot/internal/usecase"
)

const (
	providerName   = "scoreline"
	defaultBaseURL = "https://feed.scoreline.dev/v2"
	maxBodyBytes   = 4 << 20
)

var errScorelineTransient = crerr.New("scoreline transient failure")

type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	MinInterval time.Duration
	DailyLimit  int64
	Logger      *logging.Logger
}

type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	retry      resilience.RetryPolicy
	pacer      *resilience.Pacer
	dailyLimit int64
	logger     *logging.Logger

	callsMade atomic.Int64
	callsDay  atomic.Value
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 500 * time.Millisecond
	}
	dailyLimit := cfg.DailyLimit
	if dailyLimit <= 0 {
		dailyLimit = 5000
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	client := &Client{
		httpClient: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxBodyBytes,
		},
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
		retry: resilience.RetryPolicy{
			MaxAttempts: maxRetries + 1,
			BaseDelay:   time.Second,
			MaxDelay:    8 * time.Second,
			Retryable: func(err error) bool {
				return crerr.Is(err, errScorelineTransient) || crerr.Is(err, usecase.ErrRateLimited)
			},
		},
		pacer:      resilience.NewPacer(minInterval),
		dailyLimit: dailyLimit,
		logger:     logger,
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

type competitionsEnvelope struct {
	Competitions []competitionItem `json:"competitions"`
}

type competitionItem struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Country  string `json:"country"`
	Season   string `json:"season"`
	Kind     string `json:"kind"`
	Inactive bool   `json:"inactive"`
	Crest    string `json:"crest"`
}

type clubsEnvelope struct {
	Clubs []clubItem `json:"clubs"`
}

type clubItem struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Country string `json:"country"`
	Crest   string `json:"crest"`
}

type fixturesEnvelope struct {
	Fixtures []fixtureItem `json:"fixtures"`
}

type fixtureEnvelope struct {
	Fixture fixtureItem `json:"fixture"`
}

type fixtureItem struct {
	ID            string `json:"id"`
	CompetitionID string `json:"competition_id"`
	HomeID        string `json:"home_id"`
	AwayID        string `json:"away_id"`
	HomeLabel     string `json:"home_label"`
	AwayLabel     string `json:"away_label"`
	StartsAt      string `json:"starts_at"`
	State         string `json:"state"`
	Goals         *struct {
		Home int `json:"home"`
		Away int `json:"away"`
	} `json:"goals"`
	RevisedAt string `json:"revised_at"`
}

func (c *Client) ListLeagues(ctx context.Context, country string) ([]source.LeagueRecord, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, fmt.Errorf("%w: country is required", usecase.ErrInvalidInput)
	}

	var envelope competitionsEnvelope
	if err := c.doJSON(ctx, "/competitions", map[string]string{"country": country}, &envelope); err != nil {
		return nil, fmt.Errorf("list competitions country=%s: %w", country, err)
	}

	out := make([]source.LeagueRecord, 0, len(envelope.Competitions))
	for _, item := range envelope.Competitions {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Label) == "" {
			continue
		}
		out = append(out, source.LeagueRecord{
			Provider:   providerName,
			ProviderID: strings.TrimSpace(item.ID),
			Name:       strings.TrimSpace(item.Label),
			Country:    strings.TrimSpace(item.Country),
			Season:     strings.TrimSpace(item.Season),
			Type:       strings.TrimSpace(item.Kind),
			Active:     !item.Inactive,
			LogoURL:    strings.TrimSpace(item.Crest),
			Raw:        itemJSON(item),
		})
	}
	return out, nil
}

func (c *Client) ListTeams(ctx context.Context, leagueProviderID string) ([]source.TeamRecord, error) {
	leagueProviderID = strings.TrimSpace(leagueProviderID)
	if leagueProviderID == "" {
		return nil, fmt.Errorf("%w: competition id is required", usecase.ErrInvalidInput)
	}

	var envelope clubsEnvelope
	path := "/competitions/" + url.PathEscape(leagueProviderID) + "/clubs"
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("list clubs competition=%s: %w", leagueProviderID, err)
	}

	out := make([]source.TeamRecord, 0, len(envelope.Clubs))
	for _, item := range envelope.Clubs {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Label) == "" {
			continue
		}
		out = append(out, source.TeamRecord{
			Provider:         providerName,
			ProviderID:       strings.TrimSpace(item.ID),
			Name:             strings.TrimSpace(item.Label),
			Country:          strings.TrimSpace(item.Country),
			LogoURL:          strings.TrimSpace(item.Crest),
			LeagueProviderID: leagueProviderID,
			Raw:              itemJSON(item),
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
		"date_from": from.UTC().Format("2006-01-02"),
		"date_to":   to.UTC().Format("2006-01-02"),
	}
	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, "/fixtures", query, &envelope); err != nil {
		return nil, fmt.Errorf("list fixtures %s..%s: %w", query["date_from"], query["date_to"], err)
	}

	out := make([]source.MatchRecord, 0, len(envelope.Fixtures))
	for _, item := range envelope.Fixtures {
		record, ok := mapFixture(item)
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
		return source.MatchRecord{}, fmt.Errorf("%w: fixture id is required", usecase.ErrInvalidInput)
	}

	var envelope fixtureEnvelope
	if err := c.doJSON(ctx, "/fixtures/"+url.PathEscape(providerID), nil, &envelope); err != nil {
		return source.MatchRecord{}, fmt.Errorf("get fixture id=%s: %w", providerID, err)
	}

	record, ok := mapFixture(envelope.Fixture)
	if !ok {
		return source.MatchRecord{}, fmt.Errorf("%w: fixture %s has no usable payload", usecase.ErrNotFound, providerID)
	}
	return record, nil
}

func mapFixture(item fixtureItem) (source.MatchRecord, bool) {
	if strings.TrimSpace(item.ID) == "" {
		return source.MatchRecord{}, false
	}
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(item.StartsAt))
	if err != nil {
		return source.MatchRecord{}, false
	}

	record := source.MatchRecord{
		Provider:           providerName,
		ProviderID:         strings.TrimSpace(item.ID),
		HomeTeamProviderID: strings.TrimSpace(item.HomeID),
		AwayTeamProviderID: strings.TrimSpace(item.AwayID),
		HomeTeamName:       strings.TrimSpace(item.HomeLabel),
		AwayTeamName:       strings.TrimSpace(item.AwayLabel),
		LeagueProviderID:   strings.TrimSpace(item.CompetitionID),
		KickoffAt:          startsAt.UTC(),
		Status:             strings.TrimSpace(item.State),
		Raw:                itemJSON(item),
	}
	if item.Goals != nil {
		home, away := item.Goals.Home, item.Goals.Away
		record.HomeScore = &home
		record.AwayScore = &away
	}
	if revised, err := time.Parse(time.RFC3339, strings.TrimSpace(item.RevisedAt)); err == nil {
		record.UpdatedAt = revised.UTC()
	}
	return record, true
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	fullURL := c.buildURL(path, query)

	var raw []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}
		body, reqErr := c.executeRequest(fullURL)
		if reqErr != nil {
			return reqErr
		}
		raw = body
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "scoreline request failed", "path", path, "error", err.Error())
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

// buildURL assembles the request URL through a pooled buffer; sync sweeps
// build thousands of these in a tight loop.
func (c *Client) buildURL(path string, query map[string]string) string {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString(path)
	if encoded := values.Encode(); encoded != "" {
		_ = buf.WriteByte('?')
		_, _ = buf.WriteString(encoded)
	}
	return buf.String()
}

func (c *Client) executeRequest(fullURL string) ([]byte, error) {
	c.countCall()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errScorelineTransient, err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status == fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: provider status=404", usecase.ErrNotFound)
	case status == fasthttp.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: provider status=429", usecase.ErrRateLimited)
	case status == fasthttp.StatusRequestTimeout || status >= 500:
		return nil, fmt.Errorf("%w: provider status=%d body=%s", errScorelineTransient, status, abbreviateBody(body))
	default:
		return nil, fmt.Errorf("provider status=%d body=%s", status, abbreviateBody(body))
	}
}

func (c *Client) countCall() {
	day := time.Now().UTC().Format("2006-01-02")
	if current, _ := c.callsDay.Load().(string); current != day {
		c.callsDay.Store(day)
		c.callsMade.Store(0)
	}
	c.callsMade.Add(1)
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 240 {
		body = body[:240] + "..."
	}
	return body
}

func itemJSON(item any) []byte {
	raw, err := sonic.Marshal(item)
	if err != nil {
		return nil
	}
	return raw
}
