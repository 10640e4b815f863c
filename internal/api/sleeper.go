package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"dynasty-tracker/internal/cache"
	"dynasty-tracker/internal/config"
	"dynasty-tracker/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// DurableCache is the persistent response-cache tier, consulted when the
// in-process entry is missing or expired. Implemented by the upstream cache
// repository; writes are best-effort.
type DurableCache interface {
	GetResponse(ctx context.Context, url string, ttl time.Duration) ([]byte, bool)
	SaveResponse(ctx context.Context, url string, body []byte) error
}

// SleeperClient reads from the Sleeper API. Every request goes through the
// in-process TTL cache, then the durable cache, then the network; a durable
// hit is written back to the in-process tier.
type SleeperClient struct {
	baseURL string
	client  *fasthttp.Client
	memory  *cache.Cache
	durable DurableCache
	logger  zerolog.Logger

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSleeperClient(cfg *config.Config, memory *cache.Cache, durable DurableCache, logger zerolog.Logger) *SleeperClient {
	return &SleeperClient{
		baseURL: strings.TrimRight(cfg.SleeperBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		memory:  memory,
		durable: durable,
		logger:  logger,
	}
}

func (c *SleeperClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *SleeperClient) updateRateLimit(resp *fasthttp.Response) {
	limit := resp.Header.Peek("X-RateLimit-Limit")
	remaining := resp.Header.Peek("X-RateLimit-Remaining")
	if len(limit) == 0 && len(remaining) == 0 {
		return
	}

	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	fmt.Sscanf(string(limit), "%d", &c.rateLimit.Limit)
	fmt.Sscanf(string(remaining), "%d", &c.rateLimit.Remaining)
	c.rateLimit.UpdatedAt = time.Now()
}

// ttlForURL picks the in-process and durable cache TTL for a resource class.
func ttlForURL(url string) time.Duration {
	switch {
	case strings.Contains(url, "/players/nfl"):
		return constants.PlayerDirectoryTTL
	case strings.Contains(url, "/rosters"), strings.Contains(url, "/users"):
		return constants.RosterTTL
	case strings.Contains(url, "/transactions/"):
		return constants.TransactionTTL
	case strings.Contains(url, "/drafts"), strings.Contains(url, "/draft/"):
		return constants.DraftTTL
	case strings.Contains(url, "/league/"):
		return constants.LeagueTTL
	}
	return constants.DefaultTTL
}

func (c *SleeperClient) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	url := fmt.Sprintf("%s/league/%s", c.baseURL, leagueID)
	return doRequest[League](ctx, c, url)
}

func (c *SleeperClient) GetRosters(ctx context.Context, leagueID string) ([]Roster, error) {
	url := fmt.Sprintf("%s/league/%s/rosters", c.baseURL, leagueID)
	return doListRequest[Roster](ctx, c, url)
}

func (c *SleeperClient) GetUsers(ctx context.Context, leagueID string) ([]User, error) {
	url := fmt.Sprintf("%s/league/%s/users", c.baseURL, leagueID)
	return doListRequest[User](ctx, c, url)
}

func (c *SleeperClient) GetDrafts(ctx context.Context, leagueID string) ([]Draft, error) {
	url := fmt.Sprintf("%s/league/%s/drafts", c.baseURL, leagueID)
	return doListRequest[Draft](ctx, c, url)
}

func (c *SleeperClient) GetDraftPicks(ctx context.Context, draftID string) ([]DraftPick, error) {
	url := fmt.Sprintf("%s/draft/%s/picks", c.baseURL, draftID)
	return doListRequest[DraftPick](ctx, c, url)
}

func (c *SleeperClient) GetTransactions(ctx context.Context, leagueID string, round int) ([]Transaction, error) {
	url := fmt.Sprintf("%s/league/%s/transactions/%d", c.baseURL, leagueID, round)
	return doListRequest[Transaction](ctx, c, url)
}

func (c *SleeperClient) GetSeasonState(ctx context.Context) (*SeasonState, error) {
	url := fmt.Sprintf("%s/state/nfl", c.baseURL)
	return doRequest[SeasonState](ctx, c, url)
}

func (c *SleeperClient) GetAllPlayers(ctx context.Context) (map[string]Player, error) {
	url := fmt.Sprintf("%s/players/nfl", c.baseURL)
	result, err := doRequest[map[string]Player](ctx, c, url)
	if err != nil {
		return nil, err
	}
	return *result, nil
}

func (c *SleeperClient) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	url := fmt.Sprintf("%s/player/%s", c.baseURL, playerID)
	return doRequest[Player](ctx, c, url)
}

func doRequest[T any](ctx context.Context, c *SleeperClient, url string) (*T, error) {
	body, err := c.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	return &result, nil
}

// doListRequest tolerates a JSON null body, which Sleeper returns for empty
// collections.
func doListRequest[T any](ctx context.Context, c *SleeperClient, url string) ([]T, error) {
	body, err := c.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	var result []T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	return result, nil
}

func (c *SleeperClient) getJSON(ctx context.Context, url string) ([]byte, error) {
	ttl := ttlForURL(url)

	if cached, ok := c.memory.Get(url); ok {
		c.logger.Debug().Str("url", url).Msg("cache hit")
		return cached.([]byte), nil
	}
	if c.durable != nil {
		if body, ok := c.durable.GetResponse(ctx, url, ttl); ok {
			c.logger.Debug().Str("url", url).Msg("durable cache hit")
			c.memory.Set(url, body, ttl)
			return body, nil
		}
	}

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.memory.Set(url, body, ttl)
	if c.durable != nil {
		if err := c.durable.SaveResponse(ctx, url, body); err != nil {
			c.logger.Warn().Err(err).Str("url", url).Msg("durable cache write failed")
		}
	}
	return body, nil
}

func (c *SleeperClient) fetch(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
	}

	c.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode(), url)
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
