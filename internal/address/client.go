package address

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/geocode/internal/config"
	"github.com/woozymasta/geocode/internal/geo"

	"github.com/allegro/bigcache/v3"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Client talks to the positionstack REST API. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	cache   *bigcache.BigCache
	baseURL string
	key     string
	retries int
	backoff time.Duration
}

// New creates a client from configuration. Close releases the response cache.
func New(cfg config.PositionStack) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("positionstack url is empty")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("positionstack url: %w", err)
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.Key,
		retries: max(0, cfg.Retries),
		backoff: cfg.Backoff,
	}

	if cfg.Rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), max(1, cfg.Burst))
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "positionstack",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !temporary(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	if cfg.CacheMB > 0 && cfg.CacheTTL > 0 {
		cacheCfg := bigcache.DefaultConfig(cfg.CacheTTL)
		cacheCfg.Shards = 64
		cacheCfg.MaxEntriesInWindow = 10000
		cacheCfg.MaxEntrySize = 1024
		cacheCfg.HardMaxCacheSize = cfg.CacheMB
		cacheCfg.Verbose = false

		cache, err := bigcache.New(context.Background(), cacheCfg)
		if err != nil {
			return nil, fmt.Errorf("init response cache: %w", err)
		}
		c.cache = cache
	}

	return c, nil
}

// Close releases the response cache.
func (c *Client) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

// Reverse looks up the address nearest to a position.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (Address, error) {
	query := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
	logger := log.With().Float64("lat", lat).Float64("lng", lng).Logger()

	body, err := c.fetch(ctx, "reverse", query)
	if err != nil {
		logger.Warn().Err(err).Msg("Error retrieving address")
		return Address{}, err
	}

	entry, err := firstEntry(body)
	if err != nil {
		logger.Warn().Err(err).Str("body", snippet(body)).Msg("Unexpected address response")
		return Address{}, err
	}
	c.remember("reverse", query, body)

	return parseAddress(entry, lat, lng), nil
}

// Forward looks up the position of a free-form address.
func (c *Client) Forward(ctx context.Context, text string) (geo.Coordinate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return geo.Coordinate{}, ErrEmptyAddress
	}
	logger := log.With().Str("address", text).Logger()

	body, err := c.fetch(ctx, "forward", text)
	if err != nil {
		logger.Warn().Err(err).Msg("Error retrieving coordinates")
		return geo.Coordinate{}, err
	}

	entry, err := firstEntry(body)
	if err == nil {
		var coord geo.Coordinate
		if coord, err = parseCoordinate(entry); err == nil {
			c.remember("forward", text, body)
			return coord, nil
		}
	}

	logger.Warn().Err(err).Str("body", snippet(body)).Msg("Unexpected coordinates response")
	return geo.Coordinate{}, err
}

// fetch returns the body of a successful request, from cache when possible.
func (c *Client) fetch(ctx context.Context, endpoint, query string) ([]byte, error) {
	if c.key == "" {
		return nil, ErrMissingKey
	}

	if c.cache != nil {
		if body, err := c.cache.Get(cacheKey(endpoint, query)); err == nil {
			log.Debug().Str("endpoint", endpoint).Str("query", query).Msg("Response served from cache")
			return body, nil
		} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
			log.Warn().Err(err).Msg("Response cache read failed")
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.doWithRetry(ctx, func() (*http.Request, error) {
			return c.newRequest(ctx, endpoint, query)
		})
	})
	if err != nil {
		return nil, err
	}

	return out.([]byte), nil
}

func (c *Client) remember(endpoint, query string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(cacheKey(endpoint, query), body); err != nil {
		log.Debug().Err(err).Str("endpoint", endpoint).Msg("Response not cached")
	}
}

func (c *Client) newRequest(ctx context.Context, endpoint, query string) (*http.Request, error) {
	params := url.Values{}
	params.Set("access_key", c.key)
	params.Set("query", query)
	params.Set("output", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) with exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) ([]byte, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !temporary(err) || attempt == c.retries {
			break
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Retrying request")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func temporary(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func cacheKey(endpoint, query string) string {
	return endpoint + "\x00" + query
}

func snippet(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
