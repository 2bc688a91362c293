package openf1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils/cache"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils/cache/stalecache"
)

const DefaultBaseURL = "https://api.openf1.org/v1"

var (
	// ErrNoSessionKey is returned when aggregate data is requested without session
	ErrNoSessionKey = errors.New("no session key available")

	errRateLimited = errors.New("upstream responded with 429")
)

type (
	Client struct {
		baseURL     string
		httpClient  *http.Client
		cache       cache.Cache[string, []byte]
		cacheTTL    time.Duration
		rateCfg     rateSettings
		limiter     *windowLimiter
		breaker     *gobreaker.CircuitBreaker[[]byte]
		cooldown    time.Duration
		now         func() time.Time
		l           *log.Logger
		warnLimited rate.Sometimes
		muSession   sync.RWMutex
		sessionKey  int
		stats       stats
	}
	Option func(*Client)

	stats struct {
		requests    atomic.Int64
		cacheHits   atomic.Int64
		staleServed atomic.Int64
		limited     atomic.Int64
		dropped     atomic.Int64
	}
	rateSettings struct {
		limit  int
		window time.Duration
	}
)

func WithBaseURL(arg string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(arg, "/")
	}
}

func WithHTTPClient(arg *http.Client) Option {
	return func(c *Client) {
		c.httpClient = arg
	}
}

func WithCacheTTL(arg time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = arg
	}
}

// WithRateLimit allows limit requests per window
func WithRateLimit(limit int, window time.Duration) Option {
	return func(c *Client) {
		c.rateCfg = rateSettings{limit: limit, window: window}
	}
}

// WithCooldown sets the pause after the upstream responded with 429
func WithCooldown(arg time.Duration) Option {
	return func(c *Client) {
		c.cooldown = arg
	}
}

// WithClock is used for cache and rate limit window
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		cacheTTL:    10 * time.Second,
		cooldown:    time.Minute,
		now:         time.Now,
		l:           log.Default().Named("openf1"),
		warnLimited: rate.Sometimes{Interval: 10 * time.Second},
		rateCfg:     rateSettings{limit: 30, window: time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limiter = newWindowLimiter(c.rateCfg.limit, c.rateCfg.window, c.now)
	if c.httpClient.Transport == nil {
		c.httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	c.cache = stalecache.New(
		stalecache.WithTTL[string, []byte](c.cacheTTL),
		stalecache.WithClock[string, []byte](c.now),
		stalecache.WithLogger[string, []byte](c.l.Named("cache")))
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "openf1",
		MaxRequests: 1,
		Timeout:     c.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 0
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, errRateLimited)
		},
		OnStateChange: c.onBreakerStateChange,
	})
	c.setupMetrics()
	return c
}

func (c *Client) onBreakerStateChange(name string, from, to gobreaker.State) {
	c.l.Info("rate limit state changed",
		log.String("from", from.String()), log.String("to", to.String()))
	if to == gobreaker.StateHalfOpen {
		c.limiter.Reset()
	}
}

// Degraded reports whether requests are currently throttled
func (c *Client) Degraded() bool {
	return c.breaker.State() != gobreaker.StateClosed || c.limiter.Engaged()
}

// SessionKey returns the key remembered by the last CurrentSession call
func (c *Client) SessionKey() int {
	c.muSession.RLock()
	defer c.muSession.RUnlock()
	return c.sessionKey
}

func (c *Client) rememberSession(key int) {
	c.muSession.Lock()
	defer c.muSession.Unlock()
	c.sessionKey = key
}

func cacheKey(endpoint string, params url.Values) string {
	return endpoint + "?" + params.Encode()
}

// Fetch requests endpoint and decodes the resulting list.
// It never fails: on any upstream problem the cached (possibly stale) value
// or an empty list is returned.
//
//nolint:whitespace // can't make both editor and linter happy
func Fetch[T any](
	ctx context.Context, c *Client, endpoint string, params url.Values,
) []T {
	data := c.fetchRaw(ctx, endpoint, params)
	if data == nil {
		return []T{}
	}
	ret, stats, err := model.ParseList[T](data)
	if err != nil {
		c.l.Warn("unexpected payload", log.String("endpoint", endpoint), log.ErrorField(err))
		return []T{}
	}
	if stats.Dropped > 0 {
		c.stats.dropped.Add(int64(stats.Dropped))
		c.l.Debug("dropped invalid records",
			log.String("endpoint", endpoint),
			log.Int("dropped", stats.Dropped), log.Int("total", stats.Total))
	}
	return ret
}

//nolint:cyclop // sequential fallbacks
func (c *Client) fetchRaw(ctx context.Context, endpoint string, params url.Values) []byte {
	key := cacheKey(endpoint, params)
	cached, freshness, err := c.cache.Get(ctx, key)
	hasCache := err == nil
	if hasCache && freshness == cache.Fresh {
		c.stats.cacheHits.Add(1)
		return *cached
	}
	fallback := func(reason string, err error) []byte {
		if hasCache {
			c.stats.staleServed.Add(1)
			c.l.Debug("serving stale data",
				log.String("key", key), log.String("reason", reason), log.ErrorField(err))
			return *cached
		}
		c.l.Debug("no data available",
			log.String("key", key), log.String("reason", reason), log.ErrorField(err))
		return nil
	}
	if c.breaker.State() == gobreaker.StateOpen {
		c.stats.limited.Add(1)
		return fallback("cooldown", nil)
	}
	if !c.limiter.Allow() {
		c.stats.limited.Add(1)
		c.warnLimited.Do(func() {
			c.l.Warn("request limit reached", log.Int("limit", c.limiter.limit))
		})
		return fallback("rate limit", nil)
	}
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, endpoint, params)
	})
	if err != nil {
		if errors.Is(err, errRateLimited) {
			c.l.Warn("upstream rate limit hit, cooling down",
				log.Duration("cooldown", c.cooldown))
		}
		return fallback("request failed", err)
	}
	c.cache.Put(ctx, key, &data)
	return data
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Client) doRequest(
	ctx context.Context, endpoint string, params url.Values,
) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.stats.requests.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: unexpected status %d", endpoint, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%s: invalid payload: %w", endpoint, err)
	}
	return data, nil
}

func (c *Client) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("f1l.openf1")
	register := func(name, desc string, v *atomic.Int64) {
		if _, err := meter.Int64ObservableGauge(name,
			metric.WithDescription(desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(v.Load())
				return nil
			})); err != nil {
			c.l.Error("failed to register metric", log.String("metric", name), log.ErrorField(err))
		}
	}
	register("f1l.openf1.requests", "Number of issued requests", &c.stats.requests)
	register("f1l.openf1.cache_hits", "Number of fresh cache hits", &c.stats.cacheHits)
	register("f1l.openf1.stale_served", "Number of stale responses", &c.stats.staleServed)
	register("f1l.openf1.limited", "Number of rate limited requests", &c.stats.limited)
	register("f1l.openf1.dropped", "Number of dropped invalid records", &c.stats.dropped)
}

// Requests returns the number of issued network requests
func (c *Client) Requests() int64 {
	return c.stats.requests.Load()
}
