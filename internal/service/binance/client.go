package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	drepo "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/repository"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/service/ratelimit"
	xhttp "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/http"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

// ErrNoCandles is returned when the exchange has no daily candles for a symbol.
var ErrNoCandles = errors.New("no candles returned")

const (
	DefaultBaseURL = "https://api.binance.com"
	klinesPath     = "/api/v3/klines"
	limiterKey     = "binance"
)

// Client pulls daily klines from the Binance public REST API.
type Client struct {
	baseURL    string
	pageLimit  int
	maxRetries int
	retryDelay time.Duration
	burst      float64
	perSecond  float64

	http    *xhttp.Client
	limiter *ratelimit.Limiter
	l       *applogger.Logger
	now     func() time.Time
}

// Option configures Client.
type Option func(*Client)

var _ drepo.KlineFetcher = (*Client)(nil)

// New creates a Binance client. Defaults: 1000 candles per page, 5 retries
// 5s apart, 5 requests per second.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		pageLimit:  1000,
		maxRetries: 5,
		retryDelay: 5 * time.Second,
		burst:      1,
		perSecond:  5,
		limiter:    ratelimit.New(),
		l:          applogger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
	}
	return c
}

// WithBaseURL points the client at another host (testnet, mirror, test server).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets the transport client.
func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets per-request retry attempts and the pause between them.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// WithRateLimit sets the token bucket used to pace requests.
func WithRateLimit(burst, perSecond float64) Option {
	return func(c *Client) {
		c.burst = burst
		c.perSecond = perSecond
	}
}

// WithPageLimit sets candles per request (Binance caps it at 1000).
func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageLimit = n
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

type kline struct {
	openTime  int64
	close     float64
	closeTime int64
}

// FetchDailyCloses returns one close per UTC day from `from` up to now, oldest first.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, from time.Time) ([]models.PricePoint, error) {
	start := util.TruncateDay(from).UnixMilli()
	byDay := make(map[int64]float64)
	pages := 0

	for start < c.now().UnixMilli() {
		page, err := c.fetchPage(ctx, symbol, start)
		if err != nil {
			return nil, err
		}
		pages++
		if len(page) == 0 {
			break
		}
		for _, k := range page {
			byDay[util.TruncateDay(util.FromUnixMilli(k.openTime)).UnixMilli()] = k.close
		}
		next := page[len(page)-1].closeTime + 1
		if next <= start {
			break
		}
		start = next
	}

	if len(byDay) == 0 {
		return nil, fmt.Errorf("binance %s: %w", symbol, ErrNoCandles)
	}

	out := make([]models.PricePoint, 0, len(byDay))
	for ms, price := range byDay {
		out = append(out, models.PricePoint{Date: util.FromUnixMilli(ms), Price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	c.l.Info("binance klines fetched",
		applogger.String("symbol", symbol),
		applogger.Int("pages", pages),
		applogger.Int("days", len(out)),
		applogger.String("first", util.FormatDay(out[0].Date)),
		applogger.String("last", util.FormatDay(out[len(out)-1].Date)),
	)
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, symbol string, startMs int64) ([]kline, error) {
	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + klinesPath,
		QueryParams: map[string][]string{
			"symbol":    {symbol},
			"interval":  {"1d"},
			"startTime": {strconv.FormatInt(startMs, 10)},
			"limit":     {strconv.Itoa(c.pageLimit)},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.l.Warn("binance klines retry",
				applogger.String("symbol", symbol),
				applogger.Int("attempt", attempt),
				applogger.Error(lastErr),
			)
			if err := sleep(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx, limiterKey, c.burst, c.perSecond); err != nil {
			return nil, err
		}

		var raw [][]json.RawMessage
		err := c.http.SendAndParse(ctx, opts, &raw)
		if err == nil {
			return decodeKlines(raw)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			break
		}
	}
	return nil, fmt.Errorf("binance klines %s from %d: %w", symbol, startMs, lastErr)
}

// decodeKlines reads the positional kline arrays: [0] open time, [4] close, [6] close time.
func decodeKlines(raw [][]json.RawMessage) ([]kline, error) {
	out := make([]kline, 0, len(raw))
	for i, row := range raw {
		if len(row) < 7 {
			return nil, fmt.Errorf("kline %d: want at least 7 fields, got %d", i, len(row))
		}
		var k kline
		var closeStr string
		if err := json.Unmarshal(row[0], &k.openTime); err != nil {
			return nil, fmt.Errorf("kline %d open time: %w", i, err)
		}
		if err := json.Unmarshal(row[4], &closeStr); err != nil {
			return nil, fmt.Errorf("kline %d close: %w", i, err)
		}
		if err := json.Unmarshal(row[6], &k.closeTime); err != nil {
			return nil, fmt.Errorf("kline %d close time: %w", i, err)
		}
		v, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("kline %d close %q: %w", i, closeStr, err)
		}
		k.close = v
		out = append(out, k)
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
