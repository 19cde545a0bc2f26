package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayMs = int64(24 * time.Hour / time.Millisecond)

var listing = time.Date(2017, 8, 17, 0, 0, 0, 0, time.UTC)

// fakeExchange serves `days` daily candles from listing, honoring startTime and limit.
func fakeExchange(t *testing.T, days int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))

		startMs, _ := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		out := [][]interface{}{}
		for i := 0; i < days && len(out) < limit; i++ {
			open := listing.UnixMilli() + int64(i)*dayMs
			if open < startMs {
				continue
			}
			price := strconv.FormatFloat(float64(i+1), 'f', 8, 64)
			out = append(out, []interface{}{open, "1.0", "2.0", "0.5", price, "10.0", open + dayMs - 1, "0", 1, "0", "0", "0"})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func newTestClient(url string, now time.Time, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(url),
		WithRetry(2, 0),
		WithRateLimit(100, 1000),
		withClock(func() time.Time { return now }),
	}
	return New(append(base, opts...)...)
}

func TestFetchDailyClosesPaginates(t *testing.T) {
	var calls int32
	srv := fakeExchange(t, 2500, &calls)
	defer srv.Close()

	now := listing.AddDate(0, 0, 2499).Add(12 * time.Hour)
	c := newTestClient(srv.URL, now, WithPageLimit(1000))

	points, err := c.FetchDailyCloses(context.Background(), "BTCUSDT", listing)
	require.NoError(t, err)

	require.Len(t, points, 2500)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, listing, points[0].Date)
	assert.Equal(t, 1.0, points[0].Price)
	assert.Equal(t, listing.AddDate(0, 0, 2499), points[2499].Date)
	assert.Equal(t, 2500.0, points[2499].Price)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Date.After(points[i-1].Date))
	}
}

func TestFetchDailyClosesStopsOnEmptyPage(t *testing.T) {
	var calls int32
	srv := fakeExchange(t, 10, &calls)
	defer srv.Close()

	c := newTestClient(srv.URL, listing.AddDate(0, 0, 100))
	points, err := c.FetchDailyCloses(context.Background(), "BTCUSDT", listing)
	require.NoError(t, err)

	assert.Len(t, points, 10)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchDailyClosesNoCandles(t *testing.T) {
	var calls int32
	srv := fakeExchange(t, 0, &calls)
	defer srv.Close()

	c := newTestClient(srv.URL, listing.AddDate(0, 0, 5))
	_, err := c.FetchDailyCloses(context.Background(), "BTCUSDT", listing)
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestFetchDailyClosesKeepsLastDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startMs, _ := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		if startMs > listing.UnixMilli() {
			_, _ = w.Write([]byte("[]"))
			return
		}
		open := listing.UnixMilli()
		_ = json.NewEncoder(w).Encode([][]interface{}{
			{open, "0", "0", "0", "100.5", "0", open + dayMs - 1},
			{open + 3600_000, "0", "0", "0", "101.5", "0", open + dayMs - 1},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, listing.AddDate(0, 0, 3))
	points, err := c.FetchDailyCloses(context.Background(), "BTCUSDT", listing)
	require.NoError(t, err)

	require.Len(t, points, 1)
	assert.Equal(t, 101.5, points[0].Price)
}

func TestFetchDailyClosesRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		startMs, _ := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		if startMs > listing.UnixMilli() {
			_, _ = w.Write([]byte("[]"))
			return
		}
		open := listing.UnixMilli()
		_ = json.NewEncoder(w).Encode([][]interface{}{{open, "0", "0", "0", "4200.00", "0", open + dayMs - 1}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, listing.AddDate(0, 0, 3))
	points, err := c.FetchDailyCloses(context.Background(), "BTCUSDT", listing)
	require.NoError(t, err)

	require.Len(t, points, 1)
	assert.Equal(t, 4200.0, points[0].Price)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchDailyClosesDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, listing.AddDate(0, 0, 3))
	_, err := c.FetchDailyCloses(context.Background(), "NOPEUSDT", listing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchDailyClosesHonoursCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestClient(srv.URL, listing.AddDate(0, 0, 3), WithRetry(5, time.Hour))
	_, err := c.FetchDailyCloses(ctx, "BTCUSDT", listing)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeKlinesRejectsShortRows(t *testing.T) {
	_, err := decodeKlines([][]json.RawMessage{{json.RawMessage("1")}})
	assert.Error(t, err)
}
