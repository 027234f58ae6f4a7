package aladhan

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

const (
	DefaultBaseURL = "https://api.aladhan.com/v1"
	cacheTTL       = 24 * time.Hour
)

// Cache stores decoded responses. Errors from it never fail a fetch.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Client talks to the Al Adhan prayer times API. Non-2xx responses are
// returned as errors and never retried.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	Cache      Cache
}

func NewClient(baseURL string, cache Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		Cache:      cache,
	}
}

func cacheKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("aladhan:%x", h[:8])
}

// FetchDay returns the baseline timings for date at the query's location.
func (c *Client) FetchDay(ctx context.Context, date time.Time, q Query) (prayer.Baseline, error) {
	dateStr := date.Format("02-01-2006")
	key := cacheKey(q.key("day:" + dateStr))

	var cached prayer.Baseline
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	var resp Response
	endpoint := fmt.Sprintf("%s/timings/%s", c.BaseURL, dateStr)
	if err := c.get(ctx, endpoint, q.params(), &resp); err != nil {
		return prayer.Baseline{}, err
	}
	if resp.Code != http.StatusOK {
		return prayer.Baseline{}, fmt.Errorf("aladhan: code=%d status=%s", resp.Code, resp.Status)
	}

	b := resp.Data.Baseline(date)
	c.store(ctx, key, b)
	return b, nil
}

// FetchMonth returns one baseline per day of the given month.
func (c *Client) FetchMonth(ctx context.Context, year int, month time.Month, q Query) ([]prayer.Baseline, error) {
	key := cacheKey(q.key(fmt.Sprintf("month:%04d-%02d", year, month)))

	var cached []prayer.Baseline
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	var resp CalendarResponse
	endpoint := fmt.Sprintf("%s/calendar/%d/%d", c.BaseURL, year, int(month))
	if err := c.get(ctx, endpoint, q.params(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("aladhan: code=%d status=%s", resp.Code, resp.Status)
	}

	out := make([]prayer.Baseline, 0, len(resp.Data))
	for i, d := range resp.Data {
		fallback := time.Date(year, month, i+1, 0, 0, 0, 0, time.UTC)
		out = append(out, d.Baseline(fallback))
	}
	c.store(ctx, key, out)
	return out, nil
}

func (q Query) params() url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', 6, 64))
	if q.Method >= 0 {
		params.Set("method", strconv.Itoa(q.Method))
	}
	if q.School >= 0 {
		params.Set("school", strconv.Itoa(q.School))
	}
	if q.HijriMethod != "" {
		params.Set("calendarMethod", q.HijriMethod)
	}
	if q.HijriOffset != 0 {
		params.Set("adjustment", strconv.Itoa(q.HijriOffset))
	}
	return params
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("aladhan: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aladhan: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("aladhan: status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("aladhan: decode response: %w", err)
	}
	return nil
}

func (c *Client) lookup(ctx context.Context, key string, dst any) bool {
	if c.Cache == nil {
		return false
	}
	ok, err := c.Cache.Get(ctx, key, dst)
	if err != nil {
		if !errs.IsCancelled(err) {
			log.Warn().Err(err).Str("key", key).Msg("[aladhan] cache read failed")
		}
		return false
	}
	return ok
}

func (c *Client) store(ctx context.Context, key string, v any) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Set(ctx, key, v, cacheTTL); err != nil && !errs.IsCancelled(err) {
		log.Warn().Err(err).Str("key", key).Msg("[aladhan] cache write failed")
	}
}
