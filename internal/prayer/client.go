// Package prayer fetches daily prayer times for Uzbekistan regions from the
// islomapi.uz API. Results are cached per region for the current day, and a
// built-in table stands in when the API is unreachable, so callers can treat
// the provider as always-available with best-effort accuracy.
package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultBaseURL is the islomapi.uz day endpoint.
const DefaultBaseURL = "https://islomapi.uz/api/present/day"

// Times holds one day's prayer times as HH:MM strings.
type Times struct {
	Fajr    string
	Dhuhr   string
	Asr     string
	Maghrib string
	Isha    string
}

// Entry is one named prayer time.
type Entry struct {
	Name string
	At   string
}

// Ordered returns the prayers in daily order.
func (t Times) Ordered() []Entry {
	return []Entry{
		{"Fajr", t.Fajr},
		{"Dhuhr", t.Dhuhr},
		{"Asr", t.Asr},
		{"Maghrib", t.Maghrib},
		{"Isha", t.Isha},
	}
}

// regions supported by the API.
var regions = []string{
	"Toshkent", "Samarqand", "Buxoro", "Andijon", "Namangan",
	"Farg'ona", "Qashqadaryo", "Surxondaryo", "Jizzax", "Sirdaryo",
	"Xorazm", "Navoiy", "Qoraqalpog'iston",
}

// fallbackTimes is used when the API cannot be reached and nothing is cached.
var fallbackTimes = Times{
	Fajr:    "04:30",
	Dhuhr:   "12:30",
	Asr:     "17:00",
	Maghrib: "19:30",
	Isha:    "21:00",
}

type apiResponse struct {
	Times struct {
		Fajr    string `json:"tong_saharlik"`
		Dhuhr   string `json:"peshin"`
		Asr     string `json:"asr"`
		Maghrib string `json:"shom_iftor"`
		Isha    string `json:"hufton"`
	} `json:"times"`
}

type cached struct {
	day   string
	times Times
}

// Client fetches and caches prayer times.
type Client struct {
	logger  *slog.Logger
	httpc   *http.Client
	baseURL string
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

// NewClient creates a prayer times client. An empty baseURL selects the
// default islomapi.uz endpoint.
func NewClient(logger *slog.Logger, baseURL string) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		logger:  logger.With("component", "prayer_client"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		now:     time.Now,
		cache:   make(map[string]cached),
	}
}

// Regions returns the supported region names.
func (c *Client) Regions() []string {
	out := make([]string, len(regions))
	copy(out, regions)
	return out
}

// IsRegion reports whether the name is a supported region.
func (c *Client) IsRegion(name string) bool {
	for _, r := range regions {
		if r == name {
			return true
		}
	}
	return false
}

// TimesForRegion returns today's prayer times for the region. API failures
// degrade to yesterday's cached value or the built-in table; the error return
// is reserved for context cancellation.
func (c *Client) TimesForRegion(ctx context.Context, region string) (Times, error) {
	day := c.now().Format("2006-01-02")

	c.mu.Lock()
	hit, ok := c.cache[region]
	c.mu.Unlock()
	if ok && hit.day == day {
		return hit.times, nil
	}

	times, err := c.fetch(ctx, region)
	if err != nil {
		if ctx.Err() != nil {
			return Times{}, ctx.Err()
		}
		c.logger.Warn("Prayer times fetch failed, degrading", "region", region, "error", err)
		if ok {
			// Stale cache beats the static table.
			return hit.times, nil
		}
		return fallbackTimes, nil
	}

	c.mu.Lock()
	c.cache[region] = cached{day: day, times: times}
	c.mu.Unlock()

	c.logger.Debug("Fetched prayer times", "region", region, "fajr", times.Fajr, "isha", times.Isha)
	return times, nil
}

func (c *Client) fetch(ctx context.Context, region string) (Times, error) {
	u := c.baseURL + "?region=" + url.QueryEscape(region)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Times{}, fmt.Errorf("failed to build prayer times request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Times{}, fmt.Errorf("prayer times request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Times{}, fmt.Errorf("prayer times API returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Times{}, fmt.Errorf("failed to decode prayer times response: %w", err)
	}
	if payload.Times.Fajr == "" {
		return Times{}, fmt.Errorf("prayer times response missing times data")
	}

	return Times{
		Fajr:    payload.Times.Fajr,
		Dhuhr:   payload.Times.Dhuhr,
		Asr:     payload.Times.Asr,
		Maghrib: payload.Times.Maghrib,
		Isha:    payload.Times.Isha,
	}, nil
}
