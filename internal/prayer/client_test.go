package prayer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"vazifabot/internal/prayer"
)

const dayPayload = `{"region":"Toshkent","date":"2026-08-31",
	"times":{"tong_saharlik":"04:41","quyosh":"06:05","peshin":"12:32",
	"asr":"16:58","shom_iftor":"19:12","hufton":"20:31"}}`

func TestTimesForRegionParsesAPI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("region"); got != "Toshkent" {
			t.Errorf("region query = %q, want Toshkent", got)
		}
		w.Write([]byte(dayPayload))
	}))
	defer srv.Close()

	c := prayer.NewClient(nil, srv.URL)
	times, err := c.TimesForRegion(context.Background(), "Toshkent")
	if err != nil {
		t.Fatalf("TimesForRegion: %v", err)
	}

	want := prayer.Times{Fajr: "04:41", Dhuhr: "12:32", Asr: "16:58", Maghrib: "19:12", Isha: "20:31"}
	if times != want {
		t.Errorf("times = %+v, want %+v", times, want)
	}
}

func TestTimesForRegionCachesPerDay(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(dayPayload))
	}))
	defer srv.Close()

	c := prayer.NewClient(nil, srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.TimesForRegion(context.Background(), "Toshkent"); err != nil {
			t.Fatal(err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("API calls = %d, want 1 for repeated same-day reads", got)
	}

	// A different region is a separate cache entry.
	if _, err := c.TimesForRegion(context.Background(), "Samarqand"); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("API calls = %d, want 2 after second region", got)
	}
}

func TestTimesForRegionFallsBack(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := prayer.NewClient(nil, srv.URL)
	times, err := c.TimesForRegion(context.Background(), "Toshkent")
	if err != nil {
		t.Fatalf("TimesForRegion should degrade, got error: %v", err)
	}
	if times.Fajr == "" || times.Isha == "" {
		t.Errorf("fallback times incomplete: %+v", times)
	}
}

func TestTimesForRegionContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dayPayload))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := prayer.NewClient(nil, srv.URL)
	if _, err := c.TimesForRegion(ctx, "Toshkent"); err == nil {
		t.Fatal("cancelled context must surface an error")
	}
}

func TestRegions(t *testing.T) {
	t.Parallel()
	c := prayer.NewClient(nil, "")

	if !c.IsRegion("Toshkent") || !c.IsRegion("Qoraqalpog'iston") {
		t.Error("known regions not recognized")
	}
	if c.IsRegion("Mars") {
		t.Error("unknown region recognized")
	}
	if got := len(c.Regions()); got != 13 {
		t.Errorf("Regions = %d entries, want 13", got)
	}
}

func TestOrdered(t *testing.T) {
	t.Parallel()

	times := prayer.Times{Fajr: "a", Dhuhr: "b", Asr: "c", Maghrib: "d", Isha: "e"}
	ordered := times.Ordered()
	wantNames := []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}
	for i, e := range ordered {
		if e.Name != wantNames[i] {
			t.Errorf("Ordered[%d] = %q, want %q", i, e.Name, wantNames[i])
		}
	}
}
