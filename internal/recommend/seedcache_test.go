package recommend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestArtistSeedsCachedAcrossRounds(t *testing.T) {
	var artistSearches atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		artistSearches.Add(1)
		switch r.URL.Query().Get("q") {
		case `genre:"house"`:
			fmt.Fprint(w, artistItemJSON("artist-house"))
		case `genre:"techno"`:
			fmt.Fprint(w, artistItemJSON("artist-techno"))
		default:
			t.Errorf("unexpected artist search %q", r.URL.Query().Get("q"))
		}
	})

	var recQuery url.Values
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		recQuery = r.URL.Query()
		fmt.Fprintf(w, `{"tracks":%s}`, twoTracksJSON)
	})

	svc := newTestService(t, mux)
	req := Request{Genres: []string{"house", "techno"}, Limit: 5}

	for round := 1; round <= 2; round++ {
		if _, err := svc.Recommend(context.Background(), "token", req); err != nil {
			t.Fatalf("Recommend() round %d error = %v", round, err)
		}
	}

	if n := artistSearches.Load(); n != 2 {
		t.Errorf("artist searches = %d, want one per genre across both rounds", n)
	}
	if got := recQuery.Get("seed_artists"); got != "artist-house,artist-techno" {
		t.Errorf("seed_artists = %q, want the cached artists on the second round", got)
	}
}

func TestArtistSeedsRefetchedWhenStale(t *testing.T) {
	var artistSearches atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		artistSearches.Add(1)
		fmt.Fprint(w, artistItemJSON("artist-house"))
	})
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tracks":%s}`, twoTracksJSON)
	})

	// A negative TTL makes every entry stale as soon as it is written.
	svc := newTestService(t, mux, WithSeedCacheTTL(-time.Minute))
	req := Request{Genres: []string{"house"}, Limit: 5}

	for round := 1; round <= 2; round++ {
		if _, err := svc.Recommend(context.Background(), "token", req); err != nil {
			t.Fatalf("Recommend() round %d error = %v", round, err)
		}
	}

	if n := artistSearches.Load(); n != 2 {
		t.Errorf("artist searches = %d, want a fresh lookup per round once stale", n)
	}
}

func TestArtistSeedsFailedLookupNotCached(t *testing.T) {
	var artistSearches atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if artistSearches.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"status":429,"message":"rate limited"}}`)
			return
		}
		fmt.Fprint(w, artistItemJSON("artist-house"))
	})

	var recQuery url.Values
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		recQuery = r.URL.Query()
		fmt.Fprintf(w, `{"tracks":%s}`, twoTracksJSON)
	})

	svc := newTestService(t, mux)
	req := Request{Genres: []string{"house"}, Limit: 5}

	for round := 1; round <= 2; round++ {
		if _, err := svc.Recommend(context.Background(), "token", req); err != nil {
			t.Fatalf("Recommend() round %d error = %v", round, err)
		}
	}

	if n := artistSearches.Load(); n != 2 {
		t.Errorf("artist searches = %d, want the failed lookup retried", n)
	}
	if got := recQuery.Get("seed_artists"); got != "artist-house" {
		t.Errorf("seed_artists = %q, want the retry's artist on the second round", got)
	}
}

func TestSeedCache(t *testing.T) {
	cache := newSeedCache(time.Hour)

	if _, ok := cache.get("house"); ok {
		t.Error("get() on an empty cache reported a hit")
	}

	cache.put("house", "artist-house")
	id, ok := cache.get("house")
	if !ok || id != "artist-house" {
		t.Errorf("get() = %q, %v, want artist-house, true", id, ok)
	}

	cache.mu.Lock()
	entry := cache.entries["house"]
	entry.fetchedAt = time.Now().Add(-2 * time.Hour)
	cache.entries["house"] = entry
	cache.mu.Unlock()

	if _, ok := cache.get("house"); ok {
		t.Error("get() reported a hit for a stale entry")
	}
}
