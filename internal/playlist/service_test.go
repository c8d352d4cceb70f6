package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/justestif/go-spotify-mood-mixer/internal/recommend"
	"github.com/justestif/go-spotify-mood-mixer/internal/spotify"
)

type storedEntry struct {
	userID            string
	name              string
	spotifyPlaylistID string
	seedParams        []byte
}

type fakeStore struct {
	entries []storedEntry
	err     error
}

func (s *fakeStore) Add(ctx context.Context, userID, name, spotifyPlaylistID string, seedParams []byte) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, storedEntry{
		userID:            userID,
		name:              name,
		spotifyPlaylistID: spotifyPlaylistID,
		seedParams:        seedParams,
	})
	return nil
}

func newTestService(t *testing.T, handler http.Handler, store Store) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := spotify.NewClient(
		spotify.WithBaseURL(server.URL),
		spotify.WithHTTPClient(server.Client()),
	)
	return NewService(client, store)
}

func playlistMux(t *testing.T, createPayload *map[string]any, addPayload *map[string]any, addCalls *atomic.Int32) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"user-1","display_name":"Tester","email":"tester@example.com"}`)
	})
	mux.HandleFunc("/users/user-1/playlists", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("create method = %s, want POST", r.Method)
		}
		if createPayload != nil {
			if err := json.NewDecoder(r.Body).Decode(createPayload); err != nil {
				t.Fatalf("decoding create payload: %v", err)
			}
		}
		fmt.Fprint(w, `{"id":"pl-1","name":"whatever","external_urls":{"spotify":"https://open.spotify.com/playlist/pl-1"}}`)
	})
	mux.HandleFunc("/playlists/pl-1/tracks", func(w http.ResponseWriter, r *http.Request) {
		if addCalls != nil {
			addCalls.Add(1)
		}
		if addPayload != nil {
			if err := json.NewDecoder(r.Body).Decode(addPayload); err != nil {
				t.Fatalf("decoding add payload: %v", err)
			}
		}
		fmt.Fprint(w, `{"snapshot_id":"snap-1"}`)
	})
	return mux
}

func TestCreateFillsAndRecords(t *testing.T) {
	var createPayload, addPayload map[string]any
	var addCalls atomic.Int32
	store := &fakeStore{}
	svc := newTestService(t, playlistMux(t, &createPayload, &addPayload, &addCalls), store)

	params := &recommend.SeedParams{Mood: "party", Genres: []string{"house"}, Limit: 10}
	created, err := svc.Create(context.Background(), "token", CreateRequest{
		Name:       "Friday Night",
		Public:     true,
		TrackURIs:  []string{"spotify:track:t1", "spotify:track:t2"},
		SeedParams: params,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID != "pl-1" || created.Name != "Friday Night" {
		t.Errorf("Created = %+v, want pl-1 named Friday Night", created)
	}
	if created.URL != "https://open.spotify.com/playlist/pl-1" {
		t.Errorf("URL = %q, want the external link", created.URL)
	}

	if createPayload["name"] != "Friday Night" {
		t.Errorf("create name = %v, want Friday Night", createPayload["name"])
	}
	if createPayload["public"] != true {
		t.Errorf("create public = %v, want true", createPayload["public"])
	}
	if createPayload["description"] != "Created with Spotify Mood Mixer" {
		t.Errorf("create description = %v, want the app attribution", createPayload["description"])
	}

	if n := addCalls.Load(); n != 1 {
		t.Fatalf("add calls = %d, want 1", n)
	}
	uris, ok := addPayload["uris"].([]any)
	if !ok || len(uris) != 2 || uris[0] != "spotify:track:t1" || uris[1] != "spotify:track:t2" {
		t.Errorf("uris = %v, want both tracks in order", addPayload["uris"])
	}

	if len(store.entries) != 1 {
		t.Fatalf("recorded entries = %d, want 1", len(store.entries))
	}
	entry := store.entries[0]
	if entry.userID != "user-1" || entry.name != "Friday Night" || entry.spotifyPlaylistID != "pl-1" {
		t.Errorf("entry = %+v, want the created playlist", entry)
	}
	if !strings.Contains(string(entry.seedParams), `"mood":"party"`) {
		t.Errorf("seedParams = %s, want the round recipe", entry.seedParams)
	}
}

func TestCreateDefaultsName(t *testing.T) {
	var createPayload map[string]any
	store := &fakeStore{}
	svc := newTestService(t, playlistMux(t, &createPayload, nil, nil), store)

	created, err := svc.Create(context.Background(), "token", CreateRequest{
		TrackURIs: []string{"spotify:track:t1"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Name != DefaultName {
		t.Errorf("Name = %q, want %q", created.Name, DefaultName)
	}
	if createPayload["name"] != DefaultName {
		t.Errorf("create name = %v, want %q", createPayload["name"], DefaultName)
	}
	if store.entries[0].name != DefaultName {
		t.Errorf("recorded name = %q, want %q", store.entries[0].name, DefaultName)
	}
}

func TestCreateSkipsAppendWithoutTracks(t *testing.T) {
	var addCalls atomic.Int32
	store := &fakeStore{}
	svc := newTestService(t, playlistMux(t, nil, nil, &addCalls), store)

	created, err := svc.Create(context.Background(), "token", CreateRequest{Name: "Empty Shell"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if n := addCalls.Load(); n != 0 {
		t.Errorf("add calls = %d, want 0 for an empty selection", n)
	}
	if len(store.entries) != 1 {
		t.Errorf("recorded entries = %d, want the empty playlist recorded", len(store.entries))
	}
	if created.ID != "pl-1" {
		t.Errorf("ID = %q, want pl-1", created.ID)
	}
}

func TestCreateRecordsNilSeedParamsAsEmpty(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, playlistMux(t, nil, nil, nil), store)

	if _, err := svc.Create(context.Background(), "token", CreateRequest{Name: "No Recipe"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if got := string(store.entries[0].seedParams); got != "{}" {
		t.Errorf("seedParams = %q, want empty object without a round", got)
	}
}

func TestCreateAppendFailureIsPartial(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"user-1","display_name":"Tester"}`)
	})
	mux.HandleFunc("/users/user-1/playlists", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"pl-1","external_urls":{"spotify":"https://open.spotify.com/playlist/pl-1"}}`)
	})
	mux.HandleFunc("/playlists/pl-1/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"status":403,"message":"insufficient scope"}}`)
	})

	store := &fakeStore{}
	svc := newTestService(t, mux, store)

	_, err := svc.Create(context.Background(), "token", CreateRequest{
		Name:      "Half Done",
		TrackURIs: []string{"spotify:track:t1"},
	})

	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("error = %v, want *PartialError", err)
	}
	if partial.PlaylistID != "pl-1" {
		t.Errorf("PlaylistID = %q, want pl-1", partial.PlaylistID)
	}
	if partial.PlaylistURL != "https://open.spotify.com/playlist/pl-1" {
		t.Errorf("PlaylistURL = %q, want the external link", partial.PlaylistURL)
	}

	var apiErr *spotify.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("underlying error = %v, want the 403 API error", err)
	}

	// The history record stands even though the fill failed.
	if len(store.entries) != 1 {
		t.Errorf("recorded entries = %d, want 1", len(store.entries))
	}
}

func TestCreateFailurePropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"user-1"}`)
	})
	mux.HandleFunc("/users/user-1/playlists", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"status":500,"message":"server error"}}`)
	})

	store := &fakeStore{}
	svc := newTestService(t, mux, store)

	_, err := svc.Create(context.Background(), "token", CreateRequest{Name: "Doomed"})
	if err == nil {
		t.Fatal("Create() error = nil, want the create failure")
	}
	var apiErr *spotify.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("error = %v, want the 500 API error", err)
	}
	if len(store.entries) != 0 {
		t.Errorf("recorded entries = %d, want 0 when nothing was created", len(store.entries))
	}
}

func TestCreateStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := newTestService(t, playlistMux(t, nil, nil, nil), store)

	_, err := svc.Create(context.Background(), "token", CreateRequest{Name: "Unrecorded"})
	if err == nil {
		t.Fatal("Create() error = nil, want the store failure")
	}
	if !strings.Contains(err.Error(), "recording playlist") {
		t.Errorf("error = %v, want it wrapped as a recording failure", err)
	}
}
