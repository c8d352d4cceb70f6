// Package playlist materializes chosen tracks into a real Spotify playlist
// and records every creation in the user's history.
package playlist

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-mood-mixer/internal/recommend"
	"github.com/justestif/go-spotify-mood-mixer/internal/spotify"
)

const (
	// DefaultName is used when the form leaves the playlist name blank.
	DefaultName = "Mood/Genre Mix"

	// description tags playlists created by this app.
	description = "Created with Spotify Mood Mixer"
)

// PartialError reports a playlist that was created but could not be filled.
// The playlist exists on Spotify and its history record is kept.
type PartialError struct {
	PlaylistID  string
	PlaylistURL string
	Err         error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("playlist %s created but adding tracks failed: %v", e.PlaylistID, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Store records created playlists. The Postgres playlist repository
// implements it.
type Store interface {
	Add(ctx context.Context, userID, name, spotifyPlaylistID string, seedParams []byte) error
}

// CreateRequest carries the playlist form inputs plus the seed recipe of the
// round the tracks came from.
type CreateRequest struct {
	Name       string
	Public     bool
	TrackURIs  []string
	SeedParams *recommend.SeedParams
}

// Created identifies the resulting playlist.
type Created struct {
	ID   string
	Name string
	URL  string
}

// Service creates playlists under the current user's account.
type Service struct {
	client *spotify.Client
	store  Store
}

// NewService creates a Service on top of the API client and history store.
func NewService(client *spotify.Client, store Store) *Service {
	return &Service{
		client: client,
		store:  store,
	}
}

// Create makes the playlist, records it, then fills it with the chosen
// tracks. The record is written before the fill so it survives an append
// failure, which comes back as a *PartialError carrying the playlist
// identity. Nothing is rolled back.
func (s *Service) Create(ctx context.Context, token string, req CreateRequest) (*Created, error) {
	name := req.Name
	if name == "" {
		name = DefaultName
	}

	me, err := s.client.CurrentUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}

	created, err := s.client.CreatePlaylist(ctx, token, me.ID, name, req.Public, description)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	seedJSON := []byte("{}")
	if req.SeedParams != nil {
		seedJSON, err = json.Marshal(req.SeedParams)
		if err != nil {
			return nil, fmt.Errorf("encoding seed params: %w", err)
		}
	}
	if err := s.store.Add(ctx, me.ID, name, created.ID, seedJSON); err != nil {
		return nil, fmt.Errorf("recording playlist: %w", err)
	}

	result := &Created{
		ID:   created.ID,
		Name: name,
		URL:  created.ExternalURLs.Spotify,
	}

	if len(req.TrackURIs) > 0 {
		if err := s.client.AddPlaylistTracks(ctx, token, created.ID, req.TrackURIs); err != nil {
			return nil, &PartialError{PlaylistID: created.ID, PlaylistURL: result.URL, Err: err}
		}
	}

	log.WithFields(log.Fields{
		"user_id":     me.ID,
		"playlist_id": created.ID,
		"tracks":      len(req.TrackURIs),
	}).Info("created playlist")

	return result, nil
}
