package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is a Spotify account known to the app, with its current token set.
// The ID is the Spotify user ID.
type User struct {
	ID             string
	DisplayName    string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is an authenticated browser session. SeedParams carries the
// recipe of the user's latest recommendation round, if any.
type Session struct {
	ID         string
	UserID     string
	SeedParams json.RawMessage // nullable
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Playlist is one history row: a playlist created through the app and the
// recipe that produced its tracks.
type Playlist struct {
	ID                uuid.UUID
	UserID            string
	Name              string
	SpotifyPlaylistID string
	SeedParams        json.RawMessage
	CreatedAt         time.Time
}
