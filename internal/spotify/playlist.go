package spotify

import (
	"context"
)

// CreatePlaylist creates a playlist on the given user's account.
func (c *Client) CreatePlaylist(ctx context.Context, token, userID, name string, public bool, description string) (*Playlist, error) {
	payload := struct {
		Name        string `json:"name"`
		Public      bool   `json:"public"`
		Description string `json:"description"`
	}{
		Name:        name,
		Public:      public,
		Description: description,
	}

	var playlist Playlist
	if err := c.post(ctx, token, "/users/"+userID+"/playlists", payload, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddPlaylistTracks appends track URIs to a playlist in the given order.
// Spotify accepts at most 100 URIs per call; callers here stay well under.
func (c *Client) AddPlaylistTracks(ctx context.Context, token, playlistID string, uris []string) error {
	payload := struct {
		URIs []string `json:"uris"`
	}{URIs: uris}

	return c.post(ctx, token, "/playlists/"+playlistID+"/tracks", payload, nil)
}
