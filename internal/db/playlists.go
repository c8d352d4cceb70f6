package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles playlist history operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// Add records a created playlist.
func (r *PlaylistRepository) Add(ctx context.Context, userID, name, spotifyPlaylistID string, seedParams []byte) error {
	if len(seedParams) == 0 {
		seedParams = []byte("{}")
	}
	query := `
		INSERT INTO playlists (id, user_id, name, spotify_playlist_id, seed_params, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.pool.Exec(ctx, query, uuid.New(), userID, name, spotifyPlaylistID, seedParams)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// ListByUser returns a user's playlist history, newest first.
func (r *PlaylistRepository) ListByUser(ctx context.Context, userID string) ([]Playlist, error) {
	query := `
		SELECT id, user_id, name, spotify_playlist_id, seed_params, created_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.SpotifyPlaylistID,
			&p.SeedParams,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating playlists: %w", err)
	}
	return playlists, nil
}
