// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
)

// Defaults for optional settings.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultRedirectURL = "http://127.0.0.1:8080/callback"
	DefaultLogLevel    = "info"

	// maxRequestsPerSecond caps the client-side Spotify rate limit.
	maxRequestsPerSecond = 50
)

// Sentinel errors for missing required variables.
var (
	// ErrMissingClientID is returned when SPOTIFY_ID is not set.
	ErrMissingClientID = errors.New("missing SPOTIFY_ID environment variable")

	// ErrMissingClientSecret is returned when SPOTIFY_SECRET is not set.
	ErrMissingClientSecret = errors.New("missing SPOTIFY_SECRET environment variable")

	// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")
)

// Config holds all application configuration. It is built once at startup
// and passed to constructors; nothing reads the environment after Load.
type Config struct {
	SpotifyClientID     string
	SpotifyClientSecret string
	RedirectURL         string
	DatabaseURL         string
	Addr                string
	LogLevel            string

	// RequestsPerSecond limits outbound Spotify API calls. 0 disables
	// client-side limiting.
	RequestsPerSecond int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	clientID := os.Getenv("SPOTIFY_ID")
	if clientID == "" {
		return nil, ErrMissingClientID
	}

	clientSecret := os.Getenv("SPOTIFY_SECRET")
	if clientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	return &Config{
		SpotifyClientID:     clientID,
		SpotifyClientSecret: clientSecret,
		RedirectURL:         getString("SPOTIFY_REDIRECT_URL", DefaultRedirectURL),
		DatabaseURL:         databaseURL,
		Addr:                getString("ADDR", DefaultAddr),
		LogLevel:            getString("LOG_LEVEL", DefaultLogLevel),
		RequestsPerSecond:   getBoundedInt("SPOTIFY_RPS", 0, 0, maxRequestsPerSecond),
	}, nil
}

// getString returns the env value or a default when unset.
func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getBoundedInt returns the env value parsed as int, clamped to [min, max].
// Unset or unparseable values fall back to the default.
func getBoundedInt(key string, fallback, min, max int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
