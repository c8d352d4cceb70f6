// Command spotify-mood-mixer runs the Spotify Mood Mixer web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-mood-mixer/internal/auth"
	"github.com/justestif/go-spotify-mood-mixer/internal/cleanup"
	"github.com/justestif/go-spotify-mood-mixer/internal/config"
	"github.com/justestif/go-spotify-mood-mixer/internal/db"
	"github.com/justestif/go-spotify-mood-mixer/internal/playlist"
	"github.com/justestif/go-spotify-mood-mixer/internal/recommend"
	"github.com/justestif/go-spotify-mood-mixer/internal/spotify"
	"github.com/justestif/go-spotify-mood-mixer/internal/web"
	webfs "github.com/justestif/go-spotify-mood-mixer/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.LogLevel)

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	// One Spotify Web API client shared by every service.
	var clientOpts []spotify.Option
	if cfg.RequestsPerSecond > 0 {
		clientOpts = append(clientOpts, spotify.WithRateLimit(cfg.RequestsPerSecond))
	}
	client := spotify.NewClient(clientOpts...)

	authenticator := auth.New(auth.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURL:  cfg.RedirectURL,
	})

	// Sweep expired sessions in the background for the life of the process.
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go cleanup.New(database.Sessions()).Run(cleanupCtx)

	// Create sub-filesystems for templates and static files
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	// Create and start server
	server, err := web.NewServer(web.ServerConfig{
		Addr:          cfg.Addr,
		TemplatesFS:   templates,
		StaticFS:      static,
		Authenticator: authenticator,
		Tokens:        auth.NewManager(authenticator, database.Users()),
		Spotify:       client,
		Recommender:   recommend.NewService(client),
		Playlists:     playlist.NewService(client, database.Playlists()),
		Users:         database.Users(),
		History:       database.Playlists(),
		Sessions:      web.NewDBSessionStore(database),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

// setupLogging configures the global logger from the configured level.
func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		TimestampFormat: "15:04:05",
		FieldsOrder:     []string{"user_id", "playlist_id", "page"},
	})

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
