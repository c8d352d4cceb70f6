package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/justestif/go-spotify-mood-mixer/internal/auth"
	"github.com/justestif/go-spotify-mood-mixer/internal/db"
	"github.com/justestif/go-spotify-mood-mixer/internal/mood"
	"github.com/justestif/go-spotify-mood-mixer/internal/playlist"
	"github.com/justestif/go-spotify-mood-mixer/internal/recommend"
	"github.com/justestif/go-spotify-mood-mixer/internal/spotify"
)

const (
	appTitle = "Spotify Mood Mixer"

	stateCookieName = "oauth_state"

	playlistURLPrefix = "https://open.spotify.com/playlist/"
)

// PlaylistHistory lists the playlists a user has saved, newest first.
type PlaylistHistory interface {
	ListByUser(ctx context.Context, userID string) ([]db.Playlist, error)
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	authenticator *auth.Authenticator
	tokens        *auth.Manager
	spotify       *spotify.Client
	recommender   *recommend.Service
	playlists     *playlist.Service
	users         *db.UserRepository
	history       PlaylistHistory
	sessions      SessionManager
	templates     *Templates
}

// NewHandlers creates a new Handlers instance wired to the server's
// dependencies.
func NewHandlers(cfg ServerConfig, templates *Templates) *Handlers {
	return &Handlers{
		authenticator: cfg.Authenticator,
		tokens:        cfg.Tokens,
		spotify:       cfg.Spotify,
		recommender:   cfg.Recommender,
		playlists:     cfg.Playlists,
		users:         cfg.Users,
		history:       cfg.History,
		sessions:      cfg.Sessions,
		templates:     templates,
	}
}

// Home handles the home page (GET /). Authenticated users land on the
// dashboard instead.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if h.sessions.GetFromRequest(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
		return
	}

	h.render(w, "home", PageData{
		Title:       appTitle,
		CurrentPath: r.URL.Path,
	})
}

// Login initiates the Spotify OAuth flow (GET /login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	// Generate state for CSRF protection
	state, err := auth.GenerateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, h.authenticator.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	// Verify state
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	// Check for error from Spotify
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Spotify auth error: %s", errMsg), http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("code") == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	// Exchange code for tokens
	tokens, err := h.authenticator.Exchange(r.Context(), state, r)
	if err != nil {
		log.WithError(err).Error("code exchange failed")
		http.Error(w, "Failed to complete Spotify login", http.StatusBadGateway)
		return
	}

	// Get user info from Spotify
	me, err := h.spotify.CurrentUser(r.Context(), tokens.AccessToken)
	if err != nil {
		log.WithError(err).Error("profile lookup failed after login")
		http.Error(w, "Failed to get user info", http.StatusBadGateway)
		return
	}

	displayName := me.DisplayName
	if displayName == "" {
		displayName = me.ID
	}

	// Persist the user with their fresh tokens
	if err := h.users.Upsert(r.Context(), &db.User{
		ID:             me.ID,
		DisplayName:    displayName,
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		TokenExpiresAt: tokens.ExpiresAt,
	}); err != nil {
		log.WithError(err).WithField("user_id", me.ID).Error("saving user failed")
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	// Create session
	session, err := h.sessions.Create(r.Context(), me.ID, displayName)
	if err != nil {
		log.WithError(err).Error("session creation failed")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	h.sessions.SetCookie(w, session)

	log.WithField("user_id", me.ID).Info("user logged in")
	http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
}

// Logout clears the session and redirects to home (GET /logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.GetFromRequest(r); session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Dashboard shows the mix builder form and playlist history (GET /dashboard).
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	token, ok := h.token(w, r, session)
	if !ok {
		return
	}

	// Sanity-check the token against the profile endpoint before
	// rendering anything that depends on it.
	if _, err := h.spotify.CurrentUser(r.Context(), token); err != nil {
		log.WithError(err).WithField("user_id", session.UserID).Error("spotify profile check failed")
		http.Error(w, "Spotify profile check failed", http.StatusBadGateway)
		return
	}

	rows, err := h.history.ListByUser(r.Context(), session.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", session.UserID).Error("loading playlist history failed")
		http.Error(w, "Failed to load playlist history", http.StatusInternalServerError)
		return
	}

	h.render(w, "dashboard", DashboardPageData{
		PageData:     pageData("Dashboard", r, session),
		Moods:        mood.Labels(),
		Genres:       mood.Genres(),
		DefaultLimit: mood.DefaultLimit,
		MaxLimit:     mood.MaxLimit,
		History:      toPlaylistData(rows),
	})
}

// Recommend runs a recommendation round from the submitted tuning form
// (POST /recommend).
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	token, ok := h.token(w, r, session)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	req := recommend.Request{
		Mood:   r.PostFormValue("mood"),
		Genres: r.PostForm["genres"],
		Limit:  parseLimit(r.PostFormValue("limit")),
		Sliders: mood.Sliders{
			Energy:       parseSlider(r.PostFormValue("energy10")),
			Positivity:   parseSlider(r.PostFormValue("positivity10")),
			Danceability: parseSlider(r.PostFormValue("danceability10")),
		},
	}

	result, err := h.recommender.Recommend(r.Context(), token, req)
	if err != nil {
		log.WithError(err).WithField("user_id", session.UserID).Error("recommendation round failed")
		http.Error(w, "Could not fetch recommendations from Spotify", http.StatusBadGateway)
		return
	}

	// Stash the recipe so a playlist created from this page records it.
	if err := h.sessions.UpdateSeedParams(r.Context(), session.ID, &result.SeedParams); err != nil {
		log.WithError(err).Warn("stashing seed params on session failed")
	}

	groups := h.recommender.VibeGroups(r.Context(), token, result.Tracks)

	data := ResultsPageData{
		PageData: pageData("Your Mix", r, session),
		Mood:     req.Mood,
		Tracks:   toTrackData(result.Tracks),
		Groups:   toVibeGroupData(groups, result.Tracks),
	}
	if result.Fallback {
		data.Flash = &FlashMessage{
			Type:    "warning",
			Message: "Recommendations were unavailable, so these tracks come from a genre search instead.",
		}
	}
	h.render(w, "results", data)
}

// CreatePlaylist materializes selected tracks into a Spotify playlist
// (POST /playlist/create).
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	token, ok := h.token(w, r, session)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	req := playlist.CreateRequest{
		Name:       r.PostFormValue("playlist_name"),
		Public:     r.PostFormValue("public") != "",
		TrackURIs:  r.PostForm["track_uri"],
		SeedParams: session.SeedParams,
	}

	created, err := h.playlists.Create(r.Context(), token, req)
	if err != nil {
		var partial *playlist.PartialError
		if errors.As(err, &partial) {
			// The playlist exists and was recorded, only the track
			// append was rejected.
			log.WithError(partial.Err).WithField("playlist_id", partial.PlaylistID).Warn("playlist created without tracks")

			name := req.Name
			if name == "" {
				name = playlist.DefaultName
			}
			data := PlaylistPageData{
				PageData:     pageData("Playlist Created", r, session),
				PlaylistName: name,
				PlaylistURL:  partial.PlaylistURL,
			}
			data.Flash = &FlashMessage{
				Type:    "warning",
				Message: "The playlist was created, but Spotify rejected adding the tracks. Open it and add them manually.",
			}
			h.render(w, "playlist_result", data)
			return
		}

		log.WithError(err).WithField("user_id", session.UserID).Error("playlist creation failed")
		http.Error(w, "Could not create the playlist on Spotify", http.StatusBadGateway)
		return
	}

	log.WithFields(log.Fields{
		"user_id":     session.UserID,
		"playlist_id": created.ID,
	}).Info("playlist created from web")

	h.render(w, "playlist_result", PlaylistPageData{
		PageData:     pageData("Playlist Created", r, session),
		PlaylistName: created.Name,
		PlaylistURL:  created.URL,
		TrackCount:   len(req.TrackURIs),
	})
}

// token resolves a usable access token for the session user. When the
// stored tokens can no longer be refreshed the session is ended and the
// user is sent back to the home page to log in again.
func (h *Handlers) token(w http.ResponseWriter, r *http.Request, session *Session) (string, bool) {
	token, err := h.tokens.ValidToken(r.Context(), session.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", session.UserID).Warn("token refresh failed, ending session")
		h.sessions.Delete(r.Context(), session.ID)
		h.sessions.ClearCookie(w)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return "", false
	}
	return token, true
}

// render writes a page template, logging render failures.
func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		log.WithError(err).WithField("page", page).Error("template render failed")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// pageData builds the common template data for a page.
func pageData(title string, r *http.Request, session *Session) PageData {
	data := PageData{Title: title, CurrentPath: r.URL.Path}
	if session != nil {
		data.User = &UserData{ID: session.UserID, Name: session.UserName}
	}
	return data
}

// parseLimit reads the requested track count, falling back to the
// default when the field is missing or not a number.
func parseLimit(raw string) int {
	if raw == "" {
		return mood.DefaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return mood.DefaultLimit
	}
	return n
}

// parseSlider reads an optional 0 to 10 tuning input. An empty or
// malformed value means the slider was left untouched.
func parseSlider(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// toPlaylistData maps saved playlists to their template form, pulling
// the mood and genres out of each recorded recipe when present.
func toPlaylistData(rows []db.Playlist) []PlaylistData {
	out := make([]PlaylistData, 0, len(rows))
	for _, row := range rows {
		item := PlaylistData{
			Name:      row.Name,
			URL:       playlistURLPrefix + row.SpotifyPlaylistID,
			CreatedAt: row.CreatedAt,
		}
		var params recommend.SeedParams
		if err := json.Unmarshal(row.SeedParams, &params); err == nil {
			item.Mood = params.Mood
			item.Genres = params.Genres
		}
		out = append(out, item)
	}
	return out
}

func toTrackData(tracks []recommend.TrackSummary) []TrackData {
	out := make([]TrackData, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, trackData(t))
	}
	return out
}

func trackData(t recommend.TrackSummary) TrackData {
	data := TrackData{
		ID:         t.ID,
		URI:        t.URI,
		Name:       t.Name,
		Artists:    t.Artists,
		AlbumImage: t.AlbumImage,
		SpotifyURL: t.ExternalURL,
	}
	if t.PreviewURL != nil {
		data.PreviewURL = *t.PreviewURL
	}
	return data
}

// toVibeGroupData joins vibe groups back to their track summaries for
// rendering.
func toVibeGroupData(groups []mood.VibeGroup, tracks []recommend.TrackSummary) []VibeGroupData {
	if len(groups) == 0 {
		return nil
	}

	byID := make(map[string]recommend.TrackSummary, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	out := make([]VibeGroupData, 0, len(groups))
	for _, g := range groups {
		group := VibeGroupData{
			Name:    g.Name,
			Energy:  g.Centroid.Energy,
			Valence: g.Centroid.Valence,
		}
		for _, id := range g.TrackIDs {
			if t, ok := byID[id]; ok {
				group.Tracks = append(group.Tracks, trackData(t))
			}
		}
		out = append(out, group)
	}
	return out
}
