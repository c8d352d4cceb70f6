// Package auth implements the Spotify authorization-code flow and the
// per-user token lifecycle for the web app.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	// accountsTokenURL is Spotify's token endpoint. Refresh exchanges go
	// through it directly so rejections surface with their upstream status
	// and body.
	accountsTokenURL = "https://accounts.spotify.com/api/token"

	// tokenExpirySkew is subtracted from the advertised token lifetime so a
	// token is refreshed slightly before Spotify stops accepting it.
	tokenExpirySkew = 60 * time.Second

	// defaultTokenLifetime applies when a token response omits expires_in.
	defaultTokenLifetime = time.Hour

	refreshTimeout = 10 * time.Second
)

// ErrNoRefreshToken is returned when a refresh is required but no refresh
// token is stored for the user.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// RefreshError is returned when Spotify rejects a refresh exchange. It is
// fatal for the request that triggered it; the user has to log in again.
type RefreshError struct {
	StatusCode int
	Body       string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("auth: token refresh failed with status %d: %s", e.StatusCode, e.Body)
}

// Config holds the OAuth client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Authenticator runs the authorization-code flow and refresh exchanges.
type Authenticator struct {
	auth         *spotifyauth.Authenticator
	clientID     string
	clientSecret string
	httpClient   *http.Client
	tokenURL     string
}

// New creates an Authenticator requesting the scopes the app needs: playlist
// writes plus basic profile access.
func New(cfg Config) *Authenticator {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopeUserReadEmail,
			spotifyauth.ScopeUserReadPrivate,
		),
	)

	return &Authenticator{
		auth:         auth,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: refreshTimeout},
		tokenURL:     accountsTokenURL,
	}
}

// AuthURL returns the Spotify consent URL for the given state. show_dialog
// is always set so switching accounts works without clearing browser
// cookies.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state, spotifyauth.ShowDialog)
}

// Exchange trades the authorization code carried by the callback request for
// a token set.
func (a *Authenticator) Exchange(ctx context.Context, state string, r *http.Request) (*Tokens, error) {
	token, err := a.auth.Token(ctx, state, r)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return fromOAuthToken(token), nil
}

// Refresh performs a single refresh exchange. Upstream rejections surface as
// *RefreshError and are never retried.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating refresh request: %w", err)
	}
	req.SetBasicAuth(a.clientID, a.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading refresh response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RefreshError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding refresh response: %w", err)
	}

	tokens := &Tokens{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    expiryFor(payload.ExpiresIn),
	}

	// Spotify usually omits the refresh token on refresh; keep the prior one.
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}

	return tokens, nil
}

// tokenResponse is the accounts service token payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// expiryFor converts an expires_in lifetime into an absolute deadline with
// the refresh skew applied.
func expiryFor(expiresIn int) time.Time {
	lifetime := defaultTokenLifetime
	if expiresIn > 0 {
		lifetime = time.Duration(expiresIn) * time.Second
	}
	return time.Now().Add(lifetime - tokenExpirySkew)
}

// fromOAuthToken converts an exchanged oauth2 token, applying the same
// expiry skew as Refresh.
func fromOAuthToken(token *oauth2.Token) *Tokens {
	expiresAt := token.Expiry.Add(-tokenExpirySkew)
	if token.Expiry.IsZero() {
		expiresAt = time.Now().Add(defaultTokenLifetime - tokenExpirySkew)
	}
	return &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}

// GenerateState creates a random state string for the OAuth round trip.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
