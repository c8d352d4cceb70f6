package auth

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Tokens is one user's token set with its absolute expiry.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the access token can still be used as-is.
func (t *Tokens) Valid() bool {
	return t.AccessToken != "" && !t.ExpiresAt.IsZero() && time.Now().Before(t.ExpiresAt)
}

// TokenStore persists tokens between requests. The Postgres user repository
// implements it.
type TokenStore interface {
	Tokens(ctx context.Context, userID string) (*Tokens, error)
	SaveTokens(ctx context.Context, userID string, tokens *Tokens) error
}

// Manager hands out valid access tokens, refreshing through the store when
// the cached token has expired.
type Manager struct {
	authenticator *Authenticator
	store         TokenStore
}

// NewManager creates a Manager backed by the given store.
func NewManager(authenticator *Authenticator, store TokenStore) *Manager {
	return &Manager{
		authenticator: authenticator,
		store:         store,
	}
}

// ValidToken returns an access token usable right now for the given user.
// While the stored token is unexpired it is returned untouched. Otherwise a
// single refresh exchange runs and the result is persisted before being
// returned; a failed refresh propagates unchanged.
func (m *Manager) ValidToken(ctx context.Context, userID string) (string, error) {
	tokens, err := m.store.Tokens(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading tokens for user %s: %w", userID, err)
	}

	if tokens.Valid() {
		return tokens.AccessToken, nil
	}

	refreshed, err := m.authenticator.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return "", err
	}

	if err := m.store.SaveTokens(ctx, userID, refreshed); err != nil {
		return "", fmt.Errorf("saving refreshed tokens for user %s: %w", userID, err)
	}

	log.WithField("user_id", userID).Debug("refreshed spotify access token")

	return refreshed.AccessToken, nil
}
