package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/justestif/go-spotify-mood-mixer/internal/recommend"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx, "user-1", "Ada")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if session.ID == "" {
		t.Fatal("Create returned session without ID")
	}
	if session.UserID != "user-1" || session.UserName != "Ada" {
		t.Errorf("session = %q/%q, want user-1/Ada", session.UserID, session.UserName)
	}

	got := store.Get(ctx, session.ID)
	if got == nil {
		t.Fatal("Get returned nil for live session")
	}
	if got.UserID != "user-1" {
		t.Errorf("got.UserID = %q, want user-1", got.UserID)
	}

	store.Delete(ctx, session.ID)
	if store.Get(ctx, session.ID) != nil {
		t.Error("Get returned session after Delete")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx, "user-1", "Ada")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Age the session past its TTL.
	store.mu.Lock()
	store.sessions[session.ID].CreatedAt = time.Now().Add(-sessionTTL - time.Minute)
	store.mu.Unlock()

	if store.Get(ctx, session.ID) != nil {
		t.Error("Get returned expired session")
	}
}

func TestSessionStoreUpdateSeedParams(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx, "user-1", "Ada")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	params := &recommend.SeedParams{Mood: "party", Limit: 15}
	if err := store.UpdateSeedParams(ctx, session.ID, params); err != nil {
		t.Fatalf("UpdateSeedParams returned error: %v", err)
	}

	got := store.Get(ctx, session.ID)
	if got == nil || got.SeedParams == nil {
		t.Fatal("session lost its seed params")
	}
	if got.SeedParams.Mood != "party" {
		t.Errorf("SeedParams.Mood = %q, want party", got.SeedParams.Mood)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.Create(ctx, "user-1", "Ada")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	store.SetCookie(rec, session)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("SetCookie wrote %d cookies, want 1", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != sessionCookieName {
		t.Errorf("cookie name = %q, want %q", cookie.Name, sessionCookieName)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if got := store.GetFromRequest(req); got == nil || got.ID != session.ID {
		t.Error("GetFromRequest did not round-trip the session")
	}

	rec = httptest.NewRecorder()
	store.ClearCookie(rec)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Error("ClearCookie did not expire the session cookie")
	}
}

func TestGenerateSessionID(t *testing.T) {
	a, err := generateSessionID()
	if err != nil {
		t.Fatalf("generateSessionID returned error: %v", err)
	}
	b, err := generateSessionID()
	if err != nil {
		t.Fatalf("generateSessionID returned error: %v", err)
	}

	if len(a) != 64 {
		t.Errorf("session ID length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("generateSessionID returned duplicate IDs")
	}
}
