package middleware

import (
	"context"
	"testing"

	identityservice "webstarter/backend/internal/identity/service"
	sessiondomain "webstarter/backend/internal/session/domain"
	userdomain "webstarter/backend/internal/user/domain"
)

func TestWithIdentity_SetsAllValues(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "session-1")

	userID, ok := GetUserID(ctx)
	if !ok || userID != "user-1" {
		t.Errorf("GetUserID = %q, %v; want user-1, true", userID, ok)
	}
	sessionID, ok := GetSessionID(ctx)
	if !ok || sessionID != "session-1" {
		t.Errorf("GetSessionID = %q, %v; want session-1, true", sessionID, ok)
	}
}

func TestGetters_ReturnFalseWhenNotSet(t *testing.T) {
	ctx := context.Background()
	if v, ok := GetUserID(ctx); ok || v != "" {
		t.Errorf("GetUserID = %q, %v; want \"\", false", v, ok)
	}
	if v, ok := GetSessionID(ctx); ok || v != "" {
		t.Errorf("GetSessionID = %q, %v; want \"\", false", v, ok)
	}
	if _, ok := SessionFrom(ctx); ok {
		t.Error("SessionFrom should return false when not set")
	}
	if _, ok := Token(ctx); ok {
		t.Error("Token should return false when not set")
	}
	if ip := ClientIP(ctx); ip != "" {
		t.Errorf("ClientIP = %q, want empty", ip)
	}
}

func TestWithIdentity_Chaining(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "session-1")
	ctx = WithIdentity(ctx, "user-2", "session-2")

	if userID, _ := GetUserID(ctx); userID != "user-2" {
		t.Errorf("user_id = %q, want %q", userID, "user-2")
	}
	if sessionID, _ := GetSessionID(ctx); sessionID != "session-2" {
		t.Errorf("session_id = %q, want %q", sessionID, "session-2")
	}
}

func TestWithSession(t *testing.T) {
	view := &identityservice.SessionView{
		User:    &userdomain.User{ID: "u1"},
		Session: &sessiondomain.Session{ID: "s1", UserID: "u1"},
	}
	ctx := WithSession(context.Background(), view, "tok")

	got, ok := SessionFrom(ctx)
	if !ok || got != view {
		t.Fatal("SessionFrom should return the stored view")
	}
	if tok, _ := Token(ctx); tok != "tok" {
		t.Errorf("Token = %q, want tok", tok)
	}
	if userID, _ := GetUserID(ctx); userID != "u1" {
		t.Errorf("user_id = %q, want u1", userID)
	}
	if sessionID, _ := GetSessionID(ctx); sessionID != "s1" {
		t.Errorf("session_id = %q, want s1", sessionID)
	}
}

func TestClientIP(t *testing.T) {
	ctx := WithClientIP(context.Background(), "203.0.113.9")
	if ip := ClientIP(ctx); ip != "203.0.113.9" {
		t.Errorf("ClientIP = %q", ip)
	}
}
