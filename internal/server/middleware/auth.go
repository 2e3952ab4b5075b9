package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	identityservice "webstarter/backend/internal/identity/service"
)

const bearerPrefix = "bearer "

// DefaultCallbackURL is where sign-in lands when no usable callbackUrl is given.
const DefaultCallbackURL = "/dashboard"

// SessionLoader resolves a session token.
type SessionLoader interface {
	GetSession(ctx context.Context, token string) (*identityservice.SessionView, error)
}

// CookieConfig names and secures the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SetSessionCookie writes the session cookie expiring at expires.
func (c CookieConfig) SetSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func (c CookieConfig) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session loads the session named by the Bearer token or the session cookie into the request
// context. Requests without a valid session pass through unauthenticated.
func Session(loader SessionLoader, cookie CookieConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cookie.Name)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			view, err := loader.GetSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, identityservice.ErrInvalidSession) {
					logger.Error("session lookup failed", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), view, token)))
		})
	}
}

// RequireAPI rejects unauthenticated requests with a 401 JSON body.
func RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "Unauthorized",
				"message": "You must be logged in to access this endpoint",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePage redirects unauthenticated requests to the login page, carrying the requested
// path as callbackUrl.
func RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL returns the login page URL that returns to callback after sign-in.
func LoginURL(callback string) string {
	return "/login?callbackUrl=" + url.QueryEscape(SafeCallbackURL(callback))
}

// SafeCallbackURL returns raw when it is a same-site absolute path, DefaultCallbackURL otherwise.
func SafeCallbackURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '/' || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n\t") {
		return DefaultCallbackURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return DefaultCallbackURL
	}
	return raw
}

// ClientIPContext stores the request's remote host (after chi RealIP) in the context.
func ClientIPContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
	})
}

// extractToken returns the Bearer token, falling back to the session cookie, or "".
func extractToken(r *http.Request, cookieName string) string {
	if t := extractBearer(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// extractBearer returns the token of an "Authorization: Bearer" header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
