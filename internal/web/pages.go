package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"webstarter/backend/internal/dashboard"
	identityhandler "webstarter/backend/internal/identity/handler"
	"webstarter/backend/internal/identity/service"
	"webstarter/backend/internal/server/middleware"
	"webstarter/backend/internal/server/respond"
	settingsservice "webstarter/backend/internal/settings/service"
	userdomain "webstarter/backend/internal/user/domain"
)

// AuthService is the subset of the auth service the login and signup forms use.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string, meta service.ClientMeta) (*service.AuthResult, error)
	SignIn(ctx context.Context, email, password string, meta service.ClientMeta) (*service.AuthResult, error)
	SignOut(ctx context.Context, token string) error
}

// SettingsService loads and saves the settings form.
type SettingsService interface {
	Get(ctx context.Context, userID string) (*settingsservice.View, error)
	Update(ctx context.Context, userID, name string, prefs settingsservice.Preferences) (*settingsservice.View, error)
}

type feature struct {
	Title       string
	Description string
}

var features = []feature{
	{"Authentication", "Email and password sign up and login with server-side sessions and secure cookies."},
	{"Signup Whitelist", "Restrict registration to approved addresses or whole domains with two environment variables."},
	{"Protected Routes", "Pages and API endpoints that require a session, with safe redirects back after login."},
	{"PostgreSQL", "Versioned migrations and a typed data layer for users, sessions and settings."},
	{"Observability", "Structured logs, Prometheus metrics and OpenTelemetry traces out of the box."},
	{"Settings", "A profile and notification preferences form backed by the database."},
}

// Pages serves the HTML pages.
type Pages struct {
	render   *Renderer
	auth     AuthService
	settings SettingsService
	cookie   middleware.CookieConfig
	logger   *zap.Logger
}

// NewPages returns the page handlers.
func NewPages(render *Renderer, auth AuthService, settings SettingsService, cookie middleware.CookieConfig, logger *zap.Logger) *Pages {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pages{render: render, auth: auth, settings: settings, cookie: cookie, logger: logger}
}

// Routes mounts the pages on r. The session middleware must run before them.
func (p *Pages) Routes(r chi.Router) {
	r.Get("/", p.Home)
	r.Get("/login", p.LoginForm)
	r.Post("/login", p.Login)
	r.Get("/signup", p.SignupForm)
	r.Post("/signup", p.Signup)
	r.Post("/logout", p.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePage)
		r.Get("/dashboard", p.Dashboard)
		r.Get("/settings", p.SettingsForm)
		r.Post("/settings", p.SaveSettings)
	})
}

func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	b := p.bindings(r, "Home")
	items := make([]map[string]any, 0, len(features))
	for _, f := range features {
		items = append(items, map[string]any{"title": f.Title, "description": f.Description})
	}
	b["features"] = items
	p.page(w, http.StatusOK, "home", b)
}

// LoginForm shows the login form, or skips it when a session already exists.
func (p *Pages) LoginForm(w http.ResponseWriter, r *http.Request) {
	callback := middleware.SafeCallbackURL(r.URL.Query().Get("callbackUrl"))
	if _, ok := middleware.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, callback, http.StatusSeeOther)
		return
	}
	b := p.bindings(r, "Login")
	b["callbackUrl"] = callback
	p.page(w, http.StatusOK, "login", b)
}

// Login signs in and redirects to the form's callbackUrl.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	b := p.bindings(r, "Login")
	if err := r.ParseForm(); err != nil {
		b["error"] = "Invalid form submission"
		p.page(w, http.StatusBadRequest, "login", b)
		return
	}
	email := r.PostForm.Get("email")
	callback := middleware.SafeCallbackURL(r.PostForm.Get("callbackUrl"))
	res, err := p.auth.SignIn(r.Context(), email, r.PostForm.Get("password"), identityhandler.ClientMeta(r))
	if err != nil {
		b["email"] = email
		b["callbackUrl"] = callback
		p.formError(w, "login", b, err)
		return
	}
	p.cookie.SetSessionCookie(w, res.Token, res.Session.ExpiresAt)
	http.Redirect(w, r, callback, http.StatusSeeOther)
}

func (p *Pages) SignupForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, middleware.DefaultCallbackURL, http.StatusSeeOther)
		return
	}
	p.page(w, http.StatusOK, "signup", p.signupBindings(r))
}

// Signup creates the account and signs in. A whitelist rejection re-renders the form with 403.
func (p *Pages) Signup(w http.ResponseWriter, r *http.Request) {
	b := p.signupBindings(r)
	if err := r.ParseForm(); err != nil {
		b["error"] = "Invalid form submission"
		p.page(w, http.StatusBadRequest, "signup", b)
		return
	}
	name, email := r.PostForm.Get("name"), r.PostForm.Get("email")
	res, err := p.auth.SignUp(r.Context(), email, r.PostForm.Get("password"), name, identityhandler.ClientMeta(r))
	if err != nil {
		b["name"] = name
		b["email"] = email
		p.formError(w, "signup", b, err)
		return
	}
	p.cookie.SetSessionCookie(w, res.Token, res.Session.ExpiresAt)
	http.Redirect(w, r, middleware.DefaultCallbackURL, http.StatusSeeOther)
}

// Logout revokes the session and returns to the home page. Revocation failures are logged only.
func (p *Pages) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.Token(r.Context()); ok {
		if err := p.auth.SignOut(r.Context(), token); err != nil {
			p.logger.Error("sign out failed", zap.Error(err))
		}
	}
	p.cookie.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, _ := middleware.SessionFrom(r.Context())
	ov := dashboard.NewOverview(view.User)

	stats := make([]map[string]any, 0, len(ov.Stats))
	for _, s := range ov.Stats {
		stats = append(stats, map[string]any{"title": s.Title, "value": s.Value, "description": s.Description})
	}
	growth := make([]map[string]any, 0, len(ov.Growth))
	for _, g := range ov.Growth {
		growth = append(growth, bar(g.Month, g.Users, ov.MaxUsers()))
	}
	activity := make([]map[string]any, 0, len(ov.Activity))
	for _, a := range ov.Activity {
		activity = append(activity, bar(a.Day, a.Sessions, ov.MaxSessions()))
	}

	b := p.bindings(r, "Dashboard")
	b["stats"] = stats
	b["growth"] = growth
	b["activity"] = activity
	p.page(w, http.StatusOK, "dashboard", b)
}

func (p *Pages) SettingsForm(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	v, err := p.settings.Get(r.Context(), userID)
	if err != nil {
		p.fail(w, err)
		return
	}
	b := p.bindings(r, "Settings")
	b["name"] = v.User.Name
	b["emailNotifications"] = v.Settings.EmailNotifications
	b["marketingEmails"] = v.Settings.MarketingEmails
	b["saved"] = r.URL.Query().Get("saved") == "1"
	p.page(w, http.StatusOK, "settings", b)
}

// SaveSettings applies the form. Unchecked boxes are absent from the form and mean false.
func (p *Pages) SaveSettings(w http.ResponseWriter, r *http.Request) {
	b := p.bindings(r, "Settings")
	if err := r.ParseForm(); err != nil {
		b["error"] = "Invalid form submission"
		p.page(w, http.StatusBadRequest, "settings", b)
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	name := r.PostForm.Get("name")
	prefs := settingsservice.Preferences{
		EmailNotifications: r.PostForm.Get("emailNotifications") != "",
		MarketingEmails:    r.PostForm.Get("marketingEmails") != "",
	}
	if _, err := p.settings.Update(r.Context(), userID, name, prefs); err != nil {
		b["name"] = name
		b["emailNotifications"] = prefs.EmailNotifications
		b["marketingEmails"] = prefs.MarketingEmails
		p.formError(w, "settings", b, err)
		return
	}
	http.Redirect(w, r, "/settings?saved=1", http.StatusSeeOther)
}

// bindings returns the values every page sees: the title and the signed-in user, if any.
func (p *Pages) bindings(r *http.Request, title string) map[string]any {
	b := map[string]any{"title": title, "maxName": settingsservice.MaxNameLength}
	if view, ok := middleware.SessionFrom(r.Context()); ok {
		b["user"] = userBinding(view.User)
	}
	return b
}

func (p *Pages) signupBindings(r *http.Request) map[string]any {
	b := p.bindings(r, "Sign Up")
	b["minPassword"] = service.MinPasswordLength
	b["maxPassword"] = service.MaxPasswordLength
	return b
}

// formError re-renders a form with the user-facing message and status for err.
func (p *Pages) formError(w http.ResponseWriter, page string, b map[string]any, err error) {
	status, body := respond.Status(err)
	if status >= http.StatusInternalServerError {
		p.logger.Error("form submission failed", zap.String("page", page), zap.Error(err))
	}
	b["error"] = body.Message
	p.page(w, status, page, b)
}

func (p *Pages) fail(w http.ResponseWriter, err error) {
	status, body := respond.Status(err)
	if status >= http.StatusInternalServerError {
		p.logger.Error("page failed", zap.Error(err))
	}
	http.Error(w, body.Message, status)
}

func (p *Pages) page(w http.ResponseWriter, status int, name string, b map[string]any) {
	if err := p.render.Render(w, status, name, b); err != nil {
		p.logger.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func userBinding(u *userdomain.User) map[string]any {
	if u == nil {
		return nil
	}
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = u.Email
	}
	return map[string]any{"id": u.ID, "email": u.Email, "name": name}
}

// bar scales value to a percentage of max for the CSS bar charts.
func bar(label string, value, top int) map[string]any {
	pct := 0
	if top > 0 {
		pct = value * 100 / top
	}
	return map[string]any{"label": label, "value": value, "percent": pct}
}
