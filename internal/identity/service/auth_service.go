package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webstarter/backend/internal/audit"
	identitydomain "webstarter/backend/internal/identity/domain"
	"webstarter/backend/internal/logging"
	"webstarter/backend/internal/security"
	sessiondomain "webstarter/backend/internal/session/domain"
	"webstarter/backend/internal/telemetry/metrics"
	userdomain "webstarter/backend/internal/user/domain"
	userrepo "webstarter/backend/internal/user/repository"
)

// Sentinel errors for auth service; the HTTP layer maps them to status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidSession         = errors.New("invalid or expired session")
)

// Password length bounds for local accounts.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// ValidationError reports a rejected signup field. Message is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// SignupHook runs after signup input is validated and before any account row is written.
// A non-nil error aborts the signup and is returned to the caller unchanged.
type SignupHook interface {
	BeforeCreateUser(ctx context.Context, email string) error
}

// MetricsRecorder receives auth outcomes.
type MetricsRecorder interface {
	RecordSignup(outcome string)
	RecordLogin(success bool)
}

// ClientMeta describes the client creating a session.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// AuthResult holds the outcome of SignUp or SignIn: the account, its new session, and the
// signed token to hand to the client.
type AuthResult struct {
	User    *userdomain.User
	Session *sessiondomain.Session
	Token   string
}

// SessionView is a validated session together with its user.
type SessionView struct {
	User    *userdomain.User
	Session *sessiondomain.Session
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	// CreateAccount inserts the user and its first identity atomically. A duplicate email
	// is userrepo.ErrEmailTaken.
	CreateAccount(ctx context.Context, u *userdomain.User, i *identitydomain.Identity) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
}

// AuthService implements email/password sign-up, sign-in, sign-out, and session lookup.
type AuthService struct {
	userRepo     UserRepo
	identityRepo IdentityRepo
	sessionRepo  SessionRepo
	signupHook   SignupHook
	hasher       *security.Hasher
	tokens       *security.TokenProvider
	audit        audit.AuditLogger
	metrics      MetricsRecorder
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. signupHook, auditLogger,
// recorder, and logger may be nil.
func NewAuthService(
	userRepo UserRepo,
	identityRepo IdentityRepo,
	sessionRepo SessionRepo,
	signupHook SignupHook,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLogger audit.AuditLogger,
	recorder MetricsRecorder,
	logger *zap.Logger,
) *AuthService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		sessionRepo:  sessionRepo,
		signupHook:   signupHook,
		hasher:       hasher,
		tokens:       tokens,
		audit:        auditLogger,
		metrics:      recorder,
		logger:       logger,
		now:          time.Now,
	}
}

// SignUp creates a user and local identity, then signs the user in.
// The signup hook sees the normalized email after validation; its error is returned as is
// and nothing is persisted.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string, meta ClientMeta) (*AuthResult, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateSignup(email, password, name); err != nil {
		s.metrics.RecordSignup(metrics.SignupInvalid)
		return nil, err
	}
	if s.signupHook != nil {
		if err := s.signupHook.BeforeCreateUser(ctx, email); err != nil {
			s.metrics.RecordSignup(metrics.SignupDenied)
			s.audit.LogEvent(ctx, "", audit.ActionSignupDenied, audit.ResourceUser, "")
			s.logger.Info("signup denied", logging.Email("email", email), zap.Error(err))
			return nil, err
		}
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		s.metrics.RecordSignup(metrics.SignupDuplicate)
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	identity := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.identityRepo.CreateAccount(ctx, user, identity); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			s.metrics.RecordSignup(metrics.SignupDuplicate)
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.metrics.RecordSignup(metrics.SignupCreated)
	s.audit.LogEvent(ctx, user.ID, audit.ActionSignup, audit.ResourceUser, "")
	s.logger.Info("user signed up", zap.String("user_id", user.ID), logging.Email("email", email))

	sess, token, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Session: sess, Token: token}, nil
}

// SignIn authenticates with email and password and creates a session.
// Unknown emails, disabled users, and wrong passwords all return ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string, meta ClientMeta) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, s.loginFailed(ctx, "", email)
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !user.Active() {
		return nil, s.loginFailed(ctx, "", email)
	}
	ident, err := s.identityRepo.GetByUserAndProvider(ctx, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if ident == nil || ident.PasswordHash == "" {
		return nil, s.loginFailed(ctx, user.ID, email)
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		return nil, s.loginFailed(ctx, user.ID, email)
	}
	sess, token, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(true)
	s.audit.LogEvent(ctx, user.ID, audit.ActionLogin, audit.ResourceSession, "")
	return &AuthResult{User: user, Session: sess, Token: token}, nil
}

// SignOut revokes the session the token belongs to. Invalid or unknown tokens are a no-op.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	sessionID, userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil || sess.UserID != userID || sess.RevokedAt != nil {
		return nil
	}
	if err := s.sessionRepo.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, userID, audit.ActionLogout, audit.ResourceSession, "")
	return nil
}

// RevokeSessions signs userID out everywhere by revoking all of their sessions.
func (s *AuthService) RevokeSessions(ctx context.Context, userID string) error {
	if err := s.sessionRepo.RevokeAllByUser(ctx, userID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, userID, audit.ActionLogoutAll, audit.ResourceSession, "")
	return nil
}

// GetSession validates token and returns its active session and user.
// Any invalid, revoked, or expired token yields ErrInvalidSession.
func (s *AuthService) GetSession(ctx context.Context, token string) (*SessionView, error) {
	sessionID, userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID || !sess.Active(s.now()) {
		return nil, ErrInvalidSession
	}
	if !security.TokenHashEqual(token, sess.TokenHash) {
		return nil, ErrInvalidSession
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active() {
		return nil, ErrInvalidSession
	}
	return &SessionView{User: user, Session: sess}, nil
}

func (s *AuthService) createSession(ctx context.Context, userID string, meta ClientMeta) (*sessiondomain.Session, string, error) {
	sessionID := uuid.New().String()
	token, _, expiresAt, err := s.tokens.Issue(sessionID, userID)
	if err != nil {
		return nil, "", err
	}
	now := s.now().UTC()
	sess := &sessiondomain.Session{
		ID:        sessionID,
		UserID:    userID,
		TokenHash: security.HashToken(token),
		ExpiresAt: expiresAt,
		IPAddress: meta.IPAddress,
		UserAgent: truncate(meta.UserAgent, 512),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	return sess, token, nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email string) error {
	s.metrics.RecordLogin(false)
	s.audit.LogEvent(ctx, userID, audit.ActionLoginFailure, audit.ResourceSession, "")
	s.logger.Info("login failed", logging.Email("email", email))
	return ErrInvalidCredentials
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var simpleEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateSignup(email, password, name string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if !simpleEmail.MatchString(email) {
		return &ValidationError{Field: "email", Message: "invalid email format"}
	}
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if n > MaxPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d characters", MaxPasswordLength)}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

type nopRecorder struct{}

func (nopRecorder) RecordSignup(string) {}
func (nopRecorder) RecordLogin(bool)    {}
