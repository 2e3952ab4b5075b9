package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the shortest HMAC key NewTokenProvider accepts.
const MinSecretLen = 32

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSecret is returned by NewTokenProvider for keys shorter than MinSecretLen.
	ErrWeakSecret = errors.New("token secret must be at least 32 bytes")
)

// SessionClaims holds JWT claims for the session token carried in the session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// TokenProvider issues and validates HS256 session tokens.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenProvider returns a TokenProvider that signs with secret. issuer is set on
// issued tokens and required on validation.
func NewTokenProvider(secret []byte, issuer string, ttl time.Duration) (*TokenProvider, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenProvider{secret: key, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (p *TokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue signs a session token for sessionID and userID. Returns the token, its jti,
// and its expiration time.
func (p *TokenProvider) Issue(sessionID, userID string) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, expiresAt, nil
}

// Validate parses and validates a session token (signature, exp, iss).
// Returns sessionID and userID, or ErrInvalidToken.
func (p *TokenProvider) Validate(tokenString string) (sessionID, userID string, err error) {
	if tokenString == "" {
		return "", "", ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.SessionID, claims.Subject, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
