// Package session issues and verifies the signed tokens carried in the
// session cookie. The token is opaque to the client: it encodes the user ID,
// a per-session anti-forgery token, and an expiry, all signed with HS256.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// DefaultTTL is how long an issued session stays valid.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken is returned by Parse for any token that does not verify:
// bad signature, expired, malformed, or missing claims.
var ErrInvalidToken = errors.New("invalid session token")

// Session is the verified content of a session cookie.
type Session struct {
	UserID    uuid.UUID
	Username  string
	CSRFToken string
}

// claims is the JWT claim set backing a Session.
type claims struct {
	Username  string `json:"username"`
	CSRFToken string `json:"csrf"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens and builds the matching cookies.
type Manager struct {
	secret []byte
	secure bool
	ttl    time.Duration
}

// NewManager constructs a Manager. secure controls the cookie's Secure flag
// and should be true whenever the app is served over HTTPS.
func NewManager(secret []byte, secure bool) *Manager {
	return &Manager{secret: secret, secure: secure, ttl: DefaultTTL}
}

// Issue creates a new session for the user with a fresh anti-forgery token.
// Returns the signed token string and the session content.
func (m *Manager) Issue(userID uuid.UUID, username string) (string, Session, error) {
	csrf, err := newCSRFToken()
	if err != nil {
		return "", Session{}, fmt.Errorf("session.Manager.Issue: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username:  username,
		CSRFToken: csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("session.Manager.Issue: sign: %w", err)
	}
	return signed, Session{UserID: userID, Username: username, CSRFToken: csrf}, nil
}

// Parse verifies a token string and returns the session it encodes.
// Any failure — wrong signature, expiry, malformed subject — collapses to
// ErrInvalidToken so callers have a single branch to handle.
func (m *Manager) Parse(tokenString string) (Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil || c.CSRFToken == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: userID, Username: c.Username, CSRFToken: c.CSRFToken}, nil
}

// Cookie builds the HTTP-only session cookie for a signed token.
func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds an expired cookie that removes the session.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// newCSRFToken returns 24 random bytes hex-encoded, matching the shape of
// tokens the web client already round-trips.
func newCSRFToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
