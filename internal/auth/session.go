package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	sessionIssuer     = "boutique-api"
)

var (
	ErrMissingSessionSigningKey = errors.New("session codec: signing key required")
	ErrMissingSessionCookieName = errors.New("session codec: cookie name required")
)

// Session is the per-browser state carried in the signed cookie. All fields
// are optional; a zero Session is a valid anonymous session.
type Session struct {
	// UserID is set on successful login and resolves to a users.User row.
	UserID string
	// LastError holds the diagnostic stashed by a failed login attempt.
	LastError string
	// OAuthState and PKCEVerifier live only between the login redirect and
	// the provider callback.
	OAuthState   string
	PKCEVerifier string
}

// IsAnonymous reports whether the session is bound to a user.
func (s Session) IsAnonymous() bool {
	return s.UserID == ""
}

type sessionClaims struct {
	UserID       string `json:"user_id,omitempty"`
	LastError    string `json:"last_error,omitempty"`
	OAuthState   string `json:"oauth_state,omitempty"`
	PKCEVerifier string `json:"pkce_verifier,omitempty"`
	jwt.RegisteredClaims
}

// SessionCodecConfig describes how sessions are signed and transported.
type SessionCodecConfig struct {
	SigningSecret []byte
	CookieName    string
	TTL           time.Duration
	Clock         func() time.Time
}

// SessionCodec reads and writes the session cookie. The cookie value is an
// HS256 JWT, so the contents are tamper-evident but visible to the client.
type SessionCodec struct {
	signingSecret []byte
	cookieName    string
	ttl           time.Duration
	clock         func() time.Time
}

// NewSessionCodec constructs a codec with the provided configuration.
func NewSessionCodec(cfg SessionCodecConfig) (*SessionCodec, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSessionSigningKey
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		return nil, ErrMissingSessionCookieName
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionCodec{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		cookieName:    cookieName,
		ttl:           ttl,
		clock:         clock,
	}, nil
}

// CookieName returns the cookie name configured for session transport.
func (c *SessionCodec) CookieName() string {
	return c.cookieName
}

// Read extracts the session from the request cookie. A missing, expired or
// tampered cookie yields an empty session rather than an error: first contact
// and broken state both degrade to anonymous.
func (c *SessionCodec) Read(r *http.Request) Session {
	if r == nil {
		return Session{}
	}
	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie == nil || strings.TrimSpace(cookie.Value) == "" {
		return Session{}
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm %s", t.Method.Alg())
			}
			return c.signingSecret, nil
		},
		jwt.WithTimeFunc(c.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
	)
	if err != nil || parsed == nil || !parsed.Valid {
		return Session{}
	}

	return Session{
		UserID:       claims.UserID,
		LastError:    claims.LastError,
		OAuthState:   claims.OAuthState,
		PKCEVerifier: claims.PKCEVerifier,
	}
}

// Write signs the session and sets it as the response cookie.
func (c *SessionCodec) Write(w http.ResponseWriter, session Session) error {
	now := c.clock().UTC()
	claims := sessionClaims{
		UserID:       session.UserID,
		LastError:    session.LastError,
		OAuthState:   session.OAuthState,
		PKCEVerifier: session.PKCEVerifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingSecret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie on the response.
func (c *SessionCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
