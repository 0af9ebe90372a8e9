package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/skynote-go/config"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "skynote_session"

// Session is the identity recovered from a valid session cookie. It carries
// everything the notes page needs downstream, so resolving the current user
// is a decode of what was stored at login time, not a database re-query.
type Session struct {
	UserID int
	Email  string
	City   string
}

// SessionClaims is the signed payload of the session cookie.
type SessionClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	City   string `json:"city"`
	jwt.RegisteredClaims
}

// Sessions issues, validates, and clears session cookies. Cookies hold an
// HS256-signed claims blob; there is no server-side session table.
type Sessions struct {
	secret   []byte
	duration time.Duration
}

// NewSessions creates a Sessions manager from the session configuration.
func NewSessions(cfg *config.SessionConfig) *Sessions {
	return &Sessions{
		secret:   []byte(cfg.Secret),
		duration: cfg.Duration,
	}
}

// Issue establishes a session for the user by setting a signed, HTTP-only
// cookie on the response.
func (s *Sessions) Issue(w http.ResponseWriter, user *User) error {
	now := time.Now()
	claims := &SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		City:   user.City,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "skynote",
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(s.duration),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear invalidates the session cookie. Any request-scoped state derived
// from the session dies with the request; nothing else needs discarding.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current recovers the session identity from the request cookie. The
// second return value is false when no valid session exists.
func (s *Sessions) Current(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	sess, err := s.parse(cookie.Value)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// parse verifies the signed token and extracts the session identity.
func (s *Sessions) parse(tokenString string) (*Session, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("session token is invalid")
	}
	if claims.UserID == 0 {
		return nil, errors.New("session token has no user")
	}

	return &Session{
		UserID: claims.UserID,
		Email:  claims.Email,
		City:   claims.City,
	}, nil
}
