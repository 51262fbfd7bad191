package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookieName = "rag_chat_session"

// SessionAuth binds a browser to a transcript through a signed cookie
// carrying the session id.
type SessionAuth struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

func NewSessionAuth(secret string, ttl time.Duration, secure bool) *SessionAuth {
	return &SessionAuth{Secret: []byte(secret), TTL: ttl, Secure: secure}
}

// IssueToken creates a session JWT that expires after TTL.
func (s *SessionAuth) IssueToken(sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sessionID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.TTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// ParseToken verifies a session JWT and returns its session id.
func (s *SessionAuth) ParseToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.Secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, errors.New("invalid session token claims")
	}

	sid, ok := claims["sid"].(string)
	if !ok {
		return uuid.Nil, errors.New("session token has no sid")
	}
	return uuid.Parse(sid)
}

// Middleware resolves the session from the cookie, minting a new session
// when the cookie is missing, expired or forged. The cookie is re-issued on
// every request so active sessions keep sliding forward.
func (s *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := uuid.Nil
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if id, err := s.ParseToken(cookie.Value); err == nil {
				sessionID = id
			}
		}
		if sessionID == uuid.Nil {
			sessionID = uuid.New()
		}

		token, err := s.IssueToken(sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue session", r)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(s.TTL.Seconds()),
			HttpOnly: true,
			Secure:   s.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID extracts the session id from request context
func GetSessionID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(SessionIDKey).(uuid.UUID)
	return id
}
