package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"

	sessionKeyPrefix = "session:"
)

// Sessions is the session manager: it maps opaque tokens to user IDs.
// A token that resolves to "" is anonymous.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// SessionStore implements Sessions on top of Redis and owns the
// connection for the life of the process.
type SessionStore struct {
	rdb *redis.Client
}

// NewSessionStore dials Redis with optional password auth and
// verifies the connection.
func NewSessionStore(ctx context.Context, addr, password string) (*SessionStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &SessionStore{rdb: rdb}, nil
}

func (s *SessionStore) Close() error {
	return s.rdb.Close()
}

// Create stores a new session mapping token -> userID. The token is
// always freshly generated, never reused from a prior session.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()
	err := s.rdb.Set(ctx, sessionKey(token), userID, SessionTTL).Err()
	return token, err
}

// Get returns the userID for a token, or "" if not found / expired.
func (s *SessionStore) Get(ctx context.Context, token string) (string, error) {
	val, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// TokenFromRequest extracts the session token a request carries, if any.
func TokenFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Begin rotates the request's session: any token the request already
// carries is destroyed, so a pre-login token can never become an
// authenticated one, then a fresh token is minted and set as the
// session cookie.
func Begin(ctx context.Context, w http.ResponseWriter, r *http.Request, sessions Sessions, userID string) error {
	if token, ok := TokenFromRequest(r); ok {
		_ = sessions.Delete(ctx, token)
	}

	token, err := sessions.Create(ctx, userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
	return nil
}

// End destroys the request's session, if any, and expires the cookie.
func End(ctx context.Context, w http.ResponseWriter, r *http.Request, sessions Sessions) {
	if token, ok := TokenFromRequest(r); ok {
		_ = sessions.Delete(ctx, token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
