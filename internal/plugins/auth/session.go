package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ouisite/ouisite/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// SessionStore persists sessions server-side, keyed by the opaque token
// that lives in the cookie. Centralized (Redis) rather than in-memory so
// horizontally scaled instances share one session space.
type SessionStore interface {
	// Save stores the session and returns the opaque token for the cookie.
	Save(ctx context.Context, session *Session) (token string, err error)

	// Load restores the session for a token. Returns an unauthorized error
	// if the token is unknown or expired.
	Load(ctx context.Context, token string) (*Session, error)

	// Destroy removes the session, logging the user out everywhere the
	// token is presented.
	Destroy(ctx context.Context, token string) error
}

// redisSessionStore implements SessionStore on Redis with a fixed TTL.
type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

// Save generates a random session token and stores the JSON-encoded session
// under it with the configured TTL.
func (s *redisSessionStore) Save(ctx context.Context, session *Session) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	key := sessionKeyPrefix + token
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, nil
}

// Load looks up a session token and returns the session data if it exists
// and hasn't expired.
func (s *redisSessionStore) Load(ctx context.Context, token string) (*Session, error) {
	key := sessionKeyPrefix + token

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// Destroy removes a session from Redis.
func (s *redisSessionStore) Destroy(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}

	return nil
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
