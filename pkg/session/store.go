package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an unused session survives in the store. The store
// enforces expiry, not the application; every write refreshes the clock.
const DefaultTTL = 30 * time.Minute

// Store is the single source of truth for session state shared across
// requests. Save is a full overwrite; last writer wins. The recording engine
// is the only writer for a session during its recording loop.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound for absent or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps each session as a JSON value under a per-session key with
// an absolute expiry set on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL overrides the session time-to-live.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore creates a session store on an existing Redis client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		ttl:    DefaultTTL,
		prefix: "gesture_session",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// OpenRedisStore connects to Redis from a URL and returns a store over it.
func OpenRedisStore(url string, opts ...RedisOption) (*RedisStore, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(ropts), opts...), nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// Create stores a new session. Create and Save are intentionally the same
// write: the store is a flat key/value space with no uniqueness constraint
// beyond the generated id.
func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	return s.Save(ctx, sess)
}

// Save overwrites the session state and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session has no id")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
