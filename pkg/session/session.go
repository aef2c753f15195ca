// Package session maps login session ids to account e-mails.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates an unknown or expired session.
var ErrNotFound = errors.New("session not found")

// Store issues and resolves sessions.
type Store interface {
	Create(ctx context.Context, email string) (string, error)
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create starts a session for email.
func (s *RedisStore) Create(ctx context.Context, email string) (string, error) {
	sid := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+sid, email, s.ttl).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

// Get resolves a session id to an e-mail.
func (s *RedisStore) Get(ctx context.Context, id string) (string, error) {
	email, err := s.client.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, redis.Nil) || (err == nil && email == "") {
		return "", ErrNotFound
	}
	return email, err
}

// Delete ends a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]entry
}

type entry struct {
	email   string
	expires time.Time
}

// NewMemoryStore returns an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]entry)}
}

// Create starts a session for email.
func (s *MemoryStore) Create(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid := uuid.NewString()
	s.sessions[sid] = entry{email: email, expires: s.now().Add(s.ttl)}
	return sid, nil
}

// Get resolves a session id to an e-mail.
func (s *MemoryStore) Get(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return "", ErrNotFound
	}
	if !s.now().Before(e.expires) {
		delete(s.sessions, id)
		return "", ErrNotFound
	}
	return e.email, nil
}

// Delete ends a session.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
