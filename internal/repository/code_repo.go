package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IssuedCode is the last verification code generated for an email.
type IssuedCode struct {
	Code     int       `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// CodeStore keeps one pending verification code per email. Saving a new
// code replaces the previous one.
type CodeStore interface {
	Save(ctx context.Context, email string, c IssuedCode, ttl time.Duration) error
	Load(ctx context.Context, email string) (*IssuedCode, error)
	Delete(ctx context.Context, email string) error
	// Sweep drops entries issued before cutoff and reports how many went.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

func codeKey(email string) string {
	return "verify:" + strings.ToLower(strings.TrimSpace(email))
}

// ── Redis ────────────────────────────────────────────────────────────────────

type redisCodeStore struct{ rdb *redis.Client }

// NewRedisCodeStore stores codes as JSON with a per-key expiry.
func NewRedisCodeStore(rdb *redis.Client) CodeStore { return &redisCodeStore{rdb: rdb} }

func (s *redisCodeStore) Save(ctx context.Context, email string, c IssuedCode, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, codeKey(email), data, ttl).Err(); err != nil {
		return fmt.Errorf("verification code: save: %w", err)
	}
	return nil
}

func (s *redisCodeStore) Load(ctx context.Context, email string) (*IssuedCode, error) {
	raw, err := s.rdb.Get(ctx, codeKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verification code: load: %w", err)
	}
	var c IssuedCode
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("verification code: decode: %w", err)
	}
	return &c, nil
}

func (s *redisCodeStore) Delete(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, codeKey(email)).Err()
}

// Sweep is a no-op: Redis expires the keys itself.
func (s *redisCodeStore) Sweep(context.Context, time.Time) (int, error) { return 0, nil }

// ── In-memory ────────────────────────────────────────────────────────────────

type memoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]IssuedCode
}

// NewMemoryCodeStore is a process-local store. Expired entries stay until
// Sweep runs; readers must check IssuedAt themselves.
func NewMemoryCodeStore() CodeStore {
	return &memoryCodeStore{codes: make(map[string]IssuedCode)}
}

func (s *memoryCodeStore) Save(_ context.Context, email string, c IssuedCode, _ time.Duration) error {
	s.mu.Lock()
	s.codes[codeKey(email)] = c
	s.mu.Unlock()
	return nil
}

func (s *memoryCodeStore) Load(_ context.Context, email string) (*IssuedCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[codeKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *memoryCodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.codes, codeKey(email))
	s.mu.Unlock()
	return nil
}

func (s *memoryCodeStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, c := range s.codes {
		if c.IssuedAt.Before(cutoff) {
			delete(s.codes, k)
			n++
		}
	}
	return n, nil
}
