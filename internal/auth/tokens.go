package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/greenleaf-shop/server/internal/core/error"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

// ErrTokenNotFound is returned by a TokenStore for unknown tokens.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore keeps issued tokens until they expire. Tokens are never revoked.
type TokenStore interface {
	Save(ctx context.Context, token Token) error
	Lookup(ctx context.Context, value string) (Token, error)
}

func newTokenValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MemoryTokenStore is a process-local TokenStore. It only works for a single
// server instance; use RedisTokenStore when running several.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]Token
	now    func() time.Time
}

// NewMemoryTokenStore returns an empty store. now drives expiry sweeps; nil
// means time.Now.
func NewMemoryTokenStore(now func() time.Time) *MemoryTokenStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryTokenStore{
		tokens: make(map[string]Token),
		now:    now,
	}
}

func (s *MemoryTokenStore) Save(_ context.Context, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for v, t := range s.tokens {
		if !t.Valid(now) {
			delete(s.tokens, v)
		}
	}
	s.tokens[token.Value] = token
	return nil
}

func (s *MemoryTokenStore) Lookup(_ context.Context, value string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[value]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	return t, nil
}

// Len returns the number of stored tokens, expired ones included until the
// next sweep.
func (s *MemoryTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// RedisTokenStore shares tokens between server instances. Keys expire with
// the token so Redis does the cleanup.
type RedisTokenStore struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisTokenStore(rdb redis.Cmdable, now func() time.Time) *RedisTokenStore {
	if now == nil {
		now = time.Now
	}
	return &RedisTokenStore{rdb: rdb, now: now}
}

func (s *RedisTokenStore) tokenKey(value string) string {
	return fmt.Sprintf("auth:token:%s", value)
}

func (s *RedisTokenStore) Save(ctx context.Context, token Token) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	key := s.tokenKey(token.Value)
	if err := s.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		logx.Error().Err(err).Str("user_id", token.UserID).Msg("failed to store token in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisTokenStore) Lookup(ctx context.Context, value string) (Token, error) {
	raw, err := s.rdb.Get(ctx, s.tokenKey(value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Token{}, ErrTokenNotFound
		}
		logx.Error().Err(err).Msg("failed to load token from redis")
		return Token{}, errx.WrapRedis(err)
	}
	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return Token{}, fmt.Errorf("unmarshal token: %w", err)
	}
	return t, nil
}

var (
	_ TokenStore = (*MemoryTokenStore)(nil)
	_ TokenStore = (*RedisTokenStore)(nil)
)
