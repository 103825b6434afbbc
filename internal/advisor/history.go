package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/greenleaf-shop/server/internal/core/error"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

type ConversationRepository interface {
	// AddMessage appends a message to the conversation.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory returns the stored messages of a conversation, oldest first.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes the conversation.
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of stored messages.
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// ================ Redis ================

// RedisConversationRepository keeps each conversation as a Redis list whose
// TTL is extended on every append.
type RedisConversationRepository struct {
	rdb         redis.Cmdable
	ttl         time.Duration
	maxMessages int
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration, maxMessages int) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl, maxMessages: maxMessages}
}

func (r *RedisConversationRepository) conversationKey(conversationID string) string {
	return fmt.Sprintf("advisor:conversation:%s:messages", conversationID)
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.conversationKey(conversationID)

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	if r.maxMessages > 0 {
		pipe.LTrim(ctx, key, int64(-r.maxMessages), -1)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append conversation message")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error) {
	key := r.conversationKey(conversationID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &ConversationHistory{ConversationID: conversationID, Messages: []*schema.Message{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	key := r.conversationKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	key := r.conversationKey(conversationID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ ConversationRepository = (*RedisConversationRepository)(nil)

// ================ Memory ================

type memoryConversation struct {
	messages  []*schema.Message
	expiresAt time.Time
}

// MemoryConversationRepository is the single-process fallback used when Redis
// is not configured.
type MemoryConversationRepository struct {
	mu            sync.Mutex
	conversations map[string]*memoryConversation
	ttl           time.Duration
	maxMessages   int
	now           func() time.Time
}

func NewMemoryConversationRepository(ttl time.Duration, maxMessages int) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[string]*memoryConversation),
		ttl:           ttl,
		maxMessages:   maxMessages,
		now:           time.Now,
	}
}

// live returns the conversation unless it has expired. Callers hold r.mu.
func (r *MemoryConversationRepository) live(conversationID string) *memoryConversation {
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil
	}
	if r.ttl > 0 && !r.now().Before(c.expiresAt) {
		delete(r.conversations, conversationID)
		return nil
	}
	return c
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.live(conversationID)
	if c == nil {
		c = &memoryConversation{}
		r.conversations[conversationID] = c
	}
	c.messages = append(c.messages, message)
	if r.maxMessages > 0 && len(c.messages) > r.maxMessages {
		c.messages = append([]*schema.Message(nil), c.messages[len(c.messages)-r.maxMessages:]...)
	}
	c.expiresAt = r.now().Add(r.ttl)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := []*schema.Message{}
	if c := r.live(conversationID); c != nil {
		msgs = append(msgs, c.messages...)
	}
	return &ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.live(conversationID); c != nil {
		return len(c.messages), nil
	}
	return 0, nil
}

var _ ConversationRepository = (*MemoryConversationRepository)(nil)
