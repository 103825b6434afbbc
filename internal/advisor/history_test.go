package advisor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisConversationRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	repo := NewRedisConversationRepository(rdb, 30*time.Minute, 3)

	for _, text := range []string{"one", "two", "three", "four"} {
		require.NoError(t, repo.AddMessage(ctx, "c1", schema.UserMessage(text)))
	}

	h, err := repo.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 3)
	assert.Equal(t, "two", h.Messages[0].Content)
	assert.Equal(t, schema.User, h.Messages[0].Role)

	key := "advisor:conversation:c1:messages"
	assert.Equal(t, 30*time.Minute, mr.TTL(key))

	n, err := repo.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mr.FastForward(31 * time.Minute)
	h, err = repo.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
}

func TestRedisConversationRepositoryClear(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	repo := NewRedisConversationRepository(rdb, 0, 0)
	require.NoError(t, repo.AddMessage(ctx, "c1", schema.AssistantMessage("hello", nil)))
	require.NoError(t, repo.ClearHistory(ctx, "c1"))

	n, err := repo.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryConversationRepositoryExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 10, 31, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryConversationRepository(time.Minute, 2)
	repo.now = func() time.Time { return now }

	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, repo.AddMessage(ctx, "c1", schema.UserMessage(text)))
	}
	h, err := repo.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "b", h.Messages[0].Content)

	now = now.Add(2 * time.Minute)
	n, err := repo.GetMessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
