package biz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/internal/model"
)

// 辅助函数：创建基于 miniredis 的测试客户端
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewAnswerCache_WithNilConfig(t *testing.T) {
	cache := NewAnswerCache(nil, nil)
	assert.NotNil(t, cache.config)
	assert.False(t, cache.config.Enabled) // 默认禁用
	assert.Equal(t, 1*time.Hour, cache.config.TTL)
	assert.Equal(t, "docqa:answer:", cache.config.KeyPrefix)
}

func TestAnswerCache_Disabled(t *testing.T) {
	ctx := context.Background()

	for name, cache := range map[string]*AnswerCache{
		"nil cache":  nil,
		"nil client": NewAnswerCache(nil, &AnswerCacheConfig{Enabled: true, TTL: time.Minute, KeyPrefix: "t:"}),
		"disabled":   NewAnswerCache(redis.NewClient(&redis.Options{Addr: "localhost:0"}), nil),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := cache.Get(ctx, "fake/v1", 1, "q")
			assert.NoError(t, err)
			assert.Nil(t, got)
			assert.NoError(t, cache.Set(ctx, "fake/v1", 1, &model.Answer{Question: "q", Text: "a"}))
			assert.NoError(t, cache.Clear(ctx))
		})
	}
}

func TestAnswerCache_Key(t *testing.T) {
	cache := NewAnswerCache(nil, &AnswerCacheConfig{KeyPrefix: "t:"})

	k1 := cache.key("fake/v1", 1, "什么是阿司匹林？")
	k2 := cache.key("fake/v1", 1, "什么是阿司匹林？")
	k3 := cache.key("fake/v2", 1, "什么是阿司匹林？")
	k4 := cache.key("fake/v1", 3, "什么是阿司匹林？")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
	assert.Len(t, k1, len("t:")+64)
}

func TestAnswerCache_RoundTrip(t *testing.T) {
	mr, client := setupTestRedis(t)

	ctx := context.Background()
	cache := NewAnswerCache(client, &AnswerCacheConfig{Enabled: true, TTL: time.Minute, KeyPrefix: "test:docqa:"})

	answer := &model.Answer{
		Question: "What does aspirin do?",
		Text:     "It reduces fever and inflammation.",
		Sources:  []model.Source{{ChunkID: "c0", Source: "a.pdf", Page: 1, Score: 0.9}},
	}
	require.NoError(t, cache.Set(ctx, "fake/v1", 1, answer))

	got, err := cache.Get(ctx, "fake/v1", 1, answer.Question)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, answer.Text, got.Text)
	assert.Equal(t, answer.Sources, got.Sources)

	miss, err := cache.Get(ctx, "fake/v2", 1, answer.Question)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, mr.Set("other:key", "x"))
	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, []string{"other:key"}, mr.Keys())
	got, err = cache.Get(ctx, "fake/v1", 1, answer.Question)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnswerCache_CorruptEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	cache := NewAnswerCache(client, &AnswerCacheConfig{Enabled: true, TTL: time.Minute, KeyPrefix: "t:"})

	key := cache.key("fake/v1", 1, "q")
	require.NoError(t, mr.Set(key, "{not json"))

	got, err := cache.Get(ctx, "fake/v1", 1, "q")
	assert.Error(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(key), "损坏的缓存应被删除")
}

func TestAnswerCache_TTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	cache := NewAnswerCache(client, &AnswerCacheConfig{Enabled: true, TTL: time.Minute, KeyPrefix: "t:"})

	require.NoError(t, cache.Set(ctx, "fake/v1", 1, &model.Answer{Question: "q", Text: "a"}))
	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "fake/v1", 1, "q")
	require.NoError(t, err)
	assert.Nil(t, got)
}
