package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/component/redis"
	"github.com/kart-io/docqa/pkg/utils/json"
)

// AnswerCacheConfig 回答缓存配置。
type AnswerCacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// AnswerCache 基于 Redis 的回答缓存。键包含嵌入模型标识与 top-k，换模型后不会命中旧回答。
type AnswerCache struct {
	redis  *goredis.Client
	config *AnswerCacheConfig
}

// NewAnswerCache 创建回答缓存实例。
func NewAnswerCache(redis *goredis.Client, config *AnswerCacheConfig) *AnswerCache {
	if config == nil {
		config = &AnswerCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "docqa:answer:",
		}
	}
	return &AnswerCache{
		redis:  redis,
		config: config,
	}
}

func (c *AnswerCache) enabled() bool {
	return c != nil && c.config.Enabled && c.redis != nil
}

func (c *AnswerCache) key(embedder string, k int, question string) string {
	hash := sha256.Sum256([]byte(embedder + "|" + strconv.Itoa(k) + "|" + question))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// Get 获取缓存的回答，未命中时返回 nil, nil。
func (c *AnswerCache) Get(ctx context.Context, embedder string, k int, question string) (*model.Answer, error) {
	if !c.enabled() {
		return nil, nil
	}

	key := c.key(embedder, k, question)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		logger.Warnw("failed to get answer from cache", "error", err.Error(), "key", key)
		return nil, err
	}

	var answer model.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		logger.Warnw("failed to unmarshal cached answer", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	logger.Debugw("answer cache hit", "key", key)
	return &answer, nil
}

// Set 写入回答。
func (c *AnswerCache) Set(ctx context.Context, embedder string, k int, answer *model.Answer) error {
	if !c.enabled() || answer == nil {
		return nil
	}

	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	key := c.key(embedder, k, answer.Question)
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to write answer cache", "error", err.Error(), "key", key)
		return err
	}
	return nil
}

// Clear 删除全部缓存回答，索引重建后调用。
func (c *AnswerCache) Clear(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}

	deleted, err := redis.DeleteByPrefix(ctx, c.redis, c.config.KeyPrefix)
	if err != nil {
		return err
	}

	logger.Infow("answer cache cleared", "deleted", deleted)
	return nil
}
