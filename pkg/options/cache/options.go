// Package cache 定义 Redis 缓存配置，嵌入向量缓存与回答缓存共用一个连接。
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
	redisopts "github.com/kart-io/docqa/pkg/options/redis"
)

var _ options.IOptions = (*Options)(nil)

// Options 缓存配置，默认关闭。
type Options struct {
	Enabled      bool               `json:"enabled" mapstructure:"enabled"`
	EmbeddingTTL time.Duration      `json:"embedding-ttl" mapstructure:"embedding-ttl"`
	AnswerTTL    time.Duration      `json:"answer-ttl" mapstructure:"answer-ttl"`
	KeyPrefix    string             `json:"key-prefix" mapstructure:"key-prefix"`
	Redis        *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions returns the default cache options.
func NewOptions() *Options {
	return &Options{
		EmbeddingTTL: 24 * time.Hour,
		AnswerTTL:    time.Hour,
		KeyPrefix:    "docqa:",
		Redis:        redisopts.NewOptions(),
	}
}

// EmbeddingPrefix 嵌入向量缓存的键前缀。
func (o *Options) EmbeddingPrefix() string { return o.KeyPrefix + "emb:" }

// AnswerPrefix 回答缓存的键前缀。
func (o *Options) AnswerPrefix() string { return o.KeyPrefix + "answer:" }

// AddFlags registers cache.* flags. Redis flags live under cache.redis.*.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	section := options.Join(prefixes...) + "cache"
	p := section + "."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Cache embeddings and answers in Redis.")
	fs.DurationVar(&o.EmbeddingTTL, p+"embedding-ttl", o.EmbeddingTTL, "How long a cached embedding stays valid.")
	fs.DurationVar(&o.AnswerTTL, p+"answer-ttl", o.AnswerTTL, "How long a cached answer stays valid. Answers are also dropped on re-ingest.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Prefix of every cache key.")

	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	o.Redis.AddFlags(fs, section)
}

// Validate 只在启用时校验。
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.EmbeddingTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.embedding-ttl must be positive, got %s", o.EmbeddingTTL))
	}
	if o.AnswerTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.answer-ttl must be positive, got %s", o.AnswerTTL))
	}
	if o.KeyPrefix == "" || strings.ContainsAny(o.KeyPrefix, "*?[] ") {
		errs = append(errs, fmt.Errorf("cache.key-prefix %q must be non-empty and free of glob characters", o.KeyPrefix))
	}
	return append(errs, o.Redis.Validate()...)
}

// Complete fills the Redis section and reads its password from the environment.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	if o.KeyPrefix != "" && !strings.HasSuffix(o.KeyPrefix, ":") {
		o.KeyPrefix += ":"
	}
	return o.Redis.Complete()
}
