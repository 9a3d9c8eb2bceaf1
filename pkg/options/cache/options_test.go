package cache

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Flags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--cache.enabled", "--cache.redis.port=6380", "--cache.key-prefix=qa"}))
	require.NoError(t, o.Complete())
	assert.True(t, o.Enabled)
	assert.Equal(t, 6380, o.Redis.Port)
	assert.Equal(t, "qa:emb:", o.EmbeddingPrefix())
	assert.Equal(t, "qa:answer:", o.AnswerPrefix())
}

func TestOptions_Validate(t *testing.T) {
	disabled := NewOptions()
	disabled.AnswerTTL = 0
	assert.Empty(t, disabled.Validate(), "关闭时不校验")

	o := NewOptions()
	o.Enabled = true
	assert.Empty(t, o.Validate())

	o.AnswerTTL = 0
	o.KeyPrefix = "docqa:*"
	o.Redis.Port = 0
	assert.Len(t, o.Validate(), 3)
}
