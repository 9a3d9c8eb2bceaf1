package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeopts "github.com/kart-io/docqa/pkg/options/store"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		opts := storeopts.NewOptions()
		opts.Type = storeopts.TypeMemory

		s, err := Open(ctx, opts, "fake/v1", false)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("unsupported type", func(t *testing.T) {
		opts := storeopts.NewOptions()
		opts.Type = "faiss"

		_, err := Open(ctx, opts, "fake/v1", false)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})

	t.Run("chromem embedder mismatch and reset", func(t *testing.T) {
		opts := storeopts.NewOptions()
		opts.Path = t.TempDir()

		s, err := Open(ctx, opts, "fake/v1", false)
		require.NoError(t, err)
		require.NoError(t, s.Upsert(ctx, []Entry{entry("a", 1, 0)}))

		_, err = Open(ctx, opts, "fake/v2", false)
		assert.ErrorIs(t, err, errors.ErrEmbedderMismatch)

		s, err = Open(ctx, opts, "fake/v2", true)
		require.NoError(t, err)
		assert.Equal(t, "fake/v2", s.Identity().Embedder)
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("fake/v1")
	require.NoError(t, s.Upsert(ctx, []Entry{entry("a", 1, 0, 0), entry("b", 0, 1, 0)}))

	stats, err := Stats(ctx, s, storeopts.TypeMemory)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Type)
	assert.Equal(t, "fake/v1", stats.Embedder)
	assert.Equal(t, 3, stats.Dimension)
	assert.Equal(t, int64(2), stats.Count)
	assert.False(t, stats.Empty)
}
