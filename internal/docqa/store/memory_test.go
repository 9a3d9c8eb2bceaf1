package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/utils/errors"
)

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("fake/v1")

	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	hits, err := s.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, s.Upsert(ctx, []Entry{
		entry("x", 1, 0),
		entry("y", 0, 1),
		entry("z", 0.9, 0.1),
	}))

	t.Run("top 1", func(t *testing.T) {
		hits, err := s.Query(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "x", hits[0].Chunk.ID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("default k", func(t *testing.T) {
		hits, err := s.Query(ctx, []float32{0, 1}, 0)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "y", hits[0].Chunk.ID)
	})

	t.Run("k larger than store", func(t *testing.T) {
		hits, err := s.Query(ctx, []float32{1, 0}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []string{"x", "z", "y"}, []string{hits[0].Chunk.ID, hits[1].Chunk.ID, hits[2].Chunk.ID})
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := s.Query(ctx, []float32{1, 0, 0}, 1)
		assert.ErrorIs(t, err, errors.ErrEmbedderMismatch)
	})
}

func TestMemoryStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("fake/v1")

	require.NoError(t, s.Upsert(ctx, []Entry{entry("a", 1, 0)}))
	updated := entry("a", 0, 1)
	updated.Chunk.Text = "updated"
	require.NoError(t, s.Upsert(ctx, []Entry{updated}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	hits, err := s.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "updated", hits[0].Chunk.Text)
}

func TestMemoryStore_UpsertCopiesVectors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("fake/v1")

	vec := []float32{1, 0}
	require.NoError(t, s.Upsert(ctx, []Entry{{Chunk: entry("a").Chunk, Vector: vec}}))
	vec[0], vec[1] = 0, 1

	hits, err := s.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("fake/v1")

	require.NoError(t, s.Upsert(ctx, []Entry{entry("a", 1, 0)}))
	assert.Equal(t, 2, s.Identity().Dimension)

	require.NoError(t, s.Reset(ctx))

	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, Identity{Embedder: "fake/v1"}, s.Identity())

	// 重置后可以写入不同维度
	require.NoError(t, s.Upsert(ctx, []Entry{entry("b", 1, 0, 0)}))
	assert.Equal(t, 3, s.Identity().Dimension)
}
