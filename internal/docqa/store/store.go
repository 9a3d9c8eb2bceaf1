package store

import (
	"context"
	"sync"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// Identity 索引绑定的嵌入模型标识。Dimension 为 0 表示尚未写入向量。
type Identity struct {
	Embedder  string `json:"embedder"`
	Dimension int    `json:"dimension"`
}

// Entry 待写入的文本块及其向量。
type Entry struct {
	Chunk  model.Chunk
	Vector []float32
}

// Hit 检索命中的文本块，Score 越大越相似。
type Hit struct {
	Chunk model.Chunk
	Score float32
}

// VectorStore 定义向量索引接口。
type VectorStore interface {
	// Upsert 按 Chunk.ID 写入，重复写入覆盖旧值。
	Upsert(ctx context.Context, entries []Entry) error

	// Query 返回与 vector 最相似的至多 k 个文本块，按相似度降序。
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// IsEmpty 报告索引中是否没有任何文本块。
	IsEmpty(ctx context.Context) (bool, error)

	// Count 返回索引中的文本块数量。
	Count(ctx context.Context) (int64, error)

	// Identity 返回索引绑定的嵌入模型标识。
	Identity() Identity

	// Reset 清空索引并重新绑定到当前嵌入模型。
	Reset(ctx context.Context) error

	// Close 释放连接。
	Close(ctx context.Context) error
}

// CheckIdentity 校验已有索引是否由 embedder 构建。
func CheckIdentity(stored Identity, embedder string) error {
	if stored.Embedder != "" && stored.Embedder != embedder {
		return errors.ErrEmbedderMismatch.WithMessagef(
			"index was built with %s but the configured embedder is %s; re-ingest with --reset", stored.Embedder, embedder)
	}
	return nil
}

// binding 保存索引标识，首个向量写入时确定维度。
type binding struct {
	mu sync.RWMutex
	id Identity
}

func newBinding(embedder string, dimension int) *binding {
	return &binding{id: Identity{Embedder: embedder, Dimension: dimension}}
}

func (b *binding) get() Identity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.id
}

func (b *binding) reset(embedder string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = Identity{Embedder: embedder}
}

// checkQuery 校验查询向量维度，未写入过向量时不校验。
func (b *binding) checkQuery(vector []float32) error {
	id := b.get()
	if len(vector) == 0 {
		return errors.ErrEmbedderMismatch.WithMessage("query vector is empty")
	}
	if id.Dimension != 0 && len(vector) != id.Dimension {
		return errors.ErrEmbedderMismatch.WithMessagef(
			"query vector has dimension %d, index %s has dimension %d", len(vector), id.Embedder, id.Dimension)
	}
	return nil
}

// bindEntries 校验待写入向量维度一致，返回是否首次确定维度。
func (b *binding) bindEntries(entries []Entry) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dim := b.id.Dimension
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return false, errors.ErrStoreWrite.WithMessagef("chunk %s has an empty vector", e.Chunk.ID)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return false, errors.ErrEmbedderMismatch.WithMessagef(
				"chunk %s has dimension %d, index %s has dimension %d", e.Chunk.ID, len(e.Vector), b.id.Embedder, dim)
		}
	}

	first := b.id.Dimension == 0 && dim != 0
	b.id.Dimension = dim
	return first, nil
}

// normalizeK 将 k 限制在 [1, n]。
func normalizeK(k int, n int) int {
	if k <= 0 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}
