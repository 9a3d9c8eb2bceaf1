package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/component/milvus"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// 集合描述中记录嵌入模型标识的前缀。
const milvusEmbedderPrefix = "docqa embedder="

// MilvusStore 实现基于 Milvus 的向量存储。
// 集合在第一次写入时按向量维度创建，嵌入模型标识记录在集合描述中。
type MilvusStore struct {
	*binding

	client     *milvus.Client
	collection string
	embedder   string

	mu     sync.Mutex
	exists bool
}

// NewMilvusStore 创建 Milvus 存储实例，并读取已有集合的标识。
func NewMilvusStore(ctx context.Context, client *milvus.Client, collection, embedder string) (*MilvusStore, error) {
	s := &MilvusStore{
		client:     client,
		collection: collection,
		embedder:   embedder,
	}

	exists, err := client.HasCollection(ctx, collection)
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}
	s.exists = exists

	stored := Identity{Embedder: embedder}
	if exists {
		info, err := client.Describe(ctx, collection)
		if err != nil {
			return nil, errors.ErrStoreUnavailable.WithCause(err)
		}
		stored.Dimension = info.Dimension
		if id, ok := strings.CutPrefix(info.Description, milvusEmbedderPrefix); ok && id != "" {
			stored.Embedder = id
		}
	}
	s.binding = newBinding(stored.Embedder, stored.Dimension)

	return s, nil
}

func (s *MilvusStore) ensureCollection(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists {
		return nil
	}
	if err := s.client.CreateCollection(ctx, s.collection, milvusEmbedderPrefix+s.embedder, dim); err != nil {
		return err
	}
	s.exists = true
	return nil
}

// Upsert 按文本块 ID 写入 Milvus。
func (s *MilvusStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if _, err := s.bindEntries(entries); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, s.get().Dimension); err != nil {
		return errors.ErrStoreWrite.WithCause(err)
	}

	rows := make([]milvus.Row, len(entries))
	for i, e := range entries {
		rows[i] = milvus.Row{
			ID:      e.Chunk.ID,
			Vector:  e.Vector,
			Source:  e.Chunk.Source,
			Page:    int64(e.Chunk.Page),
			Ordinal: int64(e.Chunk.Index),
			Content: e.Chunk.Text,
		}
	}

	if err := s.client.Upsert(ctx, s.collection, rows); err != nil {
		return errors.ErrStoreWrite.WithCause(err)
	}
	return nil
}

// Query 执行向量相似度搜索。
func (s *MilvusStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if err := s.checkQuery(vector); err != nil {
		return nil, err
	}
	if empty, err := s.IsEmpty(ctx); err != nil || empty {
		return []Hit{}, err
	}
	if k <= 0 {
		k = 1
	}

	matches, err := s.client.Search(ctx, s.collection, vector, k)
	if err != nil {
		return nil, errors.ErrStoreQuery.WithCause(err)
	}

	hits := make([]Hit, len(matches))
	for i, m := range matches {
		hits[i] = Hit{
			Chunk: model.Chunk{
				ID:     m.ID,
				Text:   m.Content,
				Source: m.Source,
				Page:   int(m.Page),
				Index:  int(m.Ordinal),
			},
			Score: m.Score,
		}
	}
	return hits, nil
}

// IsEmpty 集合不存在或没有数据时为空。
func (s *MilvusStore) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	return n == 0, err
}

// Count 获取集合行数。
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	exists := s.exists
	s.mu.Unlock()
	if !exists {
		return 0, nil
	}

	n, err := s.client.Count(ctx, s.collection)
	if err != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(err)
	}
	return n, nil
}

// Identity 返回索引标识。
func (s *MilvusStore) Identity() Identity {
	return s.get()
}

// Reset 删除集合，下一次写入时按当前嵌入模型重建。
func (s *MilvusStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists {
		if err := s.client.DropCollection(ctx, s.collection); err != nil {
			return errors.ErrStoreWrite.WithCause(fmt.Errorf("reset %s: %w", s.collection, err))
		}
	}
	s.exists = false
	s.reset(s.embedder)
	return nil
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var _ VectorStore = (*MilvusStore)(nil)
