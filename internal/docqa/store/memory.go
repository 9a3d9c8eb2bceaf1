package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kart-io/docqa/internal/pkg/textutil"
)

// MemoryStore 进程内向量索引，按余弦相似度暴力检索。
type MemoryStore struct {
	*binding

	mu      sync.RWMutex
	entries map[string]Entry
	// order 保持首次写入顺序，得分相同时结果稳定
	order []string
}

// NewMemoryStore 创建绑定到 embedder 的内存索引。
func NewMemoryStore(embedder string) *MemoryStore {
	return &MemoryStore{
		binding: newBinding(embedder, 0),
		entries: make(map[string]Entry),
	}
}

// Upsert 写入或覆盖文本块。
func (s *MemoryStore) Upsert(_ context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if _, err := s.bindEntries(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if _, ok := s.entries[e.Chunk.ID]; !ok {
			s.order = append(s.order, e.Chunk.ID)
		}
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		s.entries[e.Chunk.ID] = Entry{Chunk: e.Chunk, Vector: vec}
	}
	return nil
}

// Query 返回最相似的 k 个文本块。
func (s *MemoryStore) Query(_ context.Context, vector []float32, k int) ([]Hit, error) {
	if err := s.checkQuery(vector); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		hits = append(hits, Hit{
			Chunk: e.Chunk,
			Score: float32(textutil.CosineSimilarity(vector, e.Vector)),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	return hits[:normalizeK(k, len(hits))], nil
}

// IsEmpty 报告索引是否为空。
func (s *MemoryStore) IsEmpty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order) == 0, nil
}

// Count 返回文本块数量。
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.order)), nil
}

// Identity 返回索引标识。
func (s *MemoryStore) Identity() Identity {
	return s.get()
}

// Reset 清空索引。
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	s.order = nil
	s.reset(s.get().Embedder)
	return nil
}

// Close 内存索引无需释放资源。
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
