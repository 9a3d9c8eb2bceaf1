package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/kart-io/logger"
	"github.com/philippgille/chromem-go"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/internal/pkg/docutil"
	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/json"
)

// chromem 元数据键。
const (
	metaSource = "source"
	metaPage   = "page"
	metaIndex  = "index"
)

// ChromemStore 基于 chromem-go 的嵌入式向量索引。
// path 非空时持久化到目录，索引标识写入同目录下的 <collection>.meta.json。
type ChromemStore struct {
	*binding

	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	path       string
	embedder   string
}

// NewChromemStore 打开或创建 chromem 索引。
func NewChromemStore(path, collection, embedder string, compress bool) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		if err := docutil.EnsureDir(path); err != nil {
			return nil, errors.ErrStoreUnavailable.WithCause(err)
		}
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, errors.ErrStoreUnavailable.WithCause(fmt.Errorf("failed to open chromem database: %w", err))
		}
	}

	s := &ChromemStore{
		db:       db,
		name:     collection,
		path:     path,
		embedder: embedder,
	}

	stored, err := s.readMeta()
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}
	if stored.Embedder == "" {
		stored.Embedder = embedder
	}
	s.binding = newBinding(stored.Embedder, stored.Dimension)

	if s.collection, err = s.openCollection(); err != nil {
		return nil, err
	}

	logger.Debugw("Chromem store opened",
		"path", path,
		"collection", collection,
		"documents", s.collection.Count(),
	)
	return s, nil
}

// 向量一律由索引器预先计算，chromem 不应再调用嵌入函数。
func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("chromem store requires precomputed embeddings")
}

func (s *ChromemStore) openCollection() (*chromem.Collection, error) {
	c, err := s.db.GetOrCreateCollection(s.name, nil, noEmbedding)
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(fmt.Errorf("failed to create/get collection: %w", err))
	}
	return c, nil
}

func (s *ChromemStore) metaPath() string {
	return filepath.Join(s.path, s.name+".meta.json")
}

func (s *ChromemStore) readMeta() (Identity, error) {
	var id Identity
	if s.path == "" {
		return id, nil
	}
	data, err := os.ReadFile(s.metaPath())
	if os.IsNotExist(err) {
		return id, nil
	}
	if err != nil {
		return id, fmt.Errorf("failed to read index metadata: %w", err)
	}
	if err := json.Unmarshal(data, &id); err != nil {
		return id, fmt.Errorf("failed to decode index metadata: %w", err)
	}
	return id, nil
}

func (s *ChromemStore) writeMeta() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(s.get())
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(), data, 0o644)
}

// Upsert 写入文本块，相同 ID 覆盖。
func (s *ChromemStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	first, err := s.bindEntries(entries)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:      e.Chunk.ID,
			Content: e.Chunk.Text,
			Metadata: map[string]string{
				metaSource: e.Chunk.Source,
				metaPage:   strconv.Itoa(e.Chunk.Page),
				metaIndex:  strconv.Itoa(e.Chunk.Index),
			},
			Embedding: e.Vector,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return errors.ErrStoreWrite.WithCause(err)
	}
	if first {
		if err := s.writeMeta(); err != nil {
			return errors.ErrStoreWrite.WithCause(err)
		}
	}
	return nil
}

// Query 返回最相似的 k 个文本块。
func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if err := s.checkQuery(vector); err != nil {
		return nil, err
	}

	s.mu.Lock()
	c := s.collection
	s.mu.Unlock()

	n := c.Count()
	if n == 0 {
		return []Hit{}, nil
	}

	// chromem 要求 nResults 不超过文档数
	results, err := c.QueryEmbedding(ctx, vector, normalizeK(k, n), nil, nil)
	if err != nil {
		return nil, errors.ErrStoreQuery.WithCause(err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		page, _ := strconv.Atoi(r.Metadata[metaPage])
		index, _ := strconv.Atoi(r.Metadata[metaIndex])
		hits = append(hits, Hit{
			Chunk: model.Chunk{
				ID:     r.ID,
				Text:   r.Content,
				Source: r.Metadata[metaSource],
				Page:   page,
				Index:  index,
			},
			Score: r.Similarity,
		})
	}
	return hits, nil
}

// IsEmpty 报告索引是否为空。
func (s *ChromemStore) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	return n == 0, err
}

// Count 返回文本块数量。
func (s *ChromemStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.collection.Count()), nil
}

// Identity 返回索引标识。
func (s *ChromemStore) Identity() Identity {
	return s.get()
}

// Reset 删除集合和标识文件，并重新绑定到当前嵌入模型。
func (s *ChromemStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return errors.ErrStoreWrite.WithCause(fmt.Errorf("failed to drop collection: %w", err))
	}
	if s.path != "" {
		if err := os.Remove(s.metaPath()); err != nil && !os.IsNotExist(err) {
			return errors.ErrStoreWrite.WithCause(err)
		}
	}

	s.reset(s.embedder)
	c, err := s.openCollection()
	if err != nil {
		return err
	}
	s.collection = c

	logger.Infow("Chromem store reset", "collection", s.name, "embedder", s.embedder)
	return nil
}

// Close chromem 每次写入即持久化，无需额外刷盘。
func (s *ChromemStore) Close(_ context.Context) error {
	return nil
}

var _ VectorStore = (*ChromemStore)(nil)
