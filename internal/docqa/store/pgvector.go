package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kart-io/logger"
	"github.com/uptrace/bun"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/component/postgres"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// Vector pgvector 的文本表示，形如 [0.1,0.2,0.3]。
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	var s string
	switch x := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return fmt.Errorf("unsupported vector type %T", src)
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return fmt.Errorf("invalid vector literal %q", s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*v = Vector{}
		return nil
	}

	parts := strings.Split(s, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("invalid vector element %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}

type chunkRow struct {
	bun.BaseModel `bun:"table:docqa_chunks,alias:c"`

	Collection string  `bun:"collection,pk"`
	ID         string  `bun:"id,pk"`
	Source     string  `bun:"source,notnull"`
	Page       int     `bun:"page,notnull"`
	ChunkIndex int     `bun:"chunk_index,notnull"`
	Content    string  `bun:"content,notnull"`
	Embedding  Vector  `bun:"embedding,type:vector,notnull"`
	Score      float32 `bun:"score,scanonly"`
}

type metaRow struct {
	bun.BaseModel `bun:"table:docqa_index_meta,alias:m"`

	Collection string `bun:"collection,pk"`
	Embedder   string `bun:"embedder,notnull"`
	Dimension  int    `bun:"dimension,notnull"`
}

// PGVectorStore 基于 PostgreSQL + pgvector 的向量索引。
// 多个集合共用一张表，以 collection 列区分；标识保存在 docqa_index_meta。
type PGVectorStore struct {
	*binding

	client     *postgres.Client
	db         *bun.DB
	collection string
	embedder   string
}

// NewPGVectorStore 初始化表结构并读取已有标识。
func NewPGVectorStore(ctx context.Context, client *postgres.Client, collection, embedder string) (*PGVectorStore, error) {
	s := &PGVectorStore{
		client:     client,
		db:         client.DB(),
		collection: collection,
		embedder:   embedder,
	}

	if err := s.setup(ctx); err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	stored := Identity{Embedder: embedder}
	meta := new(metaRow)
	err := s.db.NewSelect().Model(meta).Where("m.collection = ?", collection).Scan(ctx)
	switch {
	case err == nil:
		stored = Identity{Embedder: meta.Embedder, Dimension: meta.Dimension}
	case stderrors.Is(err, sql.ErrNoRows):
	default:
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}
	s.binding = newBinding(stored.Embedder, stored.Dimension)

	logger.Debugw("PGVector store opened", "collection", collection, "embedder", stored.Embedder)
	return s, nil
}

func (s *PGVectorStore) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	for _, m := range []any{(*chunkRow)(nil), (*metaRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Upsert 写入文本块，(collection, id) 冲突时覆盖。
func (s *PGVectorStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	first, err := s.bindEntries(entries)
	if err != nil {
		return err
	}

	rows := make([]chunkRow, len(entries))
	for i, e := range entries {
		rows[i] = chunkRow{
			Collection: s.collection,
			ID:         e.Chunk.ID,
			Source:     e.Chunk.Source,
			Page:       e.Chunk.Page,
			ChunkIndex: e.Chunk.Index,
			Content:    e.Chunk.Text,
			Embedding:  Vector(e.Vector),
		}
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (collection, id) DO UPDATE").
			Set("source = EXCLUDED.source").
			Set("page = EXCLUDED.page").
			Set("chunk_index = EXCLUDED.chunk_index").
			Set("content = EXCLUDED.content").
			Set("embedding = EXCLUDED.embedding").
			Exec(ctx); err != nil {
			return err
		}
		if !first {
			return nil
		}
		id := s.get()
		_, err := tx.NewInsert().
			Model(&metaRow{Collection: s.collection, Embedder: id.Embedder, Dimension: id.Dimension}).
			On("CONFLICT (collection) DO UPDATE").
			Set("embedder = EXCLUDED.embedder").
			Set("dimension = EXCLUDED.dimension").
			Exec(ctx)
		return err
	})
	if err != nil {
		return errors.ErrStoreWrite.WithCause(err)
	}
	return nil
}

// Query 按余弦距离排序返回至多 k 个文本块。
func (s *PGVectorStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if err := s.checkQuery(vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 1
	}

	vec := Vector(vector)
	var rows []chunkRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("c.id", "c.source", "c.page", "c.chunk_index", "c.content").
		ColumnExpr("1 - (c.embedding <=> ?::vector) AS score", vec).
		Where("c.collection = ?", s.collection).
		OrderExpr("c.embedding <=> ?::vector", vec).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, errors.ErrStoreQuery.WithCause(err)
	}

	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, Hit{
			Chunk: model.Chunk{
				ID:     r.ID,
				Text:   r.Content,
				Source: r.Source,
				Page:   r.Page,
				Index:  r.ChunkIndex,
			},
			Score: r.Score,
		})
	}
	return hits, nil
}

// IsEmpty 报告集合是否没有文本块。
func (s *PGVectorStore) IsEmpty(ctx context.Context) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*chunkRow)(nil)).
		Where("c.collection = ?", s.collection).
		Exists(ctx)
	if err != nil {
		return false, errors.ErrStoreUnavailable.WithCause(err)
	}
	return !exists, nil
}

// Count 返回集合中的文本块数量。
func (s *PGVectorStore) Count(ctx context.Context) (int64, error) {
	n, err := s.db.NewSelect().
		Model((*chunkRow)(nil)).
		Where("c.collection = ?", s.collection).
		Count(ctx)
	if err != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(err)
	}
	return int64(n), nil
}

// Identity 返回索引标识。
func (s *PGVectorStore) Identity() Identity {
	return s.get()
}

// Reset 删除集合的文本块与标识。
func (s *PGVectorStore) Reset(ctx context.Context) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*chunkRow)(nil)).Where("collection = ?", s.collection).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*metaRow)(nil)).Where("collection = ?", s.collection).Exec(ctx)
		return err
	})
	if err != nil {
		return errors.ErrStoreWrite.WithCause(err)
	}
	s.reset(s.embedder)
	return nil
}

// Close 关闭数据库连接。
func (s *PGVectorStore) Close(_ context.Context) error {
	return s.client.Close()
}

var _ VectorStore = (*PGVectorStore)(nil)
