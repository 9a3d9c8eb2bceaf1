package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/internal/pkg/textutil"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// BatchSize 每次嵌入请求的文本块数量。
	BatchSize int
}

// Indexer 负责嵌入文本块并写入向量索引。
type Indexer struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	config        *IndexerConfig
}

// NewIndexer 创建索引器实例。
func NewIndexer(vectorStore store.VectorStore, embedProvider llm.EmbeddingProvider, config *IndexerConfig) *Indexer {
	if config == nil {
		config = &IndexerConfig{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	return &Indexer{
		store:         vectorStore,
		embedProvider: embedProvider,
		config:        config,
	}
}

// Index 嵌入并写入全部文本块。
// 单个文本块或单批写入失败只会被跳过并记入报告；全部失败时返回 ErrIndexFailed。
func (i *Indexer) Index(ctx context.Context, chunks []model.Chunk) (*model.IndexReport, error) {
	start := time.Now()
	report := &model.IndexReport{
		Chunks:   len(chunks),
		Embedder: llm.EmbedderID(i.embedProvider),
	}
	if len(chunks) == 0 {
		return report, nil
	}

	dim := i.store.Identity().Dimension
	var lastErr error

	for from := 0; from < len(chunks); from += i.config.BatchSize {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, errors.ErrProviderTimeout.WithCause(err)
		}

		to := min(from+i.config.BatchSize, len(chunks))
		entries, skipped, err := i.embedBatch(ctx, chunks[from:to], &dim)
		report.Skipped = append(report.Skipped, skipped...)
		if err != nil {
			lastErr = err
		}
		if len(entries) == 0 {
			continue
		}

		if err := i.store.Upsert(ctx, entries); err != nil {
			logger.Warnw("Failed to write batch", "from", from, "to", to, "error", err.Error())
			lastErr = err
			for _, e := range entries {
				report.Skipped = append(report.Skipped, skippedChunk(e.Chunk, err))
			}
			continue
		}
		report.Indexed += len(entries)
		logger.Debugw("Indexed batch", "from", from, "to", to, "indexed", len(entries))
	}

	report.Duration = time.Since(start)
	if report.Indexed == 0 {
		if lastErr == nil {
			lastErr = errors.ErrEmbeddingFailed.WithMessage("no chunk produced an embedding")
		}
		return report, errors.ErrIndexFailed.WithCause(lastErr)
	}
	if report.Partial() {
		logger.Warnw("Index built from a subset of chunks",
			"indexed", report.Indexed,
			"skipped", len(report.Skipped),
			"chunks", report.Chunks,
		)
	}
	return report, nil
}

// embedBatch 先整批嵌入，失败时逐个嵌入以隔离出错的文本块。
// dim 为索引维度，0 表示由本次第一个向量确定。
func (i *Indexer) embedBatch(ctx context.Context, batch []model.Chunk, dim *int) ([]store.Entry, []model.SkippedChunk, error) {
	var (
		skipped  []model.SkippedChunk
		failures []error
		lastErr  error
	)

	valid := make([]model.Chunk, 0, len(batch))
	for _, c := range batch {
		if textutil.IsBlank(c.Text) {
			skipped = append(skipped, model.SkippedChunk{ChunkID: c.ID, Source: c.Source, Page: c.Page, Reason: "empty text"})
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil, skipped, nil
	}

	texts := make([]string, len(valid))
	for idx, c := range valid {
		texts[idx] = c.Text
	}

	vectors, err := i.embedProvider.Embed(ctx, texts)
	if err == nil {
		err = llm.CheckEmbeddings(len(valid), vectors)
	}
	if err != nil {
		logger.Warnw("Batch embedding failed, retrying chunks one by one",
			"batch", len(valid),
			"error", err.Error(),
		)
		vectors = make([][]float32, len(valid))
		failures = make([]error, len(valid))
		for idx, c := range valid {
			vec, err := i.embedProvider.EmbedSingle(ctx, c.Text)
			if err != nil {
				failures[idx] = err
				lastErr = errors.ErrEmbeddingFailed.WithCause(err)
				continue
			}
			vectors[idx] = vec
		}
	}

	entries := make([]store.Entry, 0, len(valid))
	for idx, c := range valid {
		vec := vectors[idx]
		switch {
		case len(vec) == 0:
			reason := "empty embedding"
			if failures != nil && failures[idx] != nil {
				reason = failures[idx].Error()
			}
			skipped = append(skipped, model.SkippedChunk{ChunkID: c.ID, Source: c.Source, Page: c.Page, Reason: reason})
			continue
		case *dim == 0:
			*dim = len(vec)
		case len(vec) != *dim:
			skipped = append(skipped, model.SkippedChunk{
				ChunkID: c.ID, Source: c.Source, Page: c.Page,
				Reason: "embedding dimension mismatch",
			})
			continue
		}
		entries = append(entries, store.Entry{Chunk: c, Vector: vec})
	}

	if lastErr == nil && len(entries) == 0 {
		lastErr = errors.ErrEmbeddingFailed.WithMessage("provider returned no usable embeddings")
	}
	return entries, skipped, lastErr
}

func skippedChunk(c model.Chunk, err error) model.SkippedChunk {
	return model.SkippedChunk{ChunkID: c.ID, Source: c.Source, Page: c.Page, Reason: err.Error()}
}
