package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/internal/pkg/textutil"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 默认返回的结果数量。
	TopK int
}

// Retriever 负责问题嵌入与相似度检索。
type Retriever struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	config        *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(vectorStore store.VectorStore, embedProvider llm.EmbeddingProvider, config *RetrieverConfig) *Retriever {
	if config == nil {
		config = &RetrieverConfig{}
	}
	if config.TopK <= 0 {
		config.TopK = 1
	}
	return &Retriever{
		store:         vectorStore,
		embedProvider: embedProvider,
		config:        config,
	}
}

// Retrieve 返回与问题最相似的至多 k 个文本块，k <= 0 时使用配置值。
// 索引为空时返回 ErrNoContext。
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]store.Hit, error) {
	if textutil.IsBlank(question) {
		return nil, errors.ErrEmptyQuestion
	}
	if k <= 0 {
		k = r.config.TopK
	}

	// 查询与索引必须使用同一个嵌入模型
	if err := store.CheckIdentity(r.store.Identity(), llm.EmbedderID(r.embedProvider)); err != nil {
		return nil, err
	}

	empty, err := r.store.IsEmpty(ctx)
	if err != nil {
		return nil, wrap(err, errors.ErrStoreUnavailable)
	}
	if empty {
		return nil, errors.ErrNoContext.WithMessage("the index is empty; run ingest first")
	}

	vector, err := r.embedProvider.EmbedSingle(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.ErrProviderTimeout.WithCause(err)
		}
		return nil, errors.ErrEmbeddingFailed.WithCause(err)
	}
	if len(vector) == 0 {
		return nil, errors.ErrEmbeddingFailed.WithMessage("provider returned an empty question embedding")
	}

	hits, err := r.store.Query(ctx, vector, k)
	if err != nil {
		return nil, wrap(err, errors.ErrStoreQuery)
	}

	logger.Debugw("Retrieved chunks", "k", k, "hits", len(hits))
	return hits, nil
}
