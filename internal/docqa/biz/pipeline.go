package biz

import (
	"context"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/docqa/internal/docqa/loader"
	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/internal/pkg/docutil"
	"github.com/kart-io/docqa/pkg/infra/tracing"
	"github.com/kart-io/docqa/pkg/llm"
	docqaopts "github.com/kart-io/docqa/pkg/options/docqa"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

const tracerName = "docqa/pipeline"

// InsufficientContextAnswer 检索无结果且开启短路时返回的固定回答。
const InsufficientContextAnswer = "I don't have enough information in the provided documents to answer this question."

// Service 定义问答流水线接口。
type Service interface {
	// Ingest 加载、切分并索引 corpusPath 下的 PDF。
	Ingest(ctx context.Context, corpusPath string) (*model.IndexReport, error)
	// Ask 检索上下文并生成回答。
	Ask(ctx context.Context, question string) (*model.Answer, error)
	// Stats 返回索引状态。
	Stats(ctx context.Context) (*model.StoreStats, error)
}

// Dependencies 流水线依赖的外部组件。
type Dependencies struct {
	Loader        loader.Loader
	Store         store.VectorStore
	StoreType     string
	EmbedProvider llm.EmbeddingProvider
	ChatProvider  llm.ChatProvider
	// Cache 可选。
	Cache *AnswerCache
	// Metrics 为空时使用全局实例。
	Metrics *metrics.Metrics
}

// Pipeline 组合 Chunker、Indexer、Retriever、PromptAssembler 和 Generator。
type Pipeline struct {
	loader    loader.Loader
	chunker   *Chunker
	indexer   *Indexer
	retriever *Retriever
	prompt    *PromptAssembler
	generator *Generator
	cache     *AnswerCache
	store     store.VectorStore
	storeType string
	embedder  string
	metrics   *metrics.Metrics

	topK         int
	shortCircuit bool
	timeout      time.Duration
}

// NewPipeline 创建流水线。分块参数或模板非法时返回 ConfigError，不会触发任何嵌入调用。
func NewPipeline(deps Dependencies, opts *docqaopts.Options) (*Pipeline, error) {
	if opts == nil {
		opts = docqaopts.NewOptions()
	}
	if deps.Store == nil || deps.EmbedProvider == nil || deps.ChatProvider == nil {
		return nil, errors.ErrInvalidConfig.WithMessage("pipeline requires a store, an embedding provider and a chat provider")
	}

	chunker, err := NewChunker(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	prompt, err := NewPromptAssembler(opts.PromptTemplate)
	if err != nil {
		return nil, err
	}

	m := deps.Metrics
	if m == nil {
		m = metrics.Get()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 1
	}

	return &Pipeline{
		loader:       deps.Loader,
		chunker:      chunker,
		indexer:      NewIndexer(deps.Store, deps.EmbedProvider, &IndexerConfig{BatchSize: opts.BatchSize}),
		retriever:    NewRetriever(deps.Store, deps.EmbedProvider, &RetrieverConfig{TopK: topK}),
		prompt:       prompt,
		generator:    NewGenerator(deps.ChatProvider, &GeneratorConfig{SystemPrompt: opts.SystemPrompt}),
		cache:        deps.Cache,
		store:        deps.Store,
		storeType:    deps.StoreType,
		embedder:     llm.EmbedderID(deps.EmbedProvider),
		metrics:      m,
		topK:         topK,
		shortCircuit: opts.ShortCircuitEmpty,
		timeout:      opts.Timeout,
	}, nil
}

// Ingest 执行 加载 → 切分 → 索引。
// 路径不存在或没有文档时返回 InputError；部分文本块失败时仍返回成功，报告中列出跳过的块。
func (p *Pipeline) Ingest(ctx context.Context, corpusPath string) (report *model.IndexReport, err error) {
	start := time.Now()
	runID := ulid.Make().String()
	var documents int

	ctx, span := tracing.StartSpan(ctx, tracerName, "ingest")
	defer span.End()
	tracing.AddSpanAttributes(ctx, attribute.String("docqa.run_id", runID), attribute.String("docqa.embedder", p.embedder))

	defer func() {
		indexed, skipped := 0, 0
		if report != nil {
			indexed, skipped = report.Indexed, len(report.Skipped)
			tracing.AddSpanAttributes(ctx, attribute.Int("docqa.indexed", indexed), attribute.Int("docqa.skipped", skipped))
		}
		tracing.RecordError(ctx, err)
		p.metrics.RecordIngest(documents, indexed, skipped, err)
	}()

	if strings.TrimSpace(corpusPath) == "" {
		return nil, errors.ErrCorpusNotFound.WithMessage("corpus path is empty")
	}
	if !docutil.DirExists(corpusPath) {
		return nil, errors.ErrCorpusNotFound.WithMessagef("corpus path %s does not exist or is not a directory", corpusPath)
	}
	if p.loader == nil {
		return nil, errors.ErrInvalidConfig.WithMessage("pipeline has no document loader")
	}

	logger.Infow("Ingest started", "run_id", runID, "corpus", corpusPath, "embedder", p.embedder)

	docs, err := p.loader.Load(ctx, corpusPath)
	if err != nil {
		return nil, wrap(err, errors.ErrCorpusNotFound)
	}
	documents = len(docs)
	if documents == 0 {
		return nil, errors.ErrNoDocuments.WithMessagef("no documents found in %s", corpusPath)
	}
	logger.Infow("Loaded documents", "run_id", runID, "documents", documents)

	chunks := p.chunker.Chunk(docs)
	if len(chunks) == 0 {
		return nil, errors.ErrNoDocuments.WithMessagef("no text could be extracted from the documents in %s", corpusPath)
	}
	logger.Infow("Created chunks", "run_id", runID, "chunks", len(chunks))

	report, err = p.indexer.Index(ctx, chunks)
	if report != nil {
		report.RunID = runID
		report.Documents = documents
		report.Duration = time.Since(start)
	}
	if err != nil {
		logger.Errorw("Ingest failed", "run_id", runID, "error", err.Error())
		return report, err
	}

	// 索引已变化，旧回答作废
	if err := p.cache.Clear(ctx); err != nil {
		logger.Warnw("Failed to clear answer cache", "error", err.Error())
	}

	logger.Infow("Ingest completed",
		"run_id", runID,
		"documents", report.Documents,
		"chunks", report.Chunks,
		"indexed", report.Indexed,
		"skipped", len(report.Skipped),
		"duration", report.Duration.String(),
	)
	return report, nil
}

// Ask 执行 检索 → 拼装 → 生成。
// 索引为空时返回 ErrNoContext；检索没有命中时默认仍调用模型，Answer.NoContext 为 true。
func (p *Pipeline) Ask(ctx context.Context, question string) (answer *model.Answer, err error) {
	start := time.Now()
	outcome := metrics.OutcomeSuccess

	ctx, span := tracing.StartSpan(ctx, tracerName, "ask")
	defer span.End()

	defer func() {
		if err != nil {
			tracing.AddSpanAttributes(ctx, attribute.String("docqa.outcome", metrics.OutcomeError))
		} else {
			tracing.AddSpanAttributes(ctx, attribute.String("docqa.outcome", outcome))
		}
		tracing.RecordError(ctx, err)
		if errors.KindOf(err) == errors.KindNoContext {
			p.metrics.RecordAsk(metrics.OutcomeNoContext, nil)
			return
		}
		p.metrics.RecordAsk(outcome, err)
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.ErrEmptyQuestion
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if cached, cacheErr := p.cache.Get(ctx, p.embedder, p.topK, question); cacheErr == nil && cached != nil {
		outcome = metrics.OutcomeCacheHit
		return cached, nil
	}

	retrievalStart := time.Now()
	rctx, rspan := tracing.StartSpan(ctx, tracerName, "retrieve")
	hits, err := p.retriever.Retrieve(rctx, question, p.topK)
	rspan.SetAttributes(attribute.Int("docqa.hits", len(hits)))
	rspan.End()
	p.metrics.RecordRetrieval(time.Since(retrievalStart))
	if err != nil {
		return nil, err
	}

	answer = &model.Answer{
		Question:  question,
		Sources:   sources(hits),
		NoContext: len(hits) == 0,
	}

	if answer.NoContext && p.shortCircuit {
		outcome = metrics.OutcomeNoContext
		answer.Text = InsufficientContextAnswer
		answer.Duration = time.Since(start)
		return answer, nil
	}

	prompt := p.prompt.Assemble(hits, question)

	llmStart := time.Now()
	gctx, gspan := tracing.StartSpan(ctx, tracerName, "generate")
	resp, err := p.generator.Generate(gctx, prompt)
	gspan.End()
	if err != nil {
		return nil, err
	}
	promptTokens, completionTokens := 0, 0
	if resp.TokenUsage != nil {
		promptTokens, completionTokens = resp.TokenUsage.PromptTokens, resp.TokenUsage.CompletionTokens
	}
	p.metrics.RecordLLMCall(time.Since(llmStart), promptTokens, completionTokens)

	answer.Text = resp.Content
	answer.Duration = time.Since(start)

	// 缓存写入失败不影响返回，错误已在 Set 中记录
	_ = p.cache.Set(ctx, p.embedder, p.topK, answer)

	return answer, nil
}

// Stats 返回索引状态。
func (p *Pipeline) Stats(ctx context.Context) (*model.StoreStats, error) {
	return store.Stats(ctx, p.store, p.storeType)
}

func sources(hits []store.Hit) []model.Source {
	out := make([]model.Source, len(hits))
	for i, h := range hits {
		out[i] = model.Source{
			ChunkID: h.Chunk.ID,
			Source:  h.Chunk.Source,
			Page:    h.Chunk.Page,
			Score:   h.Score,
			Text:    h.Chunk.Text,
		}
	}
	return out
}

var _ Service = (*Pipeline)(nil)
