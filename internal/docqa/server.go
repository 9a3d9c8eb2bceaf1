// Package docqa wires the question answering pipeline with its providers,
// vector store, cache and the HTTP/gRPC servers.
package docqa

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	goredis "github.com/redis/go-redis/v9"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/handler"
	"github.com/kart-io/docqa/internal/docqa/loader"
	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/internal/docqa/router"
	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/pkg/component/redis"
	"github.com/kart-io/docqa/pkg/infra/middleware"
	"github.com/kart-io/docqa/pkg/infra/server"
	grpcserver "github.com/kart-io/docqa/pkg/infra/server/grpc"
	httpserver "github.com/kart-io/docqa/pkg/infra/server/http"
	"github.com/kart-io/docqa/pkg/infra/tracing"
	"github.com/kart-io/docqa/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/docqa/pkg/llm/langchain"
	_ "github.com/kart-io/docqa/pkg/llm/ollama"
	_ "github.com/kart-io/docqa/pkg/llm/openai"
	cacheopts "github.com/kart-io/docqa/pkg/options/cache"
	docqaopts "github.com/kart-io/docqa/pkg/options/docqa"
	llmopts "github.com/kart-io/docqa/pkg/options/llm"
	logopts "github.com/kart-io/docqa/pkg/options/logger"
	grpcopts "github.com/kart-io/docqa/pkg/options/server/grpc"
	httpopts "github.com/kart-io/docqa/pkg/options/server/http"
	storeopts "github.com/kart-io/docqa/pkg/options/store"
	tracingopts "github.com/kart-io/docqa/pkg/options/tracing"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// Name is the name of the application.
const Name = "docqa"

// HealthService is the service name reported by the gRPC health server.
const HealthService = "docqa.v1.DocQA"

// Config contains application-related configurations.
type Config struct {
	LogOptions       *logopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	DocQAOptions     *docqaopts.Options
	StoreOptions     *storeopts.Options
	CacheOptions     *cacheopts.Options
	TracingOptions   *tracingopts.Options
	HTTPOptions      *httpopts.Options
	GRPCOptions      *grpcopts.Options

	// ChatProvider 非空时替代按名称创建的语言模型供应商。
	ChatProvider llm.ChatProvider
	// EmbeddingProvider 非空时替代按名称创建的嵌入供应商。
	EmbeddingProvider llm.EmbeddingProvider
}

// InitLogger 初始化全局日志，所有子命令在做任何事之前调用一次。
func (cfg *Config) InitLogger() error {
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", version.Get().GitVersion)
	if err := cfg.LogOptions.Init(); err != nil {
		return errors.ErrInvalidConfig.WithCause(fmt.Errorf("failed to initialize logger: %w", err))
	}
	return nil
}

// Runtime holds an assembled pipeline and the resources it owns.
type Runtime struct {
	Pipeline *biz.Pipeline
	Metrics  *metrics.Metrics
	Store    store.VectorStore

	closers []func(ctx context.Context) error
}

// Close releases every resource in reverse order of acquisition.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return utilerrors.NewAggregate(errs)
}

func (r *Runtime) onClose(fn func(ctx context.Context) error) {
	r.closers = append(r.closers, fn)
}

// NewRuntime builds providers, cache, vector store and the pipeline.
// reset clears the index before it is used.
func (cfg *Config) NewRuntime(ctx context.Context, reset bool) (_ *Runtime, err error) {
	rt := &Runtime{Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
		}
	}()

	// 1. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, errors.ErrInvalidConfig.WithCause(err)
	}
	rt.onClose(tp.Shutdown)

	// 2. 初始化 Redis 客户端（用于缓存），连接失败时降级为无缓存
	var redisClient *goredis.Client
	if cfg.CacheOptions != nil && cfg.CacheOptions.Enabled {
		client, err := redis.New(ctx, cfg.CacheOptions.Redis)
		if err != nil {
			logger.Warnw("Failed to connect to redis, cache will be disabled", "error", err.Error())
		} else {
			redisClient = client.Client()
			rt.onClose(func(context.Context) error { return client.Close() })
			logger.Infow("Redis cache initialized",
				"addr", cfg.CacheOptions.Redis.Addr(),
				"embedding_ttl", cfg.CacheOptions.EmbeddingTTL.String(),
				"answer_ttl", cfg.CacheOptions.AnswerTTL.String(),
			)
		}
	} else {
		logger.Info("Cache is disabled")
	}

	// 3. 初始化 LLM 供应商
	embedProvider, chatProvider, err := cfg.newProviders()
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		embedProvider = llm.NewCachedEmbeddingProvider(embedProvider, redisClient, &llm.EmbeddingCacheConfig{
			Enabled:   true,
			TTL:       cfg.CacheOptions.EmbeddingTTL,
			KeyPrefix: cfg.CacheOptions.EmbeddingPrefix(),
		})
	}

	// 4. 打开向量存储，校验嵌入模型标识
	vectorStore, err := store.Open(ctx, cfg.StoreOptions, llm.EmbedderID(embedProvider), reset)
	if err != nil {
		return nil, err
	}
	rt.Store = vectorStore
	rt.onClose(vectorStore.Close)

	// 5. 初始化 PDF 加载器
	pdfLoader, err := loader.NewPDFLoader(cfg.DocQAOptions.Workers, cfg.DocQAOptions.Recursive)
	if err != nil {
		return nil, errors.ErrInvalidConfig.WithCause(err)
	}
	rt.onClose(func(context.Context) error {
		pdfLoader.Close()
		return nil
	})

	// 6. 初始化 Biz 层
	var answerCache *biz.AnswerCache
	if redisClient != nil {
		answerCache = biz.NewAnswerCache(redisClient, &biz.AnswerCacheConfig{
			Enabled:   true,
			TTL:       cfg.CacheOptions.AnswerTTL,
			KeyPrefix: cfg.CacheOptions.AnswerPrefix(),
		})
	}
	rt.Pipeline, err = biz.NewPipeline(biz.Dependencies{
		Loader:        pdfLoader,
		Store:         vectorStore,
		StoreType:     cfg.StoreOptions.Type,
		EmbedProvider: embedProvider,
		ChatProvider:  chatProvider,
		Cache:         answerCache,
		Metrics:       rt.Metrics,
	}, cfg.DocQAOptions)
	if err != nil {
		return nil, err
	}

	logger.Infow("Pipeline initialized",
		"store", cfg.StoreOptions.Type,
		"embedder", llm.EmbedderID(embedProvider),
		"chat", chatProvider.Name(),
		"chunk_size", cfg.DocQAOptions.ChunkSize,
		"chunk_overlap", cfg.DocQAOptions.ChunkOverlap,
		"top_k", cfg.DocQAOptions.TopK,
		"cache.enabled", redisClient != nil,
		"tracing.enabled", tp.Enabled(),
	)
	return rt, nil
}

func (cfg *Config) newProviders() (llm.EmbeddingProvider, llm.ChatProvider, error) {
	embedProvider := cfg.EmbeddingProvider
	if embedProvider == nil {
		p, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
		if err != nil {
			return nil, nil, errors.ErrProviderInit.WithCause(fmt.Errorf("embedding provider %q: %w", cfg.EmbeddingOptions.Provider, err))
		}
		embedProvider = p
		logger.Infow("Embedding provider initialized",
			"provider", cfg.EmbeddingOptions.Provider,
			"model", cfg.EmbeddingOptions.Model,
		)
	}

	chatProvider := cfg.ChatProvider
	if chatProvider == nil {
		p, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
		if err != nil {
			return nil, nil, errors.ErrProviderInit.WithCause(fmt.Errorf("chat provider %q: %w", cfg.ChatOptions.Provider, err))
		}
		chatProvider = p
		logger.Infow("Chat provider initialized",
			"provider", cfg.ChatOptions.Provider,
			"model", cfg.ChatOptions.Model,
		)
	}
	return embedProvider, chatProvider, nil
}

// Server represents the docqa server.
type Server struct {
	runtime *Runtime
	srv     *server.Manager
	http    *httpserver.Server
	grpc    *grpcserver.Server
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	printBanner(cfg)

	// 1. 初始化流水线
	rt, err := cfg.NewRuntime(ctx, false)
	if err != nil {
		return nil, err
	}

	// 2. 初始化 HTTP 服务器与中间件
	skip := []string{"/healthz", router.MetricsPath}
	httpMetrics := middleware.NewHTTPMetrics(rt.Metrics.Registry(), Name)
	httpSrv := httpserver.NewServer(cfg.HTTPOptions,
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.BodyLimit(cfg.HTTPOptions.MaxBodyBytes),
		middleware.Tracing(skip...),
		middleware.Logger(skip...),
		httpMetrics.Handler(router.MetricsPath),
	)

	// 3. 注册路由
	h := handler.NewDocQAHandler(rt.Pipeline, rt.Metrics, cfg.DocQAOptions.CorpusPath)
	router.Register(httpSrv.Engine(), h, rt.Metrics.Registry())

	s := &Server{
		runtime: rt,
		http:    httpSrv,
		srv: server.NewManager(
			server.WithShutdownTimeout(cfg.HTTPOptions.ShutdownTimeout),
			server.WithServers(httpSrv),
		),
	}

	// 4. gRPC 健康检查（可选）
	if cfg.GRPCOptions.Enabled() {
		s.grpc = grpcserver.NewServer(cfg.GRPCOptions)
		s.grpc.SetServing(HealthService, true)
		s.srv.AddServer(s.grpc)
	}

	logger.Info("docqa service is ready")
	return s, nil
}

// HTTPServer returns the HTTP server.
func (s *Server) HTTPServer() *httpserver.Server {
	return s.http
}

// Run starts the servers and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.runtime.Close(closeCtx); err != nil {
			logger.Warnw("Failed to release resources", "error", err.Error())
		}
	}()
	return s.srv.Run(ctx)
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  HTTP: %s\n", cfg.HTTPOptions.Addr)
	if cfg.GRPCOptions.Enabled() {
		fmt.Printf("  gRPC health: %s\n", cfg.GRPCOptions.Addr)
	}
	fmt.Printf("  Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("  Chat: %s (%s)\n", cfg.ChatOptions.Provider, cfg.ChatOptions.Model)
	fmt.Printf("  Store: %s\n", cfg.StoreOptions.Type)
}
