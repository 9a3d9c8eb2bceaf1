package errors

import "google.golang.org/grpc/codes"

// docqa 服务代码: 20
// 错误码格式: AABBCCC

var (
	// 通用
	ErrInternal        = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), 500, codes.Internal, "Internal server error", "服务器内部错误"))
	ErrPanic           = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2), 500, codes.Internal, "Internal panic recovered", "服务发生 panic"))
	ErrRouteNotFound   = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), 404, codes.NotFound, "Route not found", "路由不存在"))
	ErrRequestTooLarge = Register(New(MakeCode(ServiceCommon, CategoryRequest, 2), 413, codes.ResourceExhausted, "Request body too large", "请求体过大"))

	// 输入错误 (类别 01)
	ErrInvalidRequest = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid request parameters", "请求参数无效"))
	ErrCorpusNotFound = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 2), 400, codes.InvalidArgument, "Corpus path does not exist", "语料目录不存在"))
	ErrNoDocuments    = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 3), 400, codes.InvalidArgument, "No documents found", "未找到文档"))
	ErrEmptyQuestion  = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 4), 400, codes.InvalidArgument, "Question is empty", "问题为空"))

	// 无上下文 (类别 04)
	ErrNoContext = Register(New(MakeCode(ServiceDocQA, CategoryResource, 1), 404, codes.NotFound, "No context available", "没有可用的上下文"))

	// 存储错误 (类别 08)
	ErrStoreUnavailable = Register(New(MakeCode(ServiceDocQA, CategoryDatabase, 1), 503, codes.Unavailable, "Vector store unavailable", "向量存储不可用"))
	ErrStoreWrite       = Register(New(MakeCode(ServiceDocQA, CategoryDatabase, 2), 500, codes.Internal, "Vector store write failed", "向量存储写入失败"))
	ErrStoreQuery       = Register(New(MakeCode(ServiceDocQA, CategoryDatabase, 3), 500, codes.Internal, "Vector store query failed", "向量存储查询失败"))
	ErrIndexFailed      = Register(New(MakeCode(ServiceDocQA, CategoryDatabase, 4), 500, codes.Internal, "Indexing failed for every chunk", "所有分块索引失败"))

	// 供应商错误 (类别 10)
	ErrEmbeddingFailed  = Register(New(MakeCode(ServiceDocQA, CategoryNetwork, 1), 502, codes.Unavailable, "Embedding provider failed", "嵌入模型调用失败"))
	ErrGenerationFailed = Register(New(MakeCode(ServiceDocQA, CategoryNetwork, 2), 502, codes.Unavailable, "Language model provider failed", "语言模型调用失败"))
	ErrEmptyAnswer      = Register(New(MakeCode(ServiceDocQA, CategoryNetwork, 3), 502, codes.Unavailable, "Language model returned an empty answer", "语言模型返回空回答"))
	ErrProviderInit     = Register(New(MakeCode(ServiceDocQA, CategoryNetwork, 4), 503, codes.Unavailable, "Provider initialization failed", "供应商初始化失败"))
	ErrProviderTimeout  = Register(New(MakeCode(ServiceDocQA, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "Provider call timed out", "供应商调用超时"))

	// 配置错误 (类别 12)
	ErrInvalidChunkParams = Register(New(MakeCode(ServiceDocQA, CategoryConfig, 1), 500, codes.FailedPrecondition, "Invalid chunk parameters", "分块参数无效"))
	ErrInvalidTemplate    = Register(New(MakeCode(ServiceDocQA, CategoryConfig, 2), 500, codes.FailedPrecondition, "Invalid prompt template", "提示模板无效"))
	ErrEmbedderMismatch   = Register(New(MakeCode(ServiceDocQA, CategoryConfig, 3), 500, codes.FailedPrecondition, "Embedding provider does not match the index", "嵌入模型与索引不一致"))
	ErrInvalidConfig      = Register(New(MakeCode(ServiceDocQA, CategoryConfig, 4), 500, codes.FailedPrecondition, "Invalid configuration", "配置无效"))
)
