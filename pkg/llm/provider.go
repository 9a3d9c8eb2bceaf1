// Package llm 定义嵌入模型与语言模型的供应商接口。
// 嵌入与生成可以来自不同供应商，实现包在 init() 中调用 Register 登记。
package llm

import (
	"context"
	"fmt"
)

// EmbeddingProvider 定义 Embedding 供应商接口。
// 对无法嵌入的输入必须返回错误，而不是零向量。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量嵌入，结果与输入一一对应。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string

	// Model 返回嵌入模型名称。
	Model() string
}

// ChatProvider 定义文本生成供应商接口。
type ChatProvider interface {
	// Generate 根据提示生成文本（单轮，同步）。
	Generate(ctx context.Context, prompt string, systemPrompt string) (*GenerateResponse, error)

	// Name 返回供应商名称。
	Name() string
}

// Provider 同时支持 Embedding 和生成的完整供应商。
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// GenerateResponse 生成结果。
type GenerateResponse struct {
	Content    string
	TokenUsage *TokenUsage
}

// TokenUsage token 用量，供应商不返回时为 nil。
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// EmbedderID 返回嵌入模型标识 "provider/model"，用于给向量索引打标签。
func EmbedderID(p EmbeddingProvider) string {
	return p.Name() + "/" + p.Model()
}

// CheckEmbeddings 校验批量嵌入结果：数量与输入一致且每个向量非空。
func CheckEmbeddings(n int, embeddings [][]float32) error {
	if len(embeddings) != n {
		return fmt.Errorf("expected %d embeddings, got %d", n, len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) == 0 {
			return fmt.Errorf("empty embedding at index %d", i)
		}
	}
	return nil
}
