// Package langchain 通过 langchaingo 客户端接入 Ollama 或 OpenAI 兼容服务。
// 与 ollama、openai 包直接调用 HTTP API 不同，这里复用 langchaingo 的 SDK 层。
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/kart-io/docqa/pkg/llm"
)

// ProviderName 注册名称。
const ProviderName = "langchain"

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config langchaingo 供应商配置。
type Config struct {
	Backend    string `json:"backend" mapstructure:"backend"`
	BaseURL    string `json:"base_url" mapstructure:"base_url"`
	APIKey     string `json:"api_key" mapstructure:"api_key"`
	EmbedModel string `json:"embed_model" mapstructure:"embed_model"`
	ChatModel  string `json:"chat_model" mapstructure:"chat_model"`
}

// contentGenerator 是 llms.Model 中本包用到的部分。
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Provider langchaingo 供应商实现。
type Provider struct {
	config   *Config
	embedder embeddings.Embedder
	chat     contentGenerator
}

// NewProvider 从配置 map 创建供应商，backend 默认 ollama。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := &Config{Backend: BackendOllama}
	for key, dst := range map[string]*string{
		"backend":     &cfg.Backend,
		"base_url":    &cfg.BaseURL,
		"api_key":     &cfg.APIKey,
		"embed_model": &cfg.EmbedModel,
		"chat_model":  &cfg.ChatModel,
	} {
		if v, ok := configMap[key].(string); ok && v != "" {
			*dst = v
		}
	}
	return NewProviderWithConfig(cfg)
}

// NewProviderWithConfig 按 backend 构建 langchaingo 客户端。
func NewProviderWithConfig(cfg *Config) (*Provider, error) {
	switch cfg.Backend {
	case BackendOllama:
		return newOllama(cfg)
	case BackendOpenAI:
		return newOpenAI(cfg)
	default:
		return nil, fmt.Errorf("langchain: 不支持的 backend %q", cfg.Backend)
	}
}

func newOllama(cfg *Config) (*Provider, error) {
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "nomic-embed-text"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "llama3.2"
	}

	opts := func(model string) []lcollama.Option {
		o := []lcollama.Option{lcollama.WithModel(model)}
		if cfg.BaseURL != "" {
			o = append(o, lcollama.WithServerURL(cfg.BaseURL))
		}
		return o
	}

	embedLLM, err := lcollama.New(opts(cfg.EmbedModel)...)
	if err != nil {
		return nil, fmt.Errorf("langchain: 创建 ollama 嵌入客户端失败: %w", err)
	}
	chatLLM, err := lcollama.New(opts(cfg.ChatModel)...)
	if err != nil {
		return nil, fmt.Errorf("langchain: 创建 ollama 生成客户端失败: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(embedLLM)
	if err != nil {
		return nil, fmt.Errorf("langchain: 创建 embedder 失败: %w", err)
	}

	return &Provider{config: cfg, embedder: embedder, chat: chatLLM}, nil
}

func newOpenAI(cfg *Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("langchain: openai backend 需要 api_key")
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		lcopenai.WithModel(cfg.ChatModel),
		lcopenai.WithEmbeddingModel(cfg.EmbedModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain: 创建 openai 客户端失败: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("langchain: 创建 embedder 失败: %w", err)
	}

	return &Provider{config: cfg, embedder: embedder, chat: client}, nil
}

// Name 返回供应商名称，包含 backend 以区分嵌入空间。
func (p *Provider) Name() string {
	return ProviderName + "-" + p.config.Backend
}

// Model 返回嵌入模型名称。
func (p *Provider) Model() string {
	return p.config.EmbedModel
}

// Embed 为多个文本生成向量嵌入。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("langchain: 第 %d 个文本为空，无法生成向量", i)
		}
	}

	embs, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("langchain: %w", err)
	}
	if err := llm.CheckEmbeddings(len(texts), embs); err != nil {
		return nil, fmt.Errorf("langchain: %w", err)
	}
	return embs, nil
}

// EmbedSingle 为单个文本生成向量嵌入。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("langchain: 文本为空，无法生成向量")
	}
	emb, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("langchain: %w", err)
	}
	if len(emb) == 0 {
		return nil, fmt.Errorf("langchain: 未返回向量嵌入")
	}
	return emb, nil
}

// Generate 根据提示生成文本。
func (p *Provider) Generate(ctx context.Context, prompt string, systemPrompt string) (*llm.GenerateResponse, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := p.chat.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("langchain: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("langchain: 未返回响应内容")
	}

	choice := resp.Choices[0]
	return &llm.GenerateResponse{
		Content:    choice.Content,
		TokenUsage: usageFrom(choice.GenerationInfo),
	}, nil
}

// usageFrom 从 GenerationInfo 中提取 token 统计，缺失时返回 nil。
func usageFrom(info map[string]any) *llm.TokenUsage {
	prompt, ok1 := info["PromptTokens"].(int)
	completion, ok2 := info["CompletionTokens"].(int)
	if !ok1 && !ok2 {
		return nil
	}
	total, ok := info["TotalTokens"].(int)
	if !ok {
		total = prompt + completion
	}
	return &llm.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      total,
	}
}
