package biz

import (
	"context"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// SystemPrompt 可选的系统提示。
	SystemPrompt string
}

// Generator 负责答案生成。
type Generator struct {
	chatProvider llm.ChatProvider
	config       *GeneratorConfig
}

// NewGenerator 创建生成器实例。
func NewGenerator(chatProvider llm.ChatProvider, config *GeneratorConfig) *Generator {
	if config == nil {
		config = &GeneratorConfig{}
	}
	return &Generator{
		chatProvider: chatProvider,
		config:       config,
	}
}

// Generate 单次调用语言模型，不重试。空回答返回 ErrEmptyAnswer。
func (g *Generator) Generate(ctx context.Context, prompt string) (*llm.GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.ErrProviderTimeout.WithCause(err)
	}

	resp, err := g.chatProvider.Generate(ctx, prompt, g.config.SystemPrompt)
	if err != nil {
		logger.Warnw("LLM generation failed", "provider", g.chatProvider.Name(), "error", err.Error())
		if ctx.Err() != nil {
			return nil, errors.ErrProviderTimeout.WithCause(err)
		}
		return nil, errors.ErrGenerationFailed.WithCause(err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, errors.ErrEmptyAnswer.WithMessagef("%s returned an empty answer", g.chatProvider.Name())
	}

	resp.Content = strings.TrimSpace(resp.Content)
	if resp.TokenUsage != nil {
		logger.Debugw("LLM answer generated", "length", len(resp.Content), "tokens", resp.TokenUsage.TotalTokens)
	} else {
		logger.Debugw("LLM answer generated", "length", len(resp.Content))
	}
	return resp, nil
}
