package biz

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/llm"
)

// fakeEmbedder 按词袋哈希生成确定性向量。
type fakeEmbedder struct {
	model string
	dim   int
	// failOn 包含该子串的文本嵌入失败
	failOn string
	// down 模拟供应商不可用
	down bool

	mu          sync.Mutex
	batchCalls  int
	singleCalls int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{model: "bow-v1", dim: 256}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	vec := make([]float32, f.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(f.dim)]++
	}
	return vec
}

func (f *fakeEmbedder) fails(text string) bool {
	return f.failOn != "" && strings.Contains(text, f.failOn)
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()

	if f.down {
		return nil, fmt.Errorf("connection refused")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.fails(t) {
			return nil, fmt.Errorf("input %d rejected", i)
		}
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.singleCalls++
	f.mu.Unlock()

	if f.down {
		return nil, fmt.Errorf("connection refused")
	}
	if f.fails(text) {
		return nil, fmt.Errorf("input rejected")
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) Name() string  { return "fake" }
func (f *fakeEmbedder) Model() string { return f.model }

func (f *fakeEmbedder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls + f.singleCalls
}

// fakeChat 记录提示并返回固定回答。
type fakeChat struct {
	answer string
	err    error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeChat) Generate(ctx context.Context, prompt, _ string) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{
		Content:    f.answer,
		TokenUsage: &llm.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeChat) Name() string { return "fake-chat" }

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeChat) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeLoader 返回预置文档。
type fakeLoader struct {
	docs []model.Document
	err  error
}

func (f *fakeLoader) Load(_ context.Context, _ string) ([]model.Document, error) {
	return f.docs, f.err
}

var (
	_ llm.EmbeddingProvider = (*fakeEmbedder)(nil)
	_ llm.ChatProvider      = (*fakeChat)(nil)
)
