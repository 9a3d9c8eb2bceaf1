package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kart-io/docqa/pkg/llm"
)

func TestNewProvider(t *testing.T) {
	provider, err := llm.NewEmbeddingProvider(ProviderName, map[string]any{
		"base_url":    "http://ollama:11434",
		"embed_model": "mxbai-embed-large",
	})
	if err != nil {
		t.Fatalf("NewEmbeddingProvider failed: %v", err)
	}
	if got := llm.EmbedderID(provider); got != "ollama/mxbai-embed-large" {
		t.Errorf("expected embedder id ollama/mxbai-embed-large, got %s", got)
	}
}

func TestProviderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("expected path /api/embed, got %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("expected model nomic-embed-text, got %s", req.Model)
		}

		resp := embedResponse{Model: req.Model}
		for range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{0.1, 0.2, 0.3})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	provider := NewProviderWithConfig(cfg)

	embeddings, err := provider.Embed(context.Background(), []string{"aspirin", "fever"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(embeddings) != 2 || len(embeddings[1]) != 3 {
		t.Errorf("unexpected embeddings: %v", embeddings)
	}
}

func TestProviderEmbed_Failures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// 模型返回的向量数量少于输入
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	provider := NewProviderWithConfig(cfg)

	if _, err := provider.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when embedding count mismatches")
	}

	before := atomic.LoadInt32(&calls)
	if _, err := provider.EmbedSingle(context.Background(), "   "); err == nil {
		t.Error("expected error for blank text")
	}
	if atomic.LoadInt32(&calls) != before {
		t.Error("blank text must not reach the server")
	}
}

func TestProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected path /api/generate, got %s", r.URL.Path)
		}
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("expected non-streaming request")
		}
		_ = json.NewEncoder(w).Encode(generateResponse{
			Response:        "Aspirin reduces fever.",
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       5,
		})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	provider := NewProviderWithConfig(cfg)

	resp, err := provider.Generate(context.Background(), "What does aspirin do?", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != "Aspirin reduces fever." {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if resp.TokenUsage.TotalTokens != 17 {
		t.Errorf("expected 17 total tokens, got %d", resp.TokenUsage.TotalTokens)
	}
}

func TestProviderGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL

	if _, err := NewProviderWithConfig(cfg).Generate(context.Background(), "q", ""); err == nil {
		t.Error("expected error for 404 response")
	}
}
