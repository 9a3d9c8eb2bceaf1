package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testAPIKey = "test-key"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("expected BaseURL https://api.openai.com/v1, got %s", cfg.BaseURL)
	}
	if cfg.EmbedModel != "text-embedding-3-small" {
		t.Errorf("expected EmbedModel text-embedding-3-small, got %s", cfg.EmbedModel)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("expected Timeout 120s, got %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("expected no retries by default, got %d", cfg.MaxRetries)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		config    map[string]any
		wantModel string
		wantError bool
	}{
		{
			name:      "valid config",
			config:    map[string]any{"api_key": testAPIKey},
			wantModel: "text-embedding-3-small",
		},
		{
			name: "custom config",
			config: map[string]any{
				"api_key":      testAPIKey,
				"base_url":     "http://localhost:8000/v1/",
				"embed_model":  "text-embedding-3-large",
				"chat_model":   "gpt-4o",
				"organization": "org-123",
			},
			wantModel: "text-embedding-3-large",
		},
		{
			name:      "missing api_key",
			config:    map[string]any{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider.Name() != ProviderName {
				t.Errorf("expected provider name %s, got %s", ProviderName, provider.Name())
			}
			if provider.Model() != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, provider.Model())
			}
		})
	}
}

func newTestProvider(url string) *Provider {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.APIKey = testAPIKey
	return NewProviderWithConfig(cfg)
}

func TestProviderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected path /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("expected Authorization Bearer test-key")
		}

		// 乱序返回，验证按 index 归位
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{
				{Embedding: []float32{0.4, 0.5, 0.6}, Index: 1},
				{Embedding: []float32{0.1, 0.2, 0.3}, Index: 0},
			},
		})
	}))
	defer server.Close()

	embeddings, err := newTestProvider(server.URL).Embed(context.Background(), []string{"text1", "text2"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if embeddings[0][0] != 0.1 || embeddings[1][0] != 0.4 {
		t.Errorf("embeddings not ordered by index: %v", embeddings)
	}
}

func TestProviderEmbed_MissingVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: []float32{0.1}, Index: 0}},
		})
	}))
	defer server.Close()

	if _, err := newTestProvider(server.URL).Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when a vector is missing")
	}
	if _, err := newTestProvider(server.URL).EmbedSingle(context.Background(), ""); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected path /chat/completions, got %s", r.URL.Path)
		}
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("expected a single user message, got %+v", req.Messages)
		}

		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"It reduces fever."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}
		}`))
	}))
	defer server.Close()

	resp, err := newTestProvider(server.URL).Generate(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != "It reduces fever." {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.TokenUsage.TotalTokens != 14 {
		t.Errorf("expected 14 tokens, got %d", resp.TokenUsage.TotalTokens)
	}
}

func TestProviderGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"quota"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			if _, err := newTestProvider(server.URL).Generate(context.Background(), "p", ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}
