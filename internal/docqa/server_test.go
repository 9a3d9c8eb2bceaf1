package docqa

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/internal/pkg/testutil"
	"github.com/kart-io/docqa/pkg/llm"
	cacheopts "github.com/kart-io/docqa/pkg/options/cache"
	docqaopts "github.com/kart-io/docqa/pkg/options/docqa"
	llmopts "github.com/kart-io/docqa/pkg/options/llm"
	logopts "github.com/kart-io/docqa/pkg/options/logger"
	grpcopts "github.com/kart-io/docqa/pkg/options/server/grpc"
	httpopts "github.com/kart-io/docqa/pkg/options/server/http"
	storeopts "github.com/kart-io/docqa/pkg/options/store"
	tracingopts "github.com/kart-io/docqa/pkg/options/tracing"
	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/response"
)

type bowEmbedder struct{}

func (bowEmbedder) vector(text string) []float32 {
	vec := make([]float32, 64)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) }) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%64]++
	}
	return vec
}

func (e bowEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e bowEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (bowEmbedder) Name() string  { return "fake" }
func (bowEmbedder) Model() string { return "bow" }

type echoChat struct{}

func (echoChat) Generate(_ context.Context, prompt, _ string) (*llm.GenerateResponse, error) {
	return &llm.GenerateResponse{Content: "Aspirin reduces fever. (" + prompt[:10] + ")"}, nil
}

func (echoChat) Name() string { return "echo" }

func testConfig(t *testing.T) *Config {
	t.Helper()

	storeOpts := storeopts.NewOptions()
	storeOpts.Type = storeopts.TypeMemory

	docqaOpts := docqaopts.NewOptions()
	docqaOpts.CorpusPath = t.TempDir()

	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = "127.0.0.1:0"
	httpOpts.Mode = gin.TestMode
	httpOpts.ShutdownTimeout = 5 * time.Second

	grpcOpts := grpcopts.NewOptions()
	grpcOpts.Addr = "127.0.0.1:0"

	return &Config{
		LogOptions:        logopts.NewOptions(),
		EmbeddingOptions:  llmopts.NewEmbeddingOptions(),
		ChatOptions:       llmopts.NewChatOptions(),
		DocQAOptions:      docqaOpts,
		StoreOptions:      storeOpts,
		CacheOptions:      cacheopts.NewOptions(),
		TracingOptions:    tracingopts.NewOptions(),
		HTTPOptions:       httpOpts,
		GRPCOptions:       grpcOpts,
		EmbeddingProvider: bowEmbedder{},
		ChatProvider:      echoChat{},
	}
}

func post(t *testing.T, url, body string) (int, response.Response) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRuntime_IngestAndAsk(t *testing.T) {
	cfg := testConfig(t)
	testutil.WritePDF(t, cfg.DocQAOptions.CorpusPath, "aspirin.pdf", "Aspirin reduces fever and inflammation.")

	rt, err := cfg.NewRuntime(context.Background(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	_, err = rt.Pipeline.Ask(context.Background(), "What does aspirin do?")
	require.Error(t, err)
	assert.Equal(t, errors.KindNoContext, errors.KindOf(err))

	report, err := rt.Pipeline.Ingest(context.Background(), cfg.DocQAOptions.CorpusPath)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)

	answer, err := rt.Pipeline.Ask(context.Background(), "What does aspirin do?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Contains(t, answer.Sources[0].Text, "Aspirin reduces fever")
}

func TestNewRuntime_InvalidChunkParams(t *testing.T) {
	cfg := testConfig(t)
	cfg.DocQAOptions.ChunkOverlap = cfg.DocQAOptions.ChunkSize

	_, err := cfg.NewRuntime(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestNewRuntime_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChatProvider = nil
	cfg.ChatOptions.Provider = "no-such-provider"

	_, err := cfg.NewRuntime(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsProviderError(err))
}

func TestServer_Run(t *testing.T) {
	cfg := testConfig(t)
	testutil.WritePDF(t, cfg.DocQAOptions.CorpusPath, "aspirin.pdf", "Aspirin reduces fever and inflammation.")

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	base := ""
	require.Eventually(t, func() bool {
		addr := s.HTTPServer().Addr()
		if addr == cfg.HTTPOptions.Addr {
			return false
		}
		base = "http://" + addr
		return true
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	status, body := post(t, base+"/v1/ask", `{"question":"What does aspirin do?"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(errors.KindNoContext), body.Kind)

	status, _ = post(t, base+"/v1/ingest", `{}`)
	require.Equal(t, http.StatusOK, status)

	status, body = post(t, base+"/v1/ask", `{"question":"What does aspirin do?"}`)
	require.Equal(t, http.StatusOK, status)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["answer"])

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	var metricsBody bytes.Buffer
	_, _ = metricsBody.ReadFrom(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, metricsBody.String(), "docqa_http_requests_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
