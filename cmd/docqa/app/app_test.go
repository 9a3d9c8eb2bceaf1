package app

import (
	"bytes"
	"context"
	"hash/fnv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/cmd/docqa/app/options"
	"github.com/kart-io/docqa/internal/docqa"
	"github.com/kart-io/docqa/internal/pkg/testutil"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

type wordEmbedder struct{}

func (wordEmbedder) vector(text string) []float32 {
	vec := make([]float32, 32)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) }) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%32]++
	}
	return vec
}

func (e wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e wordEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (wordEmbedder) Name() string  { return "fake" }
func (wordEmbedder) Model() string { return "words" }

type cannedChat struct{ answer string }

func (c cannedChat) Generate(context.Context, string, string) (*llm.GenerateResponse, error) {
	return &llm.GenerateResponse{Content: c.answer}, nil
}

func (cannedChat) Name() string { return "canned" }

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(options.NewServerOptions(), func(cfg *docqa.Config) {
		cfg.EmbeddingProvider = wordEmbedder{}
		cfg.ChatProvider = cannedChat{answer: "Aspirin reduces fever."}
	}, &out)
	a.Command().SetArgs(args)
	err := a.Execute(context.Background())
	return out.String(), err
}

func TestApp_IngestThenAsk(t *testing.T) {
	corpus := t.TempDir()
	testutil.WritePDF(t, corpus, "aspirin.pdf", "Aspirin reduces fever and inflammation.")
	index := "--store.path=" + t.TempDir()

	out, err := execute(t, "ask", "What does aspirin do?", index)
	require.Error(t, err)
	assert.Equal(t, errors.KindNoContext, errors.KindOf(err))
	assert.Empty(t, out)

	out, err = execute(t, "ingest", corpus, "--reset", index)
	require.NoError(t, err)
	assert.Contains(t, out, "1 indexed / 1 total")
	assert.Contains(t, out, "fake/words")

	out, err = execute(t, "ask", "What does aspirin do?", index)
	require.NoError(t, err)
	assert.Contains(t, out, "Aspirin reduces fever.")
	assert.Contains(t, out, "aspirin.pdf p.1")

	out, err = execute(t, "stats", index)
	require.NoError(t, err)
	assert.Contains(t, out, "Chunks:    1")
}

func TestApp_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind errors.Kind
	}{
		{
			name: "重叠不小于块大小",
			args: []string{"ingest", "--docqa.chunk-size=10", "--docqa.chunk-overlap=10"},
			kind: errors.KindConfig,
		},
		{
			name: "语料目录不存在",
			args: []string{"ingest", "/nonexistent/docqa-corpus", "--store.type=memory"},
			kind: errors.KindInput,
		},
		{
			name: "空问题",
			args: []string{"ask", "   ", "--store.type=memory"},
			kind: errors.KindInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err))
		})
	}
}

func TestApp_AskRequiresQuestion(t *testing.T) {
	_, err := execute(t, "ask")
	assert.Error(t, err)
}
