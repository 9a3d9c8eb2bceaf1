package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/utils/errors"
)

func TestGet_Singleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestRecordAsk(t *testing.T) {
	m := New()

	m.RecordAsk(OutcomeSuccess, nil)
	m.RecordAsk(OutcomeCacheHit, nil)
	m.RecordAsk(OutcomeNoContext, nil)
	m.RecordAsk(OutcomeSuccess, errors.ErrGenerationFailed.WithCause(fmt.Errorf("boom")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.asks.WithLabelValues(OutcomeSuccess, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.asks.WithLabelValues(OutcomeError, string(errors.KindProvider))))

	stats := m.Stats()["asks"].(map[string]any)
	assert.Equal(t, uint64(4), stats["total"])
	assert.Equal(t, uint64(1), stats["errors"])
	assert.Equal(t, uint64(1), stats["cache_hits"])
	assert.Equal(t, uint64(1), stats["no_context"])
}

func TestRecordIngest(t *testing.T) {
	m := New()

	m.RecordIngest(3, 10, 0, nil)
	m.RecordIngest(1, 4, 2, nil)
	m.RecordIngest(0, 0, 0, errors.ErrNoDocuments)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestRuns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestRuns.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestRuns.WithLabelValues("failed")))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.chunksIndexed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chunksSkipped))
}

func TestRegistryGather(t *testing.T) {
	m := New()
	m.RecordRetrieval(20 * time.Millisecond)
	m.RecordLLMCall(time.Second, 100, 20)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["docqa_retrieval_duration_seconds"])
	assert.True(t, names["docqa_llm_duration_seconds"])
	assert.True(t, names["docqa_llm_tokens_total"])
	assert.Equal(t, 100.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("prompt")))
}
