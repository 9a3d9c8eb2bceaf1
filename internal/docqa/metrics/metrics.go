// Package metrics 提供问答流水线的业务指标收集。
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kart-io/docqa/pkg/utils/errors"
)

const namespace = "docqa"

// 查询结果标签。
const (
	OutcomeSuccess   = "success"
	OutcomeNoContext = "no_context"
	OutcomeCacheHit  = "cache_hit"
	OutcomeError     = "error"
)

// Metrics 问答流水线业务指标。
type Metrics struct {
	registry *prometheus.Registry

	asks              *prometheus.CounterVec
	retrievalDuration prometheus.Histogram
	llmDuration       prometheus.Histogram
	llmTokens         *prometheus.CounterVec
	ingestRuns        *prometheus.CounterVec
	chunksIndexed     prometheus.Counter
	chunksSkipped     prometheus.Counter
	documentsLoaded   prometheus.Counter

	// 供 /v1/stats 使用的快照
	asksTotal   uint64
	asksErrors  uint64
	cacheHits   uint64
	noContext   uint64
	llmCalls    uint64
	indexedSum  uint64
	skippedSum  uint64
	ingestTotal uint64
	startTime   time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Get 获取全局指标实例。
func Get() *Metrics {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New 创建使用独立 Registry 的指标实例。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		asks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Total number of questions answered, by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		retrievalDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval latency including the question embedding.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		llmDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_duration_seconds",
			Help:      "Language model call latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens reported by the language model provider.",
		}, []string{"type"}),
		ingestRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Total number of ingestion runs, by result.",
		}, []string{"result"}),
		chunksIndexed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_indexed_total",
			Help:      "Chunks written to the vector store.",
		}),
		chunksSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_skipped_total",
			Help:      "Chunks skipped during indexing.",
		}),
		documentsLoaded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "PDF pages loaded as documents.",
		}),
		startTime: time.Now(),
	}
}

// Registry 返回指标注册表，用于 /metrics。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAsk 记录一次问答结果。
func (m *Metrics) RecordAsk(outcome string, err error) {
	atomic.AddUint64(&m.asksTotal, 1)
	kind := ""
	if err != nil {
		outcome = OutcomeError
		kind = string(errors.KindOf(err))
		atomic.AddUint64(&m.asksErrors, 1)
	}
	switch outcome {
	case OutcomeCacheHit:
		atomic.AddUint64(&m.cacheHits, 1)
	case OutcomeNoContext:
		atomic.AddUint64(&m.noContext, 1)
	}
	m.asks.WithLabelValues(outcome, kind).Inc()
}

// RecordRetrieval 记录检索耗时。
func (m *Metrics) RecordRetrieval(d time.Duration) {
	m.retrievalDuration.Observe(d.Seconds())
}

// RecordLLMCall 记录语言模型调用。
func (m *Metrics) RecordLLMCall(d time.Duration, promptTokens, completionTokens int) {
	atomic.AddUint64(&m.llmCalls, 1)
	m.llmDuration.Observe(d.Seconds())
	if promptTokens > 0 {
		m.llmTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokens.WithLabelValues("completion").Add(float64(completionTokens))
	}
}

// RecordIngest 记录一次摄取。
func (m *Metrics) RecordIngest(documents, indexed, skipped int, err error) {
	atomic.AddUint64(&m.ingestTotal, 1)
	result := "success"
	switch {
	case err != nil:
		result = "failed"
	case skipped > 0:
		result = "partial"
	}
	m.ingestRuns.WithLabelValues(result).Inc()

	m.documentsLoaded.Add(float64(documents))
	m.chunksIndexed.Add(float64(indexed))
	m.chunksSkipped.Add(float64(skipped))
	atomic.AddUint64(&m.indexedSum, uint64(indexed))
	atomic.AddUint64(&m.skippedSum, uint64(skipped))
}

// Stats 返回当前统计信息（用于 API）。
func (m *Metrics) Stats() map[string]any {
	return map[string]any{
		"asks": map[string]any{
			"total":      atomic.LoadUint64(&m.asksTotal),
			"errors":     atomic.LoadUint64(&m.asksErrors),
			"cache_hits": atomic.LoadUint64(&m.cacheHits),
			"no_context": atomic.LoadUint64(&m.noContext),
			"llm_calls":  atomic.LoadUint64(&m.llmCalls),
		},
		"ingest": map[string]any{
			"runs":           atomic.LoadUint64(&m.ingestTotal),
			"chunks_indexed": atomic.LoadUint64(&m.indexedSum),
			"chunks_skipped": atomic.LoadUint64(&m.skippedSum),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}
