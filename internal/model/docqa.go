// Package model provides data models for the docqa pipeline.
package model

import (
	"time"
)

// Document 表示从 PDF 中提取的一页文本。
type Document struct {
	// Text 页面纯文本。
	Text string `json:"text"`
	// Source 来源文件路径。
	Source string `json:"source"`
	// Page 页码，从 1 开始。
	Page int `json:"page"`
}

// Chunk 表示可检索的文本块。
type Chunk struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`
	// Index 块在所属文档中的序号。
	Index int `json:"index"`
}

// Source 表示答案引用的检索来源。
type Source struct {
	ChunkID string  `json:"chunk_id"`
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Score   float32 `json:"score"`
	Text    string  `json:"text,omitempty"`
}

// Answer 表示一次问答的结果。
type Answer struct {
	Question string   `json:"question"`
	Text     string   `json:"answer"`
	Sources  []Source `json:"sources"`
	// NoContext 为 true 表示检索未命中任何文本块，模型在空上下文下作答。
	NoContext bool          `json:"no_context"`
	Duration  time.Duration `json:"duration"`
}

// SkippedChunk 记录索引阶段被跳过的文本块及原因。
type SkippedChunk struct {
	ChunkID string `json:"chunk_id"`
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Reason  string `json:"reason"`
}

// IndexReport 汇总一次摄取的结果。
type IndexReport struct {
	RunID     string         `json:"run_id"`
	Documents int            `json:"documents"`
	Chunks    int            `json:"chunks"`
	Indexed   int            `json:"indexed"`
	Skipped   []SkippedChunk `json:"skipped,omitempty"`
	Embedder  string         `json:"embedder"`
	Duration  time.Duration  `json:"duration"`
}

// Partial 报告是否只有部分文本块写入成功。
func (r *IndexReport) Partial() bool {
	return r.Indexed > 0 && r.Indexed < r.Chunks
}

// StoreStats 描述向量索引的当前状态。
type StoreStats struct {
	Type      string `json:"type"`
	Embedder  string `json:"embedder"`
	Dimension int    `json:"dimension"`
	Empty     bool   `json:"empty"`
	Count     int64  `json:"count"`
}
