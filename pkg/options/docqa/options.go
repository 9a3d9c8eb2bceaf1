// Package docqa provides question-answering pipeline configuration options.
package docqa

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// 模板占位符。
const (
	ContextPlaceholder = "{context}"
	InputPlaceholder   = "{input}"
)

// DefaultPromptTemplate 默认的问答提示模板。
const DefaultPromptTemplate = "Answer the following medical question in 2-3 lines maximum using only the information provided in the context.\n\n" +
	"Context:\n{context}\n\n" +
	"Question:\n{input}\n\n" +
	"Answer:\n"

// Options contains pipeline configuration.
type Options struct {
	// CorpusPath PDF 语料目录。
	CorpusPath string `json:"corpus-path" mapstructure:"corpus-path"`

	// Recursive 是否递归查找子目录。
	Recursive bool `json:"recursive" mapstructure:"recursive"`

	// ChunkSize 文本块最大字符数。
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap 相邻文本块重叠字符数。
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// TopK 检索返回的文本块数量。
	TopK int `json:"top-k" mapstructure:"top-k"`

	// BatchSize 每批嵌入的文本块数量。
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// Workers 并发解析 PDF 的文件数。
	Workers int `json:"workers" mapstructure:"workers"`

	// PromptTemplate 提示模板，必须包含 {context} 与 {input}。
	PromptTemplate string `json:"prompt-template" mapstructure:"prompt-template"`

	// SystemPrompt 可选的系统提示。
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`

	// ShortCircuitEmpty 检索无结果时直接返回固定回答，不调用模型。
	ShortCircuitEmpty bool `json:"short-circuit-empty" mapstructure:"short-circuit-empty"`

	// Timeout 单次问答的超时时间，0 表示不限制。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		CorpusPath:     "data",
		ChunkSize:      500,
		ChunkOverlap:   50,
		TopK:           1,
		BatchSize:      32,
		Workers:        1,
		PromptTemplate: DefaultPromptTemplate,
		Timeout:        2 * time.Minute,
	}
}

// AddFlags adds flags for pipeline options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "docqa."
	fs.StringVar(&o.CorpusPath, p+"corpus-path", o.CorpusPath, "Directory containing the PDF corpus.")
	fs.BoolVar(&o.Recursive, p+"recursive", o.Recursive, "Walk subdirectories of the corpus path.")
	fs.IntVar(&o.ChunkSize, p+"chunk-size", o.ChunkSize, "Maximum characters per chunk.")
	fs.IntVar(&o.ChunkOverlap, p+"chunk-overlap", o.ChunkOverlap, "Characters shared by consecutive chunks.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of chunks retrieved per question.")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Number of chunks embedded per request.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Number of PDF files parsed in parallel.")
	fs.StringVar(&o.PromptTemplate, p+"prompt-template", o.PromptTemplate, "Prompt template with {context} and {input} placeholders.")
	fs.StringVar(&o.SystemPrompt, p+"system-prompt", o.SystemPrompt, "Optional system prompt sent with every question.")
	fs.BoolVar(&o.ShortCircuitEmpty, p+"short-circuit-empty", o.ShortCircuitEmpty, "Answer without calling the model when retrieval finds nothing.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Deadline of a single question. 0 disables it.")
}

// Validate validates the pipeline options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("docqa.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("docqa.chunk-overlap must be in [0, chunk-size), got %d", o.ChunkOverlap))
	}
	if o.TopK < 0 {
		errs = append(errs, fmt.Errorf("docqa.top-k must not be negative"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("docqa.batch-size must be positive"))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("docqa.workers must be positive"))
	}
	if !strings.Contains(o.PromptTemplate, ContextPlaceholder) || !strings.Contains(o.PromptTemplate, InputPlaceholder) {
		errs = append(errs, fmt.Errorf("docqa.prompt-template must contain %s and %s", ContextPlaceholder, InputPlaceholder))
	}
	if o.Timeout < 0 {
		errs = append(errs, fmt.Errorf("docqa.timeout must not be negative"))
	}
	return errs
}

// Complete completes the pipeline options with defaults.
func (o *Options) Complete() error {
	if o.PromptTemplate == "" {
		o.PromptTemplate = DefaultPromptTemplate
	}
	if o.TopK == 0 {
		o.TopK = 1
	}
	return nil
}
