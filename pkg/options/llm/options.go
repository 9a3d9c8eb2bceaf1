// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

const (
	defaultOllamaURL = "http://localhost:11434"
	defaultOpenAIURL = "https://api.openai.com/v1"
)

// ProviderOptions 定义 LLM 供应商配置。
// 嵌入模型与语言模型各持有一份，分别挂在 embedding.* 与 chat.* 下。
type ProviderOptions struct {
	// Provider 供应商名称（ollama, openai, langchain）。
	Provider string `json:"provider" mapstructure:"provider"`

	// Backend langchain 供应商使用的后端（ollama, openai）。
	Backend string `json:"backend" mapstructure:"backend"`

	// BaseURL API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥（OpenAI 等需要）。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数，默认 0 即不重试。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	section string
}

func newProviderOptions(section string) *ProviderOptions {
	return &ProviderOptions{
		Provider: "ollama",
		Backend:  "ollama",
		BaseURL:  defaultOllamaURL,
		Timeout:  120 * time.Second,
		section:  section,
	}
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	opts := newProviderOptions("embedding")
	opts.Model = "nomic-embed-text"
	return opts
}

// NewChatOptions 创建默认 Chat 供应商配置。
func NewChatOptions() *ProviderOptions {
	opts := newProviderOptions("chat")
	opts.Model = "llama3.2"
	return opts
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"backend":      o.Backend,
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + o.section + "."
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Provider name (ollama, openai, langchain).")
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Backend of the langchain provider (ollama, openai).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Provider API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "Provider API key.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Maximum number of retries. 0 disables retrying.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "Organization ID (optional).")
}

// usesOpenAI 直接或经 langchain 调用 OpenAI 兼容接口。
func (o *ProviderOptions) usesOpenAI() bool {
	return o.Provider == "openai" || (o.Provider == "langchain" && o.Backend == "openai")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("%s.provider is required", o.section))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("%s.model is required", o.section))
	}
	if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s.base-url %q is not an absolute URL", o.section, o.BaseURL))
	}
	if o.usesOpenAI() && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s.api-key is required for openai (or set OPENAI_API_KEY)", o.section))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must be positive", o.section))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s.max-retries must not be negative", o.section))
	}
	return errs
}

// Complete 补全后端与 OpenAI 的默认地址和密钥。
func (o *ProviderOptions) Complete() error {
	if o.Backend == "" {
		o.Backend = "ollama"
	}
	if !o.usesOpenAI() {
		return nil
	}
	if o.BaseURL == "" || o.BaseURL == defaultOllamaURL {
		o.BaseURL = defaultOpenAIURL
	}
	if o.APIKey == "" {
		o.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return nil
}
