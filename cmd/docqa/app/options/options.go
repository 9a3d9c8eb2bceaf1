// Package options contains flags and options for initializing docqa.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/docqa/internal/docqa"
	cliflag "github.com/kart-io/docqa/pkg/app/cliflag"
	genericoptions "github.com/kart-io/docqa/pkg/options"
	cacheopts "github.com/kart-io/docqa/pkg/options/cache"
	docqaopts "github.com/kart-io/docqa/pkg/options/docqa"
	llmopts "github.com/kart-io/docqa/pkg/options/llm"
	logopts "github.com/kart-io/docqa/pkg/options/logger"
	grpcopts "github.com/kart-io/docqa/pkg/options/server/grpc"
	httpopts "github.com/kart-io/docqa/pkg/options/server/http"
	storeopts "github.com/kart-io/docqa/pkg/options/store"
	tracingopts "github.com/kart-io/docqa/pkg/options/tracing"
)

// ServerOptions contains the configuration options for docqa.
type ServerOptions struct {
	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// DocQAOptions contains chunking, retrieval and prompt configuration.
	DocQAOptions *docqaopts.Options `json:"docqa" mapstructure:"docqa"`

	// StoreOptions contains vector store configuration.
	StoreOptions *storeopts.Options `json:"store" mapstructure:"store"`

	// CacheOptions contains cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// GRPCOptions contains gRPC health server configuration.
	GRPCOptions *grpcopts.Options `json:"grpc" mapstructure:"grpc"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		DocQAOptions:     docqaopts.NewOptions(),
		StoreOptions:     storeopts.NewOptions(),
		CacheOptions:     cacheopts.NewOptions(),
		TracingOptions:   tracingopts.NewOptions(),
		HTTPOptions:      httpopts.NewOptions(),
		// gRPC 默认禁用（Addr 为空）
		GRPCOptions: grpcopts.NewOptions(),
	}
}

// Flags returns flags for docqa by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"))
	o.ChatOptions.AddFlags(fss.FlagSet("chat"))
	o.DocQAOptions.AddFlags(fss.FlagSet("docqa"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.GRPCOptions.AddFlags(fss.FlagSet("grpc"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.DocQAOptions.Complete(); err != nil {
		return fmt.Errorf("docqa: %w", err)
	}
	if err := o.StoreOptions.Complete(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := o.HTTPOptions.Complete(); err != nil {
		return err
	}
	return o.GRPCOptions.Complete()
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	return utilerrors.NewAggregate(genericoptions.ValidateAll(
		o.LogOptions,
		o.EmbeddingOptions,
		o.ChatOptions,
		o.DocQAOptions,
		o.StoreOptions,
		o.CacheOptions,
		o.TracingOptions,
		o.HTTPOptions,
		o.GRPCOptions,
	))
}

// Config builds a docqa.Config based on ServerOptions.
func (o *ServerOptions) Config() (*docqa.Config, error) {
	return &docqa.Config{
		LogOptions:       o.LogOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		DocQAOptions:     o.DocQAOptions,
		StoreOptions:     o.StoreOptions,
		CacheOptions:     o.CacheOptions,
		TracingOptions:   o.TracingOptions,
		HTTPOptions:      o.HTTPOptions,
		GRPCOptions:      o.GRPCOptions,
	}, nil
}
