// Package store provides vector store selection options.
package store

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
	milvusopts "github.com/kart-io/docqa/pkg/options/milvus"
	postgresopts "github.com/kart-io/docqa/pkg/options/postgres"
)

var _ options.IOptions = (*Options)(nil)

// 支持的向量存储类型。
const (
	TypeChromem  = "chromem"
	TypeMemory   = "memory"
	TypeMilvus   = "milvus"
	TypePGVector = "pgvector"
)

var supportedTypes = []string{TypeChromem, TypeMemory, TypeMilvus, TypePGVector}

// Options 向量存储配置。
type Options struct {
	// Type 存储类型。
	Type string `json:"type" mapstructure:"type"`

	// Path chromem 持久化目录，为空时仅保存在内存。
	Path string `json:"path" mapstructure:"path"`

	// Collection 集合（表）名称。
	Collection string `json:"collection" mapstructure:"collection"`

	// Compress chromem 持久化文件是否 gzip 压缩。
	Compress bool `json:"compress" mapstructure:"compress"`

	Milvus   *milvusopts.Options   `json:"milvus" mapstructure:"milvus"`
	Postgres *postgresopts.Options `json:"postgres" mapstructure:"postgres"`
}

// NewOptions 创建默认存储配置。
func NewOptions() *Options {
	return &Options{
		Type:       TypeChromem,
		Path:       "_output/docqa-index",
		Collection: "docqa_chunks",
		Milvus:     milvusopts.NewOptions(),
		Postgres:   postgresopts.NewOptions(),
	}
}

// AddFlags adds flags for store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Type, options.Join(prefixes...)+"store.type", o.Type, "Vector store type (chromem|memory|milvus|pgvector).")
	fs.StringVar(&o.Path, options.Join(prefixes...)+"store.path", o.Path, "Directory of the persistent chromem index. Empty keeps it in memory.")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"store.collection", o.Collection, "Collection or table name of the index.")
	fs.BoolVar(&o.Compress, options.Join(prefixes...)+"store.compress", o.Compress, "Gzip the persistent chromem files.")

	if o.Milvus == nil {
		o.Milvus = milvusopts.NewOptions()
	}
	if o.Postgres == nil {
		o.Postgres = postgresopts.NewOptions()
	}
	o.Milvus.AddFlags(fs, prefixes...)
	o.Postgres.AddFlags(fs, prefixes...)
}

// Validate validates the store options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if !slices.Contains(supportedTypes, o.Type) {
		errs = append(errs, fmt.Errorf("store.type must be one of %v, got %q", supportedTypes, o.Type))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("store.collection is required"))
	}

	// 只校验实际使用的后端
	switch o.Type {
	case TypeMilvus:
		errs = append(errs, o.Milvus.Validate()...)
	case TypePGVector:
		errs = append(errs, o.Postgres.Validate()...)
	}
	return errs
}

// Complete completes the store options with defaults.
func (o *Options) Complete() error {
	if o.Milvus == nil {
		o.Milvus = milvusopts.NewOptions()
	}
	if o.Postgres == nil {
		o.Postgres = postgresopts.NewOptions()
	}
	if err := o.Milvus.Complete(); err != nil {
		return err
	}
	return o.Postgres.Complete()
}
