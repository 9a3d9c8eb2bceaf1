// Package milvusopts provides options for the Milvus vector store.
package milvusopts

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// 支持的向量索引类型。
const (
	IndexIVFFlat = "ivf_flat"
	IndexHNSW    = "hnsw"
	IndexFlat    = "flat"
)

var indexTypes = []string{IndexIVFFlat, IndexHNSW, IndexFlat}

// Options contains Milvus client and index configuration.
type Options struct {
	// Address is the Milvus server address (host:port).
	Address string `json:"address" mapstructure:"address"`

	// Database is the database name to use.
	Database string `json:"database" mapstructure:"database"`

	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`

	// Timeout 连接超时。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// IndexType 新建集合时使用的向量索引，已有集合不受影响。
	IndexType string `json:"index-type" mapstructure:"index-type"`

	// NList IVF_FLAT 的聚类数。
	NList int `json:"nlist" mapstructure:"nlist"`

	// NProbe IVF_FLAT 检索时探测的聚类数。
	NProbe int `json:"nprobe" mapstructure:"nprobe"`

	HNSWM              int `json:"hnsw-m" mapstructure:"hnsw-m"`
	HNSWEfConstruction int `json:"hnsw-ef-construction" mapstructure:"hnsw-ef-construction"`
	// HNSWEf 检索时的候选集大小，不能小于 top-k。
	HNSWEf int `json:"hnsw-ef" mapstructure:"hnsw-ef"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Address:            "localhost:19530",
		Database:           "default",
		Timeout:            30 * time.Second,
		IndexType:          IndexIVFFlat,
		NList:              128,
		NProbe:             16,
		HNSWM:              16,
		HNSWEfConstruction: 200,
		HNSWEf:             64,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "milvus."
	fs.StringVar(&o.Address, p+"address", o.Address, "Milvus server address (host:port).")
	fs.StringVar(&o.Database, p+"database", o.Database, "Milvus database name.")
	fs.StringVar(&o.Username, p+"username", o.Username, "Milvus username.")
	fs.StringVar(&o.Password, p+"password", o.Password, "Milvus password (or MILVUS_PASSWORD).")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Connection timeout.")
	fs.StringVar(&o.IndexType, p+"index-type", o.IndexType, "Vector index of new collections (ivf_flat|hnsw|flat).")
	fs.IntVar(&o.NList, p+"nlist", o.NList, "IVF_FLAT cluster count.")
	fs.IntVar(&o.NProbe, p+"nprobe", o.NProbe, "Number of IVF clusters probed per search.")
	fs.IntVar(&o.HNSWM, p+"hnsw-m", o.HNSWM, "HNSW maximum degree.")
	fs.IntVar(&o.HNSWEfConstruction, p+"hnsw-ef-construction", o.HNSWEfConstruction, "HNSW build candidate list size.")
	fs.IntVar(&o.HNSWEf, p+"hnsw-ef", o.HNSWEf, "HNSW search candidate list size.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Address == "" {
		errs = append(errs, fmt.Errorf("milvus.address is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("milvus.timeout must be positive"))
	}
	if !slices.Contains(indexTypes, o.IndexType) {
		errs = append(errs, fmt.Errorf("milvus.index-type must be one of %v, got %q", indexTypes, o.IndexType))
	}

	switch o.IndexType {
	case IndexIVFFlat:
		if o.NList <= 0 || o.NProbe <= 0 {
			errs = append(errs, fmt.Errorf("milvus.nlist and milvus.nprobe must be positive"))
		} else if o.NProbe > o.NList {
			errs = append(errs, fmt.Errorf("milvus.nprobe (%d) must not exceed milvus.nlist (%d)", o.NProbe, o.NList))
		}
	case IndexHNSW:
		if o.HNSWM <= 0 || o.HNSWEfConstruction <= 0 || o.HNSWEf <= 0 {
			errs = append(errs, fmt.Errorf("milvus hnsw parameters must be positive"))
		}
	}
	return errs
}

// Complete 从环境变量补全密码。
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("MILVUS_PASSWORD")
	}
	return nil
}
