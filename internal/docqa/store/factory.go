package store

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/component/milvus"
	"github.com/kart-io/docqa/pkg/component/postgres"
	storeopts "github.com/kart-io/docqa/pkg/options/store"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// Open 按配置打开向量索引并校验嵌入模型标识。
// reset 为 true 时先清空索引，再绑定到 embedder。
func Open(ctx context.Context, opts *storeopts.Options, embedder string, reset bool) (VectorStore, error) {
	if opts == nil {
		opts = storeopts.NewOptions()
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, errors.ErrInvalidConfig.WithMessagef("invalid store options: %v", errs)
	}

	s, err := newStore(ctx, opts, embedder)
	if err != nil {
		return nil, err
	}

	if reset {
		if err := s.Reset(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
	}

	if err := CheckIdentity(s.Identity(), embedder); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	logger.Infow("Vector store ready",
		"type", opts.Type,
		"collection", opts.Collection,
		"embedder", embedder,
		"reset", reset,
	)
	return s, nil
}

func newStore(ctx context.Context, opts *storeopts.Options, embedder string) (VectorStore, error) {
	switch opts.Type {
	case storeopts.TypeMemory:
		return NewMemoryStore(embedder), nil
	case storeopts.TypeChromem:
		return NewChromemStore(opts.Path, opts.Collection, embedder, opts.Compress)
	case storeopts.TypeMilvus:
		client, err := milvus.New(ctx, opts.Milvus)
		if err != nil {
			return nil, errors.ErrStoreUnavailable.WithCause(err)
		}
		s, err := NewMilvusStore(ctx, client, opts.Collection, embedder)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		return s, nil
	case storeopts.TypePGVector:
		client, err := postgres.New(ctx, opts.Postgres)
		if err != nil {
			return nil, errors.ErrStoreUnavailable.WithCause(err)
		}
		s, err := NewPGVectorStore(ctx, client, opts.Collection, embedder)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported store type: %s", opts.Type))
	}
}

// Stats 汇总索引状态。
func Stats(ctx context.Context, s VectorStore, storeType string) (*model.StoreStats, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	id := s.Identity()
	return &model.StoreStats{
		Type:      storeType,
		Embedder:  id.Embedder,
		Dimension: id.Dimension,
		Empty:     n == 0,
		Count:     n,
	}, nil
}
