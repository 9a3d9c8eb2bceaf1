// Package milvus stores document chunks in a Milvus collection.
//
// 每个集合的字段固定：字符串主键、向量、来源文件、页码、块序号与文本。
// 主键由调用方给出，重复写入同一 ID 时覆盖。
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/docqa/pkg/options/milvus"
)

// 集合字段名。
const (
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldSource    = "source"
	FieldPage      = "page"
	FieldOrdinal   = "chunk_index"
	FieldContent   = "content"

	idMaxLen      = 64
	sourceMaxLen  = 1024
	contentMaxLen = 65535
)

var outputFields = []string{FieldSource, FieldPage, FieldOrdinal, FieldContent}

// Row 集合中的一行。
type Row struct {
	ID      string
	Vector  []float32
	Source  string
	Page    int64
	Ordinal int64
	Content string
}

// Match 检索命中的行，Vector 为空。Score 为余弦相似度，越大越相似。
type Match struct {
	Row
	Score float32
}

// CollectionInfo 描述已存在集合的元信息。
type CollectionInfo struct {
	Description string
	Dimension   int
}

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New connects to Milvus.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid milvus options: %v", errs)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", opts.Address, err)
	}
	return &Client{client: c, opts: opts}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HasCollection reports whether the collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	return exists, nil
}

// Describe 返回集合描述和向量维度。
func (c *Client) Describe(ctx context.Context, name string) (*CollectionInfo, error) {
	coll, err := c.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(name))
	if err != nil {
		return nil, fmt.Errorf("failed to describe collection %s: %w", name, err)
	}

	info := &CollectionInfo{}
	if coll.Schema == nil {
		return info, nil
	}
	info.Description = coll.Schema.Description
	for _, f := range coll.Schema.Fields {
		if f.Name == FieldEmbedding {
			info.Dimension, _ = strconv.Atoi(f.TypeParams["dim"])
		}
	}
	return info, nil
}

// CreateCollection 创建块集合并建索引、加载。集合已存在时不做任何事。
func (c *Client) CreateCollection(ctx context.Context, name, description string, dim int) error {
	exists, err := c.HasCollection(ctx, name)
	if err != nil || exists {
		return err
	}

	schema := entity.NewSchema().
		WithName(name).
		WithDescription(description).
		WithAutoID(false).
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(idMaxLen).WithIsPrimaryKey(true).WithIsAutoID(false)).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dim))).
		WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(sourceMaxLen)).
		WithField(entity.NewField().WithName(FieldPage).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldOrdinal).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldContent).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(contentMaxLen))

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	task, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldEmbedding, c.vectorIndex()))
	if err != nil {
		return fmt.Errorf("failed to create %s index: %w", c.opts.IndexType, err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}
	return c.load(ctx, name)
}

// vectorIndex 按配置创建向量索引，度量固定为 COSINE。
func (c *Client) vectorIndex() index.Index {
	switch c.opts.IndexType {
	case milvusopts.IndexHNSW:
		return index.NewHNSWIndex(entity.COSINE, c.opts.HNSWM, c.opts.HNSWEfConstruction)
	case milvusopts.IndexFlat:
		return index.NewFlatIndex(entity.COSINE)
	default:
		return index.NewIvfFlatIndex(entity.COSINE, c.opts.NList)
	}
}

func (c *Client) load(ctx context.Context, name string) error {
	task, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// Upsert 按主键写入并 flush，返回后即可检索。
func (c *Client) Upsert(ctx context.Context, name string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	n := len(rows)
	ids := make([]string, n)
	vectors := make([][]float32, n)
	sources := make([]string, n)
	pages := make([]int64, n)
	ordinals := make([]int64, n)
	contents := make([]string, n)
	for i, r := range rows {
		if len(r.Vector) != len(rows[0].Vector) {
			return fmt.Errorf("row %s has dimension %d, expected %d", r.ID, len(r.Vector), len(rows[0].Vector))
		}
		ids[i], vectors[i] = r.ID, r.Vector
		sources[i], pages[i], ordinals[i], contents[i] = r.Source, r.Page, r.Ordinal, r.Content
	}

	opt := milvusclient.NewColumnBasedInsertOption(name,
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnFloatVector(FieldEmbedding, len(vectors[0]), vectors),
		column.NewColumnVarChar(FieldSource, sources),
		column.NewColumnInt64(FieldPage, pages),
		column.NewColumnInt64(FieldOrdinal, ordinals),
		column.NewColumnVarChar(FieldContent, contents),
	)
	if _, err := c.client.Upsert(ctx, opt); err != nil {
		return fmt.Errorf("failed to upsert %d rows: %w", n, err)
	}

	task, err := c.client.Flush(ctx, milvusclient.NewFlushOption(name))
	if err != nil {
		return fmt.Errorf("failed to flush collection %s: %w", name, err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}
	return nil
}

// Search 返回与 vector 最相似的至多 topK 行。
func (c *Client) Search(ctx context.Context, name string, vector []float32, topK int) ([]Match, error) {
	if err := c.load(ctx, name); err != nil {
		return nil, err
	}

	key, value := c.searchParam()
	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(name, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldEmbedding).
		WithSearchParam(key, value).
		WithOutputFields(outputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", name, err)
	}
	if len(results) == 0 {
		return []Match{}, nil
	}

	rs := results[0]
	matches := make([]Match, rs.ResultCount)
	for i := range matches {
		matches[i].Score = rs.Scores[i]
		if ids, ok := rs.IDs.(*column.ColumnVarChar); ok {
			matches[i].ID = ids.Data()[i]
		}
	}
	for _, field := range rs.Fields {
		switch col := field.(type) {
		case *column.ColumnVarChar:
			for i := range matches {
				switch col.Name() {
				case FieldSource:
					matches[i].Source = col.Data()[i]
				case FieldContent:
					matches[i].Content = col.Data()[i]
				}
			}
		case *column.ColumnInt64:
			for i := range matches {
				switch col.Name() {
				case FieldPage:
					matches[i].Page = col.Data()[i]
				case FieldOrdinal:
					matches[i].Ordinal = col.Data()[i]
				}
			}
		}
	}
	return matches, nil
}

// searchParam HNSW 使用 ef，IVF 使用 nprobe。
func (c *Client) searchParam() (string, string) {
	if c.opts.IndexType == milvusopts.IndexHNSW {
		return "ef", strconv.Itoa(c.opts.HNSWEf)
	}
	return "nprobe", strconv.Itoa(c.opts.NProbe)
}

// DropCollection drops a collection.
func (c *Client) DropCollection(ctx context.Context, name string) error {
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(name)); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", name, err)
	}
	return nil
}

// Count returns the number of rows in a collection.
func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(name))
	if err != nil {
		return 0, fmt.Errorf("failed to get stats of %s: %w", name, err)
	}
	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}
