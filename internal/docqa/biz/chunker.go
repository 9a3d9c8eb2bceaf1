package biz

import (
	"strconv"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/internal/pkg/textutil"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// Chunker 按 Unicode 字符滑动窗口切分文档。
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker 创建切分器。参数非法时返回 ErrInvalidChunkParams。
func NewChunker(maxSize, overlap int) (*Chunker, error) {
	switch {
	case maxSize <= 0:
		return nil, errors.ErrInvalidChunkParams.WithMessagef("chunk size must be positive, got %d", maxSize)
	case overlap < 0:
		return nil, errors.ErrInvalidChunkParams.WithMessagef("chunk overlap must not be negative, got %d", overlap)
	case overlap >= maxSize:
		return nil, errors.ErrInvalidChunkParams.WithMessagef(
			"chunk overlap (%d) must be smaller than chunk size (%d)", overlap, maxSize)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// Chunk 按文档顺序切分，块继承文档的来源与页码。
// 空白文档不产生文本块；docs 为空时返回空结果。
func (c *Chunker) Chunk(docs []model.Document) []model.Chunk {
	chunks := make([]model.Chunk, 0, len(docs))
	for _, doc := range docs {
		if textutil.IsBlank(doc.Text) {
			continue
		}
		for i, text := range textutil.SplitIntoChunks(doc.Text, c.maxSize, c.overlap) {
			chunks = append(chunks, model.Chunk{
				ID:     textutil.HashParts(doc.Source, strconv.Itoa(doc.Page), strconv.Itoa(i), text),
				Text:   text,
				Source: doc.Source,
				Page:   doc.Page,
				Index:  i,
			})
		}
	}
	return chunks
}
