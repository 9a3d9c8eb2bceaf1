// Package loader 负责从语料目录加载 PDF 并按页提取文本。
package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kart-io/logger"
	"github.com/ledongthuc/pdf"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/internal/pkg/docutil"
	"github.com/kart-io/docqa/pkg/infra/pool"
)

// Loader 定义语料加载接口。
type Loader interface {
	// Load 加载目录下的全部文档，按文件路径和页码排序。
	Load(ctx context.Context, dir string) ([]model.Document, error)
}

// PDFLoader 按页加载目录中的 PDF 文件，每页生成一个 Document。
type PDFLoader struct {
	pool      *pool.Pool
	recursive bool
}

// NewPDFLoader 创建 PDF 加载器，workers 为并发解析的文件数。
func NewPDFLoader(workers int, recursive bool) (*PDFLoader, error) {
	p, err := pool.New("pdf-loader", workers)
	if err != nil {
		return nil, err
	}
	return &PDFLoader{pool: p, recursive: recursive}, nil
}

// Close 释放加载器的协程池。
func (l *PDFLoader) Close() {
	l.pool.Release()
}

// Load 加载目录中的全部 PDF。
// 无法解析的文件记录警告后跳过，目录本身不可读时返回错误。
func (l *PDFLoader) Load(ctx context.Context, dir string) ([]model.Document, error) {
	files, err := docutil.FindFiles(dir, []string{".pdf"}, l.recursive)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus directory: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	results := make([][]model.Document, len(files))
	err = l.pool.ForEach(ctx, len(files), func(i int) error {
		docs, err := LoadFile(files[i])
		if err != nil {
			logger.Warnw("Skipping unreadable PDF", "file", files[i], "error", err.Error())
			return nil
		}
		results[i] = docs
		return nil
	})
	if err != nil {
		return nil, err
	}

	var docs []model.Document
	for _, r := range results {
		docs = append(docs, r...)
	}

	logger.Infow("Corpus loaded", "dir", dir, "files", len(files), "documents", len(docs))
	return docs, nil
}

// LoadFile 解析单个 PDF，每个非空页面返回一个 Document，页码从 1 开始。
func LoadFile(path string) (docs []model.Document, err error) {
	// 损坏的 PDF 可能让解析库 panic
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("failed to parse PDF %s: %v", path, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	pageCount := reader.NumPage()
	docs = make([]model.Document, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debugw("Skipping page without extractable text", "file", path, "page", i, "error", err.Error())
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		docs = append(docs, model.Document{
			Text:   text,
			Source: path,
			Page:   i,
		})
	}

	return docs, nil
}

var _ Loader = (*PDFLoader)(nil)
