// Package handler provides HTTP handlers for the docqa service.
package handler

import (
	"bytes"
	stderrors "errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/pkg/infra/middleware/common"
	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/json"
	"github.com/kart-io/docqa/pkg/utils/response"
	"github.com/kart-io/docqa/pkg/utils/validator"
)

// DocQAHandler handles docqa HTTP requests.
type DocQAHandler struct {
	service    biz.Service
	metrics    *metrics.Metrics
	corpusRoot string
}

// NewDocQAHandler creates a new DocQAHandler.
// Ingest paths in requests are resolved below corpusRoot.
func NewDocQAHandler(service biz.Service, m *metrics.Metrics, corpusRoot string) *DocQAHandler {
	if m == nil {
		m = metrics.Get()
	}
	return &DocQAHandler{
		service:    service,
		metrics:    m,
		corpusRoot: corpusRoot,
	}
}

// AskRequest represents a question.
type AskRequest struct {
	Question string `json:"question" validate:"notblank,max=4096"`
}

// IngestRequest represents an ingest request. Path is relative to the configured corpus directory.
type IngestRequest struct {
	Path string `json:"path" validate:"omitempty,relpath"`
}

// Ask answers a question from the indexed documents.
func (h *DocQAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	answer, err := h.service.Ask(c.Request.Context(), req.Question)
	if err != nil {
		logger.Warnw("Ask failed",
			"request_id", common.GetRequestID(c.Request.Context()),
			"kind", string(errors.KindOf(err)),
			"error", err.Error(),
		)
		response.Fail(c, err)
		return
	}

	response.OK(c, answer)
}

// Ingest loads, chunks and indexes the PDFs of a directory.
// A partial failure is still a success; skipped chunks are listed in the report.
func (h *DocQAHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	report, err := h.service.Ingest(c.Request.Context(), filepath.Join(h.corpusRoot, req.Path))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, report)
}

// Stats returns index state and pipeline counters.
func (h *DocQAHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, gin.H{
		"store":    stats,
		"pipeline": h.metrics.Stats(),
	})
}

// Health reports liveness.
func (h *DocQAHandler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// bind decodes the JSON body and validates it. An empty body decodes to the zero value.
func bind(c *gin.Context, obj any) error {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.ErrRequestTooLarge.WithMessagef("request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.ErrInvalidRequest.WithCause(err)
	}
	// 空请求体按 {} 处理
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, obj); err != nil {
			return errors.ErrInvalidRequest.WithCause(err)
		}
	}
	if err := validator.Global().Validate(obj); err != nil {
		return errors.ErrInvalidRequest.WithCause(err)
	}
	return nil
}
