package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/response"
)

// BodyLimit 限制请求体大小。Content-Length 已超限时直接返回 413，
// 否则用 http.MaxBytesReader 包装 Body，读取超限时由 handler 报告 ErrRequestTooLarge。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			logger.Warnw("Request body too large",
				"path", c.Request.URL.Path,
				"content_length", c.Request.ContentLength,
				"max_bytes", maxBytes,
			)
			response.Fail(c, errors.ErrRequestTooLarge.WithMessagef("request body exceeds %d bytes", maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
