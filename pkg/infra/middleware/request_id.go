// Package middleware provides the gin middleware chain of the HTTP server.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/docqa/pkg/infra/middleware/common"
)

// HeaderXRequestID is re-exported from common.
const HeaderXRequestID = common.HeaderXRequestID

// RequestID 为每个请求分配 ID 并写回响应头。合法的 X-Request-ID 原样沿用。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderXRequestID)
		if !common.ValidRequestID(id) {
			id = common.GenerateRequestID()
		}

		c.Header(HeaderXRequestID, id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
