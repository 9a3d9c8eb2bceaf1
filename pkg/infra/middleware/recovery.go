package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/pkg/infra/middleware/common"
	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/response"
)

// Recovery returns a middleware that recovers from panics.
// The panic is logged with its stack and answered with ErrPanic.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Panic recovered",
					"request_id", common.GetRequestID(c.Request.Context()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				response.Fail(c, errors.ErrPanic.WithMessagef("panic: %v", r))
			}
		}()
		c.Next()
	}
}
