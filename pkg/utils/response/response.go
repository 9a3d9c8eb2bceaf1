// Package response provides unified API response structures.
// This package defines standard response formats for HTTP APIs,
// ensuring consistent response structures across all endpoints.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docqa/pkg/infra/middleware/common"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// Response is the unified API response structure.
// All API responses should use this format for consistency.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Kind 错误大类（InputError、ProviderError、StoreError、ConfigError 等），成功时为空
	Kind string `json:"kind,omitempty"`

	// Data contains the response payload (nil for errors)
	Data any `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// Err creates an error response from an error. Errors that are not an Errno
// are reported as ErrInternal.
func Err(err error) *Response {
	if err == nil {
		return Success(nil)
	}
	e := errors.FromError(err)
	msg := e.MessageEN
	if cause := e.Cause(); cause != nil {
		msg += ": " + cause.Error()
	}
	return &Response{
		Code:    e.Code,
		Message: msg,
		Kind:    string(e.Kind()),
	}
}

// HTTPStatus returns the HTTP status for err, 200 when err is nil.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return errors.FromError(err).HTTPStatus()
}

// OK writes a successful JSON response.
func OK(c *gin.Context, data any) {
	r := Success(data)
	r.RequestID = common.GetRequestID(c.Request.Context())
	c.JSON(http.StatusOK, r)
}

// Fail writes an error JSON response with the mapped HTTP status and aborts the chain.
func Fail(c *gin.Context, err error) {
	r := Err(err)
	r.RequestID = common.GetRequestID(c.Request.Context())
	c.AbortWithStatusJSON(HTTPStatus(err), r)
}
