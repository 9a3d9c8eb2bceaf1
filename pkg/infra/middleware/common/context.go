// Package common 保存中间件与响应层共享的请求上下文。
package common

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// HeaderXRequestID 请求 ID 头。
const HeaderXRequestID = "X-Request-ID"

// maxRequestIDLen 客户端传入的请求 ID 超过该长度时重新生成。
const maxRequestIDLen = 128

type requestIDKey struct{}

// GetRequestID 返回 ctx 中的请求 ID，没有时返回空串。
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID 把请求 ID 放入 ctx。
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GenerateRequestID 生成按时间排序的 ULID。
func GenerateRequestID() string {
	return ulid.Make().String()
}

// ValidRequestID 只接受非空、不超长且全为可见 ASCII 的 ID，避免日志注入。
func ValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
