package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Errno 带错误码的结构化错误。
//
//	return errors.ErrCorpusNotFound.WithMessagef("corpus %q does not exist", path)
//	return errors.ErrEmbeddingFailed.WithCause(err)
type Errno struct {
	// Code 全局唯一错误码
	Code int `json:"code"`

	// HTTP 对应的 HTTP 状态码
	HTTP int `json:"-"`

	// GRPCCode 对应的 gRPC 状态码
	GRPCCode codes.Code `json:"-"`

	// MessageEN 英文错误信息
	MessageEN string `json:"message"`

	// MessageZH 中文错误信息
	MessageZH string `json:"message_zh,omitempty"`

	cause error
}

// New 创建 Errno。
func New(code int, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	return &Errno{
		Code:      code,
		HTTP:      httpStatus,
		GRPCCode:  grpcCode,
		MessageEN: messageEN,
		MessageZH: messageZH,
	}
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.MessageEN, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Cause 返回底层错误，没有时为 nil。
func (e *Errno) Cause() error {
	return e.cause
}

// Is 按错误码比较，使 errors.Is 对派生出的副本同样成立。
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

func (e *Errno) clone() *Errno {
	c := *e
	return &c
}

// WithCause 返回携带底层错误的副本。
func (e *Errno) WithCause(cause error) *Errno {
	c := e.clone()
	c.cause = cause
	return c
}

// WithMessage 返回替换英文信息的副本。
func (e *Errno) WithMessage(msg string) *Errno {
	c := e.clone()
	c.MessageEN = msg
	return c
}

// WithMessagef 返回格式化英文信息的副本。
func (e *Errno) WithMessagef(format string, args ...any) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Message returns the message based on language.
func (e *Errno) Message(lang string) string {
	switch lang {
	case "zh", "zh-CN", "zh_CN":
		if e.MessageZH != "" {
			return e.MessageZH
		}
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status code.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns the gRPC status code.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode != codes.OK {
		return e.GRPCCode
	}
	return codes.Internal
}

// Kind 返回错误所属的类别。
func (e *Errno) Kind() Kind {
	return kindOfCategory(GetCategory(e.Code))
}
