package errors

import (
	stderrors "errors"
	"fmt"
)

// FromError 取出错误链中的 Errno，没有时包装为 ErrInternal。
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	if e, ok := asErrno(err); ok {
		return e
	}
	return ErrInternal.WithCause(err)
}

// CodeOf 返回错误链中 Errno 的错误码。
func CodeOf(err error) (int, bool) {
	if e, ok := asErrno(err); ok {
		return e.Code, true
	}
	return 0, false
}

func asErrno(err error) (*Errno, bool) {
	var e *Errno
	ok := stderrors.As(err, &e)
	return e, ok
}

// Describe 以 "<kind> (<code>): <message>: <cause>" 的形式描述错误，供命令行输出。
func Describe(err error) string {
	if err == nil {
		return ""
	}
	e := FromError(err)
	s := fmt.Sprintf("%s (%d): %s", e.Kind(), e.Code, e.MessageEN)
	if cause := e.Cause(); cause != nil {
		s += ": " + cause.Error()
	}
	return s
}
