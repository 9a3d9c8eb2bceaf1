package biz

import (
	stderrors "errors"

	"github.com/kart-io/docqa/pkg/utils/errors"
)

// wrap 保留已有的 Errno，其它错误包装为 fallback。
func wrap(err error, fallback *errors.Errno) error {
	if err == nil {
		return nil
	}
	var e *errors.Errno
	if stderrors.As(err, &e) {
		return err
	}
	return fallback.WithCause(err)
}
