package pool

import "errors"

var (
	// ErrClosed 池已释放后继续提交任务。
	ErrClosed = errors.New("pool: closed")

	// ErrTaskPanic 任务执行中发生 panic，已被恢复。
	ErrTaskPanic = errors.New("pool: task panicked")
)
