// Package pool 基于 ants 提供固定并发度的批量执行器。
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// idleExpiry 空闲 worker 的回收时间。
const idleExpiry = 30 * time.Second

// Pool 是有界的 worker 池，同一时刻最多运行 Workers() 个任务。
type Pool struct {
	name  string
	ants  *ants.Pool
	once  sync.Once
	stats counters
}

type counters struct {
	completed atomic.Int64
	failed    atomic.Int64
	panics    atomic.Int64
}

// Stats 池的累计统计。
type Stats struct {
	Completed int64
	Failed    int64
	Panics    int64
}

// New 创建名为 name 的池，workers <= 0 时按 1 处理。
func New(name string, workers int) (*Pool, error) {
	if workers <= 0 {
		workers = 1
	}

	p := &Pool{name: name}
	ap, err := ants.NewPool(workers,
		ants.WithExpiryDuration(idleExpiry),
		ants.WithLogger(antsLogger{name: name}),
	)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", name, err)
	}
	p.ants = ap

	logger.Debugw("Worker pool created", "name", name, "workers", workers)
	return p, nil
}

// Name 返回池名称。
func (p *Pool) Name() string { return p.name }

// Workers 返回最大并发数。
func (p *Pool) Workers() int { return p.ants.Cap() }

// ForEach 对 [0, n) 的每个下标调用 fn 并等待全部结束。
// 任务错误与 panic 不会中断其余任务，最终合并返回；
// ctx 取消后尚未开始的任务被跳过，返回 ctx.Err()。
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for i := range n {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := p.ants.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := p.run(i, fn); err != nil {
				record(err)
			}
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = ErrClosed
			}
			record(err)
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (p *Pool) run(i int, fn func(int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.stats.panics.Add(1)
			logger.Errorw("Worker panic recovered", "pool", p.name, "task", i, "panic", r)
			err = fmt.Errorf("%w: task %d: %v", ErrTaskPanic, i, r)
		}
		if err != nil {
			p.stats.failed.Add(1)
		} else {
			p.stats.completed.Add(1)
		}
	}()
	return fn(i)
}

// Release 释放池，可重复调用。
func (p *Pool) Release() {
	p.once.Do(func() {
		p.ants.Release()
		logger.Debugw("Worker pool released", "name", p.name)
	})
}

// Stats 返回统计快照。
func (p *Pool) Stats() Stats {
	return Stats{
		Completed: p.stats.completed.Load(),
		Failed:    p.stats.failed.Load(),
		Panics:    p.stats.panics.Load(),
	}
}

// antsLogger 把 ants 内部日志转到全局日志。
type antsLogger struct{ name string }

func (l antsLogger) Printf(format string, args ...any) {
	logger.Global().With("pool", l.name).Debugf(format, args...)
}
