package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New("test", 0)
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, "test", p.Name())
	assert.Equal(t, 1, p.Workers(), "workers<=0 应按 1 处理")
}

func TestForEach(t *testing.T) {
	p, err := New("test", 4)
	require.NoError(t, err)
	defer p.Release()

	out := make([]int, 50)
	require.NoError(t, p.ForEach(context.Background(), len(out), func(i int) error {
		out[i] = i * i
		return nil
	}))
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
	assert.Equal(t, Stats{Completed: 50}, p.Stats())
}

func TestForEach_Concurrency(t *testing.T) {
	p, err := New("test", 3)
	require.NoError(t, err)
	defer p.Release()

	var running, peak atomic.Int32
	require.NoError(t, p.ForEach(context.Background(), 20, func(int) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return nil
	}))
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestForEach_ErrorsAndPanics(t *testing.T) {
	p, err := New("test", 2)
	require.NoError(t, err)
	defer p.Release()

	errOdd := errors.New("odd")
	var ran atomic.Int32
	err = p.ForEach(context.Background(), 6, func(i int) error {
		ran.Add(1)
		switch {
		case i == 4:
			panic("boom")
		case i%2 == 1:
			return errOdd
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errOdd)
	assert.ErrorIs(t, err, ErrTaskPanic)
	assert.Equal(t, int32(6), ran.Load(), "单个任务失败不影响其余任务")
	assert.Equal(t, Stats{Completed: 2, Failed: 4, Panics: 1}, p.Stats())
}

func TestForEach_Cancelled(t *testing.T) {
	p, err := New("test", 1)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32
	err = p.ForEach(ctx, 100, func(int) error {
		if ran.Add(1) == 1 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, ran.Load(), int32(100))
}

func TestRelease(t *testing.T) {
	p, err := New("test", 2)
	require.NoError(t, err)

	p.Release()
	p.Release()

	err = p.ForEach(context.Background(), 1, func(int) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}
