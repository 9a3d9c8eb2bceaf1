package errors

import (
	"fmt"
	"sort"
	"sync"
)

// registry 按错误码登记全部 Errno，保证错误码唯一。
var registry = struct {
	sync.RWMutex
	byCode map[int]*Errno
}{byCode: make(map[int]*Errno)}

// Register 登记 e 并原样返回，错误码重复时 panic。
func Register(e *Errno) *Errno {
	registry.Lock()
	defer registry.Unlock()

	if prev, ok := registry.byCode[e.Code]; ok {
		panic(fmt.Sprintf("errno %d registered twice: %q and %q", e.Code, prev.MessageEN, e.MessageEN))
	}
	registry.byCode[e.Code] = e
	return e
}

// Lookup 按错误码查找已登记的 Errno。
func Lookup(code int) (*Errno, bool) {
	registry.RLock()
	defer registry.RUnlock()
	e, ok := registry.byCode[code]
	return e, ok
}

// Registered 返回按错误码排序的全部 Errno。
func Registered() []*Errno {
	registry.RLock()
	defer registry.RUnlock()

	out := make([]*Errno, 0, len(registry.byCode))
	for _, e := range registry.byCode {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
