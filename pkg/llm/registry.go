package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory 根据 map 配置创建供应商，键名见各实现包的 Config。
type Factory func(config map[string]any) (Provider, error)

var factories = struct {
	sync.RWMutex
	m map[string]Factory
}{m: make(map[string]Factory)}

// RegisterProvider 登记名为 name 的供应商，重复登记会 panic。
func RegisterProvider(name string, f Factory) {
	factories.Lock()
	defer factories.Unlock()
	if _, dup := factories.m[name]; dup {
		panic("llm: provider registered twice: " + name)
	}
	factories.m[name] = f
}

func lookup(name string) (Factory, error) {
	factories.RLock()
	defer factories.RUnlock()
	if f, ok := factories.m[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown provider %q (registered: %s)", name, strings.Join(namesLocked(), ", "))
}

// NewEmbeddingProvider 创建名为 name 的供应商并作为嵌入模型使用。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	f, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return f(config)
}

// NewChatProvider 创建名为 name 的供应商并作为语言模型使用。
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	f, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return f(config)
}

// Providers 返回已登记的供应商名称，已排序。
func Providers() []string {
	factories.RLock()
	defer factories.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(factories.m))
	for name := range factories.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
