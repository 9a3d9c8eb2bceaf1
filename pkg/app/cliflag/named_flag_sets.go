// Package cliflag 提供按名称分组的命令行 flag 集合。
package cliflag

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// NamedFlagSets 按名称保存 FlagSet，并记录添加顺序，用于分节打印帮助信息。
type NamedFlagSets struct {
	// Order 名称的添加顺序。
	Order []string
	// FlagSets 名称到 FlagSet 的映射。
	FlagSets map[string]*pflag.FlagSet
}

// FlagSet 返回指定名称的 FlagSet，不存在时创建。
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		nfs.FlagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}

// AddTo 按顺序把全部 flag 加入 fs。
func (nfs *NamedFlagSets) AddTo(fs *pflag.FlagSet) {
	for _, name := range nfs.Order {
		fs.AddFlagSet(nfs.FlagSets[name])
	}
}

// PrintSections 按分组打印 flag 用法，cols > 0 时按列宽折行。
func PrintSections(w io.Writer, fss NamedFlagSets, cols int) {
	for _, name := range fss.Order {
		fs := fss.FlagSets[name]
		if !fs.HasFlags() {
			continue
		}
		fmt.Fprintf(w, "\n%s flags:\n\n%s", strings.ToUpper(name[:1])+name[1:], fs.FlagUsagesWrapped(cols))
	}
}
