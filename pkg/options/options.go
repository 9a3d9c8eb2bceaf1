// Package options holds the contract shared by every configuration section.
//
// 每个配置段在自己的子包中实现 IOptions，flag 名称统一为 "<section>.<name>"，
// 与配置文件和 DOCQA_ 前缀环境变量的键一致。
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every configuration section.
type IOptions interface {
	// Validate returns every problem found, nil when the section is valid.
	Validate() []error

	// AddFlags registers the section's flags, optionally under prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Join 拼接 flag 前缀，非空时以 "." 结尾，例如 Join("cache") == "cache."。
func Join(prefixes ...string) string {
	var parts []string
	for _, p := range prefixes {
		if p = strings.Trim(p, "."); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".") + "."
}

// ValidateAll 依次校验各配置段并合并错误，nil 段跳过。
func ValidateAll(sections ...IOptions) []error {
	var errs []error
	for _, s := range sections {
		if s == nil {
			continue
		}
		errs = append(errs, s.Validate()...)
	}
	return errs
}
