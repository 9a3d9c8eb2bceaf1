// Package app defines the options contract used by pkg/infra/app.
package app

import "github.com/kart-io/docqa/pkg/app/cliflag"

// CliOptions 命令行应用的配置接口，任何实现它的结构都可以交给 App 使用。
type CliOptions interface {
	// Flags 返回按分组组织的 flag。
	Flags() cliflag.NamedFlagSets
	// Complete 补全默认值。
	Complete() error
	// Validate 校验配置。
	Validate() error
}
