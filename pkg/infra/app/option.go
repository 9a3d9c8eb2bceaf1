package app

import (
	"github.com/spf13/cobra"

	options "github.com/kart-io/docqa/pkg/options/app"
)

// Option configures an App.
type Option func(*App)

// WithName sets the application name. It also names the config file and the env prefix.
func WithName(name string) Option {
	return func(a *App) { a.name = name }
}

// WithShortDescription sets the one-line description.
func WithShortDescription(desc string) Option {
	return func(a *App) { a.shortDesc = desc }
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions sets the options shared by the root command and every subcommand.
func WithOptions(opts options.CliOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the run function of the root command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithCommands appends subcommands.
func WithCommands(cmds ...*Command) Option {
	return func(a *App) { a.commands = append(a.commands, cmds...) }
}

// WithEnvFiles sets the dotenv files loaded before anything else. Missing files are ignored.
func WithEnvFiles(files ...string) Option {
	return func(a *App) { a.envFiles = files }
}

// WithArgs sets the positional args validation of the root command.
func WithArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithSilence 失败时不向 stderr 输出错误。
func WithSilence() Option {
	return func(a *App) { a.silence = true }
}

// WithNoVersion 不注册 --version。
func WithNoVersion() Option {
	return func(a *App) { a.noVersion = true }
}

// WithNoConfig 不注册 --config，也不读取配置文件与环境变量。
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}
