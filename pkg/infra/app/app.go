// Package app 组装基于 Cobra 的命令行应用。
//
// 配置依次来自 dotenv 文件、YAML 配置文件、<NAME>_ 前缀的环境变量和命令行 flag，
// 加载后调用 Complete 和 Validate，再执行根命令或子命令的 RunFunc。
//
//	a := app.NewApp(
//	    app.WithName("docqa"),
//	    app.WithOptions(opts),
//	    app.WithCommands(app.NewCommand("ask <question>", "Ask a question", ...)),
//	)
//	a.Run()
package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kart-io/docqa/pkg/app/cliflag"
	options "github.com/kart-io/docqa/pkg/options/app"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// RunFunc 根命令或子命令的执行函数，ctx 在收到 SIGINT/SIGTERM 时取消。
type RunFunc func(ctx context.Context, args []string) error

// App 命令行应用。
type App struct {
	name        string
	shortDesc   string
	description string
	options     options.CliOptions
	runFunc     RunFunc
	commands    []*Command
	envFiles    []string
	args        cobra.PositionalArgs
	silence     bool
	noVersion   bool
	noConfig    bool

	viper *viper.Viper
	cmd   *cobra.Command
}

// NewApp creates the application and its command tree.
func NewApp(opts ...Option) *App {
	a := &App{
		name:  filepath.Base(os.Args[0]),
		viper: viper.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.cmd = a.rootCommand()
	return a
}

func (a *App) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		Args:          a.args,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if a.runFunc != nil {
		cmd.RunE = a.wrap(a.runFunc)
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	pfs := cmd.PersistentFlags()
	if !a.noConfig {
		pfs.StringP(configFlag, "c", "", "Path to a YAML config file.")
	}
	if !a.noVersion {
		version.AddFlags(pfs)
	}
	pfs.BoolP("help", "h", false, "Help for "+a.name+".")

	// 配置项注册为持久 flag，所有子命令共享
	if a.options != nil {
		fss := a.options.Flags()
		fss.AddTo(pfs)
		cmd.SetUsageFunc(usageFunc(fss))
	}

	for _, c := range a.commands {
		cmd.AddCommand(c.cobraCommand(a))
	}
	return cmd
}

// usageFunc 按分组输出共享 flag。
func usageFunc(fss cliflag.NamedFlagSets) func(*cobra.Command) error {
	return func(cmd *cobra.Command) error {
		out := cmd.OutOrStderr()
		fmt.Fprintf(out, "Usage:\n  %s\n", cmd.UseLine())
		if cmd.HasExample() {
			fmt.Fprintf(out, "\nExamples:\n%s\n", cmd.Example)
		}
		if cmd.HasAvailableSubCommands() {
			fmt.Fprintln(out, "\nCommands:")
			for _, c := range cmd.Commands() {
				if c.IsAvailableCommand() {
					fmt.Fprintf(out, "  %-10s %s\n", c.Name(), c.Short)
				}
			}
		}
		if local := cmd.LocalNonPersistentFlags(); local.HasAvailableFlags() {
			fmt.Fprintf(out, "\nFlags:\n%s", local.FlagUsages())
		}
		cliflag.PrintSections(out, fss, 0)
		return nil
	}
}

func (a *App) wrap(run RunFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.prepare(cmd); err != nil {
			return err
		}
		return run(cmd.Context(), args)
	}
}

// prepare 加载配置并补全、校验选项，校验失败归为配置错误。
func (a *App) prepare(cmd *cobra.Command) error {
	if !a.noVersion {
		version.PrintAndExitIfRequested()
	}
	if !a.noConfig {
		if err := a.loadConfig(cmd.Flags()); err != nil {
			return err
		}
	}
	if a.options == nil {
		return nil
	}
	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return errors.ErrInvalidConfig.WithCause(err)
	}
	return nil
}

// Execute runs the command tree with ctx.
func (a *App) Execute(ctx context.Context) error {
	if err := a.loadEnvFiles(); err != nil {
		return err
	}
	return a.cmd.ExecuteContext(ctx)
}

// Run executes the application and exits with status 1 on failure.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := a.Execute(ctx)
	stop()
	if err == nil {
		return
	}
	if !a.silence {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
	}
	os.Exit(1)
}

// describe 结构化错误带上类别与错误码。
func describe(err error) string {
	var e *errors.Errno
	if stderrors.As(err, &e) {
		return errors.Describe(err)
	}
	return err.Error()
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}
