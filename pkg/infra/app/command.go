package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Command 子命令定义，执行前与根命令一样加载配置并校验。
type Command struct {
	usage   string
	short   string
	long    string
	example string
	args    cobra.PositionalArgs
	runFunc RunFunc
	flags   func(fs *pflag.FlagSet)
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithCommandLong sets the long description.
func WithCommandLong(long string) CommandOption {
	return func(c *Command) {
		c.long = long
	}
}

// WithCommandExample sets the usage example.
func WithCommandExample(example string) CommandOption {
	return func(c *Command) {
		c.example = example
	}
}

// WithCommandArgs sets the positional args validation.
func WithCommandArgs(args cobra.PositionalArgs) CommandOption {
	return func(c *Command) {
		c.args = args
	}
}

// WithCommandRunFunc sets the run function.
func WithCommandRunFunc(run RunFunc) CommandOption {
	return func(c *Command) {
		c.runFunc = run
	}
}

// WithCommandFlags registers flags local to the subcommand.
func WithCommandFlags(fn func(fs *pflag.FlagSet)) CommandOption {
	return func(c *Command) {
		c.flags = fn
	}
}

// NewCommand creates a subcommand. usage follows cobra's Use syntax, e.g. "ask <question>".
func NewCommand(usage, short string, opts ...CommandOption) *Command {
	c := &Command{
		usage: usage,
		short: short,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Command) cobraCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           c.usage,
		Short:         c.short,
		Long:          c.long,
		Example:       c.example,
		Args:          c.args,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if c.flags != nil {
		c.flags(cmd.Flags())
	}
	if c.runFunc != nil {
		cmd.RunE = a.wrap(c.runFunc)
	}
	return cmd
}
