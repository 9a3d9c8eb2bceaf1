// Package logger 定义 log.* 配置段，底层为 kart-io/logger 的 LogOption。
package logger

import (
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options wraps option.LogOption.
type Options struct {
	*option.LogOption
}

// NewOptions 默认 slog 引擎、console 格式输出到 stdout。
func NewOptions() *Options {
	opts := option.DefaultLogOption()
	opts.Format = "console"
	return &Options{LogOption: opts}
}

// AddFlags registers log.* flags, including OTLP export and file rotation.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "log."
	fs.StringVar(&o.Engine, p+"engine", o.Engine, "Logging engine (zap|slog).")
	fs.StringVar(&o.Level, p+"level", o.Level, "Minimum level (DEBUG|INFO|WARN|ERROR|FATAL).")
	fs.StringVar(&o.Format, p+"format", o.Format, "Output format (json|console).")
	fs.StringSliceVar(&o.OutputPaths, p+"output-paths", o.OutputPaths, "Where to write logs: stdout, stderr or file paths.")
	fs.BoolVar(&o.Development, p+"development", o.Development, "Development mode with caller info and stack traces.")
	fs.BoolVar(&o.DisableCaller, p+"disable-caller", o.DisableCaller, "Omit the caller from log entries.")
	fs.BoolVar(&o.DisableStacktrace, p+"disable-stacktrace", o.DisableStacktrace, "Omit stack traces from error entries.")
	fs.StringVar(&o.OTLPEndpoint, p+"otlp-endpoint", o.OTLPEndpoint, "Also export logs to this OTLP endpoint.")

	if o.Rotation == nil {
		o.Rotation = &option.RotationOption{}
	}
	fs.IntVar(&o.Rotation.MaxSize, p+"rotation.max-size", o.Rotation.MaxSize, "Rotate log files larger than this many MB.")
	fs.IntVar(&o.Rotation.MaxBackups, p+"rotation.max-backups", o.Rotation.MaxBackups, "Rotated log files to keep.")
	fs.IntVar(&o.Rotation.MaxAge, p+"rotation.max-age", o.Rotation.MaxAge, "Days to keep rotated log files.")
}

// Complete 统一大小写，level 大写，engine 与 format 小写。
func (o *Options) Complete() error {
	o.Level = strings.ToUpper(strings.TrimSpace(o.Level))
	o.Engine = strings.ToLower(strings.TrimSpace(o.Engine))
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	return nil
}

// Validate checks the level, engine, format and rotation settings.
func (o *Options) Validate() []error {
	var errs []error
	if o.Engine != "zap" && o.Engine != "slog" {
		errs = append(errs, fmt.Errorf("log.engine %q must be zap or slog", o.Engine))
	}
	if o.Format != "json" && o.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", o.Format))
	}
	if len(o.OutputPaths) == 0 {
		errs = append(errs, fmt.Errorf("log.output-paths must not be empty"))
	}
	if err := o.LogOption.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errs
}

// Init 创建日志实例并设为全局日志。
func (o *Options) Init() error {
	l, err := logger.New(o.LogOption)
	if err != nil {
		return err
	}
	logger.SetGlobal(l)
	return nil
}

