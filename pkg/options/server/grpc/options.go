// Package grpc provides gRPC server configuration options.
package grpc

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains gRPC server configuration.
// The gRPC server only exposes the standard health service; an empty Addr disables it.
type Options struct {
	// Addr is the address to listen on.
	Addr string `json:"addr" mapstructure:"addr"`
	// MaxRecvMsgSize is the maximum message size in bytes the server can receive.
	MaxRecvMsgSize int `json:"max-recv-msg-size" mapstructure:"max-recv-msg-size"`
	// EnableReflection enables gRPC server reflection for tools like grpcurl.
	EnableReflection bool `json:"enable-reflection" mapstructure:"enable-reflection"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		MaxRecvMsgSize:   4 << 20,
		EnableReflection: true,
	}
}

// Enabled reports whether the gRPC server should be started.
func (o *Options) Enabled() bool {
	return o != nil && o.Addr != ""
}

// AddFlags adds flags for gRPC options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "grpc."
	fs.StringVar(&o.Addr, p+"addr", o.Addr, "gRPC health server listen address. Empty disables it.")
	fs.IntVar(&o.MaxRecvMsgSize, p+"max-recv-msg-size", o.MaxRecvMsgSize, "gRPC max receive message size in bytes")
	fs.BoolVar(&o.EnableReflection, p+"enable-reflection", o.EnableReflection, "Enable gRPC server reflection")
}

// Validate validates the gRPC options.
func (o *Options) Validate() []error {
	if !o.Enabled() {
		return nil
	}
	var errs []error
	if _, port, err := net.SplitHostPort(o.Addr); err != nil {
		errs = append(errs, fmt.Errorf("grpc.addr %q: %w", o.Addr, err))
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("grpc.addr %q has an invalid port", o.Addr))
	}
	if o.MaxRecvMsgSize <= 0 {
		errs = append(errs, fmt.Errorf("grpc.max-recv-msg-size must be positive"))
	}
	return errs
}

// Complete completes the gRPC options with defaults.
func (o *Options) Complete() error {
	return nil
}
