package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/docqa/pkg/options/tracing"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *options.Options)
		wantErr bool
	}{
		{name: "disabled is always valid", mutate: func(o *options.Options) { o.ExporterType = "bogus" }},
		{name: "enabled defaults", mutate: func(o *options.Options) { o.Enabled = true }},
		{name: "missing endpoint", mutate: func(o *options.Options) {
			o.Enabled = true
			o.Endpoint = ""
		}, wantErr: true},
		{name: "stdout needs no endpoint", mutate: func(o *options.Options) {
			o.Enabled = true
			o.ExporterType = options.ExporterStdout
			o.Endpoint = ""
		}},
		{name: "bad sampler", mutate: func(o *options.Options) {
			o.Enabled = true
			o.SamplerType = "sometimes"
		}, wantErr: true},
		{name: "ratio out of range", mutate: func(o *options.Options) {
			o.Enabled = true
			o.SamplerRatio = 1.5
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options.NewOptions()
			tt.mutate(opts)
			errs := opts.Validate()
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Tracer("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Noop(t *testing.T) {
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ExporterType = options.ExporterNoop
	opts.SamplerType = options.SamplerAlwaysOn

	p, err := NewProvider(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, p.Enabled())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), "test", "op")
	RecordError(ctx, errors.New("boom"))
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()
}

func TestNewProvider_Invalid(t *testing.T) {
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ExporterType = "kafka"

	_, err := NewProvider(context.Background(), opts)
	assert.Error(t, err)
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
