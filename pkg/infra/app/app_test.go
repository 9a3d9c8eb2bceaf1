package app

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/app/cliflag"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

type sectionOptions struct {
	Name string `mapstructure:"name"`
	Size int    `mapstructure:"size"`
}

type testOptions struct {
	Test *sectionOptions `mapstructure:"test"`

	completed bool
}

func newTestOptions() *testOptions {
	return &testOptions{Test: &sectionOptions{Name: "default", Size: 1}}
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("test")
	fs.StringVar(&o.Test.Name, "test.name", o.Test.Name, "Name.")
	fs.IntVar(&o.Test.Size, "test.size", o.Test.Size, "Size.")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	if o.Test.Size < 0 {
		return stderrors.New("test.size must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, a *App, args ...string) error {
	t.Helper()
	a.Command().SetArgs(args)
	return a.Execute(context.Background())
}

func TestApp_Subcommand(t *testing.T) {
	opts := newTestOptions()
	var got []string
	a := NewApp(
		WithName("apptest"),
		WithOptions(opts),
		WithNoVersion(),
		WithCommands(NewCommand("echo <words>", "Echo words",
			WithCommandRunFunc(func(_ context.Context, args []string) error {
				got = args
				return nil
			}),
		)),
	)

	require.NoError(t, run(t, a, "echo", "a", "b", "--test.size=5"))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 5, opts.Test.Size)
	assert.True(t, opts.completed)
}

func TestApp_ConfigPrecedence(t *testing.T) {
	cfg := writeFile(t, "apptest.yaml", "test:\n  name: from-file\n  size: 3\n")

	opts := newTestOptions()
	a := NewApp(
		WithName("apptest"),
		WithOptions(opts),
		WithNoVersion(),
		WithRunFunc(func(context.Context, []string) error { return nil }),
	)

	// 显式指定的 flag 优先于配置文件
	require.NoError(t, run(t, a, "--config", cfg, "--test.size=7"))
	assert.Equal(t, "from-file", opts.Test.Name)
	assert.Equal(t, 7, opts.Test.Size)
}

func TestApp_EnvOverridesConfigFile(t *testing.T) {
	cfg := writeFile(t, "apptest.yaml", "test:\n  name: from-file\n")
	t.Setenv("APPTEST_TEST_NAME", "from-env")

	opts := newTestOptions()
	a := NewApp(
		WithName("apptest"),
		WithOptions(opts),
		WithNoVersion(),
		WithRunFunc(func(context.Context, []string) error { return nil }),
	)

	require.NoError(t, run(t, a, "--config", cfg))
	assert.Equal(t, "from-env", opts.Test.Name)
}

func TestApp_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "APPTEST_DOTENV_VALUE=from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("APPTEST_DOTENV_VALUE") })

	a := NewApp(
		WithName("apptest"),
		WithNoVersion(),
		WithNoConfig(),
		WithEnvFiles(envFile, filepath.Join(t.TempDir(), "missing.env")),
		WithRunFunc(func(context.Context, []string) error { return nil }),
	)

	require.NoError(t, run(t, a))
	assert.Equal(t, "from-dotenv", os.Getenv("APPTEST_DOTENV_VALUE"))
}

func TestApp_ExpandEnvVars(t *testing.T) {
	cfg := writeFile(t, "apptest.yaml", "test:\n  name: ${APPTEST_EXPAND}\n")
	t.Setenv("APPTEST_EXPAND", "expanded")

	opts := newTestOptions()
	a := NewApp(
		WithName("apptest"),
		WithOptions(opts),
		WithNoVersion(),
		WithRunFunc(func(context.Context, []string) error { return nil }),
	)

	require.NoError(t, run(t, a, "--config", cfg))
	assert.Equal(t, "expanded", opts.Test.Name)
}

func TestApp_ValidateFailureIsConfigError(t *testing.T) {
	called := false
	a := NewApp(
		WithName("apptest"),
		WithOptions(newTestOptions()),
		WithNoVersion(),
		WithNoConfig(),
		WithRunFunc(func(context.Context, []string) error {
			called = true
			return nil
		}),
	)

	err := run(t, a, "--test.size=-1")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.False(t, called)
}

func TestApp_ArgsValidation(t *testing.T) {
	a := NewApp(
		WithName("apptest"),
		WithNoVersion(),
		WithNoConfig(),
		WithCommands(NewCommand("one <arg>", "Exactly one arg",
			WithCommandArgs(cobra.ExactArgs(1)),
			WithCommandRunFunc(func(context.Context, []string) error { return nil }),
		)),
	)

	assert.Error(t, run(t, a, "one"))
	assert.NoError(t, run(t, a, "one", "x"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "plain", describe(stderrors.New("plain")))
	assert.Contains(t, describe(errors.ErrNoContext), "NoContext")
}

func TestExpandString(t *testing.T) {
	t.Setenv("APPTEST_SET", "value")
	t.Setenv("APPTEST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"${APPTEST_SET}", "value"},
		{"pre-${APPTEST_SET}-post", "pre-value-post"},
		{"${APPTEST_UNSET}", "${APPTEST_UNSET}"},
		{"${APPTEST_UNSET:-fallback}", "fallback"},
		{"${APPTEST_EMPTY:-fallback}", "fallback"},
		{"${APPTEST_SET:-fallback}", "value"},
		{"pa$$word", "pa$$word"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expandString(tt.in))
		})
	}
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "DOCQA", envPrefix("docqa"))
	assert.Equal(t, "MY_APP_V2", envPrefix("my-app.v2"))
}
