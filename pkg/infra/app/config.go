package app

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kart-io/docqa/pkg/utils/errors"
)

const configFlag = "config"

// envRef 匹配 ${VAR} 与 ${VAR:-default}。
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// loadEnvFiles 加载 dotenv 文件，已存在的环境变量不会被覆盖。
func (a *App) loadEnvFiles() error {
	for _, file := range a.envFiles {
		err := godotenv.Load(file)
		if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return nil
}

// loadConfig 合并配置来源，优先级从低到高：默认值、配置文件、环境变量、显式 flag。
func (a *App) loadConfig(flags *pflag.FlagSet) error {
	v := a.viper
	if file, _ := flags.GetString(configFlag); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(a.name)
		v.SetConfigType("yaml")
		for _, dir := range configDirs(a.name) {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return errors.ErrInvalidConfig.WithCause(fmt.Errorf("read config file: %w", err))
		}
	}
	expandEnv(v)

	v.SetEnvPrefix(envPrefix(a.name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.options == nil {
		return nil
	}
	return a.decode(flags)
}

// decode 把 viper 中的值写入 options，再恢复命令行上显式设置的 flag。
func (a *App) decode(flags *pflag.FlagSet) error {
	type setFlag struct{ name, value string }
	var explicit []setFlag
	flags.Visit(func(f *pflag.Flag) {
		explicit = append(explicit, setFlag{f.Name, flagValue(f)})
	})

	if err := a.viper.Unmarshal(a.options); err != nil {
		return errors.ErrInvalidConfig.WithCause(fmt.Errorf("decode config: %w", err))
	}

	for _, f := range explicit {
		if err := flags.Set(f.name, f.value); err != nil {
			return errors.ErrInvalidConfig.WithCause(fmt.Errorf("re-apply --%s: %w", f.name, err))
		}
	}
	return nil
}

// configDirs 未指定 --config 时查找 <name>.yaml 的目录，按顺序。
func configDirs(name string) []string {
	dirs := []string{".", "configs"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "."+name))
	}
	return append(dirs, filepath.Join("/etc", name))
}

func envPrefix(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}

// flagValue 切片类型的 String() 带方括号，不能直接再 Set。
func flagValue(f *pflag.Flag) string {
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return strings.Join(sv.GetSlice(), ",")
	}
	return f.Value.String()
}

// expandEnv 展开配置文件字符串值中的环境变量引用，未设置且无默认值的引用保持原样。
func expandEnv(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		raw, ok := v.Get(key).(string)
		if !ok || !strings.Contains(raw, "${") {
			continue
		}
		if expanded := expandString(raw); expanded != raw {
			v.Set(key, expanded)
		}
	}
}

func expandString(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if val, ok := os.LookupEnv(m[1]); ok && val != "" {
			return val
		}
		if strings.Contains(ref, ":-") {
			return m[2]
		}
		return ref
	})
}
