package redis

import (
	"context"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// internalLogger 把 go-redis 的连接池日志转到全局日志的 debug 级别。
type internalLogger struct{}

func (internalLogger) Printf(ctx context.Context, format string, v ...any) {
	logger.Global().WithCtx(ctx, "component", "redis").Debugf(format, v...)
}

func init() {
	goredis.SetLogger(internalLogger{})
}
