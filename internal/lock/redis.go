package lock

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type RedisConfig struct {
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration
}

// RedisLocker holds keys with SET NX PX so several service instances sharing one
// database serialise on the same product.
type RedisLocker struct {
	client *redis.Client
	cfg    RedisConfig
	logger logger.ZapLogger
}

func NewRedisLocker(client *redis.Client, cfg RedisConfig, log logger.ZapLogger) *RedisLocker {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &RedisLocker{client: client, cfg: cfg, logger: log}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()

	var lastErr error
	for i := 0; i < l.cfg.Retries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, apperror.Wrap(apperror.Conflict, ctx.Err(), "lock wait abandoned")
			case <-time.After(l.cfg.RetryDelay):
			}
		}

		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			l.logger.Error("failed to acquire lock redis error", zap.String("key", key), zap.Error(err))
			lastErr = err
			continue
		}
		if ok {
			return func() {
				// The request context may already be done; release must still run.
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
					l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
	}

	if lastErr != nil {
		return nil, apperror.Wrap(apperror.Conflict, lastErr, "system busy, please try again later")
	}
	return nil, apperror.New(apperror.Conflict, "system busy, please try again later")
}
