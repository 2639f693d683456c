package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-qa-go/internal/config"
	"resume-qa-go/internal/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var redisTracer = otel.Tracer("resume-qa-go/storage/redis")

// releaseLockScript 仅当值匹配时删除锁
const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`

// Redis 上传去重缓存与分布式锁
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端并检查连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	})

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisWithClient(client, cfg), nil
}

// NewRedisWithClient 使用已有客户端创建适配器
func NewRedisWithClient(client *redis.Client, cfg *config.RedisConfig) *Redis {
	if cfg == nil {
		cfg = &config.RedisConfig{}
	}
	return &Redis{Client: client, config: cfg}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回配置的MD5记录过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// LookupCandidateByMD5 查询文件MD5对应的候选人ID，不存在时返回空串
func (r *Redis) LookupCandidateByMD5(ctx context.Context, md5Hex string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyFileMD5ToCandidateID, md5Hex)

	ctx, span := redisTracer.Start(ctx, "Redis.LookupCandidateByMD5", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("db.redis.key", key))

	candidateID, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		span.SetStatus(codes.Ok, "key not found")
		return "", nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("查询MD5映射失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("db.redis.key_exists", true))
	span.SetStatus(codes.Ok, "")
	return candidateID, nil
}

// RememberCandidateMD5 记录文件MD5到候选人ID的映射
func (r *Redis) RememberCandidateMD5(ctx context.Context, md5Hex, candidateID string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyFileMD5ToCandidateID, md5Hex)
	if err := r.Client.Set(ctx, key, candidateID, r.GetMD5ExpireDuration()).Err(); err != nil {
		return fmt.Errorf("写入MD5映射失败: %w", err)
	}
	return nil
}

// ForgetCandidateMD5 删除文件MD5映射
func (r *Redis) ForgetCandidateMD5(ctx context.Context, md5Hex string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Del(ctx, fmt.Sprintf(constants.KeyFileMD5ToCandidateID, md5Hex)).Err()
}

// AcquireUploadLock 为同一文件的上传加锁，返回锁值；未获取到时返回空串
func (r *Redis) AcquireUploadLock(ctx context.Context, md5Hex string) (string, error) {
	return r.AcquireLock(ctx, fmt.Sprintf(constants.KeyUploadLock, md5Hex), constants.UploadLockTTL)
}

// ReleaseUploadLock 释放上传锁
func (r *Redis) ReleaseUploadLock(ctx context.Context, md5Hex, lockValue string) error {
	_, err := r.ReleaseLock(ctx, fmt.Sprintf(constants.KeyUploadLock, md5Hex), lockValue)
	return err
}

// AcquireLock 尝试获取一个分布式锁
func (r *Redis) AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	lockValue := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey, lockValue, expiration).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return lockValue, nil
}

// ReleaseLock 释放一个分布式锁，使用Lua脚本保证原子性
func (r *Redis) ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	res, err := r.Client.Eval(ctx, releaseLockScript, []string{lockKey}, lockValue).Result()
	if err != nil {
		return false, err
	}
	released, ok := res.(int64)
	return ok && released == 1, nil
}
