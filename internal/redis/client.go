package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/hospital-scheduling/internal/config"
)

// ClientOptions holds the connection settings the lock and readiness paths
// need. Zero values fall back to the defaults below.
type ClientOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

const (
	defaultPoolSize = 10
	defaultTimeout  = 2 * time.Second
)

func OptionsFromConfig(cfg config.Config) ClientOptions {
	return ClientOptions{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	}
}

func (o ClientOptions) redisOptions() *redis.Options {
	poolSize := o.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &redis.Options{
		Addr:         o.Addr,
		Username:     o.Username,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     poolSize,
		MinIdleConns: 1,
	}
}

// NewRedisClient connects and pings within the option timeout, or within
// ctx if that ends sooner.
func NewRedisClient(ctx context.Context, opts ClientOptions) (*redis.Client, error) {
	ro := opts.redisOptions()
	rdb := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, ro.DialTimeout+ro.ReadTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
