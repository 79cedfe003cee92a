package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewUniversal is swapped in tests.
var NewUniversal = func(opt *redis.UniversalOptions) redis.UniversalClient {
	return redis.NewUniversalClient(opt)
}

const defaultPingTimeout = 3 * time.Second

// Open validates cfg, builds the client for its mode and pings it. The client
// is closed when the ping fails.
func Open(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opt := &redis.UniversalOptions{
		Addrs:        cfg.addrs(),
		MasterName:   strings.TrimSpace(cfg.MasterName),
		DB:           cfg.DB,
		Username:     cfg.Username,
		Password:     cfg.Password,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ClientName:   cfg.KeyNamespace(),
	}
	if cfg.TLSEnabled {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := NewUniversal(opt)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}
