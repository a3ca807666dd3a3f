package falkordb

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/orneryd/falkorgraph/pkg/config"
)

// Executor sends one command and returns the raw reply. Implementations must
// be safe for concurrent use.
//
// A server error reply is returned as an error: a *SchemaStaleError or a
// *QueryError. Any other failure is a *TransportError.
type Executor interface {
	Execute(ctx context.Context, cmd string, args ...any) (any, error)
}

// PoolExecutor runs commands on connections borrowed from a redigo pool.
type PoolExecutor struct {
	pool *redis.Pool
}

// NewPoolExecutor wraps pool.
func NewPoolExecutor(pool *redis.Pool) *PoolExecutor {
	return &PoolExecutor{pool: pool}
}

// Execute borrows a connection for the duration of one command.
func (p *PoolExecutor) Execute(ctx context.Context, cmd string, args ...any) (any, error) {
	conn, err := p.pool.GetContext(ctx)
	if err != nil {
		return nil, &TransportError{Command: cmd, Err: err}
	}
	defer conn.Close()

	r, err := redis.DoContext(conn, ctx, cmd, args...)
	if err != nil {
		return nil, classifyTransport(cmd, err)
	}
	return r, nil
}

// Stats reports pool usage.
func (p *PoolExecutor) Stats() redis.PoolStats {
	return p.pool.Stats()
}

// Close closes the pool.
func (p *PoolExecutor) Close() error {
	return p.pool.Close()
}

// NewPool builds a connection pool from cfg.
func NewPool(cfg *config.Config) *redis.Pool {
	server := cfg.Server
	opts := []redis.DialOption{
		redis.DialConnectTimeout(server.DialTimeout),
		redis.DialDatabase(server.Database),
	}
	if server.ReadTimeout > 0 {
		opts = append(opts, redis.DialReadTimeout(server.ReadTimeout))
	}
	if server.WriteTimeout > 0 {
		opts = append(opts, redis.DialWriteTimeout(server.WriteTimeout))
	}
	if server.Password != "" {
		opts = append(opts, redis.DialPassword(server.Password))
	}
	if server.Username != "" {
		opts = append(opts, redis.DialUsername(server.Username))
	}
	if server.TLS {
		opts = append(opts,
			redis.DialUseTLS(true),
			redis.DialTLSSkipVerify(server.TLSSkipVerify),
			redis.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		)
	}

	return &redis.Pool{
		MaxIdle:     cfg.Pool.MaxIdle,
		MaxActive:   cfg.Pool.MaxActive,
		IdleTimeout: cfg.Pool.IdleTimeout,
		Wait:        cfg.Pool.Wait,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", server.Address, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}
