package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const defaultApplicationName = "go-cadastro"

// Test hooks.
var (
	openDB = func(cc pgx.ConnConfig) *sql.DB { return stdlib.OpenDB(cc) }
	pingDB = func(ctx context.Context, db *sql.DB) error { return db.PingContext(ctx) }
)

// Client wraps a database/sql pool driven by pgx.
type Client struct {
	DB *sql.DB
}

// Open parses cfg, applies pool limits and pings the server.
func Open(ctx context.Context, cfg DBConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cc, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cc.RuntimeParams == nil {
		cc.RuntimeParams = map[string]string{}
	}
	if _, ok := cc.RuntimeParams["application_name"]; !ok {
		name := cfg.ApplicationName
		if name == "" {
			name = defaultApplicationName
		}
		cc.RuntimeParams["application_name"] = name
	}
	if _, ok := cc.RuntimeParams["TimeZone"]; !ok {
		cc.RuntimeParams["TimeZone"] = "UTC"
	}

	db := openDB(*cc)
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pingDB(pingCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Client{DB: db}, nil
}

// NewFromDB wraps an existing pool (sqlmock in tests).
func NewFromDB(db *sql.DB) *Client { return &Client{DB: db} }

func (c *Client) Ping(ctx context.Context) error { return c.DB.PingContext(ctx) }

func (c *Client) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
