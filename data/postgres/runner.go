package postgres

import (
	"context"
	"database/sql"
)

// Runner is satisfied by both *sql.DB and *sql.Tx, so queries are written
// once and run inside or outside a transaction.
type Runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Runner = (*sql.DB)(nil)
	_ Runner = (*sql.Tx)(nil)
)

// Runner returns the pool-backed runner (outside transaction).
func (c *Client) Runner() Runner { return c.DB }
