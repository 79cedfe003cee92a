package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type TxConfig struct {
	Iso      sql.IsolationLevel // default: driver default (ReadCommitted)
	ReadOnly bool

	// StatementTimeout is applied with SET LOCAL for the transaction only.
	StatementTimeout time.Duration
}

// WithTx runs fn in a read-write transaction. It commits when fn returns
// nil and rolls back on error or panic; the panic is re-raised.
func (c *Client) WithTx(ctx context.Context, fn func(run Runner) error) error {
	return c.WithTxOpts(ctx, TxConfig{}, fn)
}

// WithTxRO is a read-only transaction for consistent multi-query reads.
func (c *Client) WithTxRO(ctx context.Context, fn func(run Runner) error) error {
	return c.WithTxOpts(ctx, TxConfig{ReadOnly: true}, fn)
}

func (c *Client) WithTxOpts(ctx context.Context, cfg TxConfig, fn func(run Runner) error) (err error) {
	tx, err := c.DB.BeginTx(ctx, &sql.TxOptions{Isolation: cfg.Iso, ReadOnly: cfg.ReadOnly})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("postgres: commit: %w", cerr)
		}
	}()

	if cfg.StatementTimeout > 0 {
		ms := cfg.StatementTimeout.Milliseconds()
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)); err != nil {
			return err
		}
	}

	return fn(tx)
}
