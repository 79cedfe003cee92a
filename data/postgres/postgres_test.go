package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DBConfig
		err  error
	}{
		{name: "missing host", cfg: DBConfig{Port: "5432", DBName: "db"}, err: errHostRequired},
		{name: "missing port", cfg: DBConfig{Host: "localhost", DBName: "db"}, err: errPortRequired},
		{name: "missing db", cfg: DBConfig{Host: "localhost", Port: "5432"}, err: errDBNameRequired},
		{name: "negative open", cfg: DBConfig{URL: "postgres://h/db", MaxOpenConns: -1}, err: errNegativeMaxConns},
		{name: "negative idle", cfg: DBConfig{URL: "postgres://h/db", MaxIdleConns: -1}, err: errNegativeIdleConns},
		{name: "idle exceeds open", cfg: DBConfig{URL: "postgres://h/db", MaxOpenConns: 2, MaxIdleConns: 3}, err: errIdleExceedsOpenConns},
		{name: "url only", cfg: DBConfig{URL: "postgres://h/db"}},
		{name: "discrete", cfg: DBConfig{Host: "localhost", Port: "5432", DBName: "db", MaxOpenConns: 8, MaxIdleConns: 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDBConfigDSN(t *testing.T) {
	cfg := DBConfig{Host: "::1", Port: "5432", User: "app", Password: "p@ss", DBName: "cadastro", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@[::1]:5432/cadastro?sslmode=disable", cfg.DSN())

	cfg.URL = " postgres://u@h/other "
	assert.Equal(t, "postgres://u@h/other", cfg.DSN())
}

func TestOpen_AppliesRuntimeParamsAndPings(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	var seen pgx.ConnConfig
	prevOpen, prevPing := openDB, pingDB
	t.Cleanup(func() { openDB, pingDB = prevOpen, prevPing })
	openDB = func(cc pgx.ConnConfig) *sql.DB { seen = cc; return db }
	pingDB = func(ctx context.Context, db *sql.DB) error { return db.PingContext(ctx) }

	c, err := Open(context.Background(), DBConfig{URL: "postgres://u:p@localhost:5432/cadastro", MaxOpenConns: 4, MaxIdleConns: 2})
	require.NoError(t, err)
	assert.Equal(t, "go-cadastro", seen.RuntimeParams["application_name"])
	assert.Equal(t, "UTC", seen.RuntimeParams["TimeZone"])
	assert.Equal(t, 4, c.DB.Stats().MaxOpenConnections)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PingFailureCloses(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	prevOpen := openDB
	t.Cleanup(func() { openDB = prevOpen })
	openDB = func(pgx.ConnConfig) *sql.DB { return db }

	_, err = Open(context.Background(), DBConfig{URL: "postgres://localhost/cadastro"})
	require.ErrorContains(t, err, "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewFromDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM persons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = c.WithTx(context.Background(), func(run Runner) error {
		_, err := run.ExecContext(context.Background(), "DELETE FROM persons WHERE id = $1", "p-1")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewFromDB(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = c.WithTx(context.Background(), func(Runner) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewFromDB(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = c.WithTx(context.Background(), func(Runner) error { panic("kaboom") })
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxOpts_StatementTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewFromDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL statement_timeout = 1500").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err = c.WithTxOpts(context.Background(), TxConfig{StatementTimeout: 1500e6}, func(Runner) error { return nil })
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgErrors(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: SQLStateUniqueViolation, ConstraintName: "persons_pkey"})
	fk := &pgconn.PgError{Code: SQLStateForeignKeyViolation}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.Equal(t, "persons_pkey", ConstraintName(unique))
	assert.Equal(t, "", ConstraintName(errors.New("plain")))
}
