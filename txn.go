package tagstore

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rbaliyan/tagstore/dialect"
	"github.com/rbaliyan/tagstore/retry"
)

// DefaultRetryConfig returns the standard retry configuration with the
// dialect's transient classifier installed.
func DefaultRetryConfig(d dialect.Dialect) retry.Config {
	cfg := retry.DefaultConfig()
	cfg.IsRetryable = func(err error) bool { return dialect.Transient(d, err) }
	return cfg
}

// BeginTx opens a transaction on db, retrying acquisition when the dialect
// classifies the failure as busy, locked, or deadlocked. Engines with a
// database-level write lock reject BEGIN under contention; a bounded
// fixed-delay retry rides that out.
//
// A zero cfg uses the package defaults with the dialect's transient
// classifier installed. The returned transaction belongs to the caller.
func BeginTx(ctx context.Context, db *sqlx.DB, d dialect.Dialect, cfg retry.Config) (*sqlx.Tx, error) {
	if cfg.IsRetryable == nil {
		cfg.IsRetryable = func(err error) bool { return dialect.Transient(d, err) }
	}
	return retry.DoWithResult(ctx, cfg, func(ctx context.Context) (*sqlx.Tx, error) {
		return db.BeginTxx(ctx, nil)
	})
}
