package shared

import (
	"context"

	"orderhub/internal/infra/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function inside a write transaction. Command handlers
// depend on it instead of the pool so transaction boundaries stay fakeable.
type TxRunner interface {
	Within(ctx context.Context, fn func(tx db.DBTX) error) error
}

type PgxTxRunner struct {
	pool *pgxpool.Pool
}

func NewPgxTxRunner(pool *pgxpool.Pool) *PgxTxRunner {
	return &PgxTxRunner{pool: pool}
}

func (r *PgxTxRunner) Within(ctx context.Context, fn func(tx db.DBTX) error) error {
	_, err := WithDefaultRetry(ctx, r.pool, func(tx db.DBTX) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}
