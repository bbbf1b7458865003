package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// Exec runs raw SQL against the pool so specs can reset tables.
func (d *Driver) Exec(ctx context.Context, sql string) (pgconn.CommandTag, error) {
	return d.pool.Exec(ctx, sql)
}
