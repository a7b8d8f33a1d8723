// Code generated in the style of sqlc. Hand-maintained for this project
// because the generator is not run as part of the build; keep the shape
// (DBTX interface, Queries struct, New/WithTx) consistent with sqlc output
// so future codegen can drop in without touching call sites.
package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, letting Queries run
// against a pool or inside a transaction identically.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx DBTX) *Queries {
	return &Queries{db: tx}
}
