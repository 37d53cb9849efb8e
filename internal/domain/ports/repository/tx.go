package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within a
// database transaction, passing the underlying transaction handle via `tx`.
//
// - Keeps use-case interfaces clean (no transaction types leaking out).
// - Repository methods accept `tx Tx` and detect a live transaction
//   implementation-side, so a ledger insert and the status transition it gates
//   can share one atomic unit.
// - Repositories MUST gracefully accept nil tx (non-transactional path).
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
