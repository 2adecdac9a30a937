package db

import (
	"context"
	"fmt"
	"log/slog"
)

// TransactionExecutor abstracts away the type of query a caller needs to run
// under a database transaction, and the set of options for that
// transaction. The QueryCreator is used to create a query given a database
// transaction created by the BatchedQuerier.
//
// A review run is single-threaded and cooperative within one invocation,
// and the CI system is assumed to serialize runs against the same data
// directory, so there is never a second writer to contend with. ExecTx
// therefore makes a single attempt per call rather than retrying on
// serialization or lock errors: the driver's own busy-timeout pragma
// already absorbs brief contention between the one writer and any
// concurrent readers, and a SQLITE_BUSY that survives that wait reflects a
// genuinely stuck database rather than a transient race worth backing off
// and reattempting.
type TransactionExecutor[Query any] struct {
	BatchedQuerier

	createQuery QueryCreator[Query]

	log *slog.Logger
}

// NewTransactionExecutor creates a new instance of a TransactionExecutor
// given a Querier query object and a concrete type for the type of
// transactions the Querier understands.
func NewTransactionExecutor[Querier any](db BatchedQuerier,
	createQuery QueryCreator[Querier], log *slog.Logger,
) *TransactionExecutor[Querier] {

	return &TransactionExecutor[Querier]{
		BatchedQuerier: db,
		createQuery:    createQuery,
		log:            log,
	}
}

// ExecTx is a wrapper for txBody to abstract the creation and commit of a db
// transaction. The db transaction is embedded in a query value that txBody
// uses to run the operations that need to be applied atomically.
func (t *TransactionExecutor[Q]) ExecTx(ctx context.Context,
	txOptions TxOptions, txBody func(Q) error,
) error {

	tx, err := t.BeginTx(ctx, txOptions)
	if err != nil {
		return MapSQLError(err)
	}

	// Rollback is safe to call even if the tx is already closed, so if
	// the tx commits successfully this is a no-op.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := txBody(t.createQuery(tx)); err != nil {
		t.log.DebugContext(ctx, "rolling back transaction after "+
			"query error", "error", err)

		return MapSQLError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit transaction: %w",
			MapSQLError(err))
	}

	return nil
}
