package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
)

// TxManager owns transaction begin/commit/rollback so services never touch
// the raw database handle.
type TxManager interface {
	// RunInTx runs fn inside a transaction. Commit on nil, rollback on
	// error or panic. Deadlocks and lock timeouts come back as a transient
	// business error the caller may retry.
	RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type sqlTxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) TxManager {
	return &sqlTxManager{db: db}
}

func (m *sqlTxManager) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return translateLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateLockError(err)
	}

	return nil
}

// Postgres error codes surfaced by bounded lock waits.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

func translateLockError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return apperrors.WrapTransient(err)
		}
	}
	return err
}
