package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestTransactionManager_Commit(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE quiz_sessions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewTransactionManagerAdapter(db).WithTransaction(context.Background(), func(ctx context.Context) error {
		_, ok := ctx.Value(TransactionContextKey).(*sqlx.Tx)
		assert.True(t, ok)
		_, err := GetExecutor(ctx, db).ExecContext(ctx, `UPDATE quiz_sessions SET completed = true`)
		return err
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := errors.New("answer rejected")
	err := NewTransactionManagerAdapter(db).WithTransaction(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollbackOnPanic(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = NewTransactionManagerAdapter(db).WithTransaction(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_NestedJoinsOuter(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tm := NewTransactionManagerAdapter(db)
	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		outer := ctx.Value(TransactionContextKey)
		return tm.WithTransaction(ctx, func(inner context.Context) error {
			assert.Same(t, outer, inner.Value(TransactionContextKey))
			return nil
		})
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Both executors must satisfy DBTX for GetExecutor to hand out either one.
var (
	_ DBTX = (*sqlx.DB)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)

func TestGetExecutor(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Equal(t, DBTX(db), GetExecutor(context.Background(), db))

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	ctx := context.WithValue(context.Background(), TransactionContextKey, tx)
	assert.Equal(t, DBTX(tx), GetExecutor(ctx, db))
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
