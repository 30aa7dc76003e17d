package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfirmation() *PaymentConfirmation {
	return &PaymentConfirmation{
		OrderID:   "order_abc",
		PaymentID: "pay_xyz",
		Signature: "9f2c1b",
	}
}

func TestRepository_SaveConfirmation_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		c := newConfirmation()
		mock.ExpectQuery(`INSERT INTO payment_confirmations`).
			WithArgs(c.OrderID, c.PaymentID, c.Signature).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

		dup, err := repo.SaveConfirmation(context.Background(), c, PolicyAppend)
		assert.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, int64(7), c.ID)
		assert.Equal(t, now, c.CreatedAt)
	})

	t.Run("RepeatedReportIsStoredAgain", func(t *testing.T) {
		c := newConfirmation()
		mock.ExpectQuery(`INSERT INTO payment_confirmations`).
			WithArgs(c.OrderID, c.PaymentID, c.Signature).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(8, now))

		dup, err := repo.SaveConfirmation(context.Background(), c, PolicyAppend)
		assert.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, int64(8), c.ID)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_confirmations`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.SaveConfirmation(context.Background(), newConfirmation(), PolicyAppend)

		var storeErr *StorageError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "insert confirmation", storeErr.Op)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveConfirmation_FirstOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("FirstReportStored", func(t *testing.T) {
		c := newConfirmation()
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(c.OrderID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO payment_confirmations .* WHERE NOT EXISTS`).
			WithArgs(c.OrderID, c.PaymentID, c.Signature).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
		mock.ExpectCommit()

		dup, err := repo.SaveConfirmation(context.Background(), c, PolicyDedupe)
		assert.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, int64(1), c.ID)
	})

	t.Run("DuplicateSuppressed", func(t *testing.T) {
		c := newConfirmation()
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(c.OrderID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO payment_confirmations .* WHERE NOT EXISTS`).
			WithArgs(c.OrderID, c.PaymentID, c.Signature).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
		mock.ExpectRollback()

		dup, err := repo.SaveConfirmation(context.Background(), c, PolicyReject)
		assert.NoError(t, err)
		assert.True(t, dup)
		assert.Zero(t, c.ID)
	})

	t.Run("BeginError", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		_, err := repo.SaveConfirmation(context.Background(), newConfirmation(), PolicyDedupe)

		var storeErr *StorageError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "begin transaction", storeErr.Op)
	})

	t.Run("LockError", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		_, err := repo.SaveConfirmation(context.Background(), newConfirmation(), PolicyDedupe)

		var storeErr *StorageError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "lock order", storeErr.Op)
	})

	t.Run("CommitError", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO payment_confirmations`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, time.Now()))
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		_, err := repo.SaveConfirmation(context.Background(), newConfirmation(), PolicyDedupe)

		var storeErr *StorageError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "commit confirmation", storeErr.Op)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, razorpay_order_id, razorpay_payment_id, razorpay_signature, created_at`).
			WithArgs("order_abc").
			WillReturnRows(sqlmock.NewRows([]string{"id", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature", "created_at"}).
				AddRow(1, "order_abc", "pay_xyz", "sig-1", now).
				AddRow(2, "order_abc", "pay_xyz", "sig-1", now))

		list, err := repo.ListByOrder(context.Background(), "order_abc")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "pay_xyz", list[0].PaymentID)
		assert.Equal(t, int64(2), list[1].ID)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id`).
			WithArgs("order_none").
			WillReturnRows(sqlmock.NewRows([]string{"id", "razorpay_order_id", "razorpay_payment_id", "razorpay_signature", "created_at"}))

		list, err := repo.ListByOrder(context.Background(), "order_none")
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id`).
			WillReturnError(errors.New("db down"))

		_, err := repo.ListByOrder(context.Background(), "order_abc")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
