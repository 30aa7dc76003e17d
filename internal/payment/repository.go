package payment

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists verified payment confirmations.
type Repository interface {
	// SaveConfirmation stores c and fills in its id and creation time.
	// duplicate is true when the policy suppressed the write because the
	// order already has a confirmation.
	SaveConfirmation(ctx context.Context, c *PaymentConfirmation, policy DuplicatePolicy) (duplicate bool, err error)
	ListByOrder(ctx context.Context, orderID string) ([]PaymentConfirmation, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const insertConfirmation = `
	INSERT INTO payment_confirmations (razorpay_order_id, razorpay_payment_id, razorpay_signature)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
`

const insertFirstConfirmation = `
	INSERT INTO payment_confirmations (razorpay_order_id, razorpay_payment_id, razorpay_signature)
	SELECT $1::text, $2::text, $3::text
	WHERE NOT EXISTS (
		SELECT 1 FROM payment_confirmations WHERE razorpay_order_id = $1::text
	)
	RETURNING id, created_at
`

func (r *repository) SaveConfirmation(
	ctx context.Context,
	c *PaymentConfirmation,
	policy DuplicatePolicy,
) (bool, error) {
	if policy == PolicyAppend || policy == "" {
		err := r.db.QueryRowContext(ctx, insertConfirmation, c.OrderID, c.PaymentID, c.Signature).
			Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			return false, &StorageError{Op: "insert confirmation", Err: err}
		}
		return false, nil
	}

	return r.saveFirstConfirmation(ctx, c)
}

// saveFirstConfirmation serialises writers for the same order with a
// transaction-scoped advisory lock, then inserts only if no row exists.
func (r *repository) saveFirstConfirmation(ctx context.Context, c *PaymentConfirmation) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, c.OrderID); err != nil {
		return false, &StorageError{Op: "lock order", Err: err}
	}

	err = tx.QueryRowContext(ctx, insertFirstConfirmation, c.OrderID, c.PaymentID, c.Signature).
		Scan(&c.ID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, &StorageError{Op: "insert confirmation", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return false, &StorageError{Op: "commit confirmation", Err: err}
	}
	return false, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID string) ([]PaymentConfirmation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, razorpay_order_id, razorpay_payment_id, razorpay_signature, created_at
		FROM payment_confirmations
		WHERE razorpay_order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, &StorageError{Op: "list confirmations", Err: err}
	}
	defer rows.Close()

	confirmations := []PaymentConfirmation{}
	for rows.Next() {
		var c PaymentConfirmation
		if err := rows.Scan(&c.ID, &c.OrderID, &c.PaymentID, &c.Signature, &c.CreatedAt); err != nil {
			return nil, &StorageError{Op: "scan confirmation", Err: err}
		}
		confirmations = append(confirmations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list confirmations", Err: err}
	}
	return confirmations, nil
}
